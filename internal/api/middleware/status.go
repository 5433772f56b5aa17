package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// unmatchedRoute labels requests that hit no registered route, so scanners
// cannot mint new label values.
const unmatchedRoute = "unmatched"

// statusOf returns the status the client will see. A handler that returns
// an error before writing leaves the response at its zero status; echo's
// error handler writes the real one after the middleware chain unwinds.
func statusOf(c echo.Context, err error) int {
	if c.Response().Committed || err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// routeOf returns the route template, e.g. /api/v1/tokens/:profile. A 404
// whose route is empty or the raw URL path matched nothing.
func routeOf(c echo.Context, status int) string {
	p := c.Path()
	if p == "" || (status == http.StatusNotFound && p == c.Request().URL.Path) {
		return unmatchedRoute
	}
	return p
}

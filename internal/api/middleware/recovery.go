package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/danielgtaylor/huma/v2"
	"github.com/labstack/echo/v4"
)

// Recovery returns Echo middleware that turns a handler panic into a 500
// problem document. Token handlers and the health probes share it, so the
// response matches the error shape huma emits for every other failure.
func Recovery(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}

				req := c.Request()
				log.Error("panic recovered",
					"error", fmt.Sprint(r),
					"method", req.Method,
					"path", req.URL.Path,
					"request_id", c.Response().Header().Get(requestIDHeader),
					"stack", string(debug.Stack()),
				)

				if c.Response().Committed {
					return
				}
				problem := huma.ErrorModel{
					Title:  http.StatusText(http.StatusInternalServerError),
					Status: http.StatusInternalServerError,
					Detail: "internal server error",
				}
				c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
				err = c.JSON(http.StatusInternalServerError, problem)
			}()
			return next(c)
		}
	}
}

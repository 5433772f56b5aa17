// Package openapi serves a Swagger UI for the keep-alive API. The document
// itself is generated by huma at /openapi.json.
package openapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// SpecPath is where huma serves the generated OpenAPI document.
const SpecPath = "/openapi.json"

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>etsyctl keepalive API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "` + SpecPath + `",
      dom_id: "#swagger-ui",
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: "BaseLayout",
    });
  </script>
</body>
</html>`

// RegisterRoutes adds the Swagger UI routes to the Echo instance.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/swagger/index.html", serveUI)
	e.GET("/swagger", redirectToUI)
	e.GET("/swagger/", redirectToUI)
}

func serveUI(c echo.Context) error {
	return c.HTML(http.StatusOK, swaggerUIHTML)
}

func redirectToUI(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
}

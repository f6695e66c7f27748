package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/research-copilot/backend/internal/research"
)

// App holds the process-wide collaborators shared by all request handlers.
type App struct {
	Research *research.Service
}

// AppContext wraps the echo context with the application state.
type AppContext struct {
	echo.Context
	App *App
}

// AppContextMiddleware injects the shared App into every request context.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}

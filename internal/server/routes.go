package server

import (
	"github.com/labstack/echo/v4"

	"github.com/research-copilot/backend/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")

	api.GET("/health", routes.HealthHandler)
	api.POST("/research", routes.ResearchHandler)
	api.POST("/chat", routes.ChatHandler)
}

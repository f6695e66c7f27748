package routes

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/research-copilot/backend/internal/research"
	"github.com/research-copilot/backend/internal/server/middleware"
	"github.com/research-copilot/backend/pkg/logger"
)

func ResearchHandler(c echo.Context) error {
	type researchParams struct {
		Topic string `json:"topic" validate:"required"`
	}

	type researchResponse struct {
		Success bool            `json:"success"`
		Data    research.Result `json:"data"`
	}

	params := new(researchParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Topic is required"})
	}

	params.Topic = strings.TrimSpace(params.Topic)
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Topic is required"})
	}

	logger.Info("processing research request", "topic", params.Topic)

	svc := c.(*middleware.AppContext).App.Research
	result, err := svc.StartResearch(c.Request().Context(), params.Topic)
	if err != nil {
		logger.Error("research request failed", "topic", params.Topic, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "Failed to process research request",
			"message": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, researchResponse{
		Success: true,
		Data:    result,
	})
}

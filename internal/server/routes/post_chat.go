package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/research-copilot/backend/internal/research"
	"github.com/research-copilot/backend/internal/server/middleware"
	"github.com/research-copilot/backend/pkg/logger"
)

func ChatHandler(c echo.Context) error {
	type chatParams struct {
		SessionID string `json:"sessionId" validate:"required"`
		Message   string `json:"message" validate:"required"`
	}

	type chatResponse struct {
		Success bool   `json:"success"`
		Answer  string `json:"answer"`
	}

	params := new(chatParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Session ID and message are required"})
	}

	params.SessionID = strings.TrimSpace(params.SessionID)
	params.Message = strings.TrimSpace(params.Message)
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Session ID and message are required"})
	}

	logger.Debug("chat request", "session_id", params.SessionID)

	svc := c.(*middleware.AppContext).App.Research
	answer, err := svc.Chat(c.Request().Context(), params.SessionID, params.Message)
	if err != nil {
		if errors.Is(err, research.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "Session not found. Please generate a new research report.",
			})
		}

		logger.Error("chat request failed", "session_id", params.SessionID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "Failed to process chat message",
			"message": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, chatResponse{
		Success: true,
		Answer:  answer,
	})
}

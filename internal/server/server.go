package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/research-copilot/backend/internal/research"
	mid "github.com/research-copilot/backend/internal/server/middleware"
	"github.com/research-copilot/backend/internal/session"
	"github.com/research-copilot/backend/internal/util"
	"github.com/research-copilot/backend/pkg/ai"
	oai "github.com/research-copilot/backend/pkg/ai/ollama"
	gai "github.com/research-copilot/backend/pkg/ai/openai"
	"github.com/research-copilot/backend/pkg/arxiv"
	"github.com/research-copilot/backend/pkg/logger"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aiClient := newAIClient()

	sessions := session.NewStore(session.Config{
		TTL:         time.Duration(util.GetEnvNumeric("SESSION_TTL_MINUTES", 60)) * time.Minute,
		MaxSessions: int(util.GetEnvNumeric("SESSION_MAX_COUNT", 1000)),
	})

	svc := research.NewService(research.NewServiceParams{
		Arxiv:    arxiv.NewClient(util.GetEnv("ARXIV_BASE_URL")),
		Client:   aiClient,
		Sessions: sessions,
		Timeout:  time.Duration(util.GetEnvNumeric("AI_TIMEOUT_SECONDS", 120)) * time.Second,
	})

	e.Use(mid.AppContextMiddleware(&mid.App{Research: svc}))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "5000"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}

// newAIClient selects the generative-text provider from AI_ADAPTER.
// OpenAI-compatible endpoints are the default; "ollama" targets a local
// Ollama server instead.
func newAIClient() ai.Client {
	switch util.GetEnv("AI_ADAPTER") {
	case "ollama":
		client, err := oai.NewCopilotOllamaClient(oai.NewCopilotOllamaClientParams{
			ChatModel: util.GetEnvString("AI_CHAT_MODEL", "llama3.1"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		return client
	default:
		return gai.NewCopilotOpenAIClient(gai.NewCopilotOpenAIClientParams{
			ChatModel: util.GetEnvString("AI_CHAT_MODEL", "gpt-4o-mini"),

			ChatURL: util.GetEnv("AI_CHAT_URL"),
			ChatKey: util.GetEnv("AI_CHAT_KEY"),
		})
	}
}

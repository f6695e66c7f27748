package openai

import (
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/research-copilot/backend/pkg/ai"
)

// CopilotOpenAIClient is an ai.Client backed by an OpenAI-compatible chat
// completion endpoint. It is the default generative-text provider.
//
// A CopilotOpenAIClient should be created using NewCopilotOpenAIClient.
type CopilotOpenAIClient struct {
	chatModel string

	chatURL string
	chatKey string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient *openai.Client
}

// NewCopilotOpenAIClientParams defines the configuration parameters for
// creating a new CopilotOpenAIClient.
//
// ChatModel specifies the default model used for generation.
// ChatURL and ChatKey configure the chat/completion API endpoint; an empty
// ChatURL uses the official OpenAI endpoint.
type NewCopilotOpenAIClientParams struct {
	ChatModel string

	ChatURL string
	ChatKey string
}

// NewCopilotOpenAIClient creates and returns a new CopilotOpenAIClient
// configured with the provided parameters.
//
// Example:
//
//	params := openai.NewCopilotOpenAIClientParams{
//		ChatModel: "gpt-4o-mini",
//		ChatKey:   os.Getenv("AI_CHAT_KEY"),
//	}
//	client := openai.NewCopilotOpenAIClient(params)
func NewCopilotOpenAIClient(
	params NewCopilotOpenAIClientParams,
) *CopilotOpenAIClient {
	chatClient := newOpenaiClient(params.ChatURL, params.ChatKey)

	return &CopilotOpenAIClient{
		chatModel: params.ChatModel,

		chatURL: params.ChatURL,
		chatKey: params.ChatKey,

		metricsLock: sync.Mutex{},
		metrics: ai.ModelMetrics{
			InputTokens:  0,
			OutputTokens: 0,
			TotalTokens:  0,
			DurationMs:   0,
		},

		ChatClient: chatClient,
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}

func (c *CopilotOpenAIClient) modifyMetrics(delta ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += delta.InputTokens
	c.metrics.OutputTokens += delta.OutputTokens
	c.metrics.TotalTokens += delta.TotalTokens
	c.metrics.DurationMs += delta.DurationMs
}

// ResetMetrics clears the accumulated model metrics.
func (c *CopilotOpenAIClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics = ai.ModelMetrics{}
}

// GetMetrics returns a snapshot of the accumulated model metrics.
func (c *CopilotOpenAIClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	return c.metrics
}

package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/research-copilot/backend/internal/session"
	"github.com/research-copilot/backend/internal/util"
	"github.com/research-copilot/backend/pkg/ai"
	"github.com/research-copilot/backend/pkg/arxiv"
	"github.com/research-copilot/backend/pkg/logger"
	"github.com/research-copilot/backend/pkg/mindmap"
	"github.com/research-copilot/backend/pkg/report"
)

// ErrSessionNotFound signals a chat request against an unknown or expired
// session id.
var ErrSessionNotFound = errors.New("session not found")

const (
	// maxPapers bounds both the arXiv query and the response payload.
	maxPapers = 5

	// reportExcerptLimit bounds how much of the stored report is replayed
	// into each chat prompt.
	reportExcerptLimit = 2000

	// historyWindow is how many trailing history lines each chat prompt
	// carries for context.
	historyWindow = 6

	defaultTimeout = 120 * time.Second
)

// Service composes the paper fetcher, the generative-text client and the
// session store behind the research and chat operations. It is constructed
// once at server start and shared across requests.
type Service struct {
	arxiv    *arxiv.Client
	client   ai.Client
	sessions *session.Store
	timeout  time.Duration
}

// NewServiceParams holds the collaborators for a research Service.
// Timeout bounds each generative-text call; zero uses the default.
type NewServiceParams struct {
	Arxiv    *arxiv.Client
	Client   ai.Client
	Sessions *session.Store
	Timeout  time.Duration
}

// NewService creates a research Service from its collaborators.
func NewService(params NewServiceParams) *Service {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{
		arxiv:    params.Arxiv,
		client:   params.Client,
		sessions: params.Sessions,
		timeout:  timeout,
	}
}

// Result is the payload of a completed research request.
type Result struct {
	Papers    []arxiv.Paper `json:"papers"`
	Report    string        `json:"report"`
	MindMap   mindmap.Node  `json:"mindMap"`
	SessionID string        `json:"sessionId"`
}

// StartResearch runs the full pipeline for a topic: fetch papers, then
// generate the report and the mind map side by side, then open a chat
// session over the results. A topic with no papers short-circuits to
// templated guidance without any generative-text call.
func (s *Service) StartResearch(ctx context.Context, topic string) (Result, error) {
	papers := s.arxiv.Search(ctx, topic, maxPapers)

	if len(papers) == 0 {
		logger.Info("no papers found", "topic", topic)
		guidance := report.EmptyGuidance(topic)
		sessionID := s.sessions.Create(topic, papers, guidance)
		return Result{
			Papers: []arxiv.Paper{},
			Report: guidance,
			MindMap: mindmap.Node{
				Name: topic,
				Children: []mindmap.Node{
					{Name: "No papers found", Children: []mindmap.Node{}},
				},
			},
			SessionID: sessionID,
		}, nil
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		reportText string
		tree       mindmap.Node
	)

	s.client.ResetMetrics()

	// Both branches absorb their own provider failures, so the group only
	// carries a context error.
	g, gCtx := errgroup.WithContext(genCtx)
	g.Go(func() error {
		reportText = report.Synthesize(gCtx, s.client, topic, papers)
		return nil
	})
	g.Go(func() error {
		tree = mindmap.Generate(gCtx, s.client, topic, papers)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("research generation failed: %w", err)
	}

	sessionID := s.sessions.Create(topic, papers, reportText)
	logger.Info("research complete", "topic", topic, "papers", len(papers), "session_id", sessionID)

	usage := s.client.GetMetrics()
	logger.Debug("model usage",
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
		"duration_ms", usage.DurationMs,
	)

	if len(papers) > maxPapers {
		papers = papers[:maxPapers]
	}

	return Result{
		Papers:    papers,
		Report:    reportText,
		MindMap:   tree,
		SessionID: sessionID,
	}, nil
}

// Chat answers a follow-up question against an existing session, then
// records the exchange in the session history. The topic and report ride
// as a system prompt while the stored history replays as chat turns. The
// generative-text call is attempted exactly once; its failure surfaces to
// the caller.
func (s *Service) Chat(ctx context.Context, sessionID string, message string) (string, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return "", ErrSessionNotFound
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msgs := append(historyMessages(sess.History), ai.ChatMessage{
		Role:    "user",
		Message: message,
	})

	answer, err := s.client.GenerateChat(genCtx, msgs,
		ai.WithSystemPrompts(buildChatSystemPrompt(sess)),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate chat reply: %w", err)
	}

	s.sessions.AppendTurn(sessionID, message, answer)

	return answer, nil
}

// historyMessages replays the newest stored history lines as chat turns.
func historyMessages(history []string) []ai.ChatMessage {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	msgs := make([]ai.ChatMessage, 0, len(history)+1)
	for _, line := range history {
		switch {
		case strings.HasPrefix(line, "User: "):
			msgs = append(msgs, ai.ChatMessage{
				Role:    "user",
				Message: strings.TrimPrefix(line, "User: "),
			})
		case strings.HasPrefix(line, "Assistant: "):
			msgs = append(msgs, ai.ChatMessage{
				Role:    "assistant",
				Message: strings.TrimPrefix(line, "Assistant: "),
			})
		}
	}

	return msgs
}

func buildChatSystemPrompt(sess session.Session) string {
	excerpt := util.TruncateString(sess.Report, reportExcerptLimit)

	return fmt.Sprintf(`You are a helpful research assistant discussing "%s".

Based on this research report:
%s

Provide a concise, informative response. Be friendly but professional.`,
		sess.Topic, excerpt)
}

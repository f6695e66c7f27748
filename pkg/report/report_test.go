package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/research-copilot/backend/pkg/ai"
	"github.com/research-copilot/backend/pkg/arxiv"
)

type fakeClient struct {
	reply string
	err   error

	calls   int
	prompts []string
}

func (f *fakeClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeClient) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	return errors.New("not implemented")
}

func (f *fakeClient) GenerateChat(ctx context.Context, messages []ai.ChatMessage, opts ...ai.GenerateOption) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeClient) ResetMetrics() {}

func (f *fakeClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func TestSynthesizeNoPapers(t *testing.T) {
	client := &fakeClient{}

	text := Synthesize(context.Background(), client, "obscure subfield", nil)
	if client.calls != 0 {
		t.Fatal("model invoked despite empty paper set")
	}
	if !strings.Contains(text, `No research papers found for "obscure subfield"`) {
		t.Fatalf("unexpected guidance text: %q", text)
	}
	if !strings.Contains(text, "Try searching for:") {
		t.Fatalf("guidance missing suggestions: %q", text)
	}
}

func TestSynthesizeReturnsModelText(t *testing.T) {
	client := &fakeClient{reply: "EXECUTIVE SUMMARY\nAll good."}

	text := Synthesize(context.Background(), client, "topic", []arxiv.Paper{
		{Title: "Paper One", Summary: "summary one"},
	})
	if text != "EXECUTIVE SUMMARY\nAll good." {
		t.Fatalf("unexpected report: %q", text)
	}
	if client.calls != 1 {
		t.Fatalf("unexpected call count: %d", client.calls)
	}
}

func TestSynthesizeAbsorbsModelFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("401 invalid api key")}

	text := Synthesize(context.Background(), client, "topic", []arxiv.Paper{
		{Title: "Paper One", Summary: "summary one"},
	})
	if !strings.Contains(text, "Error generating report: 401 invalid api key") {
		t.Fatalf("unexpected failure text: %q", text)
	}
	if !strings.Contains(text, "credentials are valid") {
		t.Fatalf("failure text missing guidance: %q", text)
	}
}

func TestBuildPromptCapsPapers(t *testing.T) {
	papers := []arxiv.Paper{
		{Title: "One", Summary: "s1"},
		{Title: "Two", Summary: "s2"},
		{Title: "Three", Summary: "s3"},
		{Title: "Four", Summary: "s4"},
		{Title: "Five", Summary: "s5"},
	}

	prompt := buildPrompt("topic", papers)
	for _, want := range []string{`Paper 1: "One"`, `Paper 2: "Two"`, `Paper 3: "Three"`} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "Four") || strings.Contains(prompt, "Paper 4") {
		t.Fatal("prompt includes papers beyond the cap")
	}
}

func TestBuildPromptTruncatesSummaries(t *testing.T) {
	long := strings.Repeat("z", 400)
	prompt := buildPrompt("topic", []arxiv.Paper{{Title: "Paper", Summary: long}})

	if strings.Contains(prompt, long) {
		t.Fatal("prompt contains the full summary")
	}
	if !strings.Contains(prompt, strings.Repeat("z", promptSummaryLimit)+"...") {
		t.Fatal("prompt missing the truncated summary")
	}
}

func TestBuildPromptTruncatesSummariesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 400)
	prompt := buildPrompt("topic", []arxiv.Paper{{Title: "Paper", Summary: long}})

	if !utf8.ValidString(prompt) {
		t.Fatal("prompt is not valid UTF-8")
	}
	if strings.Contains(prompt, long) {
		t.Fatal("prompt contains the full summary")
	}
}

func TestBuildPromptSections(t *testing.T) {
	prompt := buildPrompt("graph theory", []arxiv.Paper{{Title: "Paper", Summary: "s"}})

	sections := []string{
		"EXECUTIVE SUMMARY",
		"KEY FINDINGS",
		"METHODOLOGY OVERVIEW",
		"DETAILED ANALYSIS",
		"FUTURE RESEARCH DIRECTIONS",
		"CONCLUSION",
	}
	for _, section := range sections {
		if !strings.Contains(prompt, section) {
			t.Fatalf("prompt missing section %q", section)
		}
	}
	if !strings.Contains(prompt, `about "graph theory"`) {
		t.Fatal("prompt missing topic")
	}
}

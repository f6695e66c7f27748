package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/research-copilot/backend/internal/util"
	"github.com/research-copilot/backend/pkg/ai"
	"github.com/research-copilot/backend/pkg/arxiv"
	"github.com/research-copilot/backend/pkg/logger"
)

// promptSummaryLimit bounds each paper abstract inside the prompt so three
// papers plus the section skeleton stay well inside small model contexts.
const promptSummaryLimit = 300

// Synthesize builds a research report for the topic from the given papers.
// With no papers it returns templated guidance without calling the model.
// A model failure is absorbed into a templated apology that carries the
// underlying reason; Synthesize never returns an error to the caller.
func Synthesize(ctx context.Context, client ai.Client, topic string, papers []arxiv.Paper) string {
	if len(papers) == 0 {
		return EmptyGuidance(topic)
	}

	prompt := buildPrompt(topic, papers)
	logPromptSize(prompt)

	text, err := client.GenerateCompletion(ctx, prompt)
	if err != nil {
		logger.Error("report generation failed", "topic", topic, "err", err)
		return fmt.Sprintf("Error generating report: %s. Please ensure your AI provider credentials are valid.", err.Error())
	}

	return text
}

// EmptyGuidance is the report text returned when the literature search
// found nothing. The suggestions mirror the kinds of queries arXiv indexes
// well.
func EmptyGuidance(topic string) string {
	return fmt.Sprintf("No research papers found for %q. Try searching for:\n"+
		"- A broader topic (e.g., \"machine learning\" instead of specific algorithms)\n"+
		"- Academic terms (e.g., \"neural networks\", \"quantum computing\")\n"+
		"- Research areas (e.g., \"computer vision\", \"natural language processing\")", topic)
}

func buildPrompt(topic string, papers []arxiv.Paper) string {
	contexts := make([]string, 0, 3)
	for i, paper := range papers {
		if i == 3 {
			break
		}
		summary := util.TruncateString(paper.Summary, promptSummaryLimit)
		contexts = append(contexts, fmt.Sprintf("Paper %d: %q - %s...", i+1, paper.Title, summary))
	}

	return fmt.Sprintf(`Based on these research papers about "%s", create a comprehensive research report.

Papers:
%s

Write a formal research synthesis with these sections:

EXECUTIVE SUMMARY
Provide a 2-3 sentence overview of the key insights.

KEY FINDINGS
List 3-5 main discoveries or insights from the papers.

METHODOLOGY OVERVIEW
Briefly describe the research approaches mentioned.

DETAILED ANALYSIS
Write 2-3 paragraphs analyzing the research findings.

FUTURE RESEARCH DIRECTIONS
Suggest 2-3 areas for future investigation.

CONCLUSION
Summarize in 2-3 sentences.

Use formal academic language and be specific.`, topic, strings.Join(contexts, "\n\n"))
}

func logPromptSize(prompt string) {
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return
	}
	logger.Debug("report prompt built", "tokens", len(enc.Encode(prompt, nil, nil)))
}

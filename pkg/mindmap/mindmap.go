package mindmap

import (
	"context"
	"fmt"
	"strings"

	"github.com/research-copilot/backend/internal/util"
	"github.com/research-copilot/backend/pkg/ai"
	"github.com/research-copilot/backend/pkg/arxiv"
	"github.com/research-copilot/backend/pkg/logger"
)

// Node is one node of a topic mind map. Children is nil for leaves, so a
// whole map is a rooted tree with the topic at the root.
type Node struct {
	Name     string `json:"name"`
	Children []Node `json:"children,omitempty"`
}

const titleLeafLimit = 30

// Generate produces a mind map for the topic from the given papers.
// It first asks the model for schema-constrained output; if the provider
// rejects that, it retries as a free-text completion and recovers the JSON
// embedded in the reply. It always returns a usable tree: every failure
// path ends in the deterministic fallback.
func Generate(ctx context.Context, client ai.Client, topic string, papers []arxiv.Paper) Node {
	if len(papers) == 0 {
		return Node{
			Name: topic,
			Children: []Node{
				{Name: "No data available", Children: []Node{}},
			},
		}
	}

	prompt := buildPrompt(topic, papers)

	var node Node
	err := client.GenerateCompletionWithFormat(
		ctx,
		"mind_map",
		"Hierarchical topic breakdown with a root name and nested children",
		prompt,
		&node,
	)
	if err == nil {
		return node
	}
	logger.Warn("structured mind map generation failed, retrying as free text", "err", err)

	text, err := client.GenerateCompletion(ctx, prompt)
	if err != nil {
		logger.Warn("mind map generation failed, using fallback", "err", err)
		return Fallback(topic, papers)
	}

	return Recover(text, topic, papers)
}

// Recover locates the first balanced brace-delimited region in generated
// text and parses it as a Node. If no such region exists or parsing fails,
// it returns the deterministic fallback tree. Recover is total: it always
// returns a well-formed tree.
func Recover(text string, topic string, seed []arxiv.Paper) Node {
	candidate, ok := firstBalancedObject(text)
	if !ok {
		return Fallback(topic, seed)
	}

	var node Node
	if err := ai.UnmarshalFlexible(candidate, &node); err != nil {
		logger.Debug("mind map candidate did not parse", "err", err)
		return Fallback(topic, seed)
	}

	return node
}

// Fallback builds the default mind map from known inputs. It performs no
// I/O and is deterministic: the same topic and seed always produce the
// same tree.
func Fallback(topic string, seed []arxiv.Paper) Node {
	titles := make([]Node, 0, 3)
	for _, paper := range seed {
		if len(titles) == 3 {
			break
		}
		title := paper.Title
		if len(title) > titleLeafLimit {
			title = util.TruncateString(title, titleLeafLimit) + "..."
		}
		titles = append(titles, Node{Name: title})
	}

	return Node{
		Name: topic,
		Children: []Node{
			{
				Name:     "Research Papers",
				Children: titles,
			},
			{
				Name: "Key Themes",
				Children: []Node{
					{Name: "Current Research"},
					{Name: "Methodologies"},
					{Name: "Applications"},
				},
			},
			{
				Name: "Future Directions",
				Children: []Node{
					{Name: "Open Questions"},
					{Name: "Emerging Trends"},
				},
			},
		},
	}
}

// firstBalancedObject scans text for the first '{' whose matching '}'
// closes it, tracking string literals and escapes so braces inside quoted
// values don't end the region early. Reporting only the first balanced
// region keeps prose braces after the object from swallowing trailing text.
func firstBalancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	for start != -1 {
		depth := 0
		inString := false
		escaped := false

		for i := start; i < len(text); i++ {
			ch := text[i]

			if inString {
				switch {
				case escaped:
					escaped = false
				case ch == '\\':
					escaped = true
				case ch == '"':
					inString = false
				}
				continue
			}

			switch ch {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}

		// Unbalanced from this opener; try the next one.
		next := strings.IndexByte(text[start+1:], '{')
		if next == -1 {
			break
		}
		start = start + 1 + next
	}

	return "", false
}

func buildPrompt(topic string, papers []arxiv.Paper) string {
	titles := make([]string, 0, 3)
	for _, paper := range papers {
		if len(titles) == 3 {
			break
		}
		titles = append(titles, paper.Title)
	}

	return fmt.Sprintf(`Create a mind map for "%s" based on these papers: %s

Return ONLY valid JSON in this exact format with no additional text:
{
  "name": "%s",
  "children": [
    {
      "name": "subtopic1",
      "children": [
        {"name": "concept1"},
        {"name": "concept2"}
      ]
    },
    {
      "name": "subtopic2",
      "children": [
        {"name": "concept3"},
        {"name": "concept4"}
      ]
    },
    {
      "name": "subtopic3",
      "children": [
        {"name": "concept5"},
        {"name": "concept6"}
      ]
    }
  ]
}`, topic, strings.Join(titles, ", "), topic)
}

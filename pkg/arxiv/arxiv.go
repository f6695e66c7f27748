package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/research-copilot/backend/internal/util"
	"github.com/research-copilot/backend/pkg/logger"
)

const (
	// DefaultBaseURL is the public arXiv query endpoint.
	DefaultBaseURL = "http://export.arxiv.org/api/query"

	// summaryLimit is the display bound for abstracts; longer summaries are
	// cut here and marked with an ellipsis.
	summaryLimit = 500

	// maxAuthors caps the author list on each returned paper.
	maxAuthors = 3

	// cacheLimit bounds the per-query result cache. The cache exists to
	// shield arXiv's rate limits, not to be complete, so an arbitrary
	// entry is dropped once full.
	cacheLimit = 256
)

// Paper is a single bibliographic record extracted from an arXiv feed entry.
// Title and Summary are always non-empty; entries missing either are dropped.
type Paper struct {
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Authors   []string `json:"authors"`
	Published string   `json:"published,omitempty"`
	Link      string   `json:"link,omitempty"`
}

// Atom feed layout of the arXiv query API.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Authors   []atomAuthor `xml:"author"`
	Published string       `xml:"published"`
	ID        string       `xml:"id"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

// Client fetches paper metadata from the arXiv search API. Results are
// cached per query and concurrent identical queries are coalesced, since
// arXiv rate-limits aggressively.
type Client struct {
	baseURL    string
	httpClient *http.Client

	cache   map[string][]Paper
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewClient creates an arXiv client against the given base URL.
// An empty baseURL uses the public arXiv endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		cache: make(map[string][]Paper),
	}
}

// Search queries arXiv for papers matching the query and returns at most
// maxResults records in feed order. Search never fails: transport errors,
// non-200 responses and unparseable feeds all degrade to an empty result,
// which callers present as "no papers found".
func (c *Client) Search(ctx context.Context, query string, maxResults int) []Paper {
	if maxResults <= 0 {
		maxResults = 5
	}

	key := fmt.Sprintf("%s|%d", query, maxResults)

	c.cacheMu.RLock()
	if cached, ok := c.cache[key]; ok {
		c.cacheMu.RUnlock()
		return cached
	}
	c.cacheMu.RUnlock()

	result, err, _ := c.group.Do(key, func() (any, error) {
		endpoint := fmt.Sprintf(
			"%s?search_query=all:%s&start=0&max_results=%d",
			c.baseURL, url.QueryEscape(query), maxResults,
		)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch from arXiv: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("arXiv returned status: %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		papers := parseFeed(body)

		c.cacheMu.Lock()
		if len(c.cache) >= cacheLimit {
			for stale := range c.cache {
				delete(c.cache, stale)
				break
			}
		}
		c.cache[key] = papers
		c.cacheMu.Unlock()

		return papers, nil
	})
	if err != nil {
		logger.Warn("arXiv search failed", "query", query, "err", err)
		return []Paper{}
	}

	return result.([]Paper)
}

// parseFeed extracts papers from an Atom feed body. Entries without a title
// or summary are skipped without disturbing the order of the rest.
func parseFeed(body []byte) []Paper {
	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		logger.Warn("failed to decode arXiv feed", "err", err)
		return []Paper{}
	}

	papers := make([]Paper, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		title := collapseWhitespace(entry.Title)
		summary := collapseWhitespace(entry.Summary)
		if title == "" || summary == "" {
			continue
		}

		if len(summary) > summaryLimit {
			summary = util.TruncateString(summary, summaryLimit) + "..."
		}

		authors := make([]string, 0, maxAuthors)
		for _, author := range entry.Authors {
			name := strings.TrimSpace(author.Name)
			if name == "" {
				continue
			}
			authors = append(authors, name)
			if len(authors) == maxAuthors {
				break
			}
		}

		papers = append(papers, Paper{
			Title:     title,
			Summary:   summary,
			Authors:   authors,
			Published: strings.TrimSpace(entry.Published),
			Link:      strings.TrimSpace(entry.ID),
		})
	}

	return papers
}

// collapseWhitespace trims the value and folds embedded line breaks and
// indentation (arXiv wraps long fields) into single spaces.
func collapseWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

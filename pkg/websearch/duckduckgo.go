package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Result is one ranked web hit.
type Result struct {
	Title   string
	Snippet string
	URL     string
}

// Searcher is the external web search collaborator.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

const maxResults = 5

// DuckDuckGo queries the DuckDuckGo Instant Answer API. It needs no API key,
// which is why the original pipeline fell back to it.
type DuckDuckGo struct {
	baseURL string
	client  *http.Client
}

var _ Searcher = &DuckDuckGo{}

func NewDuckDuckGo() *DuckDuckGo {
	return &DuckDuckGo{
		baseURL: "https://api.duckduckgo.com",
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewDuckDuckGoWithBaseURL exists for tests.
func NewDuckDuckGoWithBaseURL(baseURL string) *DuckDuckGo {
	d := NewDuckDuckGo()
	d.baseURL = baseURL
	return d
}

type instantAnswerResponse struct {
	RelatedTopics []relatedTopic `json:"RelatedTopics"`
}

type relatedTopic struct {
	Text     string `json:"Text"`
	FirstURL string `json:"FirstURL"`
}

func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]Result, error) {
	endpoint := fmt.Sprintf(
		"%s/?q=%s&format=json&no_html=1&skip_disambig=1",
		d.baseURL,
		url.QueryEscape(query),
	)

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo api failed: status %d", resp.StatusCode)
	}

	var data instantAnswerResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode duckduckgo response: %w", err)
	}

	var out []Result
	for _, topic := range data.RelatedTopics {
		if topic.Text == "" {
			continue
		}
		// Topic text reads "Title - description"; the part before the
		// separator doubles as the title.
		title := topic.Text
		if idx := strings.Index(topic.Text, " - "); idx > 0 {
			title = topic.Text[:idx]
		}
		out = append(out, Result{
			Title:   title,
			Snippet: topic.Text,
			URL:     topic.FirstURL,
		})
		if len(out) == maxResults {
			break
		}
	}

	return out, nil
}

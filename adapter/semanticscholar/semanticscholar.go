// Package semanticscholar provides a literature adapter over the Semantic
// Scholar Graph API.
package semanticscholar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/UIDickinson/EE-RI-Bot/adapter"
	"github.com/UIDickinson/EE-RI-Bot/core"
	"github.com/UIDickinson/EE-RI-Bot/logging"
)

// Options configures the Semantic Scholar adapter.
type Options struct {
	// BaseURL is the paper search endpoint.
	BaseURL string
	// MaxResults bounds hits per query.
	MaxResults int
	// YearRange optionally restricts publication years ("2023-2025").
	YearRange string
	// APIKey raises the unauthenticated rate limits when set.
	APIKey string
	// HTTPClient overrides the transport.
	HTTPClient *http.Client
	// Limiter throttles calls to the upstream.
	Limiter *rate.Limiter
	// Logger receives per-call diagnostics.
	Logger logging.Logger
}

// Adapter implements core.Adapter for Semantic Scholar.
type Adapter struct {
	opts   Options
	client *http.Client
	logger logging.Logger
}

// New constructs the adapter with defaults overridable via functional
// options.
func New(optFns ...func(o *Options)) *Adapter {
	opts := Options{
		BaseURL:    "https://api.semanticscholar.org/graph/v1/paper/search",
		MaxResults: 30,
		Limiter:    adapter.NewLimiter(0),
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Adapter{opts: opts, client: client, logger: opts.Logger}
}

// Name implements core.Adapter.
func (a *Adapter) Name() string { return "semantic_scholar" }

// Search implements core.Adapter.
func (a *Adapter) Search(ctx context.Context, query string) ([]core.SearchResult, error) {
	if err := a.opts.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"query":  {query},
		"limit":  {strconv.Itoa(a.opts.MaxResults)},
		"fields": {"title,authors,abstract,year,venue,url,openAccessPdf"},
	}
	if a.opts.YearRange != "" {
		params.Set("year", a.opts.YearRange)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.opts.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build semantic scholar request: %w", err)
	}
	if a.opts.APIKey != "" {
		req.Header.Set("x-api-key", a.opts.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, core.Transient(fmt.Errorf("semantic scholar request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, adapter.ClassifyHTTPStatus("semantic_scholar", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("parse semantic scholar response: %w", err)
	}

	results := make([]core.SearchResult, 0, len(payload.Data))
	for _, paper := range payload.Data {
		results = append(results, paper.toResult())
	}

	a.logger.Debug("semantic scholar search returned %d results for %q", len(results), query)

	return results, nil
}

type searchResponse struct {
	Total int     `json:"total"`
	Data  []paper `json:"data"`
}

type paper struct {
	PaperID  string `json:"paperId"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	Year     int    `json:"year"`
	Venue    string `json:"venue"`
	URL      string `json:"url"`
	Authors  []struct {
		Name string `json:"name"`
	} `json:"authors"`
	OpenAccessPdf struct {
		URL string `json:"url"`
	} `json:"openAccessPdf"`
}

func (p paper) toResult() core.SearchResult {
	authors := make([]string, 0, len(p.Authors))
	for _, au := range p.Authors {
		authors = append(authors, au.Name)
	}

	year := ""
	if p.Year > 0 {
		year = strconv.Itoa(p.Year)
	}

	return core.SearchResult{
		ID:      p.PaperID,
		Title:   p.Title,
		Snippet: p.Abstract,
		Authors: authors,
		Year:    year,
		URL:     p.URL,
		Source:  "Semantic Scholar",
		Metadata: map[string]any{
			"venue":   p.Venue,
			"pdf_url": p.OpenAccessPdf.URL,
		},
	}
}

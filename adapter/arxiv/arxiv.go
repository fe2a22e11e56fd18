// Package arxiv provides a literature adapter over the arXiv Atom API.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/UIDickinson/EE-RI-Bot/adapter"
	"github.com/UIDickinson/EE-RI-Bot/core"
	"github.com/UIDickinson/EE-RI-Bot/logging"
)

// Options configures the arXiv adapter.
type Options struct {
	// BaseURL is the Atom query endpoint.
	BaseURL string
	// MaxResults bounds hits per query.
	MaxResults int
	// SortBy is "relevance", "lastUpdatedDate" or "submittedDate".
	SortBy string
	// SortOrder is "ascending" or "descending".
	SortOrder string
	// Categories optionally restricts hits to arXiv categories (e.g.
	// "eess.SY", "cs.AR").
	Categories []string
	// HTTPClient overrides the transport; its timeout should stay below the
	// pipeline's adapter timeout.
	HTTPClient *http.Client
	// Limiter throttles calls to the upstream.
	Limiter *rate.Limiter
	// Logger receives per-call diagnostics.
	Logger logging.Logger
}

// Adapter implements core.Adapter for arXiv.
type Adapter struct {
	opts   Options
	client *http.Client
	logger logging.Logger
}

// New constructs the adapter with defaults overridable via functional
// options.
func New(optFns ...func(o *Options)) *Adapter {
	opts := Options{
		BaseURL:    "http://export.arxiv.org/api/query",
		MaxResults: 30,
		SortBy:     "relevance",
		SortOrder:  "descending",
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
func (a *Adapter) Name() string { return "arxiv" }

// Search implements core.Adapter. Empty result sets are a valid outcome.
func (a *Adapter) Search(ctx context.Context, query string) ([]core.SearchResult, error) {
	if err := a.opts.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"search_query": {a.buildQuery(query)},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(a.opts.MaxResults)},
		"sortBy":       {a.opts.SortBy},
		"sortOrder":    {a.opts.SortOrder},
	}
	requestURL := a.opts.BaseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build arxiv request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, core.Transient(fmt.Errorf("arxiv request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, adapter.ClassifyHTTPStatus("arxiv", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.Transient(fmt.Errorf("read arxiv response: %w", err))
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parse arxiv feed: %w", err)
	}

	results := make([]core.SearchResult, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		results = append(results, entry.toResult())
	}

	a.logger.Debug("arxiv search returned %d results for %q", len(results), query)

	return results, nil
}

// buildQuery wraps the free text in an all-fields term and appends any
// configured category filter.
func (a *Adapter) buildQuery(query string) string {
	q := fmt.Sprintf("all:%s", query)
	if len(a.opts.Categories) == 0 {
		return q
	}
	cats := make([]string, 0, len(a.opts.Categories))
	for _, c := range a.opts.Categories {
		cats = append(cats, "cat:"+c)
	}
	return fmt.Sprintf("%s AND (%s)", q, strings.Join(cats, " OR "))
}

// Atom feed shapes, limited to the fields the pipeline consumes.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Links []struct {
		Href  string `xml:"href,attr"`
		Title string `xml:"title,attr"`
	} `xml:"link"`
	Categories []struct {
		Term string `xml:"term,attr"`
	} `xml:"category"`
}

func (e atomEntry) toResult() core.SearchResult {
	authors := make([]string, 0, len(e.Authors))
	for _, au := range e.Authors {
		authors = append(authors, au.Name)
	}

	var year string
	if t, err := time.Parse(time.RFC3339, e.Published); err == nil {
		year = strconv.Itoa(t.Year())
	}

	pdfURL := ""
	for _, l := range e.Links {
		if l.Title == "pdf" {
			pdfURL = l.Href
		}
	}

	cats := make([]string, 0, len(e.Categories))
	for _, c := range e.Categories {
		cats = append(cats, c.Term)
	}

	return core.SearchResult{
		ID:      e.ID,
		Title:   strings.TrimSpace(e.Title),
		Snippet: strings.TrimSpace(e.Summary),
		Authors: authors,
		Year:    year,
		URL:     e.ID,
		Source:  "arXiv",
		Metadata: map[string]any{
			"pdf_url":    pdfURL,
			"categories": cats,
		},
	}
}

package websearch

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/pkg/metricskey"
	"github.com/effective-security/toolbelt/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolbelt", "websearch")

const (
	// ToolName is the default name of the search tool
	ToolName = "google_search"
	// DefaultTimeout for the upstream call
	DefaultTimeout = 30 * time.Second
	// DefaultLimit of the returned results
	DefaultLimit = 10
)

// Record is a single search result
type Record struct {
	Title       string `json:"title" yaml:"title"`
	Link        string `json:"link" yaml:"link"`
	Snippet     string `json:"snippet" yaml:"snippet"`
	DisplayLink string `json:"display_link" yaml:"display_link"`
	ImageURL    string `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}

// Response is returned by a Provider
type Response struct {
	Records []Record
	// Answer is an aggregated answer, if the provider supports it
	Answer string
}

// Provider is a web search backend
type Provider interface {
	// Name returns the name of the provider, used in logs and metrics.
	Name() string
	// Search returns up to limit results for the query
	Search(ctx context.Context, query string, limit int) (*Response, error)
}

// SearchRequest represents the tool input.
type SearchRequest struct {
	Query string `json:"query" yaml:"query" jsonschema:"title=Query,description=The search query. This can only take one query at a time." validate:"required"`
}

// SearchResult represents the tool output
type SearchResult struct {
	Success bool     `json:"success" yaml:"success"`
	Query   string   `json:"query,omitempty" yaml:"query,omitempty"`
	Results []Record `json:"results" yaml:"results"`
	Answer  string   `json:"answer,omitempty" yaml:"answer,omitempty"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`
}

func (r *SearchResult) String() string {
	var buf bytes.Buffer
	if r.Error != "" {
		fmt.Fprintf(&buf, "ERROR: %s\n", r.Error)
	}
	if r.Answer != "" {
		fmt.Fprintf(&buf, "ANSWER: %s\n", r.Answer)
	}

	for _, result := range r.Results {
		fmt.Fprintf(&buf, "- URL: %s\n", result.Link)
		fmt.Fprintf(&buf, "  TITLE: %s\n", result.Title)
		fmt.Fprintf(&buf, "  SNIPPET: %s\n", result.Snippet)
	}

	return buf.String()
}

// Searcher runs the search with the Provider
type Searcher struct {
	provider Provider
	timeout  time.Duration
	limit    int
}

// NewSearcher returns Searcher, zero timeout and limit use defaults
func NewSearcher(provider Provider, timeout time.Duration, limit int) *Searcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Searcher{
		provider: provider,
		timeout:  timeout,
		limit:    limit,
	}
}

// Search returns results of the query.
// Upstream failures are returned in the result with no records.
func (s *Searcher) Search(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	if req.Query == "" {
		return nil, errors.New("invalid request: empty query")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	resp, err := s.provider.Search(ctx, req.Query, s.limit)
	metricskey.PerfUpstreamCall.MeasureSince(started, s.provider.Name())
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"reason", "search",
			"provider", s.provider.Name(),
			"err", err.Error())
		return &SearchResult{
			Success: false,
			Query:   req.Query,
			Results: []Record{},
			Error:   err.Error(),
		}, nil
	}

	records := resp.Records
	if records == nil {
		records = []Record{}
	}
	if len(records) > s.limit {
		records = records[:s.limit]
	}
	return &SearchResult{
		Success: true,
		Query:   req.Query,
		Results: records,
		Answer:  resp.Answer,
	}, nil
}

// NewTool returns the search tool, empty name uses ToolName
func NewTool(s *Searcher, name string) (*tools.FuncTool[SearchRequest, SearchResult], error) {
	if name == "" {
		name = ToolName
	}
	return tools.NewFuncTool(name,
		"Searches the web to get real time information. This can only take one query at a time, for multiple queries call this tool multiple times.",
		s.Search)
}

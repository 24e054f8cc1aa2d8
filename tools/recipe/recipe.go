package recipe

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/effective-security/toolbelt/pkg/metricskey"
	"github.com/effective-security/toolbelt/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolbelt", "recipe")

const (
	// ToolName is the name of the scraping tool
	ToolName = "scrape_recipe"
	// DefaultTimeout for the page fetch
	DefaultTimeout = 60 * time.Second
)

// ScrapeRequest is the tool input
type ScrapeRequest struct {
	URL string `json:"url" yaml:"url" jsonschema:"title=URL,description=The URL of the recipe page to scrape." validate:"required,http_url"`
}

// ScrapeResult is the tool output
type ScrapeResult struct {
	Success        bool   `json:"success" yaml:"success"`
	URL            string `json:"url,omitempty" yaml:"url,omitempty"`
	Title          string `json:"title,omitempty" yaml:"title,omitempty"`
	RecipeText     string `json:"recipe_text,omitempty" yaml:"recipe_text,omitempty"`
	WordCount      int    `json:"word_count" yaml:"word_count"`
	CharacterCount int    `json:"character_count" yaml:"character_count"`
	Error          string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Scraper returns readable text of recipe pages
type Scraper struct {
	fetcher Fetcher
	timeout time.Duration
}

// NewScraper returns Scraper, zero timeout uses DefaultTimeout
func NewScraper(fetcher Fetcher, timeout time.Duration) *Scraper {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Scraper{
		fetcher: fetcher,
		timeout: timeout,
	}
}

// Scrape fetches and cleans the page.
// Failures are returned in the result.
func (s *Scraper) Scrape(ctx context.Context, req *ScrapeRequest) (*ScrapeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	doc, err := s.fetcher.Fetch(ctx, req.URL)
	metricskey.PerfUpstreamCall.MeasureSince(started, "scraper")
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR, "reason", "fetch", "url", req.URL, "err", err.Error())
		return &ScrapeResult{
			Success: false,
			Error:   "scraping error: " + err.Error(),
		}, nil
	}

	page, err := Clean(doc)
	if err != nil {
		return &ScrapeResult{
			Success: false,
			Error:   "scraping error: " + err.Error(),
		}, nil
	}

	return &ScrapeResult{
		Success:        true,
		URL:            req.URL,
		Title:          page.Title,
		RecipeText:     page.Text,
		WordCount:      len(strings.Fields(page.Text)),
		CharacterCount: utf8.RuneCountInString(page.Text),
	}, nil
}

// NewTool returns the `scrape_recipe` tool
func NewTool(s *Scraper) (*tools.FuncTool[ScrapeRequest, ScrapeResult], error) {
	return tools.NewFuncTool(ToolName,
		"Scrapes a recipe page, rendering JavaScript content. Returns the readable text of the page.",
		s.Scrape)
}

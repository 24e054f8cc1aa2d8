package websearch

import (
	"context"
	"net/http"
	"net/url"
	"os"

	"github.com/cockroachdb/errors"
	tavilygo "github.com/diverged/tavily-go"
	tavilyClient "github.com/diverged/tavily-go/client"
	tavilyModels "github.com/diverged/tavily-go/models"
	"github.com/effective-security/x/values"
)

// TavilyAPIKeyEnvVarName is the env variable with Tavily API key
const TavilyAPIKeyEnvVarName = "TAVILY_API_KEY" //nolint:gosec

// TavilyConfig for Tavily search
type TavilyConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	// SearchDepth is basic or advanced
	SearchDepth string
}

// Tavily is the Provider over Tavily search API
type Tavily struct {
	client *tavilyClient.TavilyClient
	depth  string
}

// NewTavily returns the Tavily search provider,
// the empty APIKey is read from environment.
func NewTavily(cfg TavilyConfig) (*Tavily, error) {
	apikey := values.StringsCoalesce(cfg.APIKey, os.Getenv(TavilyAPIKeyEnvVarName))
	if apikey == "" {
		return nil, errors.Errorf("%s is not set", TavilyAPIKeyEnvVarName)
	}

	client := tavilygo.NewClient(apikey)
	if cfg.BaseURL != "" {
		client.BaseURL = cfg.BaseURL
	}
	client.HTTPClient = cfg.HTTPClient
	if client.HTTPClient == nil {
		client.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}

	return &Tavily{
		client: client,
		depth:  values.StringsCoalesce(cfg.SearchDepth, "basic"),
	}, nil
}

// Name implements Provider
func (t *Tavily) Name() string {
	return "tavily"
}

// Search implements Provider.
// The client does not accept a context, ctx is bound to its requests by the transport.
func (t *Tavily) Search(ctx context.Context, query string, _ int) (*Response, error) {
	client := *t.client
	client.HTTPClient = &http.Client{
		Transport: &contextTransport{ctx: ctx, base: t.client.HTTPClient.Transport},
		Timeout:   t.client.HTTPClient.Timeout,
	}

	resp, err := tavilygo.Search(&client, tavilyModels.SearchRequest{
		Query:         query,
		SearchDepth:   t.depth,
		IncludeAnswer: true,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), "tavily search cancelled")
		}
		return nil, errors.Wrap(err, "failed to perform search")
	}

	records := make([]Record, 0, len(resp.Results))
	for _, r := range resp.Results {
		records = append(records, Record{
			Title:       r.Title,
			Link:        r.URL,
			Snippet:     r.Content,
			DisplayLink: displayLink(r.URL),
		})
	}
	return &Response{
		Records: records,
		Answer:  resp.Answer,
	}, nil
}

// contextTransport sends the requests within ctx
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req.WithContext(t.ctx))
}

func displayLink(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Host
}

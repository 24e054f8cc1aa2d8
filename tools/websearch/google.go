package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/values"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

const (
	// GoogleAPIKeyEnvVarName is the env variable with Custom Search API key
	GoogleAPIKeyEnvVarName = "GOOGLE_SEARCH_API_KEY" //nolint:gosec
	// GoogleCXEnvVarName is the env variable with Programmable Search Engine ID
	GoogleCXEnvVarName = "GOOGLE_SEARCH_CX"
)

// GoogleConfig for Programmable Search Engine
type GoogleConfig struct {
	APIKey string
	CX     string
	// BaseURL overrides the API endpoint
	BaseURL string
	// HTTPClient is used as is, the API key is still sent as a query parameter
	HTTPClient *http.Client
}

// Google is the Provider over Google Programmable Search Engine
type Google struct {
	svc *customsearch.Service
	cx  string
}

// NewGoogle returns the Google search provider,
// the empty APIKey and CX are read from environment.
func NewGoogle(ctx context.Context, cfg GoogleConfig) (*Google, error) {
	apiKey := values.StringsCoalesce(cfg.APIKey, os.Getenv(GoogleAPIKeyEnvVarName))
	cx := values.StringsCoalesce(cfg.CX, os.Getenv(GoogleCXEnvVarName))
	if apiKey == "" || cx == "" {
		return nil, errors.Errorf("google search requires %s and %s", GoogleAPIKeyEnvVarName, GoogleCXEnvVarName)
	}

	opts := []option.ClientOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(&http.Client{
			Transport: &apiKeyTransport{key: apiKey, base: cfg.HTTPClient.Transport},
			Timeout:   cfg.HTTPClient.Timeout,
		}))
	}

	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create custom search service")
	}
	return &Google{svc: svc, cx: cx}, nil
}

// Name implements Provider
func (g *Google) Name() string {
	return "google"
}

// Search implements Provider
func (g *Google) Search(ctx context.Context, query string, limit int) (*Response, error) {
	call := g.svc.Cse.List().Cx(g.cx).Q(query)
	if limit > 0 && limit <= 10 {
		call = call.Num(int64(limit))
	}
	res, err := call.Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrap(err, "google search failed")
	}

	records := make([]Record, 0, len(res.Items))
	for _, item := range res.Items {
		records = append(records, Record{
			Title:       item.Title,
			Link:        item.Link,
			Snippet:     item.Snippet,
			DisplayLink: item.DisplayLink,
			ImageURL:    imageURL(item.Pagemap),
		})
	}
	return &Response{Records: records}, nil
}

type pagemap struct {
	CseImage []struct {
		Src string `json:"src"`
	} `json:"cse_image"`
}

func imageURL(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var pm pagemap
	if err := json.Unmarshal(raw, &pm); err != nil || len(pm.CseImage) == 0 {
		return ""
	}
	return pm.CseImage[0].Src
}

// apiKeyTransport adds the API key when a custom HTTP client is used,
// as the client options ignore the key in that case.
type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	r := req.Clone(req.Context())
	q := r.URL.Query()
	q.Set("key", t.key)
	r.URL.RawQuery = q.Encode()
	return base.RoundTrip(r)
}

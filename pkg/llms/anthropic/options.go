package anthropic

import "github.com/anthropics/anthropic-sdk-go/option"

// TokenEnvVarName is used when the token is not provided
const TokenEnvVarName = "ANTHROPIC_API_KEY" //nolint:gosec

// Options of the client
type Options struct {
	Token      string
	Model      string
	BaseURL    string
	HTTPClient option.HTTPClient
}

// Option configures the client
type Option func(*Options)

// WithToken sets the API key
func WithToken(token string) Option {
	return func(o *Options) { o.Token = token }
}

// WithModel sets the model, required
func WithModel(model string) Option {
	return func(o *Options) { o.Model = model }
}

// WithBaseURL overrides the API endpoint
func WithBaseURL(baseURL string) Option {
	return func(o *Options) { o.BaseURL = baseURL }
}

// WithHTTPClient sets the HTTP client, http.DefaultClient by default
func WithHTTPClient(client option.HTTPClient) Option {
	return func(o *Options) { o.HTTPClient = client }
}

package googleai

import (
	"net/http"

	"cloud.google.com/go/auth"
	"google.golang.org/genai"
)

// APIKeyEnvVarName is used when neither API key nor credentials are provided
const APIKeyEnvVarName = "GOOGLE_API_KEY" //nolint:gosec

// Options of the client, the Default* values apply to each call
// unless overridden by llms.CallOption
type Options struct {
	APIKey        string
	Credentials   *auth.Credentials
	CloudProject  string
	CloudLocation string
	BaseURL       string
	HTTPClient    *http.Client

	DefaultModel          string
	DefaultCandidateCount int
	DefaultMaxTokens      int
	DefaultTemperature    float64
	DefaultTopK           int
	DefaultTopP           float64
	HarmThreshold         genai.HarmBlockThreshold
}

// DefaultOptions returns options tuned for extraction tasks:
// low temperature and a single candidate.
func DefaultOptions() Options {
	return Options{
		DefaultModel:          "gemini-2.5-flash",
		DefaultCandidateCount: 1,
		DefaultMaxTokens:      8192,
		DefaultTemperature:    0.2,
		DefaultTopK:           3,
		DefaultTopP:           0.95,
		HarmThreshold:         genai.HarmBlockThresholdBlockOnlyHigh,
	}
}

// Option configures the client
type Option func(*Options)

// WithAPIKey sets the Gemini API key
func WithAPIKey(apiKey string) Option {
	return func(o *Options) { o.APIKey = apiKey }
}

// WithCredentials sets the Google Cloud credentials, nil is ignored
func WithCredentials(creds *auth.Credentials) Option {
	return func(o *Options) {
		if creds != nil {
			o.Credentials = creds
		}
	}
}

// WithCloudProject sets the Google Cloud project and location
func WithCloudProject(project, location string) Option {
	return func(o *Options) {
		o.CloudProject = project
		o.CloudLocation = location
	}
}

// WithBaseURL overrides the API endpoint
func WithBaseURL(baseURL string) Option {
	return func(o *Options) { o.BaseURL = baseURL }
}

// WithHTTPClient sets the HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(o *Options) { o.HTTPClient = client }
}

// WithDefaultModel sets the model used when the call does not specify one
func WithDefaultModel(model string) Option {
	return func(o *Options) { o.DefaultModel = model }
}

package llms

// CallOptions of GenerateContent, the providers ignore the options they do not support
type CallOptions struct {
	Model          string
	CandidateCount int
	MaxTokens      int
	// Temperature between 0 and 1
	Temperature float64
	StopWords   []string
	TopK        int
	TopP        float64
	Seed        int
	// JSONMode requests JSON reply when the provider has a switch for it
	JSONMode bool
	// Metadata is passed to the provider as is
	Metadata map[string]any
}

// CallOption sets a call option
type CallOption func(*CallOptions)

// NewCallOptions returns the defaults with the options applied
func NewCallOptions(defaults CallOptions, options ...CallOption) CallOptions {
	for _, set := range options {
		set(&defaults)
	}
	return defaults
}

// WithModel sets the model name
func WithModel(model string) CallOption {
	return func(o *CallOptions) { o.Model = model }
}

// WithMaxTokens limits the generated tokens
func WithMaxTokens(n int) CallOption {
	return func(o *CallOptions) { o.MaxTokens = n }
}

// WithCandidateCount sets the number of choices to generate
func WithCandidateCount(n int) CallOption {
	return func(o *CallOptions) { o.CandidateCount = n }
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float64) CallOption {
	return func(o *CallOptions) { o.Temperature = t }
}

// WithStopWords sets the stop sequences
func WithStopWords(words []string) CallOption {
	return func(o *CallOptions) { o.StopWords = words }
}

// WithTopK sets top-k sampling
func WithTopK(k int) CallOption {
	return func(o *CallOptions) { o.TopK = k }
}

// WithTopP sets top-p sampling
func WithTopP(p float64) CallOption {
	return func(o *CallOptions) { o.TopP = p }
}

// WithSeed sets the seed for deterministic sampling
func WithSeed(seed int) CallOption {
	return func(o *CallOptions) { o.Seed = seed }
}

// WithJSONMode requests JSON reply
func WithJSONMode() CallOption {
	return func(o *CallOptions) { o.JSONMode = true }
}

// WithMetadata sets the request metadata
func WithMetadata(md map[string]any) CallOption {
	return func(o *CallOptions) { o.Metadata = md }
}

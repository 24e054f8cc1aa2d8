// Package anthropic implements llms.Model with Anthropic Messages API
package anthropic

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/pkg/llms"
	"github.com/effective-security/x/values"
)

// DefaultMaxTokens is required by the API when the call does not set it
const DefaultMaxTokens = 4096

// Errors
var (
	ErrEmptyResponse          = errors.New("anthropic: no response")
	ErrMissingToken           = errors.New("anthropic: missing API key, set it in the ANTHROPIC_API_KEY environment variable")
	ErrUnsupportedMessageType = errors.New("anthropic: unsupported message type")
)

// LLM is the Anthropic model
type LLM struct {
	client  anthropic.Client
	options Options
}

var _ llms.Model = (*LLM)(nil)

// New returns the model, the token is read from ANTHROPIC_API_KEY when not provided
func New(opts ...Option) (*LLM, error) {
	o := Options{
		Token:      os.Getenv(TokenEnvVarName),
		HTTPClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Token == "" {
		return nil, errors.WithStack(ErrMissingToken)
	}
	if o.Model == "" {
		return nil, errors.New("anthropic: model is required")
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(o.Token),
		option.WithMaxRetries(2),
		option.WithRequestTimeout(5 * time.Minute),
	}
	if o.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.BaseURL))
	}
	if o.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(o.HTTPClient))
	}

	return &LLM{
		client:  anthropic.NewClient(reqOpts...),
		options: o,
	}, nil
}

// GetName returns the model name
func (l *LLM) GetName() string {
	return l.options.Model
}

// GetProviderType returns ANTHROPIC
func (l *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderAnthropic
}

// GenerateContent sends the messages to Messages API,
// each text block of the reply is returned as a choice.
func (l *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(llms.CallOptions{Model: l.options.Model}, options...)

	msgs, system, err := toMessageParams(messages)
	if err != nil {
		return nil, err
	}

	params := anthropic.MessageNewParams{
		Model:         anthropic.Model(opts.Model),
		Messages:      msgs,
		MaxTokens:     values.NumbersCoalesce(int64(opts.MaxTokens), DefaultMaxTokens),
		StopSequences: opts.StopWords,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}
	if opts.TopP > 0 {
		params.TopP = anthropic.Float(opts.TopP)
	}

	msg, err := l.client.Messages.New(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "anthropic: failed to create message")
	}

	usage := map[string]any{
		"InputTokens":  msg.Usage.InputTokens,
		"OutputTokens": msg.Usage.OutputTokens,
		"TotalTokens":  msg.Usage.InputTokens + msg.Usage.OutputTokens,
	}
	res := &llms.ContentResponse{}
	for _, block := range msg.Content {
		text, ok := block.AsAny().(anthropic.TextBlock)
		if !ok {
			continue
		}
		res.Choices = append(res.Choices, &llms.ContentChoice{
			Content:        text.Text,
			StopReason:     string(msg.StopReason),
			GenerationInfo: usage,
		})
	}
	if len(res.Choices) == 0 {
		return nil, errors.WithStack(ErrEmptyResponse)
	}
	return res, nil
}

// toMessageParams returns the conversation and the system prompt,
// the API takes the system messages separately.
func toMessageParams(messages []llms.Message) ([]anthropic.MessageParam, string, error) {
	var system []string
	res := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llms.RoleSystem:
			system = append(system, m.Text())
		case llms.RoleHuman:
			res = append(res, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text())))
		case llms.RoleAI:
			res = append(res, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Text())))
		default:
			return nil, "", errors.Wrapf(ErrUnsupportedMessageType, "role: %s", m.Role)
		}
	}
	return res, strings.Join(system, "\n"), nil
}

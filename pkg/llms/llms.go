package llms

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
)

//go:generate mockgen -source=llms.go -destination=../../mocks/mockllms/llms_mock.gen.go -package mockllms

// ErrEmptyResponse is returned when a model returns no choices.
var ErrEmptyResponse = errors.New("no response from the model")

// ProviderType is the type of provider.
type ProviderType string

const (
	// ProviderAnthropic is the type of provider.
	ProviderAnthropic ProviderType = "ANTHROPIC"
	// ProviderGoogleAI is the type of provider.
	ProviderGoogleAI ProviderType = "GOOGLEAI"
	// ProviderOpenAI is the type of provider.
	ProviderOpenAI ProviderType = "OPENAI"
)

// Model is an interface multi-modal models implement.
type Model interface {
	// GetName returns the name of the model.
	GetName() string
	// GetProviderType returns the type of provider.
	GetProviderType() ProviderType
	// GenerateContent asks the model to generate content from a sequence of
	// messages.
	GenerateContent(ctx context.Context, messages []Message, options ...CallOption) (*ContentResponse, error)
}

// GenerateFromPrompt is a convenience function for calling a model with
// an optional system instruction and a single user prompt,
// it returns the text of the first choice.
func GenerateFromPrompt(ctx context.Context, model Model, system, prompt string, options ...CallOption) (string, error) {
	var msgs []Message
	if system != "" {
		msgs = append(msgs, MessageFromTextParts(RoleSystem, system))
	}
	msgs = append(msgs, MessageFromTextParts(RoleHuman, prompt))

	resp, err := model.GenerateContent(ctx, msgs, options...)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.WithStack(ErrEmptyResponse)
	}
	return resp.Choices[0].Content, nil
}

// ParseProviderType returns the provider type for the API type name,
// accepting the historic OPEN_AI spelling.
func ParseProviderType(apiType string) (ProviderType, error) {
	switch strings.ToUpper(apiType) {
	case "OPENAI", "OPEN_AI":
		return ProviderOpenAI, nil
	case "ANTHROPIC":
		return ProviderAnthropic, nil
	case "GOOGLEAI", "GOOGLE_AI", "GEMINI":
		return ProviderGoogleAI, nil
	}
	return "", errors.Errorf("unsupported provider type: %s", apiType)
}

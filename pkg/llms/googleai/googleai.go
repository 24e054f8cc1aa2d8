// Package googleai implements llms.Model with Gemini API
package googleai

import (
	"context"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/pkg/llms"
	"google.golang.org/genai"
)

// ErrNoContentInResponse is returned when the reply has no candidates
var ErrNoContentInResponse = errors.New("no content in generation response")

// Gemini roles and the generation info keys
const (
	RoleModel = "model"
	RoleUser  = "user"

	CITATIONS = "citations"
	SAFETY    = "safety"
)

var harmCategories = []genai.HarmCategory{
	genai.HarmCategoryDangerousContent,
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
}

// GoogleAI is the Gemini model
type GoogleAI struct {
	client *genai.Client
	opts   Options
}

var _ llms.Model = (*GoogleAI)(nil)

// New returns the model,
// the API key is read from GOOGLE_API_KEY when neither key nor credentials are provided.
func New(ctx context.Context, opts ...Option) (*GoogleAI, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Credentials == nil && o.APIKey == "" {
		o.APIKey = os.Getenv(APIKeyEnvVarName)
	}

	cfg := &genai.ClientConfig{
		APIKey:      o.APIKey,
		Credentials: o.Credentials,
		Project:     o.CloudProject,
		Location:    o.CloudLocation,
		HTTPClient:  o.HTTPClient,
		Backend:     genai.BackendGeminiAPI,
	}
	if o.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: o.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "googleai: failed to create client")
	}
	return &GoogleAI{client: client, opts: o}, nil
}

// GetName returns the default model name
func (g *GoogleAI) GetName() string {
	return g.opts.DefaultModel
}

// GetProviderType returns GOOGLEAI
func (g *GoogleAI) GetProviderType() llms.ProviderType {
	return llms.ProviderGoogleAI
}

// GenerateContent sends the messages to Gemini,
// the system messages become the system instruction.
func (g *GoogleAI) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(llms.CallOptions{
		Model:          g.opts.DefaultModel,
		CandidateCount: g.opts.DefaultCandidateCount,
		MaxTokens:      g.opts.DefaultMaxTokens,
		Temperature:    g.opts.DefaultTemperature,
		TopP:           g.opts.DefaultTopP,
		TopK:           g.opts.DefaultTopK,
	}, options...)

	cfg := &genai.GenerateContentConfig{
		CandidateCount:  int32(opts.CandidateCount),
		MaxOutputTokens: int32(opts.MaxTokens),
		Temperature:     genai.Ptr(float32(opts.Temperature)),
		TopP:            genai.Ptr(float32(opts.TopP)),
		TopK:            genai.Ptr(float32(opts.TopK)),
		StopSequences:   opts.StopWords,
	}
	if opts.Seed != 0 {
		cfg.Seed = genai.Ptr(int32(opts.Seed))
	}
	if opts.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}
	for _, c := range harmCategories {
		cfg.SafetySettings = append(cfg.SafetySettings, &genai.SafetySetting{
			Category:  c,
			Threshold: g.opts.HarmThreshold,
		})
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		c, err := toContent(m)
		if err != nil {
			return nil, err
		}
		if m.Role == llms.RoleSystem {
			cfg.SystemInstruction = c
			continue
		}
		contents = append(contents, c)
	}

	resp, err := g.client.Models.GenerateContent(ctx, opts.Model, contents, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "googleai: failed to generate content")
	}
	if len(resp.Candidates) == 0 {
		return nil, errors.WithStack(ErrNoContentInResponse)
	}
	return toResponse(resp), nil
}

func toContent(m llms.Message) (*genai.Content, error) {
	c := &genai.Content{Parts: make([]*genai.Part, 0, len(m.Parts))}
	switch m.Role {
	case llms.RoleSystem, llms.RoleHuman:
		c.Role = RoleUser
	case llms.RoleAI:
		c.Role = RoleModel
	default:
		return nil, errors.Errorf("role %v not supported", m.Role)
	}

	for _, p := range m.Parts {
		switch part := p.(type) {
		case llms.TextContent:
			c.Parts = append(c.Parts, &genai.Part{Text: part.Text})
		case llms.BinaryContent:
			c.Parts = append(c.Parts, &genai.Part{
				InlineData: &genai.Blob{MIMEType: part.MIMEType, Data: part.Data},
			})
		}
	}
	return c, nil
}

func toResponse(resp *genai.GenerateContentResponse) *llms.ContentResponse {
	res := &llms.ContentResponse{}
	for _, candidate := range resp.Candidates {
		var text strings.Builder
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				// thoughts are not part of the answer
				if !part.Thought {
					text.WriteString(part.Text)
				}
			}
		}

		info := map[string]any{
			CITATIONS: candidate.CitationMetadata,
			SAFETY:    candidate.SafetyRatings,
		}
		if u := resp.UsageMetadata; u != nil {
			info["InputTokens"] = int64(u.PromptTokenCount)
			info["OutputTokens"] = int64(u.CandidatesTokenCount + u.ThoughtsTokenCount)
			info["TotalTokens"] = int64(u.TotalTokenCount)
		}

		res.Choices = append(res.Choices, &llms.ContentChoice{
			Content:        text.String(),
			StopReason:     string(candidate.FinishReason),
			GenerationInfo: info,
		})
	}
	return res
}

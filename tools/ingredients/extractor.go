package ingredients

import (
	"bytes"
	"context"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/pkg/llms"
	"github.com/effective-security/toolbelt/pkg/llmutils"
	"github.com/effective-security/toolbelt/pkg/metricskey"
	"github.com/effective-security/toolbelt/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolbelt", "ingredients")

const (
	// ToolName is the name of the extraction tool
	ToolName = "extract_ingredients"
	// DefaultTimeout for the model call
	DefaultTimeout = 60 * time.Second
)

const systemPrompt = `You are a culinary assistant. You extract ingredient lists from recipes and reply with JSON only.`

const defaultPrompt = `Extract all ingredients from the following recipe text.
For each ingredient, include the quantity, unit (if available), and the ingredient name.
Format the response as a JSON list of objects with 'quantity', 'unit', and 'name' fields.
If quantity or unit is not specified, leave the field empty.

RECIPE TEXT:
{{ .RecipeText | trim }}

Response format example:
{{ .Example | toPrettyJson }}
`

var promptExample = []Ingredient{
	{Quantity: "200", Unit: "g", Name: "spaghetti"},
	{Quantity: "2", Unit: "", Name: "eggs"},
	{Quantity: "", Unit: "", Name: "salt to taste"},
}

// ExtractRequest is the tool input
type ExtractRequest struct {
	RecipeText string `json:"recipe_text" yaml:"recipe_text" jsonschema:"title=Recipe Text,description=The full text of a recipe." validate:"required"`
}

// Extractor extracts ingredients from a recipe text with LLM
type Extractor struct {
	model   llms.Model
	timeout time.Duration
	prompt  *template.Template
}

// Option configures the Extractor
type Option func(*Extractor) error

// WithTimeout sets the bound of the model call
func WithTimeout(timeout time.Duration) Option {
	return func(e *Extractor) error {
		if timeout > 0 {
			e.timeout = timeout
		}
		return nil
	}
}

// WithPrompt overrides the user prompt template,
// the template receives .RecipeText and .Example values.
func WithPrompt(text string) Option {
	return func(e *Extractor) error {
		tmpl, err := parsePrompt(text)
		if err != nil {
			return err
		}
		e.prompt = tmpl
		return nil
	}
}

// NewExtractor returns Extractor
func NewExtractor(model llms.Model, opts ...Option) (*Extractor, error) {
	if model == nil {
		return nil, errors.New("model is required")
	}
	tmpl, err := parsePrompt(defaultPrompt)
	if err != nil {
		return nil, err
	}

	e := &Extractor{
		model:   model,
		timeout: DefaultTimeout,
		prompt:  tmpl,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func parsePrompt(text string) (*template.Template, error) {
	tmpl, err := template.New(ToolName).Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse prompt template")
	}
	return tmpl, nil
}

// Prompt returns the rendered user prompt
func (e *Extractor) Prompt(recipeText string) (string, error) {
	var buf bytes.Buffer
	err := e.prompt.Execute(&buf, map[string]any{
		"RecipeText": recipeText,
		"Example":    promptExample,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to render prompt")
	}
	return buf.String(), nil
}

// Extract calls the model and parses its reply.
// Model failures are returned in the Result.
func (e *Extractor) Extract(ctx context.Context, recipeText string) *Result {
	text, err := e.generate(ctx, recipeText)
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"reason", "generate",
			"model", e.model.GetName(),
			"err", err.Error())
		return &Result{
			Success: false,
			Error:   "ingredient extraction error: " + err.Error(),
		}
	}

	res := Parse(text)
	if res.Warning != "" {
		metricskey.StatsIngredientsFallbackParsed.IncrCounter(1, ToolName)
		logger.ContextKV(ctx, xlog.WARNING,
			"reason", "fallback_parsing",
			"model", e.model.GetName(),
			"count", len(res.Ingredients))
	}
	return res
}

func (e *Extractor) generate(ctx context.Context, recipeText string) (string, error) {
	prompt, err := e.Prompt(recipeText)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	modelName := e.model.GetName()
	msgs := []llms.Message{
		llms.MessageFromTextParts(llms.RoleSystem, systemPrompt),
		llms.MessageFromTextParts(llms.RoleHuman, prompt),
	}
	metricskey.StatsLLMBytesSent.IncrCounter(float64(llmutils.CountMessagesContentSize(msgs)), ToolName, modelName)

	resp, err := e.model.GenerateContent(ctx, msgs, llms.WithTemperature(0))
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", errors.WithStack(llms.ErrEmptyResponse)
	}

	metricskey.StatsLLMBytesReceived.IncrCounter(float64(llmutils.CountResponseContentSize(resp)), ToolName, modelName)
	in, out, _ := llmutils.CountTokens(resp)
	metricskey.StatsLLMInputTokens.IncrCounter(float64(in), ToolName, modelName)
	metricskey.StatsLLMOutputTokens.IncrCounter(float64(out), ToolName, modelName)

	return resp.Choices[0].Content, nil
}

// NewTool returns the `extract_ingredients` tool
func NewTool(e *Extractor) (*tools.FuncTool[ExtractRequest, Result], error) {
	return tools.NewFuncTool(ToolName,
		"Extracts the ingredients from the recipe text. Returns a list of objects with quantity, unit and name fields.",
		func(ctx context.Context, in *ExtractRequest) (*Result, error) {
			return e.Extract(ctx, in.RecipeText), nil
		})
}

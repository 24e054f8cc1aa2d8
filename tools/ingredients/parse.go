package ingredients

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/bububa/ljson"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/pkg/llmutils"
)

// WarningFallback is set on the Result when the model reply
// was not a JSON list and the lines were parsed one by one
const WarningFallback = "failed to parse as JSON, used fallback parsing"

// Ingredient is one entry of a recipe.
// Quantity is kept as text: "1/2", "2-3" or empty.
type Ingredient struct {
	Quantity string `json:"quantity" yaml:"quantity" jsonschema:"title=Quantity,description=Amount of the ingredient as written in the recipe; may be empty."`
	Unit     string `json:"unit" yaml:"unit" jsonschema:"title=Unit,description=Unit of measure; may be empty."`
	Name     string `json:"name" yaml:"name" jsonschema:"title=Name,description=The ingredient name." validate:"required"`
}

// Result of the ingredient extraction
type Result struct {
	Success     bool         `json:"success" yaml:"success"`
	Ingredients []Ingredient `json:"ingredients" yaml:"ingredients"`
	Warning     string       `json:"warning,omitempty" yaml:"warning,omitempty"`
	Error       string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// GetContent returns JSON of the result
func (r *Result) GetContent() string {
	return llmutils.ToJSON(r)
}

// Parse returns ingredients from the model reply.
// A JSON payload is preferred, if it can not be decoded,
// every non-empty line is parsed as `quantity unit name`.
func Parse(text string) *Result {
	list, err := decode([]byte(text))
	if err == nil {
		return &Result{
			Success:     true,
			Ingredients: list,
		}
	}

	return &Result{
		Success:     true,
		Ingredients: ParseLines(text),
		Warning:     WarningFallback,
	}
}

type envelope struct {
	Ingredients []Ingredient `json:"ingredients"`
}

func decode(text []byte) ([]Ingredient, error) {
	js := llmutils.ExtractJSON(text)
	if js == nil {
		return nil, errors.New("no JSON payload")
	}

	if js[0] == '{' {
		var env envelope
		if err := ljson.Unmarshal(js, &env); err != nil {
			return nil, errors.WithStack(err)
		}
		if env.Ingredients == nil {
			return nil, errors.New("no ingredients in JSON object")
		}
		return env.Ingredients, nil
	}

	var list []Ingredient
	if err := ljson.Unmarshal(js, &list); err != nil {
		return nil, errors.WithStack(err)
	}
	return list, nil
}

var (
	// quantity: 2, 1.5, 1/2, 2-3, 1 1/2;
	// unit is a word that follows the quantity and precedes the name.
	reLine   = regexp.MustCompile(`^(?:(\d[\d./-]*(?:\s+\d+/\d+)?)\s*(?:([A-Za-z]{1,12})\s+)?)?(.+)$`)
	reBullet = regexp.MustCompile(`^(?:[-*•·]|\d+[.)])\s+`)
)

// ParseLines parses every line of the text as an ingredient.
// Lines without a quantity produce an entry with the whole line as the name.
func ParseLines(text string) []Ingredient {
	var list []Ingredient
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") || strings.HasSuffix(line, "```") {
			continue
		}
		line = strings.TrimSpace(reBullet.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}

		m := reLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		item := Ingredient{
			Quantity: m[1],
			Unit:     m[2],
			Name:     strings.TrimSpace(m[3]),
		}
		if item.Quantity == "" {
			item.Unit = ""
			item.Name = line
		}
		list = append(list, item)
	}
	return list
}

// String returns a list of ingredients, one per line
func (r *Result) String() string {
	var buf bytes.Buffer
	for _, item := range r.Ingredients {
		parts := make([]string, 0, 3)
		for _, p := range []string{item.Quantity, item.Unit, item.Name} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		buf.WriteString("- ")
		buf.WriteString(strings.Join(parts, " "))
		buf.WriteByte('\n')
	}
	return buf.String()
}

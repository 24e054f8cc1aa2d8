package llmfactory

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/configloader"
)

// DefaultToolModels is the key of ToolModels used for tools without own mapping
const DefaultToolModels = "default"

// Config of the model providers
type Config struct {
	Providers []*ProviderConfig `json:"providers" yaml:"providers"`
	// DefaultProvider is the provider name, the first provider is used when empty
	DefaultProvider string `json:"default_provider" yaml:"default_provider"`
	// ToolModels maps the tool name to the preferred models,
	// the `default` entry applies to the other tools
	ToolModels map[string][]string `json:"tool_models" yaml:"tool_models"`
}

// ProviderConfig of a model provider
type ProviderConfig struct {
	Name string `json:"name" yaml:"name"`
	// APIType is OPENAI, ANTHROPIC or GOOGLEAI
	APIType         string   `json:"api_type,omitempty" yaml:"api_type,omitempty"`
	Token           string   `json:"token,omitempty" yaml:"token,omitempty"`
	BaseURL         string   `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	DefaultModel    string   `json:"default_model,omitempty" yaml:"default_model,omitempty"`
	AvailableModels []string `json:"available_models,omitempty" yaml:"available_models,omitempty"`
	// OrgID is OpenAI organization
	OrgID string `json:"org_id,omitempty" yaml:"org_id,omitempty"`
	// CloudProject and CloudLocation select Vertex AI backend of GOOGLEAI
	CloudProject  string `json:"cloud_project,omitempty" yaml:"cloud_project,omitempty"`
	CloudLocation string `json:"cloud_location,omitempty" yaml:"cloud_location,omitempty"`
}

// FindModel returns the first available of the models,
// or the default model
func (c *ProviderConfig) FindModel(models ...string) string {
	if i := slices.IndexFunc(models, func(m string) bool {
		return slices.Contains(c.AvailableModels, m)
	}); i >= 0 {
		return models[i]
	}
	return c.DefaultModel
}

// LoadConfig returns the configuration from file with expanded environment variables,
// empty configuration is returned when the file is not specified.
func LoadConfig(file string) (*Config, error) {
	cfg := new(Config)
	if file != "" {
		if err := configloader.UnmarshalAndExpand(file, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to load LLM config: %s", file)
		}
	}
	return cfg, nil
}

package llmfactory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/pkg/llms"
	"github.com/effective-security/toolbelt/pkg/llms/anthropic"
	"github.com/effective-security/toolbelt/pkg/llms/googleai"
	"github.com/effective-security/toolbelt/pkg/llms/openai"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolbelt", "llmfactory")

// NewLLM creates the model, tests replace it with a fake
var NewLLM = CreateLLM

// Factory returns the models of the configured providers,
// the models are created on first use and cached.
type Factory interface {
	// DefaultModel returns the default model of the default provider
	DefaultModel() (llms.Model, error)
	// ModelByType returns the default model of the first provider with the API type
	ModelByType(apiType string) (llms.Model, error)
	// ModelByName returns the first available of the models,
	// or the default model
	ModelByName(models ...string) (llms.Model, error)
	// ToolModel returns the model mapped to the tool in ToolModels,
	// the preferred models are used when the tool has no mapping
	ToolModel(tool string, preferred ...string) (llms.Model, error)
}

type factory struct {
	providers  []*ProviderConfig
	def        *ProviderConfig
	toolModels map[string][]string

	lock sync.Mutex
	// provider/model
	models map[string]llms.Model
}

// New returns the factory
func New(cfg *Config) Factory {
	f := &factory{
		providers:  cfg.Providers,
		toolModels: make(map[string][]string, len(cfg.ToolModels)),
		models:     make(map[string]llms.Model),
	}
	for tool, models := range cfg.ToolModels {
		f.toolModels[tool] = slices.Clone(models)
	}

	if i := slices.IndexFunc(cfg.Providers, func(p *ProviderConfig) bool {
		return p.Name == cfg.DefaultProvider
	}); i >= 0 {
		f.def = cfg.Providers[i]
	} else if len(cfg.Providers) > 0 {
		f.def = cfg.Providers[0]
	}
	return f
}

// CreateLLM returns the model of the provider,
// the first available of the preferred models or the default one.
func CreateLLM(cfg *ProviderConfig, preferred ...string) (llms.Model, error) {
	apiType, err := llms.ParseProviderType(cfg.APIType)
	if err != nil {
		return nil, err
	}
	model := cfg.FindModel(preferred...)

	switch apiType {
	case llms.ProviderOpenAI:
		opts := []openai.Option{openai.WithModel(model)}
		if cfg.Token != "" {
			opts = append(opts, openai.WithToken(cfg.Token))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		if cfg.OrgID != "" {
			opts = append(opts, openai.WithOrganization(cfg.OrgID))
		}
		return openai.New(opts...)
	case llms.ProviderAnthropic:
		opts := []anthropic.Option{anthropic.WithModel(model)}
		if cfg.Token != "" {
			opts = append(opts, anthropic.WithToken(cfg.Token))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		return anthropic.New(opts...)
	}

	opts := []googleai.Option{googleai.WithDefaultModel(model)}
	if cfg.Token != "" {
		opts = append(opts, googleai.WithAPIKey(cfg.Token))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, googleai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.CloudProject != "" {
		opts = append(opts, googleai.WithCloudProject(cfg.CloudProject, cfg.CloudLocation))
	}
	return googleai.New(context.Background(), opts...)
}

func (f *factory) model(cfg *ProviderConfig, preferred ...string) (llms.Model, error) {
	key := cfg.Name + "/" + cfg.FindModel(preferred...)

	f.lock.Lock()
	defer f.lock.Unlock()
	if m, ok := f.models[key]; ok {
		return m, nil
	}

	m, err := NewLLM(cfg, preferred...)
	if err != nil {
		return nil, err
	}
	logger.KV(xlog.DEBUG,
		"status", "created_llm",
		"provider", cfg.Name,
		"model", m.GetName())
	f.models[key] = m
	return m, nil
}

func (f *factory) DefaultModel() (llms.Model, error) {
	if f.def == nil {
		return nil, errors.New("no providers configured")
	}
	return f.model(f.def)
}

func (f *factory) ModelByType(apiType string) (llms.Model, error) {
	for _, cfg := range f.providers {
		if strings.EqualFold(cfg.APIType, apiType) {
			return f.model(cfg)
		}
	}
	return nil, errors.Errorf("provider not found for type: %s", apiType)
}

func (f *factory) ModelByName(models ...string) (llms.Model, error) {
	for _, name := range models {
		for _, cfg := range f.providers {
			if !slices.Contains(cfg.AvailableModels, name) {
				continue
			}
			m, err := f.model(cfg, name)
			if err != nil {
				logger.KV(xlog.ERROR,
					"reason", "create_llm",
					"provider", cfg.Name,
					"model", name,
					"err", err.Error())
				continue
			}
			return m, nil
		}
	}
	return f.DefaultModel()
}

func (f *factory) ToolModel(tool string, preferred ...string) (llms.Model, error) {
	if models, ok := f.toolModels[tool]; ok {
		return f.ModelByName(models...)
	}
	if models, ok := f.toolModels[DefaultToolModels]; ok {
		return f.ModelByName(models...)
	}
	return f.ModelByName(preferred...)
}

package cli

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/callbacks"
	"github.com/effective-security/toolbelt/config"
	"github.com/effective-security/toolbelt/pkg/llmfactory"
	"github.com/effective-security/toolbelt/store"
	"github.com/effective-security/toolbelt/tools"
	"github.com/effective-security/toolbelt/tools/basket"
	"github.com/effective-security/toolbelt/tools/booking"
	"github.com/effective-security/toolbelt/tools/ingredients"
	"github.com/effective-security/toolbelt/tools/recipe"
	"github.com/effective-security/toolbelt/tools/websearch"
	"github.com/effective-security/xlog"
	"github.com/redis/go-redis/v9"
)

// NewToolbox returns the tools enabled by the configuration,
// the closer releases the store connections.
func NewToolbox(ctx context.Context, cfg *config.Config) (*tools.Toolbox, func(), error) {
	box, err := tools.NewToolbox()
	if err != nil {
		return nil, nil, err
	}

	if err = addSearch(ctx, box, cfg.Search); err != nil {
		return nil, nil, err
	}
	if err = addScraper(box, cfg.Scraper); err != nil {
		return nil, nil, err
	}
	if err = addIngredients(box, &cfg.LLM, cfg.Ingredients); err != nil {
		return nil, nil, err
	}

	st, closer, err := newBasketStore(cfg.Basket)
	if err != nil {
		return nil, nil, err
	}
	list, err := basket.New(st).List()
	if err != nil {
		closer()
		return nil, nil, err
	}
	if err = box.Add(list...); err != nil {
		closer()
		return nil, nil, err
	}

	if err = addBooking(box, cfg.Booking); err != nil {
		closer()
		return nil, nil, err
	}

	box.WithCallback(callbacks.NewLogger())
	logger.KV(xlog.INFO, "status", "toolbox", "tools", box.Names())
	return box, closer, nil
}

func addSearch(ctx context.Context, box *tools.Toolbox, cfg config.Search) error {
	var (
		provider websearch.Provider
		err      error
	)
	switch cfg.Provider {
	case "":
		logger.KV(xlog.WARNING, "reason", "disabled", "tool", "search")
		return nil
	case config.SearchGoogle:
		provider, err = websearch.NewGoogle(ctx, websearch.GoogleConfig{
			APIKey:  cfg.Google.APIKey,
			CX:      cfg.Google.CX,
			BaseURL: cfg.Google.BaseURL,
		})
	case config.SearchTavily:
		provider, err = websearch.NewTavily(websearch.TavilyConfig{
			APIKey:      cfg.Tavily.APIKey,
			BaseURL:     cfg.Tavily.BaseURL,
			SearchDepth: cfg.Tavily.SearchDepth,
		})
	default:
		return errors.Errorf("unsupported search provider: %s", cfg.Provider)
	}
	if err != nil {
		return err
	}

	tool, err := websearch.NewTool(websearch.NewSearcher(provider, cfg.Timeout, cfg.Limit), cfg.ToolName)
	if err != nil {
		return err
	}
	return box.Add(tool)
}

func addScraper(box *tools.Toolbox, cfg config.Scraper) error {
	var fetcher recipe.Fetcher
	switch cfg.Fetcher {
	case config.FetcherHTTP:
		fetcher = &recipe.HTTPFetcher{
			Client:    http.DefaultClient,
			UserAgent: cfg.UserAgent,
		}
	default:
		fetcher = &recipe.ChromeFetcher{
			ExecPath:    cfg.ChromePath,
			UserAgent:   cfg.UserAgent,
			SettleDelay: cfg.SettleDelay,
		}
	}

	tool, err := recipe.NewTool(recipe.NewScraper(fetcher, cfg.Timeout))
	if err != nil {
		return err
	}
	return box.Add(tool)
}

func addIngredients(box *tools.Toolbox, llmCfg *llmfactory.Config, cfg config.Ingredients) error {
	if len(llmCfg.Providers) == 0 {
		logger.KV(xlog.WARNING, "reason", "no_llm_providers", "tool", ingredients.ToolName)
		return nil
	}

	model, err := llmfactory.New(llmCfg).ToolModel(ingredients.ToolName)
	if err != nil {
		return err
	}
	extractor, err := ingredients.NewExtractor(model, ingredients.WithTimeout(cfg.Timeout))
	if err != nil {
		return err
	}
	tool, err := ingredients.NewTool(extractor)
	if err != nil {
		return err
	}
	return box.Add(tool)
}

func newBasketStore(cfg config.Basket) (store.BasketStore, func(), error) {
	opts := []store.Option{store.WithUnitPrice(cfg.UnitPrice)}

	switch cfg.Store {
	case config.StoreRedis:
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closer := func() {
			if err := client.Close(); err != nil {
				logger.KV(xlog.ERROR, "reason", "redis_close", "err", err.Error())
			}
		}
		return store.NewRedisStore(client, cfg.Redis.Prefix, opts...), closer, nil
	case config.StoreMemory, "":
		return store.NewMemoryStore(opts...), func() {}, nil
	}
	return nil, nil, errors.Errorf("unsupported basket store: %s", cfg.Store)
}

func addBooking(box *tools.Toolbox, cfg config.Booking) error {
	if !cfg.Enabled {
		return nil
	}

	opts := []booking.Option{booking.WithTimeout(cfg.Timeout)}
	if cfg.Seed != 0 {
		opts = append(opts, booking.WithSeed(cfg.Seed))
	}

	am, err := booking.NewAmadeus(booking.AmadeusConfig{
		APIKey:    cfg.Amadeus.APIKey,
		APISecret: cfg.Amadeus.APISecret,
		BaseURL:   cfg.Amadeus.BaseURL,
	})
	if err != nil {
		// flights and hotel bookings are mocks, only the search needs the API
		logger.KV(xlog.WARNING, "reason", "amadeus_disabled", "err", err.Error())
	} else {
		opts = append(opts, booking.WithAmadeus(am))
	}

	list, err := booking.New(opts...).List()
	if err != nil {
		return err
	}
	return box.Add(list...)
}

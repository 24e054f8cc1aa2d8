// Package config provides the configuration of toolbelt server
package config

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/pkg/llmfactory"
	"github.com/effective-security/x/configloader"
)

// Transports
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Search providers
const (
	SearchGoogle = "google"
	SearchTavily = "tavily"
)

// Fetchers
const (
	FetcherChrome = "chrome"
	FetcherHTTP   = "http"
)

// Basket stores
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config of the server
type Config struct {
	Server      Server            `json:"server" yaml:"server"`
	LLM         llmfactory.Config `json:"llm" yaml:"llm"`
	Search      Search            `json:"search" yaml:"search"`
	Scraper     Scraper           `json:"scraper" yaml:"scraper"`
	Ingredients Ingredients       `json:"ingredients" yaml:"ingredients"`
	Basket      Basket            `json:"basket" yaml:"basket"`
	Booking     Booking           `json:"booking" yaml:"booking"`
}

// Server describes MCP server
type Server struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	// Transport is stdio or http
	Transport string `json:"transport" yaml:"transport"`
	// Addr and Endpoint are used by http transport
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// Search configures the web search tool
type Search struct {
	// Provider is google or tavily, disabled when empty
	Provider string        `json:"provider" yaml:"provider"`
	ToolName string        `json:"tool_name,omitempty" yaml:"tool_name,omitempty"`
	Timeout  time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Limit    int           `json:"limit,omitempty" yaml:"limit,omitempty"`
	Google   Google        `json:"google" yaml:"google"`
	Tavily   Tavily        `json:"tavily" yaml:"tavily"`
}

// Google Custom Search settings, the empty values are read from environment
type Google struct {
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	CX      string `json:"cx,omitempty" yaml:"cx,omitempty"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// Tavily settings, the empty values are read from environment
type Tavily struct {
	APIKey      string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL     string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	SearchDepth string `json:"search_depth,omitempty" yaml:"search_depth,omitempty"`
}

// Scraper configures the recipe scraper
type Scraper struct {
	// Fetcher is chrome or http
	Fetcher     string        `json:"fetcher" yaml:"fetcher"`
	ChromePath  string        `json:"chrome_path,omitempty" yaml:"chrome_path,omitempty"`
	UserAgent   string        `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	SettleDelay time.Duration `json:"settle_delay,omitempty" yaml:"settle_delay,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Ingredients configures the extractor
type Ingredients struct {
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Basket configures the basket store
type Basket struct {
	// Store is memory or redis
	Store     string  `json:"store" yaml:"store"`
	UnitPrice float64 `json:"unit_price,omitempty" yaml:"unit_price,omitempty"`
	Redis     Redis   `json:"redis" yaml:"redis"`
}

// Redis connection
type Redis struct {
	Addrs    []string `json:"addrs" yaml:"addrs"`
	Password string   `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int      `json:"db,omitempty" yaml:"db,omitempty"`
	Prefix   string   `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// Booking configures the travel tools
type Booking struct {
	Enabled bool          `json:"enabled" yaml:"enabled"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// Seed makes the mock data reproducible, random when 0
	Seed    uint64  `json:"seed,omitempty" yaml:"seed,omitempty"`
	Amadeus Amadeus `json:"amadeus" yaml:"amadeus"`
}

// Amadeus settings, the empty values are read from environment
type Amadeus struct {
	APIKey    string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	APISecret string `json:"api_secret,omitempty" yaml:"api_secret,omitempty"`
	BaseURL   string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// Default returns the configuration with defaults
func Default() *Config {
	cfg := new(Config)
	cfg.SetDefaults()
	return cfg
}

// Load returns the configuration from file,
// the environment variables are expanded.
func Load(file string) (*Config, error) {
	cfg := new(Config)
	if file != "" {
		if err := configloader.UnmarshalAndExpand(file, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to load config: %s", file)
		}
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetDefaults sets the empty values
func (c *Config) SetDefaults() {
	c.Server.Name = valueOr(c.Server.Name, "toolbelt")
	c.Server.Version = valueOr(c.Server.Version, "v0.1.0")
	c.Server.Transport = valueOr(c.Server.Transport, TransportStdio)
	c.Server.Addr = valueOr(c.Server.Addr, ":8080")
	c.Server.Endpoint = valueOr(c.Server.Endpoint, "/mcp")

	c.Scraper.Fetcher = valueOr(c.Scraper.Fetcher, FetcherChrome)
	c.Basket.Store = valueOr(c.Basket.Store, StoreMemory)
	if c.Basket.Redis.Prefix == "" {
		c.Basket.Redis.Prefix = "/toolbelt"
	}
}

// Validate returns error if the configuration is invalid
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return errors.Errorf("unsupported transport: %s", c.Server.Transport)
	}
	switch c.Search.Provider {
	case "", SearchGoogle, SearchTavily:
	default:
		return errors.Errorf("unsupported search provider: %s", c.Search.Provider)
	}
	switch c.Scraper.Fetcher {
	case FetcherChrome, FetcherHTTP:
	default:
		return errors.Errorf("unsupported fetcher: %s", c.Scraper.Fetcher)
	}
	switch c.Basket.Store {
	case StoreMemory:
	case StoreRedis:
		if len(c.Basket.Redis.Addrs) == 0 {
			return errors.New("redis store requires basket.redis.addrs")
		}
	default:
		return errors.Errorf("unsupported basket store: %s", c.Basket.Store)
	}
	if c.Basket.UnitPrice < 0 {
		return errors.New("basket.unit_price must not be negative")
	}
	return nil
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

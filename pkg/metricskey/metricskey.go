// Package metricskey describes the metrics emitted by the tools
package metricskey

import "github.com/effective-security/metrics"

// Tool calls
var (
	PerfToolCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_call",
		Help:         "duration of the tool call",
		RequiredTags: []string{"tool"},
	}
	StatsToolCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_succeeded",
		Help:         "count of the tool calls returned a result",
		RequiredTags: []string{"tool"},
	}
	StatsToolCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_failed",
		Help:         "count of the tool calls rejected with invalid input",
		RequiredTags: []string{"tool"},
	}
	StatsToolCallsNotFound = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_not_found",
		Help:         "count of the calls to unknown tools",
		RequiredTags: []string{"tool"},
	}
)

// Upstreams: search providers, web pages, Amadeus
var (
	PerfUpstreamCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_upstream_call",
		Help:         "duration of the upstream call",
		RequiredTags: []string{"upstream"},
	}
)

// Model usage by ingredients extractor
var (
	StatsLLMBytesSent = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_bytes_sent",
		Help:         "bytes of the prompts sent to the model",
		RequiredTags: []string{"tool", "model"},
	}
	StatsLLMBytesReceived = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_bytes_received",
		Help:         "bytes of the replies received from the model",
		RequiredTags: []string{"tool", "model"},
	}
	StatsLLMInputTokens = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_input_tokens",
		Help:         "input tokens reported by the model",
		RequiredTags: []string{"tool", "model"},
	}
	StatsLLMOutputTokens = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_output_tokens",
		Help:         "output tokens reported by the model",
		RequiredTags: []string{"tool", "model"},
	}
	StatsIngredientsFallbackParsed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_ingredients_fallback_parsed",
		Help:         "count of the ingredient lists parsed line by line when the model reply had no JSON",
		RequiredTags: []string{"tool"},
	}
)

// Basket
var (
	StatsBasketItemsAdded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_basket_items_added",
		Help:         "count of the items added to baskets",
		RequiredTags: []string{"store"},
	}
	StatsBasketCheckouts = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_basket_checkouts",
		Help:         "count of the completed purchases",
		RequiredTags: []string{"store"},
	}
)

// Metrics lists all metrics, sorted by name
var Metrics = []*metrics.Describe{
	&PerfToolCall,
	&PerfUpstreamCall,
	&StatsBasketCheckouts,
	&StatsBasketItemsAdded,
	&StatsIngredientsFallbackParsed,
	&StatsLLMBytesReceived,
	&StatsLLMBytesSent,
	&StatsLLMInputTokens,
	&StatsLLMOutputTokens,
	&StatsToolCallsFailed,
	&StatsToolCallsNotFound,
	&StatsToolCallsSucceeded,
}

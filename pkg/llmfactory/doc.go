// Package llmfactory creates the models of the configured providers:
// Google AI, Anthropic and OpenAI, and selects the model per tool.
package llmfactory

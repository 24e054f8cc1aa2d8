// Package llms provides a small provider-neutral surface for text generation:
// messages, call options and the Model interface implemented by
// the googleai, anthropic and openai subpackages.
package llms

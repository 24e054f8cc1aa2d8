package llmutils

import (
	"github.com/effective-security/toolbelt/pkg/llms"
	"github.com/effective-security/x/values"
)

// CountMessagesContentSize returns the bytes sent to the model:
// roles, text and binary parts.
func CountMessagesContentSize(msgs []llms.Message) uint64 {
	var size int
	for _, m := range msgs {
		size += len(m.Role)
		for _, p := range m.Parts {
			switch part := p.(type) {
			case llms.TextContent:
				size += len(part.Text)
			case llms.BinaryContent:
				size += len(part.MIMEType) + len(part.Data)
			}
		}
	}
	return uint64(size)
}

// CountResponseContentSize returns the bytes received from the model
func CountResponseContentSize(resp *llms.ContentResponse) uint64 {
	var size int
	for _, c := range resp.Choices {
		size += len(c.Content)
	}
	return uint64(size)
}

// CountTokens sums the token usage reported in the choices
func CountTokens(resp *llms.ContentResponse) (in, out, total int64) {
	for _, c := range resp.Choices {
		info := values.MapAny(c.GenerationInfo)
		in += info.Int64("InputTokens")
		out += info.Int64("OutputTokens")
		total += info.Int64("TotalTokens")
	}
	return
}

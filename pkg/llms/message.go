package llms

import (
	"encoding/base64"
	"strings"
)

// Role of the message author
type Role string

// Roles
const (
	RoleAI     Role = "ai"
	RoleHuman  Role = "human"
	RoleSystem Role = "system"
)

// ContentPart is a text or binary part of the message
type ContentPart interface {
	isPart()
}

// TextContent is a text part
type TextContent struct {
	Text string `json:"text"`
}

func (TextContent) isPart() {}

func (c TextContent) String() string {
	return c.Text
}

// BinaryContent is a binary part, like image, with MIME type
type BinaryContent struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

func (BinaryContent) isPart() {}

// String returns the data URL of the content
func (c BinaryContent) String() string {
	return "data:" + c.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(c.Data)
}

// TextPart returns the text part
func TextPart(s string) TextContent {
	return TextContent{Text: s}
}

// BinaryPart returns the binary part
func BinaryPart(mime string, data []byte) BinaryContent {
	return BinaryContent{MIMEType: mime, Data: data}
}

// Message is sent to the model
type Message struct {
	Role  Role          `json:"role"`
	Parts []ContentPart `json:"parts"`
}

// MessageFromParts returns the message with parts
func MessageFromParts(role Role, parts ...ContentPart) Message {
	return Message{Role: role, Parts: parts}
}

// MessageFromTextParts returns the message with text parts
func MessageFromTextParts(role Role, texts ...string) Message {
	parts := make([]ContentPart, len(texts))
	for i, s := range texts {
		parts[i] = TextPart(s)
	}
	return Message{Role: role, Parts: parts}
}

// GetContent returns the printable content of the message,
// each part starts on a new line and binary parts are shown by MIME type.
func (m Message) GetContent() string {
	var buf strings.Builder
	for _, p := range m.Parts {
		var s string
		switch part := p.(type) {
		case TextContent:
			s = part.Text
		case BinaryContent:
			s = "Binary: " + part.MIMEType
		default:
			continue
		}
		if buf.Len() > 0 && !strings.HasSuffix(buf.String(), "\n") {
			buf.WriteByte('\n')
		}
		buf.WriteString(s)
	}
	if buf.Len() > 0 && !strings.HasSuffix(buf.String(), "\n") {
		buf.WriteByte('\n')
	}
	return buf.String()
}

// Text returns the text parts joined together
func (m Message) Text() string {
	var buf strings.Builder
	for _, p := range m.Parts {
		if part, ok := p.(TextContent); ok {
			buf.WriteString(part.Text)
		}
	}
	return buf.String()
}

// ContentResponse is returned by the model
type ContentResponse struct {
	Choices []*ContentChoice
}

// ContentChoice is a generated candidate
type ContentChoice struct {
	Content    string `json:"content"`
	StopReason string `json:"stop_reason"`
	// GenerationInfo carries provider details, like token usage:
	// InputTokens, OutputTokens and TotalTokens
	GenerationInfo map[string]any `json:"generation_info"`
}

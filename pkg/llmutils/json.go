// Package llmutils provides helpers to handle the model input and output
package llmutils

import (
	"bytes"
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	fence     = []byte("```")
	jsonFence = []byte("```json")
)

// CleanJSON trims the text before the first opening
// and after the last closing brace or bracket,
// models often reply like `Here you go: {...}`.
// The text is returned as is when it has no braces.
func CleanJSON(bs []byte) []byte {
	start := bytes.IndexAny(bs, "{[")
	end := lastIndexAny(bs, '}', ']')
	if start == -1 || end == -1 || end < start {
		return bs
	}
	return bs[start : end+1]
}

func lastIndexAny(bs []byte, a, b byte) int {
	return max(bytes.LastIndexByte(bs, a), bytes.LastIndexByte(bs, b))
}

// FencedJSON returns the content of the first ```json block,
// or nil if the text has no complete json block.
func FencedJSON(bs []byte) []byte {
	start := bytes.Index(bs, jsonFence)
	if start == -1 {
		return nil
	}
	rest := bs[start+len(jsonFence):]
	end := bytes.Index(rest, fence)
	if end == -1 {
		return nil
	}
	return bytes.TrimSpace(rest[:end])
}

// ExtractJSON locates a JSON payload in the model output:
// a ```json block wins, otherwise the outermost object or array.
// It returns nil when the text carries no JSON payload.
func ExtractJSON(bs []byte) []byte {
	if fenced := FencedJSON(bs); len(fenced) > 0 {
		bs = fenced
	}
	js := bytes.TrimSpace(CleanJSON(bs))
	if len(js) < 2 || (js[0] != '{' && js[0] != '[') {
		return nil
	}
	return js
}

// ToJSON returns compact JSON, or empty string if the value can not be encoded
func ToJSON(val any) string {
	js, _ := json.Marshal(val)
	return string(js)
}

// ToJSONIndent returns tab indented JSON
func ToJSONIndent(val any) string {
	js, _ := json.MarshalIndent(val, "", "\t")
	return string(js)
}

// ToYAML returns YAML
func ToYAML(val any) string {
	y, _ := yaml.Marshal(val)
	return string(y)
}

// BackticksJSON wraps JSON in ```json block
func BackticksJSON(js string) string {
	return "\n```json\n" + strings.TrimSpace(js) + "\n```\n"
}

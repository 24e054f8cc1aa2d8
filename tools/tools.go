package tools

import (
	"context"
	"encoding/json"

	"github.com/effective-security/toolbelt/pkg/llmutils"
	mcp "github.com/metoro-io/mcp-golang"
)

// MCPRegistrar is implemented by the MCP server
type MCPRegistrar interface {
	RegisterTool(name string, description string, handler any) error
}

// ITool is a tool the agent can call.
// Call takes the JSON input and returns the JSON result,
// the error is returned only when the input is invalid:
// ErrFailedUnmarshalInput or ErrInvalidInput.
// Upstream failures are reported in the result with `success: false`.
type ITool interface {
	Name() string
	// Description is used in the prompt, keep it short
	Description() string
	// Parameters returns JSON schema of the input
	Parameters() any
	Call(ctx context.Context, input string) (string, error)
}

// Tool is ITool with typed Run
type Tool[I any, O any] interface {
	ITool
	Run(context.Context, *I) (*O, error)
}

// IMCPTool can be registered with MCP server
type IMCPTool interface {
	ITool
	RegisterMCP(MCPRegistrar) error
}

// MCPTool is IMCPTool with typed handler
type MCPTool[I any] interface {
	IMCPTool
	RunMCP(context.Context, *I) (*mcp.ToolResponse, error)
}

// Callback receives the tool call events
type Callback interface {
	OnToolStart(ctx context.Context, tool ITool, input string)
	OnToolEnd(ctx context.Context, tool ITool, input string, output string)
	OnToolError(ctx context.Context, tool ITool, input string, err error)
}

type definition struct {
	Name        string         `json:"Name" yaml:"Name"`
	Description string         `json:"Description" yaml:"Description"`
	Parameters  map[string]any `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
}

type definitions struct {
	Tools []definition `json:"Tools" yaml:"Tools"`
}

func describe(withParams bool, list []ITool) definitions {
	d := definitions{Tools: make([]definition, 0, len(list))}
	for _, t := range list {
		def := definition{Name: t.Name(), Description: t.Description()}
		if withParams {
			// round trip through JSON to drop the schema internals from YAML
			_ = json.Unmarshal([]byte(llmutils.ToJSON(t.Parameters())), &def.Parameters)
		}
		d.Tools = append(d.Tools, def)
	}
	return d
}

// GetDescriptions returns ```json block with names and descriptions of the tools
func GetDescriptions(list ...ITool) string {
	return llmutils.BackticksJSON(llmutils.ToJSONIndent(describe(false, list)))
}

// GetDefinitions returns YAML with names, descriptions and parameters of the tools
func GetDefinitions(list ...ITool) string {
	return llmutils.ToYAML(describe(true, list))
}

// Package tools defines the Tool interface for LLM agents, including registration, parameter schema, and MCP integration.
// FuncTool adapts a typed function to a Tool, and Toolbox is the named registry that is served over MCP.
package tools

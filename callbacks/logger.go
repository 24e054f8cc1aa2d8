package callbacks

import (
	"context"

	"github.com/effective-security/toolbelt/chatmodel"
	"github.com/effective-security/toolbelt/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolbelt", "callbacks")

// Logger writes the events to the package logger with the call ID,
// the input and output are logged at DEBUG level.
type Logger struct{}

// NewLogger returns Logger
func NewLogger() *Logger {
	return &Logger{}
}

// OnToolStart implements tools.Callback
func (*Logger) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_start",
		"tool", tool.Name(),
		"call_id", chatmodel.GetCallID(ctx),
		"input", input)
}

// OnToolEnd implements tools.Callback
func (*Logger) OnToolEnd(ctx context.Context, tool tools.ITool, _ string, output string) {
	logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_end",
		"tool", tool.Name(),
		"call_id", chatmodel.GetCallID(ctx),
		"output", output)
}

// OnToolError implements tools.Callback
func (*Logger) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	logger.ContextKV(ctx, xlog.WARNING,
		"event", "tool_error",
		"tool", tool.Name(),
		"call_id", chatmodel.GetCallID(ctx),
		"input", input,
		"err", err.Error())
}

// Package callbacks provides handlers of tool call events
package callbacks

import (
	"context"

	"github.com/effective-security/toolbelt/tools"
)

var (
	_ tools.Callback = (*Fanout)(nil)
	_ tools.Callback = (*Printer)(nil)
	_ tools.Callback = (*Logger)(nil)
)

// Fanout forwards the events to the callbacks in order
type Fanout []tools.Callback

// NewFanout returns Fanout, nil callbacks are skipped
func NewFanout(list ...tools.Callback) Fanout {
	var f Fanout
	for _, cb := range list {
		f = f.Add(cb)
	}
	return f
}

// Add returns Fanout with the callback appended
func (f Fanout) Add(cb tools.Callback) Fanout {
	if cb == nil {
		return f
	}
	return append(f, cb)
}

// OnToolStart implements tools.Callback
func (f Fanout) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	for _, cb := range f {
		cb.OnToolStart(ctx, tool, input)
	}
}

// OnToolEnd implements tools.Callback
func (f Fanout) OnToolEnd(ctx context.Context, tool tools.ITool, input string, output string) {
	for _, cb := range f {
		cb.OnToolEnd(ctx, tool, input, output)
	}
}

// OnToolError implements tools.Callback
func (f Fanout) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	for _, cb := range f {
		cb.OnToolError(ctx, tool, input, err)
	}
}

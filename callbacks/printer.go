package callbacks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/effective-security/toolbelt/tools"
)

// Mode of the Printer
type Mode int

const (
	// ModeDefault prints the tool names and input
	ModeDefault Mode = iota
	// ModeVerbose prints the tool output as well
	ModeVerbose
)

// Printer writes the events in human readable form,
// used by `call --trace`
type Printer struct {
	out  io.Writer
	mode Mode
	lock sync.Mutex
}

// NewPrinter returns Printer
func NewPrinter(out io.Writer, mode Mode) *Printer {
	return &Printer{out: out, mode: mode}
}

func (p *Printer) printf(format string, args ...any) {
	p.lock.Lock()
	defer p.lock.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

// OnToolStart implements tools.Callback
func (p *Printer) OnToolStart(_ context.Context, tool tools.ITool, input string) {
	p.printf("Tool Start: %s\nInput: %s\n", tool.Name(), input)
}

// OnToolEnd implements tools.Callback
func (p *Printer) OnToolEnd(_ context.Context, tool tools.ITool, _ string, output string) {
	if p.mode == ModeVerbose {
		p.printf("Tool End: %s\nOutput: %s\n", tool.Name(), output)
		return
	}
	p.printf("Tool End: %s\n", tool.Name())
}

// OnToolError implements tools.Callback
func (p *Printer) OnToolError(_ context.Context, tool tools.ITool, _ string, err error) {
	p.printf("Tool Error: %s: %s\n", tool.Name(), err.Error())
}

package tools

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/pkg/metricskey"
	"github.com/effective-security/xlog"
)

// ErrToolNotFound is returned when a tool is not registered in the Toolbox
var ErrToolNotFound = errors.New("tool not found")

// Toolbox is a named registry of tools
type Toolbox struct {
	lock  sync.RWMutex
	tools map[string]ITool
	// order of registration
	names    []string
	callback Callback
}

// NewToolbox returns a Toolbox with the provided tools
func NewToolbox(list ...ITool) (*Toolbox, error) {
	b := &Toolbox{
		tools: make(map[string]ITool),
	}
	if err := b.Add(list...); err != nil {
		return nil, err
	}
	return b, nil
}

// Add registers tools, the names must be unique
func (b *Toolbox) Add(list ...ITool) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	for _, t := range list {
		name := t.Name()
		if _, ok := b.tools[name]; ok {
			return errors.Errorf("tool already registered: %s", name)
		}
		b.tools[name] = t
		b.names = append(b.names, name)
	}
	return nil
}

// Get returns the tool by name
func (b *Toolbox) Get(name string) (ITool, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	t, ok := b.tools[name]
	return t, ok
}

// List returns tools in the order of registration
func (b *Toolbox) List() []ITool {
	b.lock.RLock()
	defer b.lock.RUnlock()

	list := make([]ITool, 0, len(b.names))
	for _, name := range b.names {
		list = append(list, b.tools[name])
	}
	return list
}

// Names returns names of the tools in the order of registration
func (b *Toolbox) Names() []string {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return append([]string(nil), b.names...)
}

// WithCallback sets the callback, invoked from Call
func (b *Toolbox) WithCallback(cb Callback) *Toolbox {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.callback = cb
	return b
}

// Call executes the tool by name
func (b *Toolbox) Call(ctx context.Context, name string, input string) (string, error) {
	t, ok := b.Get(name)
	if !ok {
		metricskey.StatsToolCallsNotFound.IncrCounter(1, name)
		logger.ContextKV(ctx, xlog.WARNING, "reason", "not_found", "tool", name)
		return "", errors.Wrapf(ErrToolNotFound, "%s", name)
	}

	b.lock.RLock()
	cb := b.callback
	b.lock.RUnlock()
	if cb == nil {
		return t.Call(ctx, input)
	}

	ctx = ensureCallContext(ctx, name)
	cb.OnToolStart(ctx, t, input)
	res, err := t.Call(ctx, input)
	if err != nil {
		cb.OnToolError(ctx, t, input, err)
		return "", err
	}
	cb.OnToolEnd(ctx, t, input, res)
	return res, nil
}

// RegisterMCP registers all tools that support MCP
func (b *Toolbox) RegisterMCP(registrator MCPRegistrar) error {
	for _, t := range b.List() {
		mt, ok := t.(IMCPTool)
		if !ok {
			logger.KV(xlog.DEBUG, "reason", "not_mcp_tool", "tool", t.Name())
			continue
		}
		if err := mt.RegisterMCP(registrator); err != nil {
			return errors.Wrapf(err, "failed to register tool: %s", t.Name())
		}
	}
	return nil
}

// Descriptions returns the description of the tools for the prompt
func (b *Toolbox) Descriptions() string {
	return GetDescriptions(b.List()...)
}

package chatmodel

import (
	"context"
	"strconv"
	"sync"

	"github.com/effective-security/x/values"
	"github.com/effective-security/xdb/pkg/flake"
)

// CallContext follows a single tool invocation,
// it carries the call ID used to correlate logs.
type CallContext interface {
	GetCallID() string
	// GetTool returns the name of the invoked tool
	GetTool() string
	// GetMetadata retrieves metadata by key
	GetMetadata(key string) (value any, ok bool)
	// SetMetadata sets metadata by key
	SetMetadata(key string, value any)
}

type callContext struct {
	callID   string
	tool     string
	metadata sync.Map
}

func (c *callContext) GetCallID() string {
	return c.callID
}

func (c *callContext) GetTool() string {
	return c.tool
}

func (c *callContext) GetMetadata(key string) (value any, ok bool) {
	return c.metadata.Load(key)
}

func (c *callContext) SetMetadata(key string, value any) {
	c.metadata.Store(key, value)
}

// NewCallContext returns a new CallContext,
// a new call ID is generated when callID is empty.
func NewCallContext(callID, tool string) CallContext {
	return &callContext{
		callID: values.StringsCoalesce(callID, NewCallID()),
		tool:   tool,
	}
}

type contextKey int

const (
	keyContext contextKey = iota
)

// WithCallContext returns a new context with CallContext value
func WithCallContext(ctx context.Context, callCtx CallContext) context.Context {
	return context.WithValue(ctx, keyContext, callCtx)
}

// GetCallContext retrieves the CallContext from the context
func GetCallContext(ctx context.Context) CallContext {
	if v, ok := ctx.Value(keyContext).(CallContext); ok {
		return v
	}
	return nil
}

// GetCallID retrieves the call ID from the provided context.
// If the context does not contain a CallContext, it returns an empty string.
func GetCallID(ctx context.Context) string {
	if v, ok := ctx.Value(keyContext).(CallContext); ok {
		return v.GetCallID()
	}
	return ""
}

// NewCallID generates a new call ID using the flake ID generator.
func NewCallID() string {
	return strconv.FormatUint(flake.DefaultIDGenerator.NextID(), 10)
}

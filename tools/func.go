package tools

import (
	"context"
	"encoding/json"
	"reflect"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/chatmodel"
	"github.com/effective-security/toolbelt/pkg/llmutils"
	"github.com/effective-security/toolbelt/pkg/metricskey"
	"github.com/effective-security/toolbelt/pkg/schema"
	"github.com/effective-security/xlog"
	"github.com/go-playground/validator/v10"
	mcp "github.com/metoro-io/mcp-golang"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/toolbelt", "tools")

var validate = validator.New()

// RunFunc is the typed implementation of a tool.
// Returned errors are reserved for invalid input,
// upstream failures must be reported in the result.
type RunFunc[I any, O any] func(ctx context.Context, in *I) (*O, error)

// FuncTool adapts RunFunc to the Tool and MCPTool interfaces
type FuncTool[I any, O any] struct {
	name        string
	description string
	funcParams  any
	run         RunFunc[I, O]
	callback    Callback
}

var _ Tool[struct{}, struct{}] = (*FuncTool[struct{}, struct{}])(nil)
var _ MCPTool[struct{}] = (*FuncTool[struct{}, struct{}])(nil)

// NewFuncTool returns a tool with parameters schema generated from I
func NewFuncTool[I any, O any](name, description string, run RunFunc[I, O]) (*FuncTool[I, O], error) {
	if name == "" {
		return nil, errors.New("tool name is required")
	}
	if run == nil {
		return nil, errors.Errorf("run function is required: %s", name)
	}

	var def I
	sc, err := schema.New(reflect.TypeOf(def))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	return &FuncTool[I, O]{
		name:        name,
		description: description,
		funcParams:  sc.Parameters,
		run:         run,
	}, nil
}

// WithName sets the name of the tool
func (t *FuncTool[I, O]) WithName(name string) *FuncTool[I, O] {
	t.name = name
	return t
}

// WithDescription sets the description of the tool
func (t *FuncTool[I, O]) WithDescription(description string) *FuncTool[I, O] {
	t.description = description
	return t
}

// WithCallback sets the callback, invoked from Call
func (t *FuncTool[I, O]) WithCallback(cb Callback) *FuncTool[I, O] {
	t.callback = cb
	return t
}

func (t *FuncTool[I, O]) Name() string {
	return t.name
}

func (t *FuncTool[I, O]) Description() string {
	return t.description
}

func (t *FuncTool[I, O]) Parameters() any {
	return t.funcParams
}

// Run validates the input and executes the tool
func (t *FuncTool[I, O]) Run(ctx context.Context, in *I) (*O, error) {
	ctx = ensureCallContext(ctx, t.name)
	started := time.Now()
	defer metricskey.PerfToolCall.MeasureSince(started, t.name)

	out, err := t.exec(ctx, in)
	if err != nil {
		metricskey.StatsToolCallsFailed.IncrCounter(1, t.name)
		logger.ContextKV(ctx, xlog.ERROR,
			"tool", t.name,
			"call_id", chatmodel.GetCallID(ctx),
			"err", err.Error())
		return nil, err
	}

	metricskey.StatsToolCallsSucceeded.IncrCounter(1, t.name)
	logger.ContextKV(ctx, xlog.DEBUG,
		"tool", t.name,
		"call_id", chatmodel.GetCallID(ctx),
		"elapsed", time.Since(started).String())
	return out, nil
}

func (t *FuncTool[I, O]) exec(ctx context.Context, in *I) (*O, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	out, err := t.run(ctx, in)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errors.Errorf("tool %s returned no result", t.name)
	}
	return out, nil
}

// Call decodes JSON input, runs the tool and returns JSON result
func (t *FuncTool[I, O]) Call(ctx context.Context, input string) (string, error) {
	if t.callback != nil {
		t.callback.OnToolStart(ctx, t, input)
	}

	res, err := t.call(ctx, input)
	if err != nil {
		if t.callback != nil {
			t.callback.OnToolError(ctx, t, input, err)
		}
		return "", err
	}

	if t.callback != nil {
		t.callback.OnToolEnd(ctx, t, input, res)
	}
	return res, nil
}

func (t *FuncTool[I, O]) call(ctx context.Context, input string) (string, error) {
	in, err := Decode[I](input)
	if err != nil {
		return "", err
	}
	out, err := t.Run(ctx, in)
	if err != nil {
		return "", err
	}
	return llmutils.ToJSON(out), nil
}

func (t *FuncTool[I, O]) RegisterMCP(registrator MCPRegistrar) error {
	return registrator.RegisterTool(t.name, t.description, t.RunMCP)
}

func (t *FuncTool[I, O]) RunMCP(ctx context.Context, req *I) (*mcp.ToolResponse, error) {
	out, err := t.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResponse(mcp.NewTextContent(llmutils.ToJSON(out))), nil
}

// Decode parses the tool input,
// the input may be wrapped by the model in a text or backticks.
func Decode[I any](input string) (*I, error) {
	in := new(I)
	if err := json.Unmarshal(llmutils.CleanJSON([]byte(input)), in); err != nil {
		return nil, errors.WithStack(chatmodel.ErrFailedUnmarshalInput)
	}
	return in, nil
}

// Validate checks the `validate` tags of the input struct
func Validate(in any) error {
	if v := reflect.ValueOf(in); in == nil || (v.Kind() == reflect.Pointer && v.IsNil()) {
		return errors.WithStack(chatmodel.ErrInvalidInput)
	}
	if err := validate.Struct(in); err != nil {
		return errors.Mark(errors.Newf("invalid input: %s", err.Error()), chatmodel.ErrInvalidInput)
	}
	return nil
}

func ensureCallContext(ctx context.Context, tool string) context.Context {
	if chatmodel.GetCallContext(ctx) != nil {
		return ctx
	}
	return chatmodel.WithCallContext(ctx, chatmodel.NewCallContext("", tool))
}

package tools_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/chatmodel"
	"github.com/effective-security/toolbelt/pkg/llmutils"
	"github.com/effective-security/toolbelt/tools"
	mcp "github.com/metoro-io/mcp-golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoRequest struct {
	Text  string `json:"text" yaml:"text" jsonschema:"title=Text,description=The text to echo." validate:"required"`
	Times int    `json:"times,omitempty" yaml:"times" jsonschema:"title=Times,description=Number of repetitions." validate:"gte=0,lte=5"`
}

type echoResult struct {
	Success bool   `json:"success"`
	Echo    string `json:"echo"`
	CallID  string `json:"call_id"`
}

func newEcho(t *testing.T) *tools.FuncTool[echoRequest, echoResult] {
	tool, err := tools.NewFuncTool("echo", "Echoes the text.",
		func(ctx context.Context, in *echoRequest) (*echoResult, error) {
			return &echoResult{
				Success: true,
				Echo:    strings.Repeat(in.Text, max(in.Times, 1)),
				CallID:  chatmodel.GetCallID(ctx),
			}, nil
		})
	require.NoError(t, err)
	return tool
}

func Test_FuncTool(t *testing.T) {
	ctx := context.Background()
	tool := newEcho(t)

	assert.Equal(t, "echo", tool.Name())
	assert.Equal(t, "Echoes the text.", tool.Description())

	params := llmutils.ToJSON(tool.Parameters())
	assert.Contains(t, params, `"text"`)
	assert.Contains(t, params, `"The text to echo."`)

	_, err := tool.Call(ctx, "plain string")
	assert.True(t, errors.Is(err, chatmodel.ErrFailedUnmarshalInput))
	assert.EqualError(t, err, "failed to unmarshal input: check the schema and try again")

	_, err = tool.Call(ctx, `{"times":2}`)
	assert.True(t, errors.Is(err, chatmodel.ErrInvalidInput))

	_, err = tool.Call(ctx, `{"text":"a","times":10}`)
	assert.True(t, errors.Is(err, chatmodel.ErrInvalidInput))

	_, err = tool.Run(ctx, nil)
	assert.True(t, errors.Is(err, chatmodel.ErrInvalidInput))

	res, err := tool.Call(ctx, "Sure, here is the input: ```json\n{\"text\":\"ab\",\"times\":2}\n```")
	require.NoError(t, err)
	assert.Contains(t, res, `"echo":"abab"`)
	assert.Contains(t, res, `"success":true`)

	// call ID is generated when absent, and kept when present
	out, err := tool.Run(ctx, &echoRequest{Text: "x"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.CallID)

	cctx := chatmodel.WithCallContext(ctx, chatmodel.NewCallContext("call-1", "echo"))
	out, err = tool.Run(cctx, &echoRequest{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "call-1", out.CallID)

	resp, err := tool.RunMCP(ctx, &echoRequest{Text: "m"})
	require.NoError(t, err)
	require.Len(t, resp.Content, 1)
	require.NotNil(t, resp.Content[0].TextContent)
	assert.Contains(t, resp.Content[0].TextContent.Text, `"echo":"m"`)

	_, err = tools.NewFuncTool[echoRequest, echoResult]("", "", nil)
	assert.EqualError(t, err, "tool name is required")
	_, err = tools.NewFuncTool[echoRequest, echoResult]("noop", "", nil)
	assert.EqualError(t, err, "run function is required: noop")
}

func Test_FuncToolNoResult(t *testing.T) {
	tool, err := tools.NewFuncTool("nothing", "Returns nothing.",
		func(_ context.Context, _ *echoRequest) (*echoResult, error) {
			return nil, nil
		})
	require.NoError(t, err)

	_, err = tool.Call(context.Background(), `{"text":"x"}`)
	assert.EqualError(t, err, "tool nothing returned no result")
}

type recorder struct {
	lock   sync.Mutex
	events []string
}

func (r *recorder) OnToolStart(_ context.Context, t tools.ITool, _ string) {
	r.add("start:" + t.Name())
}

func (r *recorder) OnToolEnd(_ context.Context, t tools.ITool, _ string, _ string) {
	r.add("end:" + t.Name())
}

func (r *recorder) OnToolError(_ context.Context, t tools.ITool, _ string, _ error) {
	r.add("error:" + t.Name())
}

func (r *recorder) add(e string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.events = append(r.events, e)
}

func Test_Callback(t *testing.T) {
	rec := &recorder{}
	tool := newEcho(t).WithCallback(rec).WithName("echo2").WithDescription("Echo two.")
	assert.Equal(t, "echo2", tool.Name())

	ctx := context.Background()
	_, err := tool.Call(ctx, `{"text":"x"}`)
	require.NoError(t, err)
	_, err = tool.Call(ctx, `{}`)
	require.Error(t, err)

	assert.Equal(t, []string{"start:echo2", "end:echo2", "start:echo2", "error:echo2"}, rec.events)
}

type fakeRegistrator struct {
	names []string
}

func (r *fakeRegistrator) RegisterTool(name string, _ string, handler any) error {
	if _, ok := handler.(func(context.Context, *echoRequest) (*mcp.ToolResponse, error)); !ok {
		return errors.Errorf("unexpected handler: %T", handler)
	}
	r.names = append(r.names, name)
	return nil
}

func Test_Toolbox(t *testing.T) {
	ctx := context.Background()
	echo := newEcho(t)
	echo2 := newEcho(t).WithName("echo2")

	box, err := tools.NewToolbox(echo, echo2)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "echo2"}, box.Names())
	assert.Len(t, box.List(), 2)

	err = box.Add(newEcho(t))
	assert.EqualError(t, err, "tool already registered: echo")

	got, ok := box.Get("echo2")
	require.True(t, ok)
	assert.Equal(t, "echo2", got.Name())

	res, err := box.Call(ctx, "echo", `{"text":"hi"}`)
	require.NoError(t, err)
	assert.Contains(t, res, `"echo":"hi"`)

	_, err = box.Call(ctx, "missing", `{}`)
	assert.True(t, errors.Is(err, tools.ErrToolNotFound))

	reg := &fakeRegistrator{}
	require.NoError(t, box.RegisterMCP(reg))
	assert.Equal(t, []string{"echo", "echo2"}, reg.names)

	desc := box.Descriptions()
	assert.Contains(t, desc, "```json")
	assert.Contains(t, desc, `"Name": "echo2"`)

	def := tools.GetDefinitions(echo)
	assert.Contains(t, def, "Name: echo")
	assert.Contains(t, def, "Parameters:")
}

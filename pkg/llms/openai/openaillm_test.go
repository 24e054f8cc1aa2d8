package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/pkg/llms"
	"github.com/effective-security/toolbelt/pkg/llms/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_New(t *testing.T) {
	t.Setenv(openai.TokenEnvVarName, "")
	_, err := openai.New()
	assert.True(t, errors.Is(err, openai.ErrMissingToken))

	t.Setenv(openai.TokenEnvVarName, "fakekey")
	llm, err := openai.New()
	require.NoError(t, err)
	assert.Equal(t, openai.DefaultChatModel, llm.GetName())
	assert.Equal(t, llms.ProviderOpenAI, llm.GetProviderType())
}

func Test_GenerateContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer fakekey", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req["model"])
		msgs, _ := req["messages"].([]any)
		require.Len(t, msgs, 2)
		assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
		assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
		rf, _ := req["response_format"].(map[string]any)
		assert.Equal(t, "json_object", rf["type"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-test",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "[{\"name\":\"salt\"}]"},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 9, "completion_tokens": 3, "total_tokens": 12}
		}`))
	}))
	defer server.Close()

	llm, err := openai.New(
		openai.WithToken("fakekey"),
		openai.WithModel("gpt-test"),
		openai.WithBaseURL(server.URL),
		openai.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	resp, err := llm.GenerateContent(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleSystem, "you are a chef"),
		llms.MessageFromTextParts(llms.RoleHuman, "extract ingredients"),
	}, llms.WithJSONMode())
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, `[{"name":"salt"}]`, resp.Choices[0].Content)
	assert.Equal(t, "stop", resp.Choices[0].StopReason)
	assert.Equal(t, int64(12), resp.Choices[0].GenerationInfo["TotalTokens"])
}

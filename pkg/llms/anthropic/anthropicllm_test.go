package anthropic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolbelt/pkg/llms"
	"github.com/effective-security/toolbelt/pkg/llms/anthropic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_New(t *testing.T) {
	t.Setenv(anthropic.TokenEnvVarName, "")

	_, err := anthropic.New(anthropic.WithModel("claude-test"))
	assert.True(t, errors.Is(err, anthropic.ErrMissingToken))

	_, err = anthropic.New(anthropic.WithToken("fakekey"))
	assert.EqualError(t, err, "anthropic: model is required")
}

func Test_GenerateContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "fakekey", r.Header.Get("X-Api-Key"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-test", req["model"])
		assert.EqualValues(t, 1024, req["max_tokens"])

		system, _ := req["system"].([]any)
		require.Len(t, system, 1)
		assert.Equal(t, "you are a chef", system[0].(map[string]any)["text"])

		msgs, _ := req["messages"].([]any)
		require.Len(t, msgs, 1)
		assert.Equal(t, "user", msgs[0].(map[string]any)["role"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "2 cups flour"}],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 3, "output_tokens": 4}
		}`))
	}))
	defer server.Close()

	llm, err := anthropic.New(
		anthropic.WithToken("fakekey"),
		anthropic.WithModel("claude-test"),
		anthropic.WithBaseURL(server.URL),
		anthropic.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)
	assert.Equal(t, "claude-test", llm.GetName())
	assert.Equal(t, llms.ProviderAnthropic, llm.GetProviderType())

	resp, err := llm.GenerateContent(context.Background(), []llms.Message{
		llms.MessageFromTextParts(llms.RoleSystem, "you are a chef"),
		llms.MessageFromTextParts(llms.RoleHuman, "extract ingredients"),
	}, llms.WithMaxTokens(1024))
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "2 cups flour", resp.Choices[0].Content)
	assert.Equal(t, "end_turn", resp.Choices[0].StopReason)
	assert.Equal(t, int64(7), resp.Choices[0].GenerationInfo["TotalTokens"])
}

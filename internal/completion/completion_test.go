package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ain9900/custom-chatbot-saas/internal/config"
)

func TestOpenAIClientComplete(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, RoleSystem, req.Messages[0].Role)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Hi there!  "}}]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(nil, OpenAIConfig{BaseURL: srv.URL + "/v1", APIKey: "sk-test"})
	reply, err := client.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "You are a helpful assistant."},
		{Role: RoleUser, Content: "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", reply)
}

func TestOpenAIClientErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "upstream 500", status: http.StatusInternalServerError, body: `{"error":"boom"}`, wantErr: ErrUnavailable},
		{name: "empty content", status: http.StatusOK, body: `{"choices":[{"message":{"content":"   "}}]}`, wantErr: ErrEmptyReply},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client := NewOpenAIClient(nil, OpenAIConfig{BaseURL: srv.URL, APIKey: "k"})
			_, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "x"}})
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestOpenAIClientRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := NewOpenAIClient(nil, OpenAIConfig{}).Complete(context.Background(), []Message{{Role: RoleUser, Content: "x"}})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMock(t *testing.T) {
	t.Parallel()

	reply, err := NewMock("").Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "ping"},
		{Role: RoleSystem, Content: "Relevant: doc"},
	})
	require.NoError(t, err)
	assert.Equal(t, "You said: ping", reply)

	reply, err = NewMock("canned").Complete(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "canned", reply)
}

func TestNewSelectsProvider(t *testing.T) {
	t.Parallel()

	c, err := New(nil, config.CompletionConfig{Provider: "mock"})
	require.NoError(t, err)
	assert.IsType(t, &Mock{}, c)

	c, err = New(nil, config.CompletionConfig{Provider: "openai", Timeout: "5s"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	_, err = New(nil, config.CompletionConfig{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}

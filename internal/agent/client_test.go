package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// completionServer answers /chat/completions with content and records the request.
func completionServer(t *testing.T, content string, got *chatRequest) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if got != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func statusServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func testChat(baseURL string) *ChatClient {
	return NewChatClient(ChatConfig{APIKey: "test-key", BaseURL: baseURL, Model: "test-model", Timeout: 2 * time.Second})
}

func TestChatClient_Complete(t *testing.T) {
	var got chatRequest
	ts := completionServer(t, "hello there", &got)

	out, err := testChat(ts.URL+"/").Complete(context.Background(), []ChatMessage{
		{Role: "system", Content: "be nice"},
		{Role: "user", Content: "hi"},
	}, 0.3)

	require.NoError(t, err)
	assert.Equal(t, "hello there", out)
	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 0.3, got.Temperature)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "hi", got.Messages[1].Content)
}

func TestChatClient_Errors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		_, err := NewChatClient(ChatConfig{BaseURL: "http://127.0.0.1:1"}).Complete(context.Background(), nil, 0)
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})

	t.Run("non 2xx", func(t *testing.T) {
		ts := statusServer(t, http.StatusTooManyRequests, `{"error":"slow down"}`)
		_, err := testChat(ts.URL).Complete(context.Background(), nil, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "LLM API error (429)")
	})

	t.Run("no choices", func(t *testing.T) {
		ts := statusServer(t, http.StatusOK, `{"choices":[]}`)
		_, err := testChat(ts.URL).Complete(context.Background(), nil, 0)
		assert.EqualError(t, err, "no response choices")
	})

	t.Run("malformed body", func(t *testing.T) {
		ts := statusServer(t, http.StatusOK, `not json`)
		_, err := testChat(ts.URL).Complete(context.Background(), nil, 0)
		assert.Error(t, err)
	})
}

func TestChatClient_Configured(t *testing.T) {
	var nilClient *ChatClient
	assert.False(t, nilClient.Configured())
	assert.False(t, NewChatClient(ChatConfig{}).Configured())
	assert.True(t, NewChatClient(ChatConfig{APIKey: "k"}).Configured())
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, NewLimiter(0, 5))

	l := NewLimiter(60, 0)
	require.NotNil(t, l)
	assert.Equal(t, 1, l.Burst())
	assert.InDelta(t, 1.0, float64(l.Limit()), 0.0001)
}

func TestChatClient_LimiterHonoursContext(t *testing.T) {
	ts := completionServer(t, "ok", nil)
	c := NewChatClient(ChatConfig{APIKey: "test-key", BaseURL: ts.URL, Limiter: NewLimiter(1, 1)})

	_, err := c.Complete(context.Background(), nil, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Complete(ctx, nil, 0)
	assert.Error(t, err)
}

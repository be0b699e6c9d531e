package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/kisanmitra/internal/domain/gateway"
	"github.com/yanqian/kisanmitra/internal/domain/upstream"
	apperrors "github.com/yanqian/kisanmitra/pkg/errors"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "model": "test-model",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "Use urea in split doses."}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 42, "completion_tokens": 7, "total_tokens": 49}
}`

func TestCompleteTextChat(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, true)
	reply, err := client.Complete(context.Background(), gateway.Completion{
		Route:  gateway.RouteTextChat,
		System: "You are a farming assistant.",
		Prompt: "Fertilizer for rice?",
	})
	require.NoError(t, err)
	require.Equal(t, "Use urea in split doses.", reply.Text)
	require.Equal(t, 42, reply.Usage.PromptTokens)
	require.Equal(t, 49, reply.Usage.TotalTokens)

	require.Equal(t, "test-model", captured["model"])
	require.NotContains(t, captured, "response_format")
	messages := captured["messages"].([]any)
	require.Len(t, messages, 2)
	require.Equal(t, "system", messages[0].(map[string]any)["role"])
	require.Equal(t, "Fertilizer for rice?", messages[1].(map[string]any)["content"])
}

func TestCompleteVisionSendsImagePartAndJSONMode(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, true)
	_, err := client.Complete(context.Background(), gateway.Completion{
		Route:  gateway.RouteAnalysis,
		System: "Analyze.",
		Prompt: "What is wrong with this leaf?",
		Image:  &upstream.Image{Data: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"},
		JSON:   true,
	})
	require.NoError(t, err)

	format := captured["response_format"].(map[string]any)
	require.Equal(t, "json_object", format["type"])

	user := captured["messages"].([]any)[1].(map[string]any)
	parts := user["content"].([]any)
	require.Len(t, parts, 2)
	require.Equal(t, "text", parts[0].(map[string]any)["type"])
	imagePart := parts[1].(map[string]any)
	require.Equal(t, "image_url", imagePart["type"])
	url := imagePart["image_url"].(map[string]any)["url"].(string)
	require.Contains(t, url, "data:image/png;base64,")
}

func TestCompleteJSONModeDisabled(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, false)
	_, err := client.Complete(context.Background(), gateway.Completion{Prompt: "hi", JSON: true})
	require.NoError(t, err)
	require.NotContains(t, captured, "response_format")
}

func TestCompleteMapsUpstreamStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   string
	}{
		{name: "payment required", status: http.StatusPaymentRequired, body: `{"error":{"message":"Payment required","type":"payment_required"}}`, code: upstream.CodeQuotaExhausted},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error":{"message":"Too many requests","type":"rate_limit"}}`, code: upstream.CodeRateLimited},
		{name: "insufficient quota", status: http.StatusTooManyRequests, body: `{"error":{"message":"You exceeded your quota","type":"insufficient_quota","code":"insufficient_quota"}}`, code: upstream.CodeQuotaExhausted},
		{name: "server error without json", status: http.StatusBadGateway, body: `bad gateway`, code: upstream.CodeUpstreamError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			client := newTestClient(t, srv.URL, true)
			_, err := client.Complete(context.Background(), gateway.Completion{Prompt: "hi"})
			require.Error(t, err)

			var statusErr *upstream.StatusError
			require.ErrorAs(t, err, &statusErr)
			require.Equal(t, tt.status, statusErr.Status)
			require.Equal(t, tt.code, apperrors.CodeOf(upstream.Classify(err)))
		})
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Config{Model: "m"})
	require.Error(t, err)
}

func newTestClient(t *testing.T, baseURL string, jsonMode bool) *Client {
	t.Helper()
	client, err := NewClient(Config{
		APIKey:      "test-key",
		BaseURL:     baseURL,
		Model:       "test-model",
		Temperature: 0.4,
		MaxTokens:   256,
		JSONMode:    jsonMode,
	})
	require.NoError(t, err)
	return client
}

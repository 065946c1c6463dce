package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"mira/pkg/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionBody(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	}
}

func TestChatCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionBody("Hello there!"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", 0.7, 0.9, 300, []ModelConfig{{ID: "test-model", MaxCtx: 100, MaxToken: 512}})

	messages := []memory.LLMMessage{
		{Role: "system", Content: "Be friendly."},
		{Role: "user", Content: "Hi"},
	}
	response, err := client.ChatCompletion(context.Background(), messages)

	require.NoError(t, err)
	assert.Equal(t, "Hello there!", response)
}

func TestChatCompletion_ModelFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.Model == "primary" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "model unavailable"}})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionBody("From the backup!"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", 0.7, 0.9, 300, []ModelConfig{
		{ID: "primary", MaxCtx: 100, MaxToken: 512},
		{ID: "backup", MaxCtx: 100, MaxToken: 512},
	})

	response, err := client.ChatCompletion(context.Background(), []memory.LLMMessage{{Role: "user", Content: "Hi"}})

	require.NoError(t, err)
	assert.Equal(t, "From the backup!", response)
}

func TestChatCompletion_BlankCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionBody("   "))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", 0.7, 0.9, 300, []ModelConfig{{ID: "test-model", MaxCtx: 100, MaxToken: 512}})

	_, err := client.ChatCompletion(context.Background(), []memory.LLMMessage{{Role: "user", Content: "Hi"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "blank completion")
}

func TestChatCompletion_NoKeys(t *testing.T) {
	client := NewClient("http://localhost:1", "", 0.7, 0.9, 300, nil)

	_, err := client.ChatCompletion(context.Background(), []memory.LLMMessage{{Role: "user", Content: "Hi"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no API keys")
}

func TestChatCompletion_CancelledContext(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionBody("too late"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", 0.7, 0.9, 300, []ModelConfig{
		{ID: "primary", MaxCtx: 100, MaxToken: 512},
		{ID: "backup", MaxCtx: 100, MaxToken: 512},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ChatCompletion(ctx, []memory.LLMMessage{{Role: "user", Content: "Hi"}})
	require.Error(t, err)
}

func TestNewClient_KeyParsing(t *testing.T) {
	client := NewClient("http://localhost:1", "key-a, key-b, ,key-c", 0.7, 0.9, 300, nil)

	assert.Len(t, client.keys, 3)
	assert.Equal(t, "key-a", client.keys[0].Key)
	assert.Equal(t, "key-c", client.keys[2].Key)
}

func TestGetBestKey_PrefersFewestFailures(t *testing.T) {
	client := NewClient("http://localhost:1", "key-a,key-b", 0.7, 0.9, 300, nil)

	client.recordFailure(client.keys[0])
	client.recordFailure(client.keys[0])
	client.recordFailure(client.keys[1])

	assert.Equal(t, "key-b", client.getBestKey().Key)
}

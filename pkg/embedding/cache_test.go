package embedding

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedClient_Embed_HitMiss(t *testing.T) {
	var requestCount int32
	expectedEmbedding := []float32{0.5, 0.6, 0.7}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		resp := map[string][][]float32{
			"embeddings": {expectedEmbedding},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	cachedClient := NewCachedClient(client, 10)

	// First call - Cache Miss
	emb1, err := cachedClient.Embed("test request")
	require.NoError(t, err)
	assert.Equal(t, expectedEmbedding, emb1)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount), "Should trigger HTTP request on cache miss")

	// Second call - Cache Hit
	emb2, err := cachedClient.Embed("test request")
	require.NoError(t, err)
	assert.Equal(t, expectedEmbedding, emb2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount), "Should NOT trigger HTTP request on cache hit")

	hits, misses, size := cachedClient.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
	assert.Equal(t, 1, size)
}

func TestCachedClient_LRUEviction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string][]string
		json.NewDecoder(r.Body).Decode(&reqBody)

		// Differentiate embeddings by text length so results are distinguishable
		val := float32(len(reqBody["texts"][0]))
		resp := map[string][][]float32{
			"embeddings": {{val}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	cachedClient := NewCachedClient(client, 2)

	_, err := cachedClient.Embed("a")
	require.NoError(t, err)
	_, err = cachedClient.Embed("bb")
	require.NoError(t, err)

	// "a" is evicted by the third distinct text
	_, err = cachedClient.Embed("ccc")
	require.NoError(t, err)

	_, _, size := cachedClient.Stats()
	assert.Equal(t, 2, size)

	// Re-embedding "a" is a miss again
	_, err = cachedClient.Embed("a")
	require.NoError(t, err)

	_, misses, _ := cachedClient.Stats()
	assert.Equal(t, 4, misses)
}

func TestCachedClient_Clear(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string][][]float32{
			"embeddings": {{1.0}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	cachedClient := NewCachedClient(NewClient("test-key", server.URL), 10)

	_, err := cachedClient.Embed("anything")
	require.NoError(t, err)

	cachedClient.Clear()
	_, _, size := cachedClient.Stats()
	assert.Equal(t, 0, size)
}

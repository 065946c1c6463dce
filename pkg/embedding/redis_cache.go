package embedding

import (
	"context"
	"log"

	"mira/pkg/cache"
)

// RedisCachedClient decorates an embedding client with a Redis-backed cache
// so embeddings survive process restarts and can be shared across sessions.
// Redis trouble degrades to a plain pass-through call, never a failed embed.
type RedisCachedClient struct {
	client Embedder
	cache  *cache.Cache
}

func NewRedisCachedClient(client Embedder, c *cache.Cache) *RedisCachedClient {
	return &RedisCachedClient{
		client: client,
		cache:  c,
	}
}

func (r *RedisCachedClient) Embed(text string) ([]float32, error) {
	ctx := context.Background()
	key := r.cache.Key("embedding", hashText(text))

	var cached []float32
	if err := r.cache.GetJSON(ctx, key, &cached); err == nil && len(cached) > 0 {
		return cached, nil
	}

	embedding, err := r.client.Embed(text)
	if err != nil {
		return nil, err
	}

	if err := r.cache.SetJSON(ctx, key, embedding, cache.EmbeddingTTL); err != nil {
		log.Printf("Error caching embedding: %v", err)
	}

	return embedding, nil
}

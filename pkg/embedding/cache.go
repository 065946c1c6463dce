package embedding

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Embedder is anything that can turn text into a vector. Both cache
// decorators wrap one.
type Embedder interface {
	Embed(text string) ([]float32, error)
}

// CachedClient memoizes embeddings in an in-process LRU. Worth it because
// queries repeat heavily within a session and the remote call dominates
// retrieval latency.
type CachedClient struct {
	client  Embedder
	cache   map[string][]float32
	order   []string // LRU order, oldest first
	maxSize int
	mu      sync.RWMutex
	hits    int
	misses  int
}

func NewCachedClient(client Embedder, maxSize int) *CachedClient {
	if maxSize <= 0 {
		maxSize = 500
	}
	return &CachedClient{
		client:  client,
		cache:   make(map[string][]float32),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
	}
}

// hashText keys the cache on a 16-char sha256 prefix of the text.
func hashText(text string) string {
	h := sha256.New()
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func (c *CachedClient) Embed(text string) ([]float32, error) {
	key := hashText(text)

	c.mu.RLock()
	if embedding, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		c.mu.Lock()
		c.hits++
		c.moveToEnd(key)
		c.mu.Unlock()
		return embedding, nil
	}
	c.mu.RUnlock()

	// The remote call runs outside the lock
	embedding, err := c.client.Embed(text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.misses++
	c.set(key, embedding)
	c.mu.Unlock()

	return embedding, nil
}

// set stores one entry, evicting the oldest at capacity. Caller must hold
// the write lock.
func (c *CachedClient) set(key string, embedding []float32) {
	if len(c.cache) >= c.maxSize {
		oldest := c.order[0]
		delete(c.cache, oldest)
		c.order = c.order[1:]
	}

	c.cache[key] = embedding
	c.order = append(c.order, key)
}

func (c *CachedClient) moveToEnd(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, key)
}

// Stats returns hit/miss counts and the current entry count.
func (c *CachedClient) Stats() (hits, misses, size int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses, len(c.cache)
}

// Clear drops every cached embedding.
func (c *CachedClient) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string][]float32)
	c.order = make([]string, 0, c.maxSize)
}

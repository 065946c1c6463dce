package chat

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log"

	"mira/pkg/safety"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedClassifier memoizes verdicts in an LRU cache. Sound because the
// keyword filter is a pure function of (text, age) apart from its counters,
// which consequently count distinct texts rather than raw calls.
type CachedClassifier struct {
	classifier Classifier
	cache      *lru.Cache[string, safety.Verdict]
}

func NewCachedClassifier(classifier Classifier, cacheSize int) *CachedClassifier {
	cache, err := lru.New[string, safety.Verdict](cacheSize)
	if err != nil {
		// This should only happen if cacheSize <= 0
		log.Printf("Error creating LRU cache: %v. Using size 1000.", err)
		cache, _ = lru.New[string, safety.Verdict](1000)
	}

	return &CachedClassifier{
		classifier: classifier,
		cache:      cache,
	}
}

func cacheKey(kind string, bound int, text string) string {
	h := md5.New()
	h.Write([]byte(text))
	return fmt.Sprintf("%s:%d:%s", kind, bound, hex.EncodeToString(h.Sum(nil)))
}

func (c *CachedClassifier) ClassifyInput(text string, age int) safety.Verdict {
	key := cacheKey("in", age, text)

	if verdict, ok := c.cache.Get(key); ok {
		return verdict
	}

	verdict := c.classifier.ClassifyInput(text, age)
	c.cache.Add(key, verdict)
	return verdict
}

func (c *CachedClassifier) ClassifyOutput(text string, maxLength int) safety.Verdict {
	key := cacheKey("out", maxLength, text)

	if verdict, ok := c.cache.Get(key); ok {
		return verdict
	}

	verdict := c.classifier.ClassifyOutput(text, maxLength)
	c.cache.Add(key, verdict)
	return verdict
}

package knowledge

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"
)

// FileStore is a local JSON-backed index with in-process cosine similarity,
// for running without a database. Fine for small knowledge bases; use the
// SurrealDB store when the corpus grows.
type FileStore struct {
	mu      sync.RWMutex
	path    string
	records []knowledgeRecord
}

// NewFileStore loads the index at path, or starts empty if the file does not
// exist.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge file: %w", err)
	}

	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge file %s: %w", path, err)
	}

	return s, nil
}

func (s *FileStore) Add(text string, metadata map[string]string, vector []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if metadata == nil {
		metadata = map[string]string{}
	}
	s.records = append(s.records, knowledgeRecord{
		Text:      text,
		Metadata:  metadata,
		Embedding: vector,
	})

	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal knowledge records: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write knowledge file: %w", err)
	}
	return nil
}

func (s *FileStore) Search(vector []float32, k int) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []Result
	for _, record := range s.records {
		results = append(results, Result{
			Text:      record.Text,
			Metadata:  record.Metadata,
			Relevance: cosineSimilarity(vector, record.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *FileStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

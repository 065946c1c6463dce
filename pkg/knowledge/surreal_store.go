package knowledge

import (
	"fmt"
	"log"

	"mira/pkg/surreal"
)

// SurrealStore keeps the knowledge index in SurrealDB with an MTREE cosine
// index over the embedding vectors.
type SurrealStore struct {
	client    *surreal.Client
	dimension int
}

type knowledgeRecord struct {
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata"`
	Embedding []float32         `json:"vector"`
}

// NewSurrealStore wires the store and defines the schema. dimension must
// match the embedding function used on both the ingest and query paths.
func NewSurrealStore(client *surreal.Client, dimension int) *SurrealStore {
	store := &SurrealStore{
		client:    client,
		dimension: dimension,
	}
	if err := store.Init(); err != nil {
		// Log but don't fail startup; the schema may already exist or the DB
		// may become reachable later
		log.Printf("Warning: Failed to initialize knowledge schema: %v", err)
	}
	return store
}

func (s *SurrealStore) Init() error {
	query := fmt.Sprintf(`
		DEFINE TABLE IF NOT EXISTS knowledge SCHEMAFULL;
		DEFINE FIELD IF NOT EXISTS text ON knowledge TYPE string;
		DEFINE FIELD IF NOT EXISTS metadata ON knowledge FLEXIBLE TYPE object;
		DEFINE FIELD IF NOT EXISTS vector ON knowledge TYPE array<float> ASSERT array::len($value) == %d;
		DEFINE INDEX IF NOT EXISTS knowledge_vector_idx ON knowledge FIELDS vector MTREE DIMENSION %d DIST COSINE;
	`, s.dimension, s.dimension)
	_, err := s.client.Query(query, map[string]interface{}{})
	return err
}

func (s *SurrealStore) Add(text string, metadata map[string]string, vector []float32) error {
	if metadata == nil {
		metadata = map[string]string{}
	}
	_, err := s.client.Create("knowledge", knowledgeRecord{
		Text:      text,
		Metadata:  metadata,
		Embedding: vector,
	})
	return err
}

func (s *SurrealStore) Search(vector []float32, k int) ([]Result, error) {
	rows, err := s.client.VectorSearch("knowledge", "vector", vector, k)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, row := range rows {
		rowMap, ok := row.(map[string]interface{})
		if !ok {
			continue
		}

		result := Result{Metadata: map[string]string{}}
		if text, ok := rowMap["text"].(string); ok {
			result.Text = text
		}

		// Handle similarity (might be float64 from JSON or float32 from driver)
		switch v := rowMap["similarity"].(type) {
		case float64:
			result.Relevance = v
		case float32:
			result.Relevance = float64(v)
		default:
			log.Printf("Unknown similarity type: %T", v)
			continue
		}

		if meta, ok := rowMap["metadata"].(map[string]interface{}); ok {
			for key, val := range meta {
				if str, ok := val.(string); ok {
					result.Metadata[key] = str
				}
			}
		}

		results = append(results, result)
	}

	return results, nil
}

func (s *SurrealStore) Count() (int, error) {
	result, err := s.client.Query(`SELECT count() FROM knowledge GROUP ALL;`, map[string]interface{}{})
	if err != nil {
		return 0, err
	}

	rows, ok := result.([]interface{})
	if !ok || len(rows) == 0 {
		return 0, nil
	}
	rowMap, ok := rows[0].(map[string]interface{})
	if !ok {
		return 0, nil
	}

	switch v := rowMap["count"].(type) {
	case float64:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case int:
		return v, nil
	}
	return 0, nil
}

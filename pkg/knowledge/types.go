package knowledge

// Result is one ranked match out of the knowledge index.
type Result struct {
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata"`
	Relevance float64           `json:"relevance"`
}

// Store is a vector index over knowledge records. Records are immutable once
// indexed; index building is an offline ingestion job, the pipeline only reads.
type Store interface {
	Add(text string, metadata map[string]string, vector []float32) error
	Search(vector []float32, k int) ([]Result, error)
	Count() (int, error)
}

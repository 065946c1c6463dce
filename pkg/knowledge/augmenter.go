package knowledge

import (
	"fmt"
	"log"
	"strings"

	"mira/pkg/embedding"
)

// Augmenter is the read path over a pre-built knowledge index. Every failure
// degrades to zero results or an empty context block so retrieval can never
// block a turn.
type Augmenter struct {
	embedder  embedding.Embedder
	store     Store
	threshold float64
}

// NewAugmenter wires retrieval. threshold drops matches below that cosine
// similarity; pass 0 to keep everything.
func NewAugmenter(embedder embedding.Embedder, store Store, threshold float64) *Augmenter {
	return &Augmenter{
		embedder:  embedder,
		store:     store,
		threshold: threshold,
	}
}

// Search returns the top-k matches for query, most relevant first.
func (a *Augmenter) Search(query string, k int) []Result {
	if a.store == nil {
		return nil
	}

	vector, err := a.embedder.Embed(query)
	if err != nil {
		log.Printf("Error generating query embedding: %v", err)
		return nil
	}

	results, err := a.store.Search(vector, k)
	if err != nil {
		log.Printf("[DEBUG] Knowledge search error: %v", err)
		return nil
	}

	var kept []Result
	for _, result := range results {
		if result.Relevance < a.threshold {
			log.Printf("[DEBUG] Skipping low-relevance fact: '%s' (relevance: %.4f)", result.Text, result.Relevance)
			continue
		}
		kept = append(kept, result)
	}
	return kept
}

// FactsBlock formats the top-k matches for query as a supporting context
// block, or returns "" when nothing relevant is found.
func (a *Augmenter) FactsBlock(query string, k int) string {
	results := a.Search(query, k)
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Relevant facts:\n")
	for i, result := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, result.Text)
	}
	return b.String()
}

// AugmentPrompt builds a standalone knowledge-grounded prompt for backends
// that take a single flattened string. An empty or unavailable index yields
// a prompt without a facts section, never an error.
func (a *Augmenter) AugmentPrompt(question, emotion string, age int, k int) string {
	context := a.FactsBlock(question, k)
	if context != "" {
		context = "\n" + context
	}

	return fmt.Sprintf(`You are Mira, a friendly AI assistant for children.

Context: The child is %d years old and seems %s.

Question: %s
%s
Based on what you know, provide a clear, age-appropriate answer:`, age, emotion, question, context)
}

package chat

import (
	"context"

	"mira/pkg/memory"
	"mira/pkg/safety"
)

// LLMClient is the external model backend seam. The only pipeline step that
// may take unbounded wall-clock time; the context bounds it.
type LLMClient interface {
	ChatCompletion(ctx context.Context, messages []memory.LLMMessage) (string, error)
}

// Classifier scores text against the safety taxonomy. Pluggable so a trained
// classifier can replace the keyword filter without touching the pipeline.
type Classifier interface {
	ClassifyInput(text string, age int) safety.Verdict
	ClassifyOutput(text string, maxLength int) safety.Verdict
}

// Retriever is the knowledge read path. Implementations must fail soft:
// an unavailable index yields an empty block, never an error.
type Retriever interface {
	FactsBlock(query string, k int) string
}

// MemoryStore is the slice of the memory store the pipeline needs per turn.
type MemoryStore interface {
	Context() memory.Context
	Recent(n int) []memory.Interaction
	AddInteraction(emotion, question, response string) error
}

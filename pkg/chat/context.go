package chat

import (
	"sync"

	"mira/pkg/memory"
)

// turnContext holds everything gathered for one turn before composition.
type turnContext struct {
	Memory  memory.Context
	History []memory.Interaction
	Facts   string
}

// gatherTurnContext queries the memory store and the retriever in parallel.
// There is no ordering dependency between them; both complete (or soft-fail)
// before composition.
func (h *Handler) gatherTurnContext(question string) turnContext {
	var tc turnContext
	var wg sync.WaitGroup
	wg.Add(3)

	// 1. Personalization context
	go func() {
		defer wg.Done()
		tc.Memory = h.memoryStore.Context()
	}()

	// 2. Conversation history
	go func() {
		defer wg.Done()
		tc.History = h.memoryStore.Recent(h.historySize)
	}()

	// 3. Knowledge retrieval
	go func() {
		defer wg.Done()
		if h.retriever != nil {
			tc.Facts = h.retriever.FactsBlock(question, h.topK)
		}
	}()

	wg.Wait()
	return tc
}

package chat

import (
	"context"
	"log"
	"time"

	"mira/pkg/memory"
	"mira/pkg/prompt"
	"mira/pkg/safety"
)

// State names the terminal state a turn ended in.
type State string

const (
	StateAnswered   State = "answered"
	StateRefused    State = "refused"
	StateRedirected State = "redirected"
	StateFallback   State = "fallback"
)

// fallbackResponse is delivered when the model backend fails or returns
// nothing usable.
const fallbackResponse = "Sorry, I'm having trouble thinking right now. Please try again in a moment!"

// troubleResponse substitutes a model output that failed the safety check.
const troubleResponse = "I'm having trouble answering that. Can you ask something else?"

// Turn is one incoming user message with its detected emotion.
type Turn struct {
	Question   string
	Emotion    string
	Confidence float64
	Age        int
}

// Reply is the completed turn. Text is always a full in-band chat response,
// whatever went wrong along the way.
type Reply struct {
	Text        string
	State       State
	Verdict     safety.Verdict
	Substituted bool
}

// Handler sequences a turn through classification, context gathering,
// composition, generation, output checking and the memory write. One handler
// serves one session; turns run to completion one at a time.
type Handler struct {
	llmClient   LLMClient
	classifier  Classifier
	retriever   Retriever
	memoryStore MemoryStore

	maxResponseLength int
	topK              int
	historySize       int
}

func NewHandler(llmClient LLMClient, classifier Classifier, retriever Retriever, memoryStore MemoryStore, maxResponseLength, topK, historySize int) *Handler {
	return &Handler{
		llmClient:         llmClient,
		classifier:        classifier,
		retriever:         retriever,
		memoryStore:       memoryStore,
		maxResponseLength: maxResponseLength,
		topK:              topK,
		historySize:       historySize,
	}
}

// Respond runs the full pipeline for one turn. The context bounds only the
// model call; everything else is local and bounded.
func (h *Handler) Respond(ctx context.Context, turn Turn) Reply {
	verdict := h.classifier.ClassifyInput(turn.Question, turn.Age)

	if !verdict.IsSafe {
		// The raw dangerous question is not recorded
		return Reply{
			Text:    safety.RefusalResponse(turn.Age),
			State:   StateRefused,
			Verdict: verdict,
		}
	}

	if topic, ok := verdict.RedirectTopic(); ok {
		text := safety.RedirectResponse(topic, turn.Age)
		h.record(turn, text)
		return Reply{
			Text:    text,
			State:   StateRedirected,
			Verdict: verdict,
		}
	}

	tc := h.gatherTurnContext(turn.Question)

	messages := prompt.Compose(prompt.Request{
		Emotion:          turn.Emotion,
		Confidence:       turn.Confidence,
		Age:              turn.Age,
		Question:         turn.Question,
		Memory:           tc.Memory,
		RetrievedContext: tc.Facts,
		History:          tc.History,
	})

	text, err := h.generate(ctx, messages)
	if err != nil {
		log.Printf("Model backend failed: %v", err)
		h.record(turn, fallbackResponse)
		return Reply{
			Text:    fallbackResponse,
			State:   StateFallback,
			Verdict: verdict,
		}
	}

	substituted := false
	if outVerdict := h.classifier.ClassifyOutput(text, h.maxResponseLength); !outVerdict.IsSafe {
		log.Printf("Output check failed: %s", outVerdict.Reason)
		text = troubleResponse
		substituted = true
	}

	// The final (possibly substituted) pair is what gets remembered
	h.record(turn, text)

	return Reply{
		Text:        text,
		State:       StateAnswered,
		Verdict:     verdict,
		Substituted: substituted,
	}
}

const retryTimeout = 60 * time.Second

// generate calls the backend, allowing a single retry with a fresh timeout
// before giving up.
func (h *Handler) generate(ctx context.Context, messages []memory.LLMMessage) (string, error) {
	text, err := h.llmClient.ChatCompletion(ctx, messages)
	if err == nil {
		return text, nil
	}
	if ctx.Err() != nil {
		// The caller gave up; don't burn another call
		return "", err
	}

	log.Printf("Retrying model call after error: %v", err)
	retryCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), retryTimeout)
	defer cancel()
	return h.llmClient.ChatCompletion(retryCtx, messages)
}

func (h *Handler) record(turn Turn, response string) {
	if err := h.memoryStore.AddInteraction(turn.Emotion, turn.Question, response); err != nil {
		// Degraded, non-durable mode: the operator sees it, the child doesn't
		log.Printf("Error persisting interaction: %v", err)
	}
}

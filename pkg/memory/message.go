package memory

// LLMMessage is one chat message bound for the model backend. Role is
// "system", "user" or "assistant".
type LLMMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

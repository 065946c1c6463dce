package prompt

import (
	"fmt"
	"strings"

	"mira/pkg/memory"
)

// SystemPrompt is the persona and policy instruction sent on every turn.
const SystemPrompt = `You are Mira, a friendly and curious AI companion designed for children aged 5-16. Your role is to:

1. Be aware of the child's emotional state and respond with empathy
2. Use age-appropriate language and concepts
3. Encourage curiosity, learning, and positive thinking
4. Admit when you're uncertain or don't know something
5. Never pretend to be human or claim to have feelings
6. Redirect inappropriate questions to parents or teachers
7. Keep responses short, clear, and friendly (under 300 characters)

IMPORTANT SAFETY RULES:
- Never give medical, legal, or therapeutic advice
- Never discuss adult topics, violence, or harmful content
- Never ask for or store sensitive personal information
- Always encourage children to talk to trusted adults for serious matters
- If unsure, say "I'm not sure about that, but maybe you can ask a teacher or parent!"

Your personality: Playful, calm, supportive, and always learning alongside the child.`

// emotionContext guides how to meet each detected emotion.
var emotionContext = map[string]string{
	"happy":     "The child seems happy and cheerful. Match their positive energy!",
	"sad":       "The child seems sad. Be gentle, supportive, and validating.",
	"angry":     "The child seems upset or frustrated. Stay calm and help them feel heard.",
	"surprised": "The child seems surprised or amazed. Share their excitement!",
	"neutral":   "The child seems calm and neutral. Respond naturally.",
	"confused":  "The child seems confused. Be patient and explain clearly.",
	"excited":   "The child seems very excited! Match their enthusiasm!",
	"worried":   "The child seems worried or anxious. Be reassuring and calm.",
}

type ageBand struct {
	min, max  int
	guideline string
}

// ageBands are checked in order; ages outside 5-16 fall back to the 8-10 band.
var ageBands = []ageBand{
	{5, 7, "Use very simple words. Short sentences. Concrete examples. Lots of encouragement."},
	{8, 10, "Use clear language. Explain new words. Use relatable examples from school and play."},
	{11, 13, "Use more complex vocabulary. Encourage critical thinking. Relate to their interests."},
	{14, 16, "Use mature but friendly language. Encourage deeper exploration. Respect their growing independence."},
}

// AgeGuideline returns the language guideline for age.
func AgeGuideline(age int) string {
	for _, band := range ageBands {
		if age >= band.min && age <= band.max {
			return band.guideline
		}
	}
	return ageBands[1].guideline
}

// ReliabilityLabel buckets an emotion-detection confidence so the model is
// never told a shaky detection is certain.
func ReliabilityLabel(confidence float64) string {
	switch {
	case confidence >= 0.7:
		return "high"
	case confidence >= 0.5:
		return "moderate"
	default:
		return "low"
	}
}

// EmotionContext returns the guidance line for emotion, defaulting to
// neutral for unknown labels.
func EmotionContext(emotion string) string {
	if context, ok := emotionContext[emotion]; ok {
		return context
	}
	return emotionContext["neutral"]
}

// Request carries everything Compose needs. Compose is a pure function of
// this struct: no hidden state, no I/O.
type Request struct {
	Emotion          string
	Confidence       float64
	Age              int
	Question         string
	Memory           memory.Context
	RetrievedContext string
	History          []memory.Interaction
}

// formatMemoryContext renders the named personalization fields. Every field
// is covered explicitly so formatting stays total.
func formatMemoryContext(ctx memory.Context) string {
	if ctx.Empty() {
		return "This is a new conversation with no previous context."
	}

	var parts []string
	if ctx.Name != "" {
		parts = append(parts, "Child's name: "+ctx.Name)
	}
	if ctx.FavoriteColor != "" {
		parts = append(parts, "Favorite color: "+ctx.FavoriteColor)
	}
	if ctx.FavoriteSubject != "" {
		parts = append(parts, "Favorite subject: "+ctx.FavoriteSubject)
	}
	if len(ctx.RecentTopics) > 0 {
		parts = append(parts, "Recently discussed: "+strings.Join(ctx.RecentTopics, ", "))
	}

	return "Previous context: " + strings.Join(parts, "; ")
}

// Compose assembles the structured message sequence for the model backend:
// one system message carrying persona, emotion framing, age guideline,
// memory and retrieved facts, then the history as alternating user/assistant
// turns oldest first, then the current question.
func Compose(req Request) []memory.LLMMessage {
	var system strings.Builder
	system.WriteString(SystemPrompt)
	system.WriteString("\n\n---\nCURRENT CONTEXT:\n")
	fmt.Fprintf(&system, "- Detected emotion: %s (confidence: %s)\n", req.Emotion, ReliabilityLabel(req.Confidence))
	fmt.Fprintf(&system, "- Emotion guidance: %s\n", EmotionContext(req.Emotion))
	fmt.Fprintf(&system, "- Child's age: %d years old\n", req.Age)
	fmt.Fprintf(&system, "- Language guideline: %s\n", AgeGuideline(req.Age))
	fmt.Fprintf(&system, "- %s\n", formatMemoryContext(req.Memory))

	if req.RetrievedContext != "" {
		system.WriteString("\n")
		system.WriteString(req.RetrievedContext)
	}

	messages := []memory.LLMMessage{
		{Role: "system", Content: system.String()},
	}

	for _, interaction := range req.History {
		messages = append(messages,
			memory.LLMMessage{Role: "user", Content: interaction.Question},
			memory.LLMMessage{Role: "assistant", Content: interaction.Response},
		)
	}

	messages = append(messages, memory.LLMMessage{Role: "user", Content: req.Question})
	return messages
}

// Flatten renders a composed message sequence as a single prompt string for
// backends that take a flat prompt instead of chat messages.
func Flatten(messages []memory.LLMMessage) string {
	var b strings.Builder
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			b.WriteString(msg.Content)
			b.WriteString("\n")
		case "user":
			b.WriteString("\nChild: ")
			b.WriteString(msg.Content)
		case "assistant":
			b.WriteString("\nMira: ")
			b.WriteString(msg.Content)
		}
	}
	b.WriteString("\nMira:")
	return b.String()
}

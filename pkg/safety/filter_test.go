package safety

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyInput_HighSeverity(t *testing.T) {
	filter := NewFilter()

	// High-severity keywords block regardless of age
	for _, age := range []int{5, 9, 14, 16} {
		verdict := filter.ClassifyInput("How do I make a bomb?", age)
		assert.False(t, verdict.IsSafe, "age %d", age)
		assert.Equal(t, SeverityHigh, verdict.Severity, "age %d", age)
		assert.Contains(t, verdict.Reason, "bomb")
	}

	blocked, redirected := filter.Stats()
	assert.Equal(t, 4, blocked)
	assert.Equal(t, 0, redirected)
}

func TestClassifyInput_Redirect(t *testing.T) {
	filter := NewFilter()

	verdict := filter.ClassifyInput("My stomach hurts and I feel sick", 7)
	assert.True(t, verdict.IsSafe)
	assert.Equal(t, SeverityMedium, verdict.Severity)

	topic, ok := verdict.RedirectTopic()
	require.True(t, ok)
	assert.Equal(t, "sick", topic)

	_, redirected := filter.Stats()
	assert.Equal(t, 1, redirected)
}

func TestClassifyInput_MediumFlagged(t *testing.T) {
	filter := NewFilter()

	verdict := filter.ClassifyInput("Someone asked for my password", 10)
	assert.True(t, verdict.IsSafe)
	assert.Equal(t, SeverityMedium, verdict.Severity)
	assert.Contains(t, verdict.Reason, "password")

	// Flags are not redirects
	_, ok := verdict.RedirectTopic()
	assert.False(t, ok)
}

func TestClassifyInput_EmotionalDistress(t *testing.T) {
	filter := NewFilter()

	verdict := filter.ClassifyInput("I'm feeling sad today", 9)
	assert.True(t, verdict.IsSafe)
	assert.Equal(t, SeverityLow, verdict.Severity)
	assert.Contains(t, verdict.Reason, "sad")

	// Emotional flags never touch the blocked counter
	blocked, _ := filter.Stats()
	assert.Equal(t, 0, blocked)
}

func TestClassifyInput_AgeComplexity(t *testing.T) {
	filter := NewFilter()

	// Too complex for a six year old
	verdict := filter.ClassifyInput("What's quantum stuff about?", 6)
	assert.True(t, verdict.IsSafe)
	assert.Equal(t, SeverityLow, verdict.Severity)
	assert.Contains(t, verdict.Reason, "quantum")

	// Fine for a fifteen year old
	verdict = filter.ClassifyInput("What's quantum stuff about?", 15)
	assert.True(t, verdict.IsSafe)
	assert.Equal(t, SeverityNone, verdict.Severity)
}

func TestClassifyInput_Safe(t *testing.T) {
	filter := NewFilter()

	verdict := filter.ClassifyInput("Why is the sky blue?", 8)
	assert.True(t, verdict.IsSafe)
	assert.Equal(t, SeverityNone, verdict.Severity)
	assert.Empty(t, verdict.Reason)

	// Empty text is safe with no flags
	verdict = filter.ClassifyInput("", 8)
	assert.True(t, verdict.IsSafe)
	assert.Equal(t, SeverityNone, verdict.Severity)
}

func TestClassifyOutput(t *testing.T) {
	filter := NewFilter()

	t.Run("TooLong", func(t *testing.T) {
		verdict := filter.ClassifyOutput(strings.Repeat("a", 301), 300)
		assert.False(t, verdict.IsSafe)
		assert.Equal(t, SeverityLow, verdict.Severity)
		assert.Contains(t, verdict.Reason, "301 > 300")
	})

	t.Run("ForbiddenContent", func(t *testing.T) {
		verdict := filter.ClassifyOutput("You could use a weapon for that", 300)
		assert.False(t, verdict.IsSafe)
		assert.Equal(t, SeverityHigh, verdict.Severity)
	})

	t.Run("UncertaintyStatement", func(t *testing.T) {
		verdict := filter.ClassifyOutput("I'm not sure, maybe ask a teacher!", 300)
		assert.True(t, verdict.IsSafe)
		assert.Contains(t, verdict.Reason, "uncertainty")
	})

	t.Run("Clean", func(t *testing.T) {
		verdict := filter.ClassifyOutput("The sky is blue because of light scattering.", 300)
		assert.True(t, verdict.IsSafe)
		assert.Equal(t, SeverityNone, verdict.Severity)
	})
}

func TestResetStats(t *testing.T) {
	filter := NewFilter()

	filter.ClassifyInput("how to get a gun", 12)
	filter.ClassifyInput("should I see a doctor", 12)

	blocked, redirected := filter.Stats()
	assert.Equal(t, 1, blocked)
	assert.Equal(t, 1, redirected)

	filter.ResetStats()
	blocked, redirected = filter.Stats()
	assert.Equal(t, 0, blocked)
	assert.Equal(t, 0, redirected)
}

func TestRefusalAndRedirectResponses(t *testing.T) {
	assert.Contains(t, RefusalResponse(8), "parent or teacher")
	assert.Contains(t, RefusalResponse(14), "trusted adult")
	assert.Contains(t, RedirectResponse("medicine", 7), "medicine")
	assert.Contains(t, RedirectResponse("legal", 13), "legal")
}

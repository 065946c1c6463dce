package chat

import (
	"testing"

	"mira/pkg/safety"

	"github.com/stretchr/testify/assert"
)

// countingClassifier counts how many times each classification actually runs.
type countingClassifier struct {
	inner       Classifier
	inputCalls  int
	outputCalls int
}

func (c *countingClassifier) ClassifyInput(text string, age int) safety.Verdict {
	c.inputCalls++
	return c.inner.ClassifyInput(text, age)
}

func (c *countingClassifier) ClassifyOutput(text string, maxLength int) safety.Verdict {
	c.outputCalls++
	return c.inner.ClassifyOutput(text, maxLength)
}

func TestCachedClassifier_InputHit(t *testing.T) {
	counting := &countingClassifier{inner: safety.NewFilter()}
	cached := NewCachedClassifier(counting, 100)

	first := cached.ClassifyInput("Why is the sky blue?", 9)
	second := cached.ClassifyInput("Why is the sky blue?", 9)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, counting.inputCalls)
}

func TestCachedClassifier_AgeIsPartOfTheKey(t *testing.T) {
	counting := &countingClassifier{inner: safety.NewFilter()}
	cached := NewCachedClassifier(counting, 100)

	// Age changes age-complexity behavior, so verdicts must not be shared
	young := cached.ClassifyInput("Tell me about quantum physics", 6)
	older := cached.ClassifyInput("Tell me about quantum physics", 15)

	assert.Equal(t, 2, counting.inputCalls)
	assert.NotEqual(t, young.Reason, older.Reason)
}

func TestCachedClassifier_OutputHit(t *testing.T) {
	counting := &countingClassifier{inner: safety.NewFilter()}
	cached := NewCachedClassifier(counting, 100)

	first := cached.ClassifyOutput("The sky is blue!", 300)
	second := cached.ClassifyOutput("The sky is blue!", 300)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, counting.outputCalls)
}

func TestCachedClassifier_MaxLengthIsPartOfTheKey(t *testing.T) {
	counting := &countingClassifier{inner: safety.NewFilter()}
	cached := NewCachedClassifier(counting, 100)

	long := "This is a response that runs past a very small length bound."

	strict := cached.ClassifyOutput(long, 10)
	loose := cached.ClassifyOutput(long, 300)

	assert.Equal(t, 2, counting.outputCalls)
	assert.False(t, strict.IsSafe)
	assert.True(t, loose.IsSafe)
}

func TestCachedClassifier_InputAndOutputKeysAreDistinct(t *testing.T) {
	counting := &countingClassifier{inner: safety.NewFilter()}
	cached := NewCachedClassifier(counting, 100)

	// Same text and same numeric bound must not collide across directions
	cached.ClassifyInput("hello there", 10)
	cached.ClassifyOutput("hello there", 10)

	assert.Equal(t, 1, counting.inputCalls)
	assert.Equal(t, 1, counting.outputCalls)
}

func TestCachedClassifier_InvalidSizeFallsBack(t *testing.T) {
	counting := &countingClassifier{inner: safety.NewFilter()}
	cached := NewCachedClassifier(counting, 0)

	verdict := cached.ClassifyInput("Why is the sky blue?", 9)
	assert.True(t, verdict.IsSafe)
}

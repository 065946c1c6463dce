package safety

import (
	"fmt"
	"strings"
	"sync"
)

// forbiddenKeywords is the severity-tiered keyword taxonomy. High-severity
// matches block the turn outright; medium and low matches only flag it.
var forbiddenKeywords = map[Severity][]string{
	SeverityHigh: {
		// Violence and harm
		"kill", "murder", "suicide", "hurt yourself", "self-harm",
		// Adult content
		"sex", "porn", "nude", "naked",
		// Substances
		"drug", "cocaine", "heroin", "meth",
		// Weapons
		"gun", "weapon", "bomb", "explosive",
	},
	SeverityMedium: {
		"hate", "stupid", "idiot", "dumb",
		"alcohol", "beer", "wine", "drunk",
		"cigarette", "smoking", "vape",
		// Personal info requests
		"address", "phone number", "credit card", "password",
	},
	SeverityLow: {
		// Emotional distress
		"scared", "afraid", "worried", "anxious",
		"sad", "depressed", "lonely",
	},
}

// redirectTopics are not unsafe but must be deferred to a trusted adult.
var redirectTopics = []string{
	"medical", "doctor", "medicine", "sick", "disease",
	"stomach", "pain", "hurts",
	"therapy", "counselor", "mental health",
	"legal", "lawyer", "police",
	"money", "buy", "purchase", "credit",
}

type ageRange struct {
	min, max int
}

// complexTopics maps an age range to topics too complex for it.
var complexTopics = map[ageRange][]string{
	{5, 7}:   {"quantum", "calculus", "philosophy", "politics", "economics"},
	{8, 10}:  {"quantum physics", "advanced calculus", "existentialism"},
	{11, 13}: {"quantum mechanics", "differential equations"},
}

// uncertaintyPhrases mark a response that properly admits its limits.
var uncertaintyPhrases = []string{
	"i'm not sure", "i don't know", "i might be wrong",
	"ask a parent", "ask a teacher", "ask an adult",
}

// Filter is the keyword-based content classifier. Counters are owned by the
// instance so independent sessions never share state.
type Filter struct {
	mu              sync.Mutex
	blockedCount    int
	redirectedCount int
}

func NewFilter() *Filter {
	return &Filter{}
}

// ClassifyInput scores user input against the taxonomy. Only a high-severity
// match short-circuits with an unsafe verdict; every other tier returns
// is_safe=true with an informational reason the caller decides how to act on.
// Classification never fails: unknown or empty text is safe with no flags.
func (f *Filter) ClassifyInput(text string, age int) Verdict {
	lower := strings.ToLower(text)

	if keyword, ok := matchKeywords(lower, forbiddenKeywords[SeverityHigh]); ok {
		f.mu.Lock()
		f.blockedCount++
		f.mu.Unlock()
		return Verdict{
			IsSafe:   false,
			Severity: SeverityHigh,
			Reason:   fmt.Sprintf("contains forbidden content: %s", keyword),
		}
	}

	if topic, ok := matchKeywords(lower, redirectTopics); ok {
		f.mu.Lock()
		f.redirectedCount++
		f.mu.Unlock()
		return Verdict{
			IsSafe:   true,
			Severity: SeverityMedium,
			Reason:   redirectReasonPrefix + topic,
		}
	}

	if keyword, ok := matchKeywords(lower, forbiddenKeywords[SeverityMedium]); ok {
		return Verdict{
			IsSafe:   true,
			Severity: SeverityMedium,
			Reason:   fmt.Sprintf("contains sensitive content: %s", keyword),
		}
	}

	if keyword, ok := matchKeywords(lower, forbiddenKeywords[SeverityLow]); ok {
		return Verdict{
			IsSafe:   true,
			Severity: SeverityLow,
			Reason:   fmt.Sprintf("emotional content detected: %s", keyword),
		}
	}

	for r, topics := range complexTopics {
		if age < r.min || age > r.max {
			continue
		}
		if topic, ok := matchKeywords(lower, topics); ok {
			return Verdict{
				IsSafe:   true,
				Severity: SeverityLow,
				Reason:   fmt.Sprintf("topic '%s' may be too complex for age %d", topic, age),
			}
		}
	}

	return Verdict{IsSafe: true, Severity: SeverityNone}
}

// ClassifyOutput validates generated text before delivery. Overlength is
// reported as unsafe rather than silently truncated, and the forbidden
// keyword scan is re-run against the model's text.
func (f *Filter) ClassifyOutput(text string, maxLength int) Verdict {
	if maxLength > 0 && len(text) > maxLength {
		return Verdict{
			IsSafe:   false,
			Severity: SeverityLow,
			Reason:   fmt.Sprintf("response too long: %d > %d", len(text), maxLength),
		}
	}

	lower := strings.ToLower(text)
	if _, ok := matchKeywords(lower, forbiddenKeywords[SeverityHigh]); ok {
		f.mu.Lock()
		f.blockedCount++
		f.mu.Unlock()
		return Verdict{
			IsSafe:   false,
			Severity: SeverityHigh,
			Reason:   "response contains inappropriate content",
		}
	}

	if _, ok := matchKeywords(lower, uncertaintyPhrases); ok {
		return Verdict{
			IsSafe:   true,
			Severity: SeverityNone,
			Reason:   "includes uncertainty statement",
		}
	}

	return Verdict{IsSafe: true, Severity: SeverityNone}
}

// Stats returns the monotonically increasing blocked/redirected counters.
func (f *Filter) Stats() (blocked, redirected int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blockedCount, f.redirectedCount
}

// ResetStats zeroes the counters. Not part of the normal turn flow.
func (f *Filter) ResetStats() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blockedCount = 0
	f.redirectedCount = 0
}

func matchKeywords(lower string, keywords []string) (string, bool) {
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return keyword, true
		}
	}
	return "", false
}

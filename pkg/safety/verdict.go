package safety

import "strings"

// Severity orders the urgency of a safety concern.
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Verdict is the result of a single classification call. It is produced
// fresh per call and never persisted.
type Verdict struct {
	IsSafe   bool
	Severity Severity
	Reason   string
}

const redirectReasonPrefix = "redirect to adult for topic: "

// RedirectTopic extracts the matched redirect topic from a flagged verdict.
// The second return is false when the verdict is not a redirect flag.
func (v Verdict) RedirectTopic() (string, bool) {
	if !v.IsSafe {
		return "", false
	}
	if !strings.HasPrefix(v.Reason, redirectReasonPrefix) {
		return "", false
	}
	return strings.TrimPrefix(v.Reason, redirectReasonPrefix), true
}

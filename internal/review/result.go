package review

import "strings"

// Severity classifies how serious a reported smell is.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityMajor    Severity = "Major"
	SeverityMinor    Severity = "Minor"
)

// ParseSeverity maps free-form model output onto the three-value scale,
// ignoring case and surrounding whitespace. Anything unrecognized collapses
// to Minor.
func ParseSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical":
		return SeverityCritical
	case "major":
		return SeverityMajor
	case "minor":
		return SeverityMinor
	default:
		return SeverityMinor
	}
}

// Smell is one reported code-quality finding.
type Smell struct {
	Name        string   `json:"name"`
	Severity    Severity `json:"severity"`
	Location    string   `json:"location"`
	Explanation string   `json:"explanation"`
}

// AnalysisResult is the normalized outcome of one analysis round trip.
// Smells preserves the model's reporting order and is never nil.
// RefactoredCode is never empty: when the model omits a rewrite it falls
// back to the submitted code.
type AnalysisResult struct {
	Summary        string  `json:"summary"`
	Smells         []Smell `json:"smells"`
	RefactoredCode string  `json:"refactored_code"`
}

// Role identifies the author of a chat entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatEntry is one turn of the follow-up conversation. The chat is
// append-only; entries are never edited or reordered, and Seq increases
// strictly within a session.
type ChatEntry struct {
	Seq             int    `json:"seq"`
	Role            Role   `json:"role"`
	Text            string `json:"text"`
	CreatedAtUnixMs int64  `json:"created_at_unix_ms"`
}

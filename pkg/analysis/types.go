// Package analysis defines the meeting-analysis data model shared by the
// session controller, the HTTP client and the renderers.
package analysis

import (
	"fmt"
	"strings"
)

// ActionItem is a task extracted from the meeting.
// Assignee and Deadline are nil when the meeting did not mention them.
type ActionItem struct {
	Task     string  `json:"task" yaml:"task"`
	Assignee *string `json:"assignee" yaml:"assignee,omitempty"`
	Deadline *string `json:"deadline" yaml:"deadline,omitempty"`
}

// Result is the analysis service response for one recording.
type Result struct {
	Transcription    string       `json:"transcription" yaml:"transcription"`
	Summary          string       `json:"summary" yaml:"summary"`
	KeyPoints        []string     `json:"key_points" yaml:"key_points"`
	ActionItems      []ActionItem `json:"action_items" yaml:"action_items"`
	DurationEstimate *string      `json:"duration_estimate,omitempty" yaml:"duration_estimate,omitempty"`
	LanguageDetected *string      `json:"language_detected,omitempty" yaml:"language_detected,omitempty"`
}

// WordCount returns the number of whitespace-separated words in the transcription.
func (r *Result) WordCount() int {
	if r == nil {
		return 0
	}
	return len(strings.Fields(r.Transcription))
}

// Request is one outbound analysis request. Build it with NewRequest.
type Request struct {
	File     Candidate
	Language Language
}

// NewRequest validates the candidate and language and returns an immutable request.
func NewRequest(file Candidate, lang Language) (Request, error) {
	if file.IsZero() {
		return Request{}, fmt.Errorf("no file selected: %w", ErrNoCandidate)
	}
	if err := ValidateName(file.Name); err != nil {
		return Request{}, err
	}
	if !lang.IsValid() {
		return Request{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, string(lang))
	}
	return Request{File: file, Language: lang}, nil
}

// StringValue dereferences an optional string, returning "" for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

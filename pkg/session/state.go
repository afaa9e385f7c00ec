// Package session implements the upload and analysis controller that owns one
// user's file selection, submission and result state.
package session

import (
	"github.com/otherjamesbrown/azurely-cli/pkg/analysis"
)

// Kind tags the variant held by a State.
type Kind int

const (
	KindIdle Kind = iota
	KindLoading
	KindSuccess
	KindError
)

// String returns the lower-case name used in logs, metrics and JSON.
func (k Kind) String() string {
	switch k {
	case KindIdle:
		return "idle"
	case KindLoading:
		return "loading"
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// State is the session's single source of truth. Only the fields belonging to
// Kind are set: FileName for Loading, Result for Success, Message for Error.
type State struct {
	Kind     Kind             `json:"kind" yaml:"kind"`
	FileName string           `json:"file_name,omitempty" yaml:"file_name,omitempty"`
	Result   *analysis.Result `json:"result,omitempty" yaml:"result,omitempty"`
	Message  string           `json:"message,omitempty" yaml:"message,omitempty"`
}

// Idle returns the initial state.
func Idle() State { return State{Kind: KindIdle} }

// Loading returns the state for a request in flight for fileName.
func Loading(fileName string) State { return State{Kind: KindLoading, FileName: fileName} }

// Success returns the state holding a received result.
func Success(r *analysis.Result) State { return State{Kind: KindSuccess, Result: r} }

// Failed returns the error state with a user-facing message.
func Failed(message string) State { return State{Kind: KindError, Message: message} }

// IsLoading reports whether a request is in flight.
func (s State) IsLoading() bool { return s.Kind == KindLoading }

// CandidateInfo describes the selected file without exposing its bytes.
type CandidateInfo struct {
	Name      string `json:"name" yaml:"name"`
	SizeBytes int64  `json:"size_bytes" yaml:"size_bytes"`
	Extension string `json:"extension" yaml:"extension"`
}

// Snapshot is a consistent copy of everything a renderer needs.
type Snapshot struct {
	State             State             `json:"state" yaml:"state"`
	Candidate         *CandidateInfo    `json:"candidate,omitempty" yaml:"candidate,omitempty"`
	Language          analysis.Language `json:"language" yaml:"language"`
	ValidationMessage string            `json:"validation_message,omitempty" yaml:"validation_message,omitempty"`
	DragOver          bool              `json:"drag_over" yaml:"drag_over"`
	Generation        uint64            `json:"generation" yaml:"generation"`
}

// CanSubmit reports whether Submit would start a request.
func (s Snapshot) CanSubmit() bool {
	return s.Candidate != nil && !s.State.IsLoading()
}

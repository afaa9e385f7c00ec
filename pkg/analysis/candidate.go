package analysis

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	azerrors "github.com/otherjamesbrown/azurely-cli/pkg/errors"
)

// UnsupportedFormatMessage is shown when a file with a rejected extension is selected.
const UnsupportedFormatMessage = "Unsupported format. Please upload MP3, WAV, M4A, OGG, or MP4."

// AllowedExtensions lists the accepted audio extensions, lower-case, without dot.
var AllowedExtensions = []string{"mp3", "wav", "m4a", "ogg", "mp4"}

var (
	// ErrUnsupportedFormat is returned for files outside AllowedExtensions.
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported audio format", azerrors.ErrValidation)

	// ErrNoCandidate is returned when a request is built without a file.
	ErrNoCandidate = fmt.Errorf("%w: no file selected", azerrors.ErrValidation)
)

// Opener returns a fresh reader over the candidate's bytes.
type Opener func() (io.ReadCloser, error)

// Candidate is a locally selected audio file awaiting upload.
type Candidate struct {
	Name      string
	SizeBytes int64
	Extension string

	open Opener
}

// NewCandidate builds a candidate from a file name, size and byte source.
func NewCandidate(name string, size int64, open Opener) Candidate {
	if size < 0 {
		size = 0
	}
	return Candidate{
		Name:      name,
		SizeBytes: size,
		Extension: Extension(name),
		open:      open,
	}
}

// CandidateFromPath builds a candidate backed by a file on disk.
func CandidateFromPath(path string) (Candidate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Candidate{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Candidate{}, fmt.Errorf("%s is a directory", path)
	}
	return NewCandidate(filepath.Base(path), info.Size(), func() (io.ReadCloser, error) {
		return os.Open(path)
	}), nil
}

// CandidateFromBytes builds a candidate over an in-memory buffer.
func CandidateFromBytes(name string, data []byte) Candidate {
	return NewCandidate(name, int64(len(data)), func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// IsZero reports whether no file is held.
func (c Candidate) IsZero() bool {
	return c.Name == "" && c.open == nil
}

// Open returns a reader over the file bytes. The caller closes it.
func (c Candidate) Open() (io.ReadCloser, error) {
	if c.open == nil {
		return nil, errors.New("candidate has no content source")
	}
	return c.open()
}

// Extension returns the lower-cased extension of name without the leading dot.
// Names without a dot have no extension.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// IsAllowedExtension reports whether ext (any case, with or without dot) is accepted.
func IsAllowedExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// ValidateName checks the extension of a file name against AllowedExtensions.
func ValidateName(name string) error {
	if !IsAllowedExtension(Extension(name)) {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
	return nil
}

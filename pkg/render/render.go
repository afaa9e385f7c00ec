// Package render writes a session snapshot as text, JSON or YAML.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/azurely-cli/config"
	"github.com/otherjamesbrown/azurely-cli/pkg/analysis"
	"github.com/otherjamesbrown/azurely-cli/pkg/session"
)

// ANSI escapes used by the text renderer.
const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiDim    = "\033[2m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

// Options controls how a snapshot is written.
type Options struct {
	Format config.OutputFormat

	// Transcript expands the full transcription in text output.
	Transcript bool

	// Color enables ANSI escapes in text output.
	Color bool
}

// ColorEnabled reports whether w is a terminal and NO_COLOR is unset.
func ColorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Report is the machine-readable form of a snapshot.
type Report struct {
	Status            string            `json:"status" yaml:"status"`
	File              string            `json:"file,omitempty" yaml:"file,omitempty"`
	SizeBytes         int64             `json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`
	Language          analysis.Language `json:"language" yaml:"language"`
	Result            *analysis.Result  `json:"result,omitempty" yaml:"result,omitempty"`
	Error             string            `json:"error,omitempty" yaml:"error,omitempty"`
	ValidationMessage string            `json:"validation_message,omitempty" yaml:"validation_message,omitempty"`
}

// NewReport flattens a snapshot for JSON and YAML output.
func NewReport(s session.Snapshot) Report {
	r := Report{
		Status:            s.State.Kind.String(),
		Language:          s.Language,
		Result:            s.State.Result,
		Error:             s.State.Message,
		ValidationMessage: s.ValidationMessage,
	}
	if s.Candidate != nil {
		r.File = s.Candidate.Name
		r.SizeBytes = s.Candidate.SizeBytes
	}
	if s.State.IsLoading() {
		r.File = s.State.FileName
	}
	return r
}

// Snapshot writes s to w in the requested format.
func Snapshot(w io.Writer, s session.Snapshot, opts Options) error {
	switch opts.Format {
	case config.OutputFormatText, "":
		return text(w, s, opts)
	default:
		return Encode(w, opts.Format, NewReport(s))
	}
}

// Encode writes v as indented JSON or YAML.
func Encode(w io.Writer, format config.OutputFormat, v interface{}) error {
	switch format {
	case config.OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %q", format)
	}
}

type painter bool

func (p painter) paint(code, s string) string {
	if !p {
		return s
	}
	return code + s + ansiReset
}

func text(w io.Writer, s session.Snapshot, opts Options) error {
	p := painter(opts.Color)
	b := &strings.Builder{}

	switch s.State.Kind {
	case session.KindIdle:
		if s.Candidate != nil {
			fmt.Fprintf(b, "File: %s (%s)\n", s.Candidate.Name, FormatBytes(s.Candidate.SizeBytes))
		} else {
			b.WriteString("No file selected.\n")
		}
		fmt.Fprintf(b, "Language: %s\n", s.Language.DisplayName())
	case session.KindLoading:
		fmt.Fprintf(b, "%s %s\n", p.paint(ansiCyan, "Analyzing"), s.State.FileName)
	case session.KindSuccess:
		writeResult(b, p, s.State.Result, opts.Transcript)
	case session.KindError:
		fmt.Fprintln(b, p.paint(ansiRed, s.State.Message))
	}

	if s.ValidationMessage != "" {
		fmt.Fprintln(b, p.paint(ansiYellow, s.ValidationMessage))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeResult(b *strings.Builder, p painter, r *analysis.Result, transcript bool) {
	if r == nil {
		return
	}

	fmt.Fprintf(b, "Duration: %s | Language: %s | Actions: %d | Key Points: %d\n\n",
		orDash(r.DurationEstimate), orDash(r.LanguageDetected), len(r.ActionItems), len(r.KeyPoints))

	b.WriteString(p.paint(ansiBold, "EXECUTIVE SUMMARY") + "\n")
	b.WriteString(r.Summary + "\n\n")

	b.WriteString(p.paint(ansiBold, "KEY POINTS") + "\n")
	if len(r.KeyPoints) == 0 {
		b.WriteString(p.paint(ansiDim, "  none") + "\n")
	}
	for i, kp := range r.KeyPoints {
		fmt.Fprintf(b, "  %d. %s\n", i+1, kp)
	}
	b.WriteString("\n")

	b.WriteString(p.paint(ansiBold, "ACTION ITEMS") + "\n")
	if len(r.ActionItems) == 0 {
		b.WriteString(p.paint(ansiDim, "  none") + "\n")
	}
	for i, item := range r.ActionItems {
		fmt.Fprintf(b, "  %s %s\n", p.paint(ansiGreen, fmt.Sprintf("%d.", i+1)), item.Task)
		if a := Optional(item.Assignee); a != "" {
			fmt.Fprintf(b, "     Assignee: %s\n", a)
		}
		if d := Optional(item.Deadline); d != "" {
			fmt.Fprintf(b, "     Deadline: %s\n", d)
		}
	}
	b.WriteString("\n")

	b.WriteString(p.paint(ansiBold, "FULL TRANSCRIPTION") + "\n")
	if transcript {
		b.WriteString(r.Transcription + "\n")
	} else {
		b.WriteString(p.paint(ansiDim, fmt.Sprintf("  %d words hidden, use --transcript to show", r.WordCount())) + "\n")
	}
}

// Optional returns the value of an optional result field, treating the
// literal "null" some models emit as absent.
func Optional(s *string) string {
	v := strings.TrimSpace(analysis.StringValue(s))
	if v == "null" {
		return ""
	}
	return v
}

func orDash(s *string) string {
	if v := analysis.StringValue(s); v != "" {
		return v
	}
	return "-"
}

// FormatBytes renders a size as KB below one megabyte and MB above.
func FormatBytes(n int64) string {
	const mb = 1024 * 1024
	if n < mb {
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	}
	return fmt.Sprintf("%.1f MB", float64(n)/mb)
}

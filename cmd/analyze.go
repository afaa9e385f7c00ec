package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/azurely-cli/config"
	"github.com/otherjamesbrown/azurely-cli/pkg/analysis"
	azerrors "github.com/otherjamesbrown/azurely-cli/pkg/errors"
	"github.com/otherjamesbrown/azurely-cli/pkg/render"
	"github.com/otherjamesbrown/azurely-cli/pkg/session"
)

// ErrReported is returned when a command has already printed its failure.
// main exits non-zero without printing it again.
var ErrReported = errors.New("failure already reported")

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(deps *CommandDeps) *cobra.Command {
	var (
		language   string
		transcript bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Upload a meeting recording and print its analysis",
		Long: `Upload a meeting recording to the analysis service and print the
transcription summary, key points and action items.

Accepted formats: mp3, wav, m4a, ogg, mp4 (extension checked, any case).
The full transcription is hidden unless --transcript is given.

The command exits non-zero when the file is rejected or the analysis fails;
the failure message is printed exactly as the service or client reported it.

Examples:
  azurely analyze standup.m4a
  azurely analyze planning.mp3 --language es-MX
  azurely analyze review.wav --transcript
  azurely analyze review.wav -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), deps, cmd.OutOrStdout(), args[0], language, transcript)
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "language tag (default from config, see 'azurely languages')")
	cmd.Flags().BoolVar(&transcript, "transcript", false, "include the full transcription in text output")

	return cmd
}

// lastError remembers the most recent analysis error so the CLI can print a hint.
type lastError struct {
	session.Analyzer

	mu  sync.Mutex
	err error
}

func (l *lastError) Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error) {
	res, err := l.Analyzer.Analyze(ctx, req)
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
	return res, err
}

func (l *lastError) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func runAnalyze(ctx context.Context, deps *CommandDeps, out io.Writer, path, language string, transcript bool) error {
	cfg, backend, err := deps.backend()
	if err != nil {
		return err
	}

	recorder := &lastError{Analyzer: backend}
	ctrl := session.New(recorder,
		session.WithLanguage(cfg.Language),
		session.WithLogger(deps.logger()),
		session.WithMetrics(deps.Metrics),
	)

	if language != "" {
		lang, err := analysis.ParseLanguage(language)
		if err != nil {
			return err
		}
		if err := ctrl.SetLanguage(lang); err != nil {
			return err
		}
	}

	candidate, err := analysis.CandidateFromPath(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}

	opts := render.Options{
		Format:     cfg.OutputFormat,
		Transcript: transcript,
		Color:      render.ColorEnabled(out),
	}
	textOutput := cfg.OutputFormat == config.OutputFormatText || cfg.OutputFormat == ""

	if err := ctrl.SelectFile(candidate); err != nil {
		if rerr := render.Snapshot(out, ctrl.Snapshot(), opts); rerr != nil {
			return rerr
		}
		return ErrReported
	}

	if textOutput {
		stderr := deps.stderr()
		unsubscribe := ctrl.Subscribe(func(s session.Snapshot) {
			if s.State.IsLoading() {
				fmt.Fprintf(stderr, "Analyzing %s (%s, %s)...\n",
					s.State.FileName, render.FormatBytes(candidate.SizeBytes), s.Language)
			}
		})
		defer unsubscribe()
	}

	snap, err := ctrl.SubmitAndWait(ctx)
	if err != nil {
		return err
	}

	if err := render.Snapshot(out, snap, opts); err != nil {
		return err
	}

	if snap.State.Kind == session.KindError {
		if err := recorder.Err(); err != nil && textOutput {
			fmt.Fprintf(deps.stderr(), "Hint: %s\n", azerrors.GetSuggestedAction(azerrors.Classify(err)))
		}
		return ErrReported
	}
	return nil
}

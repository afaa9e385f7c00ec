package render

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/azurely-cli/config"
	"github.com/otherjamesbrown/azurely-cli/pkg/analysis"
	"github.com/otherjamesbrown/azurely-cli/pkg/session"
)

func strPtr(s string) *string { return &s }

func successSnapshot() session.Snapshot {
	return session.Snapshot{
		State: session.Success(&analysis.Result{
			Transcription:    "hello team this is the weekly sync",
			Summary:          "Weekly sync.",
			KeyPoints:        []string{"a", "b"},
			ActionItems:      []analysis.ActionItem{{Task: "T", Assignee: strPtr("Ana"), Deadline: strPtr("null")}},
			DurationEstimate: strPtr("12m"),
		}),
		Candidate: &session.CandidateInfo{Name: "sync.mp3", SizeBytes: 2048, Extension: "mp3"},
		Language:  analysis.LanguageEnglishUS,
	}
}

func TestSnapshot_TextSuccess(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Snapshot(&buf, successSnapshot(), Options{Format: config.OutputFormatText}))

	out := buf.String()
	assert.Contains(t, out, "Duration: 12m | Language: - | Actions: 1 | Key Points: 2")
	assert.Contains(t, out, "EXECUTIVE SUMMARY\nWeekly sync.")
	assert.Contains(t, out, "  1. a\n  2. b\n")
	assert.Contains(t, out, "  1. T\n     Assignee: Ana\n")
	assert.NotContains(t, out, "Deadline:", "literal null deadline is hidden")
	assert.Contains(t, out, "7 words hidden")
	assert.NotContains(t, out, "weekly sync\n")
	assert.NotContains(t, out, "\033[", "no colour unless asked")
}

func TestSnapshot_TextTranscript(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Snapshot(&buf, successSnapshot(), Options{Transcript: true}))
	assert.Contains(t, buf.String(), "FULL TRANSCRIPTION\nhello team this is the weekly sync\n")
}

func TestSnapshot_TextColor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Snapshot(&buf, successSnapshot(), Options{Color: true}))
	assert.Contains(t, buf.String(), ansiBold+"KEY POINTS"+ansiReset)
}

func TestSnapshot_TextStates(t *testing.T) {
	tests := []struct {
		name string
		snap session.Snapshot
		want []string
	}{
		{
			name: "idle empty",
			snap: session.Snapshot{State: session.Idle(), Language: analysis.LanguageEnglishGB},
			want: []string{"No file selected.", "Language: British English"},
		},
		{
			name: "idle with file and validation",
			snap: session.Snapshot{
				State:             session.Idle(),
				Candidate:         &session.CandidateInfo{Name: "a.wav", SizeBytes: 3 * 1024 * 1024},
				Language:          analysis.LanguageEnglishUS,
				ValidationMessage: analysis.UnsupportedFormatMessage,
			},
			want: []string{"File: a.wav (3.0 MB)", analysis.UnsupportedFormatMessage},
		},
		{
			name: "loading",
			snap: session.Snapshot{State: session.Loading("a.wav")},
			want: []string{"Analyzing a.wav"},
		},
		{
			name: "error verbatim",
			snap: session.Snapshot{State: session.Failed(session.ConnectionFailedMessage)},
			want: []string{session.ConnectionFailedMessage + "\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Snapshot(&buf, tt.snap, Options{}))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestSnapshot_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Snapshot(&buf, successSnapshot(), Options{Format: config.OutputFormatJSON}))

	var got Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "success", got.Status)
	assert.Equal(t, "sync.mp3", got.File)
	assert.Equal(t, analysis.LanguageEnglishUS, got.Language)
	require.NotNil(t, got.Result)
	assert.Equal(t, []string{"a", "b"}, got.Result.KeyPoints)
	assert.Empty(t, got.Error)
}

func TestSnapshot_YAMLError(t *testing.T) {
	var buf bytes.Buffer
	snap := session.Snapshot{State: session.Failed("boom"), Language: analysis.LanguageSpanishMX}
	require.NoError(t, Snapshot(&buf, snap, Options{Format: config.OutputFormatYAML}))

	var got map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "error", got["status"])
	assert.Equal(t, "boom", got["error"])
	assert.Equal(t, "es-MX", got["language"])
	assert.NotContains(t, got, "result")
}

func TestSnapshot_UnknownFormat(t *testing.T) {
	err := Snapshot(&bytes.Buffer{}, session.Snapshot{}, Options{Format: "xml"})
	assert.Error(t, err)
}

func TestNewReport_LoadingUsesInFlightFile(t *testing.T) {
	snap := session.Snapshot{
		State:     session.Loading("first.mp3"),
		Candidate: &session.CandidateInfo{Name: "next.mp3"},
	}
	assert.Equal(t, "first.mp3", NewReport(snap).File)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0.0 KB", FormatBytes(0))
	assert.Equal(t, "1.5 KB", FormatBytes(1536))
	assert.Equal(t, "1.0 MB", FormatBytes(1024*1024))
	assert.Equal(t, "12.5 MB", FormatBytes(12*1024*1024+512*1024))
}

func TestColorEnabled_NonFile(t *testing.T) {
	assert.False(t, ColorEnabled(&bytes.Buffer{}))
	t.Setenv("NO_COLOR", "1")
	assert.False(t, ColorEnabled(nil))
}

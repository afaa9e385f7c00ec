package analysis

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	azerrors "github.com/otherjamesbrown/azurely-cli/pkg/errors"
)

func TestExtension(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"meeting.mp3", "mp3"},
		{"Standup.WAV", "wav"},
		{"archive.tar.ogg", "ogg"},
		{"noext", ""},
		{".hidden", "hidden"},
		{"trailing.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extension(tt.name))
		})
	}
}

func TestValidateName(t *testing.T) {
	accepted := []string{"a.mp3", "b.WAV", "c.M4a", "d.ogg", "e.Mp4"}
	for _, name := range accepted {
		assert.NoError(t, ValidateName(name), name)
	}

	rejected := []string{"a.flac", "b.txt", "mp3", "c.mp3.zip", "d.", ""}
	for _, name := range rejected {
		err := ValidateName(name)
		require.Error(t, err, name)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
		assert.True(t, azerrors.IsValidation(err), "rejection should be a validation error")
	}
}

func TestCandidateFromBytes(t *testing.T) {
	c := CandidateFromBytes("Weekly.MP3", []byte("ID3data"))

	assert.Equal(t, "Weekly.MP3", c.Name)
	assert.Equal(t, int64(7), c.SizeBytes)
	assert.Equal(t, "mp3", c.Extension)
	assert.False(t, c.IsZero())

	rc, err := c.Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "ID3data", string(data))

	// A second Open yields the bytes again.
	rc2, err := c.Open()
	require.NoError(t, err)
	data2, _ := io.ReadAll(rc2)
	assert.Equal(t, data, data2)
}

func TestCandidateFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "retro.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0600))

	c, err := CandidateFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "retro.wav", c.Name)
	assert.Equal(t, int64(4), c.SizeBytes)
	assert.Equal(t, "wav", c.Extension)

	_, err = CandidateFromPath(filepath.Join(dir, "missing.wav"))
	assert.Error(t, err)

	_, err = CandidateFromPath(dir)
	assert.Error(t, err)
}

func TestCandidate_ZeroValue(t *testing.T) {
	var c Candidate
	assert.True(t, c.IsZero())
	_, err := c.Open()
	assert.Error(t, err)
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in      string
		want    Language
		wantErr bool
	}{
		{"en-US", LanguageEnglishUS, false},
		{"en-us", LanguageEnglishUS, false},
		{"pt-br", LanguagePortugueseBR, false},
		{"es-MX", LanguageSpanishMX, false},
		{"en", "", true},
		{"fr-FR", "", true},
		{"not a tag", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLanguage(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnsupportedLanguage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLanguage_DisplayNames(t *testing.T) {
	for _, l := range SupportedLanguages {
		assert.True(t, l.IsValid())
		assert.NotEmpty(t, l.DisplayName(), "display name for %s", l)
		assert.NotEmpty(t, l.SelfName(), "self name for %s", l)
	}
	assert.False(t, Language("de-DE").IsValid())
}

func TestNewRequest(t *testing.T) {
	c := CandidateFromBytes("a.mp3", []byte("x"))

	req, err := NewRequest(c, LanguageSpanishES)
	require.NoError(t, err)
	assert.Equal(t, "a.mp3", req.File.Name)
	assert.Equal(t, LanguageSpanishES, req.Language)

	_, err = NewRequest(Candidate{}, LanguageSpanishES)
	assert.ErrorIs(t, err, ErrNoCandidate)

	_, err = NewRequest(CandidateFromBytes("a.flac", nil), LanguageSpanishES)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = NewRequest(c, Language("xx"))
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestResult_DecodesServiceBody(t *testing.T) {
	body := `{"summary":"S","key_points":["a","b"],"action_items":[{"task":"T","assignee":null,"deadline":null}],"transcription":"hello there team","duration_estimate":"12m","language_detected":"en"}`

	var r Result
	require.NoError(t, json.Unmarshal([]byte(body), &r))

	assert.Equal(t, "S", r.Summary)
	assert.Equal(t, []string{"a", "b"}, r.KeyPoints)
	require.Len(t, r.ActionItems, 1)
	assert.Equal(t, "T", r.ActionItems[0].Task)
	assert.Nil(t, r.ActionItems[0].Assignee)
	assert.Nil(t, r.ActionItems[0].Deadline)
	assert.Equal(t, "12m", StringValue(r.DurationEstimate))
	assert.Equal(t, "en", StringValue(r.LanguageDetected))
	assert.Equal(t, 3, r.WordCount())
}

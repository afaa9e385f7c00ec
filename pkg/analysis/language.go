package analysis

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	azerrors "github.com/otherjamesbrown/azurely-cli/pkg/errors"
)

// Language is a BCP-47 locale tag accepted by the speech backend.
type Language string

const (
	LanguageEnglishUS    Language = "en-US"
	LanguageEnglishGB    Language = "en-GB"
	LanguageSpanishES    Language = "es-ES"
	LanguageSpanishMX    Language = "es-MX"
	LanguagePortugueseBR Language = "pt-BR"
)

// DefaultLanguage is preselected for new sessions.
const DefaultLanguage = LanguageEnglishUS

// ErrUnsupportedLanguage is returned for tags outside SupportedLanguages.
var ErrUnsupportedLanguage = fmt.Errorf("%w: unsupported language", azerrors.ErrValidation)

// SupportedLanguages lists the accepted tags in display order.
var SupportedLanguages = []Language{
	LanguageEnglishUS,
	LanguageEnglishGB,
	LanguageSpanishES,
	LanguageSpanishMX,
	LanguagePortugueseBR,
}

// ParseLanguage parses a tag case-insensitively ("pt-br", "EN-us") into one of
// the supported languages.
func ParseLanguage(s string) (Language, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrUnsupportedLanguage, s, err)
	}
	canonical := Language(tag.String())
	if !canonical.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
	return canonical, nil
}

// IsValid reports whether l is one of the supported languages.
func (l Language) IsValid() bool {
	for _, s := range SupportedLanguages {
		if l == s {
			return true
		}
	}
	return false
}

// Tag returns the x/text language tag.
func (l Language) Tag() language.Tag {
	return language.Make(string(l))
}

// DisplayName returns the English name of the locale, e.g. "British English".
func (l Language) DisplayName() string {
	return display.English.Tags().Name(l.Tag())
}

// SelfName returns the locale's name in its own language.
func (l Language) SelfName() string {
	return display.Self.Name(l.Tag())
}

// String returns the tag.
func (l Language) String() string {
	return string(l)
}

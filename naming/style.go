// Package naming converts field identifiers into external key styles.
package naming

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"retort/internal/match"
)

// Style is a naming convention for generated data keys.
type Style int

const (
	LowerSnake Style = iota
	CamelSnake
	PascalSnake
	UpperSnake

	LowerKebab
	CamelKebab
	PascalKebab
	UpperKebab

	Lower
	Camel
	Pascal
	Upper

	LowerDot
	CamelDot
	PascalDot
	UpperDot
)

type wordCase int

const (
	caseLower wordCase = iota
	caseTitle
	caseUpper
)

type conversion struct {
	name  string
	sep   string
	first wordCase
	other wordCase
}

var conversions = [...]conversion{
	LowerSnake:  {"lower_snake", "_", caseLower, caseLower},
	CamelSnake:  {"camel_Snake", "_", caseLower, caseTitle},
	PascalSnake: {"Pascal_Snake", "_", caseTitle, caseTitle},
	UpperSnake:  {"UPPER_SNAKE", "_", caseUpper, caseUpper},

	LowerKebab:  {"lower-kebab", "-", caseLower, caseLower},
	CamelKebab:  {"camel-Kebab", "-", caseLower, caseTitle},
	PascalKebab: {"Pascal-Kebab", "-", caseTitle, caseTitle},
	UpperKebab:  {"UPPER-KEBAB", "-", caseUpper, caseUpper},

	Lower:  {"lowercase", "", caseLower, caseLower},
	Camel:  {"camelCase", "", caseLower, caseTitle},
	Pascal: {"PascalCase", "", caseTitle, caseTitle},
	Upper:  {"UPPERCASE", "", caseUpper, caseUpper},

	LowerDot:  {"lower.dot", ".", caseLower, caseLower},
	CamelDot:  {"camel.Dot", ".", caseLower, caseTitle},
	PascalDot: {"Pascal.Dot", ".", caseTitle, caseTitle},
	UpperDot:  {"UPPER.DOT", ".", caseUpper, caseUpper},
}

// Styles lists every style.
func Styles() []Style {
	styles := make([]Style, len(conversions))
	for i := range conversions {
		styles[i] = Style(i)
	}

	return styles
}

func (s Style) valid() bool { return s >= 0 && int(s) < len(conversions) }

// String returns the sample spelling of the style, e.g. "camel_Snake".
func (s Style) String() string {
	if !s.valid() {
		return fmt.Sprintf("Style(%d)", int(s))
	}

	return conversions[s].name
}

// ParseStyle reads a style from its sample spelling. Matching ignores case
// and separators, so "lower_snake", "LowerSnake" and "lower-snake" all
// name LowerSnake.
func ParseStyle(text string) (Style, error) {
	want := match.Fold(text)

	for i, c := range conversions {
		if match.Fold(c.name) == want {
			return Style(i), nil
		}
	}

	switch want {
	case "snake":
		return LowerSnake, nil
	case "kebab":
		return LowerKebab, nil
	}

	return 0, fmt.Errorf("unknown name style %q", text)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Style) UnmarshalText(text []byte) error {
	parsed, err := ParseStyle(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Style) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("invalid name style %d", int(s))
	}

	return []byte(s.String()), nil
}

// Convert rewrites name in the given style. Words are split at separators
// and at case transitions, so "IconID" and "icon_id" both become "iconId"
// in Camel. Leading and trailing underscores are kept.
func Convert(name string, style Style) (string, error) {
	if !style.valid() {
		return "", fmt.Errorf("invalid name style %d", int(style))
	}

	core := strings.Trim(name, "_")
	if core == "" {
		return name, nil
	}

	front := name[:strings.Index(name, core)]
	back := name[len(front)+len(core):]

	words := match.Words(core)
	if len(words) == 0 {
		return "", fmt.Errorf("cannot split %q into words", name)
	}

	conv := conversions[style]

	for i, w := range words {
		c := conv.other
		if i == 0 {
			c = conv.first
		}

		words[i] = applyCase(w, c)
	}

	return front + strings.Join(words, conv.sep) + back, nil
}

// MustConvert is like Convert but panics on error.
func MustConvert(name string, style Style) string {
	out, err := Convert(name, style)
	if err != nil {
		panic(err)
	}

	return out
}

func applyCase(word string, c wordCase) string {
	switch c {
	case caseTitle:
		return cases.Title(language.Und).String(word)
	case caseUpper:
		return cases.Upper(language.Und).String(word)
	default:
		return cases.Lower(language.Und).String(word)
	}
}

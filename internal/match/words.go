package match

import (
	"strings"
	"unicode"
)

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == '.'
}

// Words splits an identifier into lowercase words. Words end at separators
// (underscore, dash, space and dot), before an upper case letter following
// a lower case one, and before the last letter of an acronym followed by a
// lower case letter: "XMLParser" gives [xml parser].
func Words(ident string) []string {
	var (
		words []string
		start = -1
	)

	runes := []rune(ident)

	flush := func(end int) {
		if start >= 0 {
			words = append(words, strings.ToLower(string(runes[start:end])))
		}

		start = -1
	}

	for i, r := range runes {
		switch {
		case isSeparator(r):
			flush(i)

			continue
		case start >= 0 && boundary(runes, i):
			flush(i)
		}

		if start < 0 {
			start = i
		}
	}

	flush(len(runes))

	return words
}

func boundary(runes []rune, i int) bool {
	if !unicode.IsUpper(runes[i]) {
		return false
	}

	if !unicode.IsUpper(runes[i-1]) {
		return true
	}

	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}

// Fold reduces an identifier to its words run together, so spellings that
// differ only in case and separators fold to the same string.
func Fold(ident string) string {
	return strings.Join(Words(ident), "")
}

// noise are trailing words that rarely tell two fields apart.
var noise = map[string]bool{"id": true, "ids": true, "at": true, "utc": true, "timestamp": true}

// stem is Fold without one trailing noise word, when another word is left.
func stem(ident string) string {
	words := Words(ident)
	if len(words) > 1 && noise[words[len(words)-1]] {
		words = words[:len(words)-1]
	}

	return strings.Join(words, "")
}

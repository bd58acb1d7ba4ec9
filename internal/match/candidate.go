package match

import (
	"cmp"
	"reflect"
	"slices"
	"strings"
)

// Field is a named slot taking part in matching. A nil Type means the
// type is unknown.
type Field struct {
	Name string
	Type reflect.Type
}

// Candidate is a source field scored against a target field.
type Candidate struct {
	Source Field
	// NameScore is the similarity of the folded names, or of their stems
	// when that is higher.
	NameScore float64
	Compat    TypeCompatibilityResult
	// Score weights the name by 0.6 and the type compatibility by 0.4.
	Score float64

	folded string
}

// DefaultSuggestScore is the minimum name score of a suggestion.
const DefaultSuggestScore = 0.5

const (
	nameWeight = 0.6
	typeWeight = 0.4
)

var typeScores = [...]float64{
	TypeIncompatible:   0,
	TypeNeedsTransform: 0.4,
	TypeConvertible:    0.7,
	TypeAssignable:     0.9,
	TypeIdentical:      1,
}

func score(name float64, compat TypeCompatibility) float64 {
	return name*nameWeight + typeScores[compat]*typeWeight
}

// Rank scores every source against target, best first. Equal scores are
// ordered by source name.
func Rank(target Field, sources []Field) []Candidate {
	folded, stemmed := Fold(target.Name), stem(target.Name)

	out := make([]Candidate, len(sources))

	for i, src := range sources {
		c := Candidate{
			Source:    src,
			NameScore: max(Similarity(Fold(src.Name), folded), Similarity(stem(src.Name), stemmed)),
			Compat:    TypeCompatibilityResult{Compatibility: TypeIncompatible, Reason: "type information unavailable"},
			folded:    folded,
		}

		if src.Type != nil && target.Type != nil {
			c.Compat = ScorePointerCompatibility(src.Type, target.Type)
		}

		c.Score = score(c.NameScore, c.Compat.Compatibility)
		out[i] = c
	}

	slices.SortStableFunc(out, func(a, b Candidate) int {
		if a.Score != b.Score {
			return cmp.Compare(b.Score, a.Score)
		}

		return strings.Compare(a.Source.Name, b.Source.Name)
	})

	return out
}

// Suggest returns the names of the sources that look like target, best
// first. A source is kept when its name score reaches minScore or when one
// folded name starts with the other.
func Suggest(target Field, sources []Field, minScore float64) []string {
	var names []string

	for _, c := range Rank(target, sources) {
		if c.NameScore >= minScore || prefixed(Fold(c.Source.Name), c.folded) {
			names = append(names, c.Source.Name)
		}
	}

	return names
}

func prefixed(a, b string) bool {
	if a == "" || b == "" {
		return false
	}

	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}

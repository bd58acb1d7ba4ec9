package provider

import (
	"strconv"
	"strings"

	"retort/shape"
	"retort/typing"
)

// FieldLoc describes a model field being processed.
type FieldLoc struct {
	ID         string
	Default    shape.Default
	Metadata   map[string]string
	IsRequired bool
	// Accessor is set for output fields.
	Accessor shape.Accessor
	// Func is set for parameters of a linking function.
	Func *shape.FuncModel
}

// Loc is one element of a LocStack. A Loc always has a type; field and
// generic parameter locations add their details.
type Loc struct {
	Type  typing.Expr
	Field *FieldLoc
	// GenericPos is the position of a generic argument, -1 when absent.
	GenericPos int
}

// TypeLoc is a location holding only a type.
func TypeLoc(tp typing.Expr) Loc {
	return Loc{Type: tp, GenericPos: -1}
}

// FieldLocOf is a location of a model field.
func FieldLocOf(tp typing.Expr, f FieldLoc) Loc {
	return Loc{Type: tp, Field: &f, GenericPos: -1}
}

// InputFieldLoc is a location of an input shape field.
func InputFieldLoc(f shape.InputField) Loc {
	return FieldLocOf(f.Type, FieldLoc{
		ID:         f.ID,
		Default:    f.Default,
		Metadata:   f.Metadata,
		IsRequired: f.IsRequired,
	})
}

// OutputFieldLoc is a location of an output shape field.
func OutputFieldLoc(f shape.OutputField) Loc {
	return FieldLocOf(f.Type, FieldLoc{
		ID:         f.ID,
		Default:    f.Default,
		Metadata:   f.Metadata,
		IsRequired: f.IsRequired(),
		Accessor:   f.Accessor,
	})
}

// GenericParamLoc is a location of a generic argument.
func GenericParamLoc(tp typing.Expr, pos int) Loc {
	return Loc{Type: tp, GenericPos: pos}
}

// IsField reports whether l is a field location.
func (l Loc) IsField() bool { return l.Field != nil }

// IsGenericParam reports whether l is a generic argument location.
func (l Loc) IsGenericParam() bool { return l.GenericPos >= 0 }

// WithType returns a copy of l with another type.
func (l Loc) WithType(tp typing.Expr) Loc {
	l.Type = tp

	return l
}

// Key identifies l: kind, type key, field id and generic position.
func (l Loc) Key() string {
	var b strings.Builder

	switch {
	case l.Field != nil:
		b.WriteString("field:")
		b.WriteString(l.Field.ID)
		b.WriteByte(':')
	case l.GenericPos >= 0:
		b.WriteString("generic:")
		b.WriteString(strconv.Itoa(l.GenericPos))
		b.WriteByte(':')
	default:
		b.WriteString("type:")
	}

	b.WriteString(typing.KeyOf(l.Type))

	return b.String()
}

func (l Loc) String() string {
	switch {
	case l.Field != nil:
		return l.Field.ID + " " + typing.Repr(l.Type)
	case l.GenericPos >= 0:
		return "[" + strconv.Itoa(l.GenericPos) + "] " + typing.Repr(l.Type)
	default:
		return typing.Repr(l.Type)
	}
}

// LocStack is an immutable path of locations from the request root.
type LocStack struct {
	locs []Loc
}

// NewLocStack builds a stack from its locations, root first.
func NewLocStack(locs ...Loc) LocStack {
	return LocStack{locs: append([]Loc(nil), locs...)}
}

// Len is the number of locations.
func (s LocStack) Len() int { return len(s.locs) }

// At returns the i-th location from the root.
func (s LocStack) At(i int) Loc { return s.locs[i] }

// Last returns the innermost location.
func (s LocStack) Last() Loc { return s.locs[len(s.locs)-1] }

// Locs returns a copy of the locations.
func (s LocStack) Locs() []Loc { return append([]Loc(nil), s.locs...) }

// Append returns a new stack with l on top.
func (s LocStack) Append(l Loc) LocStack {
	locs := make([]Loc, len(s.locs), len(s.locs)+1)
	copy(locs, s.locs)

	return LocStack{locs: append(locs, l)}
}

// ReplaceLast returns a new stack whose top is l.
func (s LocStack) ReplaceLast(l Loc) LocStack {
	locs := s.Locs()
	locs[len(locs)-1] = l

	return LocStack{locs: locs}
}

// ReplaceLastType returns a new stack whose top has another type.
func (s LocStack) ReplaceLastType(tp typing.Expr) LocStack {
	return s.ReplaceLast(s.Last().WithType(tp))
}

// Prefix returns the stack without its last n locations.
func (s LocStack) Prefix(n int) LocStack {
	return LocStack{locs: s.locs[:len(s.locs)-n]}
}

// Count returns how many times l occurs in s.
func (s LocStack) Count(l Loc) int {
	key := l.Key()
	n := 0

	for _, el := range s.locs {
		if el.Key() == key {
			n++
		}
	}

	return n
}

// Key identifies the whole path.
func (s LocStack) Key() string {
	keys := make([]string, len(s.locs))
	for i, l := range s.locs {
		keys[i] = l.Key()
	}

	return strings.Join(keys, " / ")
}

// String renders the path the way configuration errors show it, e.g.
// ‹app.Weather›.Stream ‹chan int›.
func (s LocStack) String() string {
	if len(s.locs) == 0 {
		return "‹›"
	}

	var b strings.Builder

	b.WriteString("‹" + typing.Repr(s.locs[0].Type) + "›")

	for _, l := range s.locs[1:] {
		switch {
		case l.Field != nil:
			b.WriteString("." + l.Field.ID)
		case l.GenericPos >= 0:
			b.WriteString("[" + strconv.Itoa(l.GenericPos) + "]")
		default:
			b.WriteString(" ⮕ ")
		}
	}

	if len(s.locs) > 1 {
		b.WriteString(" ‹" + typing.Repr(s.Last().Type) + "›")
	}

	return b.String()
}

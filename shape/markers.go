package shape

import (
	"reflect"

	"retort/typing"
)

// NamedTuple is embedded into a struct to make it positional: fields become
// PosOrKW parameters in declaration order and are read by position.
type NamedTuple struct{}

var namedTupleType = reflect.TypeFor[NamedTuple]()

// IsNamedTuple reports whether rt embeds NamedTuple.
func IsNamedTuple(rt reflect.Type) bool {
	if rt.Kind() != reflect.Struct {
		return false
	}

	for i := range rt.NumField() {
		sf := rt.Field(i)
		if sf.Anonymous && sf.Type == namedTupleType {
			return true
		}
	}

	return false
}

// TypeHinter refines the types of struct fields, keyed by field name.
type TypeHinter interface {
	TypeHints() map[string]typing.Expr
}

// PostIniter is called on a pointer to the freshly constructed struct.
type PostIniter interface {
	PostInit() error
}

// Computed lists methods exposed as output-only fields.
type Computed interface {
	ComputedFields() []string
}

// ExtraAllowed enables the field tagged retort:",extra" as the variadic
// keyword channel of a Computed struct.
type ExtraAllowed interface {
	ExtraAllowed() bool
}

// DefaultFactories supplies factory defaults of registered structs, keyed by
// field name.
type DefaultFactories interface {
	DefaultFactories() map[string]func() any
}

package shape

import (
	"fmt"
	"maps"

	"retort/typing"
)

// ParamKind is the way a constructor parameter receives its value.
type ParamKind int

const (
	PosOnly ParamKind = iota
	PosOrKW
	KWOnly
)

func (k ParamKind) String() string {
	switch k {
	case PosOnly:
		return "PosOnly"
	case PosOrKW:
		return "PosOrKW"
	case KWOnly:
		return "KWOnly"
	default:
		return "ParamKind(unknown)"
	}
}

// InputField is a field consumed by the constructor.
type InputField struct {
	ID         string
	Type       typing.Expr
	Default    Default
	IsRequired bool
	Metadata   map[string]string
	// Original is the backend specific declaration, e.g. a reflect.StructField.
	Original any
}

// OutputField is a field read from an instance.
type OutputField struct {
	ID       string
	Type     typing.Expr
	Default  Default
	Accessor Accessor
	Metadata map[string]string
	Original any
}

// IsRequired reports whether the field is always present on an instance.
func (f OutputField) IsRequired() bool {
	return f.Accessor.IsRequired()
}

// Param binds a field to a constructor parameter.
type Param struct {
	FieldID string
	Name    string
	Kind    ParamKind
}

// ParamKwargs describes the variadic keyword channel of a constructor.
type ParamKwargs struct {
	Type typing.Expr
}

// Constructor builds an instance. Positional values go to args, the rest to
// kwargs keyed by parameter name. Absent optional parameters take their
// defaults inside the constructor.
type Constructor func(args []any, kwargs map[string]any) (any, error)

// InputShape is the construction contract of a model.
type InputShape struct {
	Fields          []InputField
	OverriddenTypes map[string]struct{}
	Params          []Param
	Kwargs          *ParamKwargs
	Constructor     Constructor
}

// Field finds a field by id.
func (s *InputShape) Field(id string) (InputField, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}

	return InputField{}, false
}

// ParamOf finds the parameter bound to a field.
func (s *InputShape) ParamOf(id string) (Param, bool) {
	for _, p := range s.Params {
		if p.FieldID == id {
			return p, true
		}
	}

	return Param{}, false
}

// OutputShape is the observation contract of a model.
type OutputShape struct {
	Fields          []OutputField
	OverriddenTypes map[string]struct{}
}

// Field finds a field by id.
func (s *OutputShape) Field(id string) (OutputField, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}

	return OutputField{}, false
}

// Shape is the pair of input and output contracts. Either side may be nil.
type Shape struct {
	Input  *InputShape
	Output *OutputShape
}

// IDSet builds an overridden types set.
func IDSet(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	return set
}

// WithFieldTypes returns a copy of s whose field types are replaced by types[id].
// Fields missing from types keep their type.
func (s *InputShape) WithFieldTypes(types map[string]typing.Expr) *InputShape {
	c := *s
	c.Fields = make([]InputField, len(s.Fields))

	for i, f := range s.Fields {
		if tp, ok := types[f.ID]; ok {
			f.Type = tp
		}

		c.Fields[i] = f
	}

	c.OverriddenTypes = maps.Clone(s.OverriddenTypes)

	return &c
}

// WithFieldTypes returns a copy of s whose field types are replaced by types[id].
func (s *OutputShape) WithFieldTypes(types map[string]typing.Expr) *OutputShape {
	c := *s
	c.Fields = make([]OutputField, len(s.Fields))

	for i, f := range s.Fields {
		if tp, ok := types[f.ID]; ok {
			f.Type = tp
		}

		c.Fields[i] = f
	}

	c.OverriddenTypes = maps.Clone(s.OverriddenTypes)

	return &c
}

// Arguments spreads field values over the constructor parameters. A
// positional parameter after an absent one is passed by keyword.
func (s *InputShape) Arguments(values map[string]any) ([]any, map[string]any, error) {
	var args []any

	kwargs := make(map[string]any, len(values))
	gap := false

	for _, p := range s.Params {
		v, ok := values[p.FieldID]

		switch {
		case !ok:
			gap = gap || p.Kind != KWOnly
		case p.Kind == KWOnly:
			kwargs[p.Name] = v
		case !gap:
			args = append(args, v)
		case p.Kind == PosOrKW:
			kwargs[p.Name] = v
		default:
			return nil, nil, fmt.Errorf("%w: %s follows an omitted parameter", ErrPositionalGap, p.Name)
		}
	}

	return args, kwargs, nil
}

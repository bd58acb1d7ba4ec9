package provider

import (
	"fmt"
	"strings"

	"retort/shape"
	"retort/typing"
)

// Loader turns data into an instance.
type Loader func(data any) (any, error)

// Dumper turns an instance into data.
type Dumper func(v any) (any, error)

// Coercer turns a source value into a destination value.
type Coercer func(v any) (any, error)

// Converter turns a source model and converter parameters into a
// destination model.
type Converter func(src any, params []any) (any, error)

// DebugTrail controls how loaders report the location of errors.
type DebugTrail int

const (
	// DebugTrailDisable returns the first error as is.
	DebugTrailDisable DebugTrail = iota
	// DebugTrailFirst returns the first error with its trail.
	DebugTrailFirst
	// DebugTrailAll collects every error with its trail.
	DebugTrailAll
)

func (d DebugTrail) String() string {
	switch d {
	case DebugTrailDisable:
		return "disable"
	case DebugTrailFirst:
		return "first"
	case DebugTrailAll:
		return "all"
	default:
		return fmt.Sprintf("DebugTrail(%d)", int(d))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DebugTrail) UnmarshalText(text []byte) error {
	for _, v := range []DebugTrail{DebugTrailDisable, DebugTrailFirst, DebugTrailAll} {
		if strings.EqualFold(v.String(), string(text)) {
			*d = v

			return nil
		}
	}

	return fmt.Errorf("unknown debug trail %q", text)
}

// ModelLoaderProps tunes model loaders.
type ModelLoaderProps struct {
	// UseDefaultForOmitted treats a field loaded as Omitted as absent.
	UseDefaultForOmitted bool
}

type omittedType struct{}

func (omittedType) String() string { return "Omitted" }

// Omitted marks a value that is absent. Dumpers skip it; loaders may
// produce it to fall back to a field default.
var Omitted any = omittedType{}

// IsOmitted reports whether v is the Omitted sentinel.
func IsOmitted(v any) bool {
	_, ok := v.(omittedType)

	return ok
}

// SentinelDumpError is returned when a sentinel reaches a dumper that has
// no place to omit it.
type SentinelDumpError struct {
	Sentinel any
}

func (e *SentinelDumpError) Error() string {
	return fmt.Sprintf("cannot dump sentinel %v", e.Sentinel)
}

// Linking tells where a destination field takes its value from.
type Linking interface {
	isLinking()
}

// FieldLinking takes a source model field.
type FieldLinking struct{ SourceID string }

// ParamLinking takes a converter parameter.
type ParamLinking struct{ Name string }

// ConstantLinking takes a constant or a factory result.
type ConstantLinking struct {
	Value   any
	Factory func() any
}

// ModelLinking takes the source model itself.
type ModelLinking struct{}

// FunctionLinking calls a function whose parameters are linked recursively.
type FunctionLinking struct{ Func *shape.FuncModel }

func (FieldLinking) isLinking()    {}
func (ParamLinking) isLinking()    {}
func (ConstantLinking) isLinking() {}
func (ModelLinking) isLinking()    {}
func (FunctionLinking) isLinking() {}

// LinkingResult is the answer to a LinkingRequest. Coercer is set when the
// linking was declared with an explicit coercer.
type LinkingResult struct {
	Linking Linking
	Coercer Coercer
}

// LinkingSources is what a destination field may be linked to.
type LinkingSources struct {
	Model  LocStack
	Fields []shape.OutputField
	Params []ConverterParam
}

// SourceField finds a source field by id.
func (s LinkingSources) SourceField(id string) (shape.OutputField, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}

	return shape.OutputField{}, false
}

// Param finds a converter parameter by name.
func (s LinkingSources) Param(name string) (ConverterParam, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}

	return ConverterParam{}, false
}

// FieldStack is the location of a source field.
func (s LinkingSources) FieldStack(f shape.OutputField) LocStack {
	return s.Model.Append(OutputFieldLoc(f))
}

// ParamStack is the location of a converter parameter.
func (s LinkingSources) ParamStack(p ConverterParam) LocStack {
	return NewLocStack(FieldLocOf(p.Type, FieldLoc{ID: p.Name, Default: shape.NoDefault{}, IsRequired: true}))
}

// SourceType is the type of the source model.
func (s LinkingSources) SourceType() typing.Expr {
	return s.Model.Last().Type
}

package provider

import (
	"fmt"
	"reflect"
	"strings"

	"retort/shape"
	"retort/typing"
)

// Request is a typed query routed through the recipe.
type Request interface {
	// Key identifies the request for caching.
	Key() string
}

// LocatedRequest is a request about the last location of its stack.
type LocatedRequest interface {
	Request
	LocStack() LocStack
	WithLocStack(s LocStack) LocatedRequest
}

// RequestType returns the routing type of R.
func RequestType[R Request]() reflect.Type {
	return reflect.TypeFor[R]()
}

func locatedKey(kind string, s LocStack) string {
	return kind + "|" + s.Key()
}

// LoaderRequest asks for a Loader.
type LoaderRequest struct{ Stack LocStack }

func (r LoaderRequest) Key() string                            { return locatedKey("loader", r.Stack) }
func (r LoaderRequest) LocStack() LocStack                     { return r.Stack }
func (r LoaderRequest) WithLocStack(s LocStack) LocatedRequest { return LoaderRequest{Stack: s} }

// DumperRequest asks for a Dumper.
type DumperRequest struct{ Stack LocStack }

func (r DumperRequest) Key() string                            { return locatedKey("dumper", r.Stack) }
func (r DumperRequest) LocStack() LocStack                     { return r.Stack }
func (r DumperRequest) WithLocStack(s LocStack) LocatedRequest { return DumperRequest{Stack: s} }

// InputShapeRequest asks for a *shape.InputShape.
type InputShapeRequest struct{ Stack LocStack }

func (r InputShapeRequest) Key() string        { return locatedKey("input_shape", r.Stack) }
func (r InputShapeRequest) LocStack() LocStack { return r.Stack }
func (r InputShapeRequest) WithLocStack(s LocStack) LocatedRequest {
	return InputShapeRequest{Stack: s}
}

// OutputShapeRequest asks for a *shape.OutputShape.
type OutputShapeRequest struct{ Stack LocStack }

func (r OutputShapeRequest) Key() string        { return locatedKey("output_shape", r.Stack) }
func (r OutputShapeRequest) LocStack() LocStack { return r.Stack }
func (r OutputShapeRequest) WithLocStack(s LocStack) LocatedRequest {
	return OutputShapeRequest{Stack: s}
}

// InputNameLayoutRequest asks for the input name layout of a model.
type InputNameLayoutRequest struct {
	Stack LocStack
	Shape *shape.InputShape
}

func (r InputNameLayoutRequest) Key() string        { return locatedKey("input_layout", r.Stack) }
func (r InputNameLayoutRequest) LocStack() LocStack { return r.Stack }
func (r InputNameLayoutRequest) WithLocStack(s LocStack) LocatedRequest {
	return InputNameLayoutRequest{Stack: s, Shape: r.Shape}
}

// OutputNameLayoutRequest asks for the output name layout of a model.
type OutputNameLayoutRequest struct {
	Stack LocStack
	Shape *shape.OutputShape
}

func (r OutputNameLayoutRequest) Key() string        { return locatedKey("output_layout", r.Stack) }
func (r OutputNameLayoutRequest) LocStack() LocStack { return r.Stack }
func (r OutputNameLayoutRequest) WithLocStack(s LocStack) LocatedRequest {
	return OutputNameLayoutRequest{Stack: s, Shape: r.Shape}
}

// StructureOverlayRequest asks for the name mapping overlay of a model.
type StructureOverlayRequest struct{ Stack LocStack }

func (r StructureOverlayRequest) Key() string        { return locatedKey("structure_overlay", r.Stack) }
func (r StructureOverlayRequest) LocStack() LocStack { return r.Stack }
func (r StructureOverlayRequest) WithLocStack(s LocStack) LocatedRequest {
	return StructureOverlayRequest{Stack: s}
}

// SievesOverlayRequest asks for the omission overlay of a model.
type SievesOverlayRequest struct{ Stack LocStack }

func (r SievesOverlayRequest) Key() string        { return locatedKey("sieves_overlay", r.Stack) }
func (r SievesOverlayRequest) LocStack() LocStack { return r.Stack }
func (r SievesOverlayRequest) WithLocStack(s LocStack) LocatedRequest {
	return SievesOverlayRequest{Stack: s}
}

// ExtraOverlayRequest asks for the extra data overlay of a model.
type ExtraOverlayRequest struct{ Stack LocStack }

func (r ExtraOverlayRequest) Key() string        { return locatedKey("extra_overlay", r.Stack) }
func (r ExtraOverlayRequest) LocStack() LocStack { return r.Stack }
func (r ExtraOverlayRequest) WithLocStack(s LocStack) LocatedRequest {
	return ExtraOverlayRequest{Stack: s}
}

// StrictCoercionRequest asks whether loaders at a location are strict.
type StrictCoercionRequest struct{ Stack LocStack }

func (r StrictCoercionRequest) Key() string        { return locatedKey("strict_coercion", r.Stack) }
func (r StrictCoercionRequest) LocStack() LocStack { return r.Stack }
func (r StrictCoercionRequest) WithLocStack(s LocStack) LocatedRequest {
	return StrictCoercionRequest{Stack: s}
}

// DebugTrailRequest asks for the DebugTrail policy at a location.
type DebugTrailRequest struct{ Stack LocStack }

func (r DebugTrailRequest) Key() string        { return locatedKey("debug_trail", r.Stack) }
func (r DebugTrailRequest) LocStack() LocStack { return r.Stack }
func (r DebugTrailRequest) WithLocStack(s LocStack) LocatedRequest {
	return DebugTrailRequest{Stack: s}
}

// ModelLoaderPropsRequest asks for ModelLoaderProps at a location.
type ModelLoaderPropsRequest struct{ Stack LocStack }

func (r ModelLoaderPropsRequest) Key() string        { return locatedKey("model_loader_props", r.Stack) }
func (r ModelLoaderPropsRequest) LocStack() LocStack { return r.Stack }
func (r ModelLoaderPropsRequest) WithLocStack(s LocStack) LocatedRequest {
	return ModelLoaderPropsRequest{Stack: s}
}

// CodeGenHookRequest asks for the hook receiving rendered sources.
type CodeGenHookRequest struct{}

func (CodeGenHookRequest) Key() string { return "codegen_hook" }

// CoercerRequest asks for a Coercer from the source to the destination
// location. It is located at the destination.
type CoercerRequest struct {
	Src LocStack
	Dst LocStack
}

func (r CoercerRequest) Key() string        { return "coercer|" + r.Src.Key() + " => " + r.Dst.Key() }
func (r CoercerRequest) LocStack() LocStack { return r.Dst }
func (r CoercerRequest) WithLocStack(s LocStack) LocatedRequest {
	return CoercerRequest{Src: r.Src, Dst: s}
}

// LinkingRequest asks for the Linking of a destination field.
type LinkingRequest struct {
	Sources     LinkingSources
	Destination LocStack
}

func (r LinkingRequest) Key() string {
	return "linking|" + r.Sources.Model.Key() + " => " + r.Destination.Key()
}
func (r LinkingRequest) LocStack() LocStack { return r.Destination }
func (r LinkingRequest) WithLocStack(s LocStack) LocatedRequest {
	return LinkingRequest{Sources: r.Sources, Destination: s}
}

// UnlinkedOptionalPolicyRequest asks whether an optional destination field
// may stay unlinked.
type UnlinkedOptionalPolicyRequest struct{ Stack LocStack }

func (r UnlinkedOptionalPolicyRequest) Key() string        { return locatedKey("unlinked_optional", r.Stack) }
func (r UnlinkedOptionalPolicyRequest) LocStack() LocStack { return r.Stack }
func (r UnlinkedOptionalPolicyRequest) WithLocStack(s LocStack) LocatedRequest {
	return UnlinkedOptionalPolicyRequest{Stack: s}
}

// ConverterRequest asks for a Converter between two models.
type ConverterRequest struct {
	Src    typing.Expr
	Dst    typing.Expr
	Params []ConverterParam
}

func (r ConverterRequest) Key() string {
	parts := []string{"converter", typing.KeyOf(r.Src), typing.KeyOf(r.Dst)}
	for _, p := range r.Params {
		parts = append(parts, p.Name+":"+typing.KeyOf(p.Type))
	}

	return strings.Join(parts, "|")
}

// ConverterParam is an extra parameter of a converter.
type ConverterParam struct {
	Name string
	Type typing.Expr
}

// NameMappingRequest asks for the data path of the field at the end of
// Stack. The answer is a []any of string and int keys, or nil when the
// field must be skipped. GeneratedKey is the key derived from the field id
// and the name style.
type NameMappingRequest struct {
	Stack        LocStack
	GeneratedKey any
}

func (r NameMappingRequest) Key() string {
	return locatedKey("name_mapping", r.Stack) + fmt.Sprintf("|%#v", r.GeneratedKey)
}
func (r NameMappingRequest) LocStack() LocStack { return r.Stack }
func (r NameMappingRequest) WithLocStack(s LocStack) LocatedRequest {
	return NameMappingRequest{Stack: s, GeneratedKey: r.GeneratedKey}
}

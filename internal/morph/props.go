package morph

import (
	"fmt"
	"reflect"

	"retort/loaderr"
	"retort/provider"
	"retort/typing"
)

// Settings answers the strictness, debug trail and model loader props
// requests with constant values.
func Settings(strict bool, trail provider.DebugTrail, props provider.ModelLoaderProps) provider.Provider {
	return provider.Concat(
		provider.Value[provider.StrictCoercionRequest](provider.AnyLoc, strict),
		provider.Value[provider.DebugTrailRequest](provider.AnyLoc, trail),
		provider.Value[provider.ModelLoaderPropsRequest](provider.AnyLoc, props),
	)
}

func strictAt(m provider.Mediator, s provider.LocStack) (bool, error) {
	return provider.Provide[bool](m, provider.StrictCoercionRequest{Stack: s})
}

func trailAt(m provider.Mediator, s provider.LocStack) (provider.DebugTrail, error) {
	return provider.Provide[provider.DebugTrail](m, provider.DebugTrailRequest{Stack: s})
}

func loaderAt(m provider.Mediator, s provider.LocStack) (provider.Loader, error) {
	return provider.Provide[provider.Loader](m, provider.LoaderRequest{Stack: s})
}

func dumperAt(m provider.Mediator, s provider.LocStack) (provider.Dumper, error) {
	return provider.Provide[provider.Dumper](m, provider.DumperRequest{Stack: s})
}

// lastType returns the normalized type of the innermost location.
func lastType(s provider.LocStack) (*typing.NormType, error) {
	n, err := typing.Normalize(s.Last().Type)
	if err != nil {
		return nil, provider.Cannot("cannot normalize %s: %v", typing.Repr(s.Last().Type), err)
	}

	return n, nil
}

// paramStack appends the location of the pos-th type argument of n.
func paramStack(s provider.LocStack, n *typing.NormType, pos int) provider.LocStack {
	return s.Append(provider.GenericParamLoc(n.Arg(pos), pos))
}

// collector gathers element errors the way the debug trail mode asks.
type collector struct {
	mode provider.DebugTrail
	errs []error
}

// add records err raised under path. A non-nil result stops loading.
func (c *collector) add(err error, path ...any) error {
	switch c.mode {
	case provider.DebugTrailDisable:
		return err
	case provider.DebugTrailFirst:
		return loaderr.ExtendTrail(err, path)
	default:
		c.errs = append(c.errs, loaderr.ExtendTrail(err, path))

		return nil
	}
}

func (c *collector) failed() bool { return len(c.errs) > 0 }

func (c *collector) err(message string) error {
	if len(c.errs) == 0 {
		return nil
	}

	return loaderr.NewGroup(message, c.errs)
}

func loadingMessage(tp typing.Expr) string {
	return "while loading " + typing.Repr(tp)
}

var anyType = reflect.TypeFor[any]()

// fit turns v into a reflect.Value assignable to t.
func fit(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(v)

	switch {
	case rv.Type().AssignableTo(t):
		return rv, nil
	case t.Kind() == reflect.Pointer && rv.Type().AssignableTo(t.Elem()):
		p := reflect.New(t.Elem())
		p.Elem().Set(rv)

		return p, nil
	case rv.Type().ConvertibleTo(t) && sameFamily(rv.Kind(), t.Kind()):
		return rv.Convert(t), nil
	default:
		return reflect.Value{}, fmt.Errorf("cannot use %T as %s", v, t)
	}
}

func sameFamily(a, b reflect.Kind) bool {
	return a == b || isNumberKind(a) && isNumberKind(b)
}

func isNumberKind(k reflect.Kind) bool {
	return reflect.Int <= k && k <= reflect.Float64
}

// plain converts values of named scalar types to their unnamed kind.
func plain(v any) any {
	if v == nil {
		return nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type().PkgPath() == "" {
		return v
	}

	if base, ok := baseTypes[rv.Kind()]; ok {
		return rv.Convert(base).Interface()
	}

	return v
}

var baseTypes = map[reflect.Kind]reflect.Type{
	reflect.Bool:    reflect.TypeFor[bool](),
	reflect.Int:     reflect.TypeFor[int](),
	reflect.Int8:    reflect.TypeFor[int8](),
	reflect.Int16:   reflect.TypeFor[int16](),
	reflect.Int32:   reflect.TypeFor[int32](),
	reflect.Int64:   reflect.TypeFor[int64](),
	reflect.Uint:    reflect.TypeFor[uint](),
	reflect.Uint8:   reflect.TypeFor[uint8](),
	reflect.Uint16:  reflect.TypeFor[uint16](),
	reflect.Uint32:  reflect.TypeFor[uint32](),
	reflect.Uint64:  reflect.TypeFor[uint64](),
	reflect.Float32: reflect.TypeFor[float32](),
	reflect.Float64: reflect.TypeFor[float64](),
	reflect.String:  reflect.TypeFor[string](),
}

// kindChecker matches locations whose Go type has one of the kinds.
func kindChecker(kinds ...reflect.Kind) provider.Checker {
	return provider.CheckerFunc(func(_ provider.Mediator, s provider.LocStack) bool {
		n, err := typing.Normalize(s.Last().Type)
		if err != nil {
			return false
		}

		rt, ok := n.Origin().(reflect.Type)
		if !ok {
			return false
		}

		for _, k := range kinds {
			if rt.Kind() == k {
				return true
			}
		}

		return false
	})
}

// both registers the same checker for a loader and a dumper handler.
func both(
	checker provider.Checker,
	load func(m provider.Mediator, req provider.LoaderRequest) (any, error),
	dump func(m provider.Mediator, req provider.DumperRequest) (any, error),
) provider.Provider {
	return provider.Records(
		provider.Record(checker, load),
		provider.Record(checker, dump),
	)
}

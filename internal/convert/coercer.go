package convert

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"retort/internal/codegen"
	"retort/primitive"
	"retort/provider"
	"retort/typing"
)

var (
	ErrNilPointer = errors.New("nil pointer cannot be converted to a value")
	ErrLength     = errors.New("length mismatch")
	ErrCoercion   = errors.New("cannot coerce value")
)

// Coercer converts values whose source location matches src into the type
// of the destination location matching dst with fn.
func Coercer(src, dst provider.Checker, fn provider.Coercer) provider.Provider {
	return provider.Handle(dst, func(m provider.Mediator, req provider.CoercerRequest) (any, error) {
		if !src.Check(m, req.Src) {
			return nil, provider.Silent("source %s does not match", req.Src)
		}

		return fn, nil
	})
}

// CoercerProvider answers coercer requests between non-model types: same
// types, Any destinations, annotated types, optionals, pointers, unions,
// assignable and numeric Go types, iterables and maps. Model to model
// coercion is answered by ModelCoercer.
func CoercerProvider() provider.Provider {
	return provider.Records(
		provider.Record(provider.AnyLoc, coerceSame),
		provider.Record(provider.AnyLoc, coerceToAny),
		provider.Record(provider.AnyLoc, coerceTagged),
		provider.Record(provider.AnyLoc, coerceOptional),
		provider.Record(provider.AnyLoc, coercePointer),
		provider.Record(provider.AnyLoc, coerceUnionSubcase),
		provider.Record(provider.AnyLoc, coerceAssignable),
		provider.Record(provider.AnyLoc, coerceNumber),
		provider.Record(provider.AnyLoc, coerceIterable),
		provider.Record(provider.AnyLoc, coerceDict),
	)
}

func identity(v any) (any, error) { return v, nil }

// sides are the normalized source and destination of a coercer request.
type sides struct {
	src, dst     *typing.NormType
	srcRT, dstRT reflect.Type
}

func sidesOf(req provider.CoercerRequest) (sides, error) {
	src, err := typing.Normalize(req.Src.Last().Type)
	if err != nil {
		return sides{}, provider.Cannot("cannot normalize %s: %v", typing.Repr(req.Src.Last().Type), err)
	}

	dst, err := typing.Normalize(req.Dst.Last().Type)
	if err != nil {
		return sides{}, provider.Cannot("cannot normalize %s: %v", typing.Repr(req.Dst.Last().Type), err)
	}

	return sides{src: src, dst: dst, srcRT: typing.GoType(src), dstRT: typing.GoType(dst)}, nil
}

func subCoercer(m provider.Mediator, src, dst provider.LocStack) (provider.Coercer, error) {
	return provider.Provide[provider.Coercer](m, provider.CoercerRequest{Src: src, Dst: dst})
}

func coerceSame(_ provider.Mediator, req provider.CoercerRequest) (any, error) {
	s, err := sidesOf(req)
	if err != nil {
		return nil, err
	}

	if !s.src.Equal(s.dst) {
		return nil, provider.Silent("types differ")
	}

	return provider.Coercer(identity), nil
}

func coerceToAny(_ provider.Mediator, req provider.CoercerRequest) (any, error) {
	s, err := sidesOf(req)
	if err != nil {
		return nil, err
	}

	if !s.dst.IsAny() {
		return nil, provider.Silent("destination is not Any")
	}

	return provider.Coercer(identity), nil
}

func coerceTagged(m provider.Mediator, req provider.CoercerRequest) (any, error) {
	s, err := sidesOf(req)
	if err != nil {
		return nil, err
	}

	src, dst := typing.StripTags(s.src), typing.StripTags(s.dst)
	if src.Equal(s.src) && dst.Equal(s.dst) {
		return nil, provider.Silent("no annotated side")
	}

	return subCoercer(m, req.Src.ReplaceLastType(src), req.Dst.ReplaceLastType(dst))
}

// withoutNone returns the union n without its None member, and whether n
// had one.
func withoutNone(n *typing.NormType) (*typing.NormType, bool) {
	if !n.Is(typing.UnionOrigin) {
		return n, false
	}

	var rest []typing.Expr

	for i := range n.Args() {
		if arg := n.Arg(i); !arg.IsNone() {
			rest = append(rest, arg)
		}
	}

	if len(rest) == len(n.Args()) {
		return n, false
	}

	if len(rest) == 1 {
		return rest[0].(*typing.NormType), true
	}

	inner, err := typing.Normalize(typing.Union(rest...))
	if err != nil {
		return n, false
	}

	return inner, true
}

// coerceOptional handles optional destinations. None and nil pointers
// stay nil; other values are coerced to the inner type and wrapped.
func coerceOptional(m provider.Mediator, req provider.CoercerRequest) (any, error) {
	s, err := sidesOf(req)
	if err != nil {
		return nil, err
	}

	dstInner, ok := withoutNone(s.dst)
	if !ok {
		return nil, provider.Silent("destination is not optional")
	}

	dstRT := s.dstRT

	if s.src.IsNone() {
		return provider.Coercer(func(any) (any, error) { return reflect.Zero(dstRT).Interface(), nil }), nil
	}

	srcInner, _ := withoutNone(s.src)

	inner, err := subCoercer(m, req.Src.ReplaceLastType(srcInner), req.Dst.ReplaceLastType(dstInner))
	if err != nil {
		return nil, err
	}

	unwrap := s.srcRT.Kind() == reflect.Pointer && typing.GoType(srcInner).Kind() != reflect.Pointer

	return provider.Coercer(func(v any) (any, error) {
		if isNil(v) {
			return reflect.Zero(dstRT).Interface(), nil
		}

		if unwrap {
			v = reflect.ValueOf(v).Elem().Interface()
		}

		out, err := inner(v)
		if err != nil {
			return nil, err
		}

		return fitAny(out, dstRT)
	}), nil
}

func coercePointer(m provider.Mediator, req provider.CoercerRequest) (any, error) {
	s, err := sidesOf(req)
	if err != nil {
		return nil, err
	}

	srcPtr, dstPtr := s.src.Is(typing.Pointer), s.dst.Is(typing.Pointer)
	if !srcPtr && !dstPtr {
		return nil, provider.Silent("no pointer side")
	}

	srcStack, dstStack := req.Src, req.Dst
	if srcPtr {
		srcStack = srcStack.Append(provider.GenericParamLoc(s.src.Arg(0), 0))
	}

	if dstPtr {
		dstStack = dstStack.Append(provider.GenericParamLoc(s.dst.Arg(0), 0))
	}

	elem, err := subCoercer(m, srcStack, dstStack)
	if err != nil {
		return nil, err
	}

	dstRT := s.dstRT

	return provider.Coercer(func(v any) (any, error) {
		if srcPtr {
			if isNil(v) {
				if dstPtr {
					return reflect.Zero(dstRT).Interface(), nil
				}

				return nil, ErrNilPointer
			}

			v = reflect.ValueOf(v).Elem().Interface()
		}

		out, err := elem(v)
		if err != nil {
			return nil, err
		}

		return fitAny(out, dstRT)
	}), nil
}

// coerceUnionSubcase passes values through when every source variant is a
// variant of the destination union.
func coerceUnionSubcase(_ provider.Mediator, req provider.CoercerRequest) (any, error) {
	s, err := sidesOf(req)
	if err != nil {
		return nil, err
	}

	if !s.dst.Is(typing.UnionOrigin) {
		return nil, provider.Silent("destination is not a union")
	}

	variants := []*typing.NormType{s.src}
	if s.src.Is(typing.UnionOrigin) {
		variants = variants[:0]
		for i := range s.src.Args() {
			variants = append(variants, s.src.Arg(i))
		}
	}

	for _, v := range variants {
		if !hasVariant(s.dst, v) {
			return nil, provider.Silent("%s is not a variant of %s", v, s.dst)
		}
	}

	dstRT := s.dstRT

	return provider.Coercer(func(v any) (any, error) { return fitAny(v, dstRT) }), nil
}

func hasVariant(union, n *typing.NormType) bool {
	for i := range union.Args() {
		if union.Arg(i).Equal(n) {
			return true
		}
	}

	return false
}

// coerceAssignable handles Go types where the source is assignable to the
// destination, and named basic types sharing their kind.
func coerceAssignable(_ provider.Mediator, req provider.CoercerRequest) (any, error) {
	s, err := sidesOf(req)
	if err != nil {
		return nil, err
	}

	srcRT, dstRT := s.src.ReflectType(), s.dst.ReflectType()
	if srcRT == nil || dstRT == nil {
		return nil, provider.Silent("not a Go type")
	}

	switch {
	case dstRT.Kind() == reflect.Interface && srcRT.Implements(dstRT):
		return provider.Coercer(identity), nil
	case srcRT.AssignableTo(dstRT), isBasic(srcRT.Kind()) && srcRT.Kind() == dstRT.Kind():
		return provider.Coercer(func(v any) (any, error) { return fitAny(v, dstRT) }), nil
	default:
		return nil, provider.Silent("%s is not assignable to %s", srcRT, dstRT)
	}
}

func isBasic(k reflect.Kind) bool {
	return k == reflect.Bool || k == reflect.String || reflect.Int <= k && k <= reflect.Complex128
}

// coerceNumber widens numbers without precision loss.
func coerceNumber(m provider.Mediator, req provider.CoercerRequest) (any, error) {
	s, err := sidesOf(req)
	if err != nil {
		return nil, err
	}

	if !primitive.Allowed(s.srcRT, s.dstRT, primitive.CategorySafeNumber) {
		return nil, provider.Silent("%s does not widen to %s", s.srcRT, s.dstRT)
	}

	dstRT := s.dstRT

	if err := emitSource(m, renderNumber(s.srcRT, dstRT)); err != nil {
		return nil, err
	}

	return provider.Coercer(func(v any) (any, error) {
		return primitive.Convert(v, dstRT, primitive.CategorySafeNumber)
	}), nil
}

func renderNumber(src, dst reflect.Type) codegen.Source {
	name := "coerce_" + codegen.Ident(src.String()) + "_to_" + codegen.Ident(dst.String())

	b := codegen.NewBuilder()
	b.Linef("src := data.(%s)", src)
	b.Linef("var dst %s", dst)
	b.Lines(primitive.Generate(src, dst, primitive.Names{Src: "src", Dst: "dst", Stem: "tmp", Func: name}, primitive.CategorySafeNumber)...)
	b.EmptyLine()
	b.Line("return dst, nil")

	return codegen.Render(name, "data any", "(any, error)", b, nil)
}

// elemOf returns the element type of iterable origins.
func elemOf(n *typing.NormType) (*typing.NormType, bool) {
	switch {
	case n.Is(typing.Slice), n.Is(typing.Array), n.Is(typing.Set), typing.IsVariadicTuple(n):
		return n.Arg(0), true
	default:
		return nil, false
	}
}

func coerceIterable(m provider.Mediator, req provider.CoercerRequest) (any, error) {
	s, err := sidesOf(req)
	if err != nil {
		return nil, err
	}

	srcElem, ok := elemOf(s.src)
	if !ok {
		return nil, provider.Silent("source is not iterable")
	}

	dstElem, ok := elemOf(s.dst)
	if !ok {
		return nil, provider.Silent("destination is not iterable")
	}

	elem, err := subCoercer(m,
		req.Src.Append(provider.GenericParamLoc(srcElem, 0)),
		req.Dst.Append(provider.GenericParamLoc(dstElem, 0)))
	if err != nil {
		return nil, err
	}

	dstRT := s.dstRT

	return provider.Coercer(func(v any) (any, error) {
		items, err := iterate(v)
		if err != nil {
			return nil, err
		}

		out, err := collect(dstRT, len(items))
		if err != nil {
			return nil, err
		}

		for i, item := range items {
			c, err := elem(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}

			if err := out.put(i, c); err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
		}

		return out.v.Interface(), nil
	}), nil
}

// iterate lists the items of a slice, an array or a set. Set members are
// sorted by their text to keep the output stable.
func iterate(v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}

		return items, nil
	case reflect.Map:
		keys := rv.MapKeys()
		items := make([]any, len(keys))

		for i, k := range keys {
			items[i] = k.Interface()
		}

		sort.Slice(items, func(i, j int) bool { return fmt.Sprint(items[i]) < fmt.Sprint(items[j]) })

		return items, nil
	default:
		return nil, fmt.Errorf("%w: %T is not iterable", ErrCoercion, v)
	}
}

type collection struct {
	v reflect.Value
}

func collect(rt reflect.Type, n int) (collection, error) {
	switch rt.Kind() {
	case reflect.Slice:
		return collection{v: reflect.MakeSlice(rt, n, n)}, nil
	case reflect.Array:
		if rt.Len() != n {
			return collection{}, fmt.Errorf("%w: %d items for %s", ErrLength, n, rt)
		}

		return collection{v: reflect.New(rt).Elem()}, nil
	case reflect.Map:
		return collection{v: reflect.MakeMapWithSize(rt, n)}, nil
	default:
		return collection{}, fmt.Errorf("%w: %s is not a collection", ErrCoercion, rt)
	}
}

func (c collection) put(i int, item any) error {
	if c.v.Kind() == reflect.Map {
		k, err := fit(item, c.v.Type().Key())
		if err != nil {
			return err
		}

		c.v.SetMapIndex(k, reflect.Zero(c.v.Type().Elem()))

		return nil
	}

	ev, err := fit(item, c.v.Type().Elem())
	if err != nil {
		return err
	}

	c.v.Index(i).Set(ev)

	return nil
}

func coerceDict(m provider.Mediator, req provider.CoercerRequest) (any, error) {
	s, err := sidesOf(req)
	if err != nil {
		return nil, err
	}

	if !s.src.Is(typing.Map) || !s.dst.Is(typing.Map) {
		return nil, provider.Silent("not a pair of maps")
	}

	reqs := make([]provider.Request, 2)
	for pos := range reqs {
		reqs[pos] = provider.CoercerRequest{
			Src: req.Src.Append(provider.GenericParamLoc(s.src.Arg(pos), pos)),
			Dst: req.Dst.Append(provider.GenericParamLoc(s.dst.Arg(pos), pos)),
		}
	}

	coercers, err := provider.ProvideAll[provider.Coercer](m, reqs, func() string {
		return "Cannot create coercer for map. Coercers for key or value cannot be created"
	})
	if err != nil {
		return nil, err
	}

	key, value, dstRT := coercers[0], coercers[1], s.dstRT

	return provider.Coercer(func(v any) (any, error) {
		if v == nil {
			return reflect.Zero(dstRT).Interface(), nil
		}

		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Map {
			return nil, fmt.Errorf("%w: %T is not a map", ErrCoercion, v)
		}

		out := reflect.MakeMapWithSize(dstRT, rv.Len())

		for it := rv.MapRange(); it.Next(); {
			k, err := key(it.Key().Interface())
			if err != nil {
				return nil, fmt.Errorf("key %v: %w", it.Key(), err)
			}

			val, err := value(it.Value().Interface())
			if err != nil {
				return nil, fmt.Errorf("value of %v: %w", it.Key(), err)
			}

			kv, err := fit(k, dstRT.Key())
			if err != nil {
				return nil, err
			}

			vv, err := fit(val, dstRT.Elem())
			if err != nil {
				return nil, err
			}

			out.SetMapIndex(kv, vv)
		}

		return out.Interface(), nil
	}), nil
}

// fit turns v into a value of t, taking its address or converting named
// types of the same kind when needed.
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
	case rv.Kind() == t.Kind() && rv.Type().ConvertibleTo(t):
		return rv.Convert(t), nil
	default:
		return reflect.Value{}, fmt.Errorf("%w: %T to %s", ErrCoercion, v, t)
	}
}

func fitAny(v any, t reflect.Type) (any, error) {
	if t.Kind() == reflect.Interface {
		return v, nil
	}

	fv, err := fit(v, t)
	if err != nil {
		return nil, err
	}

	return fv.Interface(), nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

package morph

import (
	"encoding/json"
	"fmt"
	"reflect"

	"retort/loaderr"
	"retort/provider"
	"retort/typing"
)

// UnionProvider handles unions and literals.
func UnionProvider() provider.Provider {
	return provider.Concat(
		both(provider.ExactOrigin(typing.UnionOrigin), loadUnion, dumpUnion),
		both(provider.ExactOrigin(typing.LiteralOrigin), loadLiteral, dumpLiteral),
	)
}

func armRequests[R provider.Request](s provider.LocStack, n *typing.NormType, mk func(provider.LocStack) R) []provider.Request {
	reqs := make([]provider.Request, len(n.Args()))
	for i := range reqs {
		reqs[i] = mk(paramStack(s, n, i))
	}

	return reqs
}

// optionalArm returns the position of the only non-None arm of an
// optional, -1 for other unions.
func optionalArm(n *typing.NormType) int {
	if len(n.Args()) != 2 {
		return -1
	}

	switch {
	case n.Arg(0).IsNone():
		return 1
	case n.Arg(1).IsNone():
		return 0
	default:
		return -1
	}
}

func loadUnion(m provider.Mediator, req provider.LoaderRequest) (any, error) {
	n, err := lastType(req.Stack)
	if err != nil {
		return nil, err
	}

	trail, err := trailAt(m, req.Stack)
	if err != nil {
		return nil, err
	}

	loaders, err := provider.ProvideAll[provider.Loader](m,
		armRequests(req.Stack, n, func(s provider.LocStack) provider.LoaderRequest { return provider.LoaderRequest{Stack: s} }),
		func() string { return "Cannot create loader for union. Loaders for some union cases cannot be created" },
	)
	if err != nil {
		return nil, err
	}

	rt := typing.GoType(n)
	u := &unionLoader{tp: n, src: req.Stack.Last().Type, rt: rt, loaders: loaders, trail: trail}

	if arm := optionalArm(n); arm >= 0 {
		u.arm = loaders[arm]

		return provider.Loader(u.loadOptional), nil
	}

	return provider.Loader(u.load), nil
}

type unionLoader struct {
	tp      *typing.NormType
	// src is the expression as requested, for messages.
	src     typing.Expr
	rt      reflect.Type
	loaders []provider.Loader
	arm     provider.Loader
	trail   provider.DebugTrail
}

func (u *unionLoader) result(v any) (any, error) {
	fv, err := fit(v, u.rt)
	if err != nil {
		return nil, err
	}

	return fv.Interface(), nil
}

func (u *unionLoader) loadOptional(data any) (any, error) {
	if data == nil {
		return reflect.Zero(u.rt).Interface(), nil
	}

	v, err := u.arm(data)
	if err == nil {
		return u.result(v)
	}

	if u.trail == provider.DebugTrailDisable || !loaderr.IsLoadError(err) {
		return nil, err
	}

	return nil, &loaderr.UnionLoadError{
		Message: loadingMessage(u.src),
		Errs:    []error{&loaderr.TypeLoadError{Expected: typing.None, Input: data}, err},
	}
}

func (u *unionLoader) load(data any) (any, error) {
	var (
		errs    []error
		foreign bool
	)

	for _, l := range u.loaders {
		v, err := l(data)
		if err == nil {
			return u.result(v)
		}

		if !loaderr.IsLoadError(err) {
			if u.trail != provider.DebugTrailAll {
				return nil, err
			}

			foreign = true
		}

		errs = append(errs, err)
	}

	switch {
	case u.trail == provider.DebugTrailDisable:
		return nil, &loaderr.TypeLoadError{Expected: u.tp, Input: data}
	case foreign:
		return nil, &loaderr.Group{Message: loadingMessage(u.src), Errs: errs}
	default:
		return nil, &loaderr.UnionLoadError{Message: loadingMessage(u.src), Errs: errs}
	}
}

func dumpUnion(m provider.Mediator, req provider.DumperRequest) (any, error) {
	n, err := lastType(req.Stack)
	if err != nil {
		return nil, err
	}

	dumpers, err := provider.ProvideAll[provider.Dumper](m,
		armRequests(req.Stack, n, func(s provider.LocStack) provider.DumperRequest { return provider.DumperRequest{Stack: s} }),
		func() string { return "Cannot create dumper for union. Dumpers for some union cases cannot be created" },
	)
	if err != nil {
		return nil, err
	}

	if arm := optionalArm(n); arm >= 0 {
		armRT := typing.GoType(n.Arg(arm))
		dump := dumpers[arm]

		return provider.Dumper(func(v any) (any, error) {
			if isNil(v) {
				return nil, nil
			}

			rv := reflect.ValueOf(v)
			if rv.Kind() == reflect.Pointer && rv.Type().Elem() == armRT {
				v = rv.Elem().Interface()
			}

			return dump(v)
		}), nil
	}

	d := &unionDumper{tp: n, dumpers: dumpers}
	for i := range n.Args() {
		d.arms = append(d.arms, n.Arg(i))
	}

	return provider.Dumper(d.dump), nil
}

type unionDumper struct {
	tp      *typing.NormType
	arms    []*typing.NormType
	dumpers []provider.Dumper
}

// pick chooses the arm for a runtime value: literal members first, then
// the exact Go type, then assignability.
func (d *unionDumper) pick(v any) int {
	if v == nil {
		for i, arm := range d.arms {
			if arm.IsNone() {
				return i
			}
		}

		return -1
	}

	rt := reflect.TypeOf(v)

	for i, arm := range d.arms {
		if arm.Is(typing.LiteralOrigin) && literalIndex(arm.Args(), v, true) >= 0 {
			return i
		}
	}

	for i, arm := range d.arms {
		if !arm.IsNone() && !arm.Is(typing.LiteralOrigin) && typing.GoType(arm) == rt {
			return i
		}
	}

	for i, arm := range d.arms {
		if !arm.IsNone() && !arm.Is(typing.LiteralOrigin) && rt.AssignableTo(typing.GoType(arm)) {
			return i
		}
	}

	return -1
}

func (d *unionDumper) dump(v any) (any, error) {
	i := d.pick(v)
	if i < 0 {
		return nil, fmt.Errorf("cannot dump %T: no case of %s matches", v, d.tp)
	}

	return d.dumpers[i](v)
}

func loadLiteral(m provider.Mediator, req provider.LoaderRequest) (any, error) {
	n, err := lastType(req.Stack)
	if err != nil {
		return nil, err
	}

	strict, err := strictAt(m, req.Stack)
	if err != nil {
		return nil, err
	}

	allowed := n.Args()

	return provider.Loader(func(data any) (any, error) {
		if i := literalIndex(allowed, data, strict); i >= 0 {
			return allowed[i], nil
		}

		return nil, &loaderr.BadVariantLoadError{AllowedValues: allowed, Input: data}
	}), nil
}

// literalIndex finds data among the literal values. Strict matching
// compares type and value; otherwise numbers of any kind match by value.
func literalIndex(allowed []any, data any, strict bool) int {
	if data == nil {
		return -1
	}

	data = fromNumber(data)

	for i, a := range allowed {
		if sameLiteral(a, data) {
			return i
		}
	}

	if strict {
		return -1
	}

	f, ok := asFloat(data)
	if !ok {
		return -1
	}

	for i, a := range allowed {
		if af, ok := asFloat(a); ok && af == f {
			return i
		}
	}

	return -1
}

// fromNumber turns a json.Number into an int or a float64.
func fromNumber(data any) any {
	num, ok := data.(json.Number)
	if !ok {
		return data
	}

	if i, err := num.Int64(); err == nil {
		return int(i)
	}

	if f, err := num.Float64(); err == nil {
		return f
	}

	return data
}

func sameLiteral(a, b any) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)

	return ta == tb && ta.Comparable() && a == b
}

func asFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)

	switch k := rv.Kind(); {
	case isInt(k):
		return float64(rv.Int()), true
	case isUint(k):
		return float64(rv.Uint()), true
	case isFloat(k):
		return rv.Float(), true
	default:
		return 0, false
	}
}

func dumpLiteral(provider.Mediator, provider.DumperRequest) (any, error) {
	return provider.Dumper(func(v any) (any, error) { return plain(v), nil }), nil
}

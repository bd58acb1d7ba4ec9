package introspect

import (
	"slices"

	"retort/shape"
	"retort/typing"
)

// Resolve returns the shape of tp with the field types of generic records
// specialized to the arguments of tp. Inherited fields are specialized
// through the parameterized bases; Self stands for tp itself.
func Resolve(tp typing.Expr, get Getter) (shape.Shape, error) {
	if _, ok := tp.(*shape.FuncModel); ok {
		return get(tp)
	}

	n, err := typing.Normalize(tp)
	if err != nil {
		return shape.Shape{}, err
	}

	n = typing.StripTags(n)

	model, ok := n.Origin().(*typing.Model)
	if !ok {
		return get(tp)
	}

	sh, err := get(model)
	if err != nil {
		return shape.Shape{}, err
	}

	r := resolver{self: n, types: map[string]typing.Expr{}}
	if err := r.walk(model, n); err != nil {
		return shape.Shape{}, clarified(tp, "%v", err)
	}

	if sh.Input != nil {
		sh.Input = sh.Input.WithFieldTypes(r.types)
	}

	if sh.Output != nil {
		sh.Output = sh.Output.WithFieldTypes(r.types)
	}

	return sh, nil
}

type resolver struct {
	self  *typing.NormType
	types map[string]typing.Expr
}

// walk records the specialized field types of model parameterized as n.
// Every class of the linearization is parameterized by the first class
// before it listing it as a base; fields are then applied from the root to
// the leaf, so a class overrides the fields of the classes after it.
func (r *resolver) walk(model *typing.Model, n *typing.NormType) error {
	mro, err := typing.MRO(model)
	if err != nil {
		return err
	}

	params := map[*typing.Model]*typing.NormType{model: n}

	for _, c := range mro {
		m, ok := c.(*typing.Model)
		if !ok {
			continue
		}

		subst := r.substitution(m, params[m])

		for _, b := range m.Bases {
			bn, err := specialize(b, m.Module, subst)
			if err != nil {
				return err
			}

			if bm, ok := bn.Origin().(*typing.Model); ok {
				if _, seen := params[bm]; !seen {
					params[bm] = bn
				}
			}
		}
	}

	for _, c := range slices.Backward(mro) {
		m, ok := c.(*typing.Model)
		if !ok {
			continue
		}

		subst := r.substitution(m, params[m])

		for _, f := range m.Fields {
			ft, err := specialize(f.Type, m.Module, subst)
			if err != nil {
				return err
			}

			r.types[f.Name] = ft
		}
	}

	return nil
}

// substitution maps the type parameters of m to the arguments of n. A nil
// n leaves the parameters unbound.
func (r *resolver) substitution(m *typing.Model, n *typing.NormType) typing.Substitution {
	subst := typing.Substitution{typing.Self: r.self}
	if n == nil {
		return subst
	}

	for i, p := range m.TypeParams {
		if i >= len(n.Args()) {
			break
		}

		arg := n.Args()[i]

		switch p := p.(type) {
		case *typing.TypeVar, *typing.ParamSpec:
			subst[p] = arg
		case *typing.TypeVarTuple:
			subst[p] = unpacked(arg)
		case typing.UnpackExpr:
			if tvt, ok := p.Type.(*typing.TypeVarTuple); ok {
				subst[tvt] = unpacked(arg)
			}
		}
	}

	return subst
}

func specialize(tp typing.Expr, module *typing.Module, subst typing.Substitution) (*typing.NormType, error) {
	n, err := typing.NormalizeIn(tp, module)
	if err != nil {
		return nil, err
	}

	return typing.Substitute(n, subst)
}

// unpacked returns the tuple behind a variadic type argument.
func unpacked(arg any) any {
	if n, ok := arg.(*typing.NormType); ok && n.Is(typing.UnpackOrigin) {
		return n.Arg(0)
	}

	return arg
}

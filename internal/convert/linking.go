package convert

import (
	"reflect"
	"strings"

	"retort/internal/match"
	"retort/provider"
	"retort/shape"
	"retort/typing"
)

// DefaultLinking links a destination field to the converter parameter or
// the source field with the same id. Parameters are tried first and only
// for fields of the outermost destination model.
func DefaultLinking() provider.Provider {
	return provider.Handle(provider.AnyLoc, linkByID)
}

func linkByID(_ provider.Mediator, req provider.LinkingRequest) (any, error) {
	last := req.Destination.Last()
	if last.Field == nil {
		return nil, provider.Silent("%s is not a field", last)
	}

	id := last.Field.ID
	outermost := req.Destination.Len() == 2

	if outermost {
		if _, ok := req.Sources.Param(id); ok {
			return provider.LinkingResult{Linking: provider.ParamLinking{Name: id}}, nil
		}
	}

	if _, ok := req.Sources.SourceField(id); ok {
		return provider.LinkingResult{Linking: provider.FieldLinking{SourceID: id}}, nil
	}

	cp := provider.Cannot("No source field or parameter is named `%s`", id)
	if names := suggestions(req.Sources, last, outermost); len(names) > 0 {
		cp.Notes = append(cp.Notes, "Did you mean "+strings.Join(names, " or ")+"?")
	}

	return nil, cp
}

// suggestions lists the quoted names of the sources that look like the
// destination field, best first.
func suggestions(sources provider.LinkingSources, dst provider.Loc, withParams bool) []string {
	candidates := make([]match.Field, 0, len(sources.Fields)+len(sources.Params))

	for _, f := range sources.Fields {
		candidates = append(candidates, match.Field{Name: f.ID, Type: goTypeOf(f.Type)})
	}

	if withParams {
		for _, p := range sources.Params {
			candidates = append(candidates, match.Field{Name: p.Name, Type: goTypeOf(p.Type)})
		}
	}

	target := match.Field{Name: dst.Field.ID, Type: goTypeOf(dst.Type)}
	names := match.Suggest(target, candidates, match.DefaultSuggestScore)

	for i, name := range names {
		names[i] = "`" + name + "`"
	}

	return names
}

func goTypeOf(tp typing.Expr) reflect.Type {
	n, err := typing.Normalize(tp)
	if err != nil {
		return nil
	}

	return typing.GoType(n)
}

// Link links destination fields matching dst to the first source field
// matching src, then to the first converter parameter matching it, then to
// the source model itself. A nil coercer leaves the choice of the coercer
// to the recipe.
func Link(src, dst provider.Checker, coercer provider.Coercer) provider.Provider {
	return provider.Handle(dst, func(m provider.Mediator, req provider.LinkingRequest) (any, error) {
		for _, f := range req.Sources.Fields {
			if src.Check(m, req.Sources.FieldStack(f)) {
				return provider.LinkingResult{Linking: provider.FieldLinking{SourceID: f.ID}, Coercer: coercer}, nil
			}
		}

		for _, p := range req.Sources.Params {
			if src.Check(m, req.Sources.ParamStack(p)) {
				return provider.LinkingResult{Linking: provider.ParamLinking{Name: p.Name}, Coercer: coercer}, nil
			}
		}

		if src.Check(m, req.Sources.Model) {
			return provider.LinkingResult{Linking: provider.ModelLinking{}, Coercer: coercer}, nil
		}

		return nil, provider.Cannot("No source matches the explicit linking of %s", req.Destination)
	})
}

// LinkConstant sets destination fields matching dst to value.
func LinkConstant(dst provider.Checker, value any) provider.Provider {
	return provider.Value[provider.LinkingRequest](dst, provider.LinkingResult{
		Linking: provider.ConstantLinking{Value: value},
	})
}

// LinkFactory sets destination fields matching dst to a fresh result of
// factory on every conversion.
func LinkFactory(dst provider.Checker, factory func() any) provider.Provider {
	return provider.Value[provider.LinkingRequest](dst, provider.LinkingResult{
		Linking: provider.ConstantLinking{Factory: factory},
	})
}

// LinkFunction fills destination fields matching dst with the result of
// fn. The first parameter of fn receives the source model; the others are
// linked by name to source fields, then to converter parameters.
func LinkFunction(fn *shape.FuncModel, dst provider.Checker) provider.Provider {
	return provider.Value[provider.LinkingRequest](dst, provider.LinkingResult{
		Linking: provider.FunctionLinking{Func: fn},
	})
}

// AllowUnlinkedOptional lets optional destination fields matching checker
// stay unlinked; they take their defaults.
func AllowUnlinkedOptional(checker provider.Checker) provider.Provider {
	return provider.Value[provider.UnlinkedOptionalPolicyRequest](checker, true)
}

// ForbidUnlinkedOptional is the default policy: every destination field
// must be linked.
func ForbidUnlinkedOptional() provider.Provider {
	return provider.Value[provider.UnlinkedOptionalPolicyRequest](provider.AnyLoc, false)
}

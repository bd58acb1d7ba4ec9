package mapping

import (
	"errors"
	"fmt"

	"retort/internal/convert"
	"retort/internal/layout"
	"retort/naming"
	"retort/provider"
)

// ErrInvalidRecipe is returned when a recipe file fails validation.
var ErrInvalidRecipe = errors.New("invalid recipe file")

// Providers validates rf and turns it into providers. Type recipes become
// name mappings, conversions become linkings of the converter between
// their models.
func Providers(rf *RecipeFile, reg *Registry) ([]provider.Provider, error) {
	diag := Validate(rf, reg)
	if diag.HasErrors() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecipe, diag.Error())
	}

	var out []provider.Provider

	for i := range rf.Types {
		p, err := typeProvider(reg, &rf.Types[i])
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", rf.Types[i].Type, err)
		}

		out = append(out, p)
	}

	for i := range rf.Conversions {
		c := rf.Conversions[i]
		NormalizeConversion(&c)

		ps, err := conversionProviders(reg, &c)
		if err != nil {
			return nil, fmt.Errorf("conversion %s->%s: %w", c.Source, c.Target, err)
		}

		out = append(out, ps...)
	}

	return out, nil
}

func typeProvider(reg *Registry, tr *TypeRecipe) (provider.Provider, error) {
	tp, _ := reg.ResolveType(tr.Type)

	var opts []layout.Option

	if tr.NameStyle != "" {
		style, err := naming.ParseStyle(tr.NameStyle)
		if err != nil {
			return nil, err
		}

		opts = append(opts, layout.NameStyle(style))
	}

	if len(tr.Map) > 0 {
		m := make(layout.Map, len(tr.Map))
		for id, kp := range tr.Map {
			m[id] = kp.Result()
		}

		opts = append(opts, m)
	}

	if len(tr.Skip) > 0 {
		opts = append(opts, layout.Skip(tr.Skip.Any()...))
	}

	if len(tr.Only) > 0 {
		opts = append(opts, layout.Only(tr.Only.Any()...))
	}

	if len(tr.OmitDefault) > 0 {
		opts = append(opts, layout.OmitDefault(tr.OmitDefault.Any()...))
	}

	if tr.AsList != nil {
		opts = append(opts, layout.AsList(*tr.AsList))
	}

	if tr.TrimTrailingUnderscore != nil {
		opts = append(opts, layout.TrimTrailingUnderscore(*tr.TrimTrailingUnderscore))
	}

	if len(tr.ExtraIn) > 0 {
		opts = append(opts, layout.ExtraIn(extraValue(tr.ExtraIn)))
	}

	if len(tr.ExtraOut) > 0 {
		opts = append(opts, layout.ExtraOut(extraValue(tr.ExtraOut)))
	}

	return layout.NameMapping(tp, opts...)
}

func extraValue(v StringOrArray) any {
	if v.IsSingle() {
		switch v[0] {
		case "skip":
			return layout.ExtraSkip
		case "forbid":
			return layout.ExtraForbid
		case "kwargs":
			return layout.ExtraKwargs{}
		default:
			return v[0]
		}
	}

	return []string(v)
}

func conversionProviders(reg *Registry, c *ConversionRecipe) ([]provider.Provider, error) {
	srcTp, _ := reg.ResolveType(c.Source)
	dstTp, _ := reg.ResolveType(c.Target)

	srcModel, err := provider.ToChecker(srcTp)
	if err != nil {
		return nil, err
	}

	dstModel, err := provider.ToChecker(dstTp)
	if err != nil {
		return nil, err
	}

	target := func(id string) provider.Checker {
		return provider.StackEnd(dstModel, provider.ExactField(id))
	}

	out := make([]provider.Provider, 0, len(c.Fields)+len(c.Ignore))

	for _, fl := range c.Fields {
		switch {
		case fl.Source != "":
			var coercer provider.Coercer
			if fl.Transform != "" {
				coercer, _ = reg.ResolveTransform(fl.Transform)
			}

			src := provider.StackEnd(srcModel, provider.ExactField(fl.Source))
			out = append(out, convert.Link(src, target(fl.Target), coercer))
		case fl.Func != "":
			fm, _ := reg.ResolveFunc(fl.Func)
			out = append(out, convert.LinkFunction(fm, target(fl.Target)))
		default:
			out = append(out, convert.LinkConstant(target(fl.Target), fl.Default))
		}
	}

	for _, id := range c.Ignore {
		out = append(out, convert.AllowUnlinkedOptional(target(id)))
	}

	return out, nil
}

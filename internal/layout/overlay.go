package layout

import (
	"retort/naming"
	"retort/provider"
)

// Opt is an overlay value that may be left unset.
type Opt[T any] struct {
	Value T
	Set   bool
}

// Some returns a set Opt.
func Some[T any](v T) Opt[T] { return Opt[T]{Value: v, Set: true} }

// Or returns o when set, else other.
func (o Opt[T]) Or(other Opt[T]) Opt[T] {
	if o.Set {
		return o
	}

	return other
}

// Structure configures how fields are mapped to data paths.
type Structure struct {
	Skip Opt[provider.Checker]
	Only Opt[provider.Checker]
	// Map is tried before the mappers of the following overlays.
	Map                    []provider.Provider
	TrimTrailingUnderscore Opt[bool]
	// Style nil keeps ids as they are.
	Style  Opt[*naming.Style]
	AsList Opt[bool]
}

func (s Structure) merge(next Structure) Structure {
	return Structure{
		Skip:                   s.Skip.Or(next.Skip),
		Only:                   s.Only.Or(next.Only),
		Map:                    append(append([]provider.Provider(nil), s.Map...), next.Map...),
		TrimTrailingUnderscore: s.TrimTrailingUnderscore.Or(next.TrimTrailingUnderscore),
		Style:                  s.Style.Or(next.Style),
		AsList:                 s.AsList.Or(next.AsList),
	}
}

// Sieves configures which output fields are omitted.
type Sieves struct {
	OmitDefault Opt[provider.Checker]
}

func (s Sieves) merge(next Sieves) Sieves {
	return Sieves{OmitDefault: s.OmitDefault.Or(next.OmitDefault)}
}

// Extra configures unknown data keys. In is ExtraSkip, ExtraForbid,
// ExtraKwargs{}, a field id, a []string of field ids or a Saturator. Out is
// ExtraSkip, a field id, a []string of field ids or an Extractor.
type Extra struct {
	In  Opt[any]
	Out Opt[any]
}

func (e Extra) merge(next Extra) Extra {
	return Extra{In: e.In.Or(next.In), Out: e.Out.Or(next.Out)}
}

func overlay[R provider.Request, V any](checker provider.Checker, self V, merge func(self, next V) V) provider.HandlerRecord {
	return provider.Record(checker, func(m provider.Mediator, _ R) (any, error) {
		next, err := provider.ProvideFromNext[V](m)
		if err != nil {
			return nil, err
		}

		return merge(self, next), nil
	})
}

// Overlays answers the overlay requests of models matching checker.
func Overlays(checker provider.Checker, structure Structure, sieves Sieves, extra Extra) provider.Provider {
	return provider.Records(
		overlay[provider.StructureOverlayRequest](checker, structure, Structure.merge),
		overlay[provider.SievesOverlayRequest](checker, sieves, Sieves.merge),
		overlay[provider.ExtraOverlayRequest](checker, extra, Extra.merge),
	)
}

// Defaults ends the overlay chains. It belongs at the end of a recipe.
func Defaults() provider.Provider {
	style := naming.LowerSnake

	structure := Structure{
		Skip:                   Some(provider.Not(provider.AnyLoc)),
		Only:                   Some(provider.AnyLoc),
		Map:                    []provider.Provider{SkipPrivate()},
		TrimTrailingUnderscore: Some(true),
		Style:                  Some(&style),
		AsList:                 Some(false),
	}
	sieves := Sieves{OmitDefault: Some(provider.Not(provider.AnyLoc))}
	extra := Extra{In: Some[any](ExtraSkip), Out: Some[any](ExtraSkip)}

	return provider.Records(
		provider.Record(provider.AnyLoc, func(provider.Mediator, provider.StructureOverlayRequest) (any, error) {
			return structure, nil
		}),
		provider.Record(provider.AnyLoc, func(provider.Mediator, provider.SievesOverlayRequest) (any, error) {
			return sieves, nil
		}),
		provider.Record(provider.AnyLoc, func(provider.Mediator, provider.ExtraOverlayRequest) (any, error) {
			return extra, nil
		}),
	)
}

func structureAt(m provider.Mediator, s provider.LocStack) (Structure, error) {
	return provider.Provide[Structure](m, provider.StructureOverlayRequest{Stack: s})
}

func sievesAt(m provider.Mediator, s provider.LocStack) (Sieves, error) {
	return provider.Provide[Sieves](m, provider.SievesOverlayRequest{Stack: s})
}

func extraAt(m provider.Mediator, s provider.LocStack) (Extra, error) {
	return provider.Provide[Extra](m, provider.ExtraOverlayRequest{Stack: s})
}

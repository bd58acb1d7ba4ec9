// Package convert builds converters between models.
//
// A converter reads the output shape of the source model and fills the
// input shape of the destination model. Every destination field is linked
// to a source field, a converter parameter, a constant, the source model
// itself or the result of a function, then the linked value passes through
// a coercer turning it into the destination field type.
//
// Linkings and coercers are requests routed through the recipe like
// loaders and dumpers, so user providers placed in front of Recipe override
// the defaults:
//
//	Link(provider.ExactField("B"), provider.ExactField("BDst"), nil)
//	Coercer(provider.MustChecker(typing.Of[string]()), provider.MustChecker(typing.Of[int]()), atoi)
//
// Model to model coercion is a coercer too, so nested and recursive models
// convert field by field.
package convert

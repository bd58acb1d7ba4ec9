package retort

import (
	"fmt"
	"time"

	"retort/internal/convert"
	"retort/internal/introspect"
	"retort/internal/layout"
	"retort/internal/mapping"
	"retort/internal/morph"
	"retort/naming"
	"retort/provider"
	"retort/shape"
	"retort/typing"
)

// Chain tells how a user loader or dumper combines with the one the rest
// of the recipe builds.
type Chain = morph.Chain

const (
	ChainNone  = morph.ChainNone
	ChainFirst = morph.ChainFirst
	ChainLast  = morph.ChainLast
)

// Predicates select the locations a recipe entry applies to. A predicate
// is a field id, a regular expression over field ids (a string that is not
// an identifier or a *regexp.Regexp), a type expression or a
// provider.Checker. Recipe constructors panic on malformed predicates.
func checker(pred any) provider.Checker {
	return provider.MustChecker(pred)
}

func must(p Provider, err error) Provider {
	if err != nil {
		panic(fmt.Sprintf("retort: %v", err))
	}

	return p
}

// Loader loads locations matching pred with fn. With a chain, fn runs
// before (ChainFirst) or after (ChainLast) the loader the rest of the
// recipe builds.
func Loader(pred any, fn LoaderFunc, chain ...Chain) Provider {
	return morph.UserLoader(checker(pred), fn, firstChain(chain))
}

// Dumper dumps locations matching pred with fn.
func Dumper(pred any, fn DumperFunc, chain ...Chain) Provider {
	return morph.UserDumper(checker(pred), fn, firstChain(chain))
}

// AsIsLoader passes data at locations matching pred through unchanged.
func AsIsLoader(pred any) Provider {
	return Loader(pred, func(data any) (any, error) { return data, nil })
}

// AsIsDumper passes values at locations matching pred through unchanged.
func AsIsDumper(pred any) Provider {
	return Dumper(pred, func(v any) (any, error) { return v, nil })
}

func firstChain(chain []Chain) Chain {
	if len(chain) == 0 {
		return ChainNone
	}

	return chain[0]
}

// Validator rejects values loaded at locations matching pred when fn
// returns false. The error is a ValidationLoadError carrying msg.
func Validator(pred any, fn func(any) bool, msg string) Provider {
	return morph.Validator(checker(pred), fn, msg)
}

// Bound restricts every handler of p to locations matching pred.
func Bound(pred any, p Provider) Provider {
	return provider.Bound(checker(pred), p)
}

// NameMappingOption configures NameMapping.
type NameMappingOption = layout.Option

// Map sets data keys or paths of fields. A value is a key, a []any path of
// keys and list indexes, Generated for the generated key or nil to skip
// the field.
type Map = layout.Map

// Generated stands for the key the name style generates.
var Generated = layout.Generated

// Extra policies of NameMapping.
const (
	ExtraSkip   = layout.ExtraSkip
	ExtraForbid = layout.ExtraForbid
)

// ExtraKwargs passes unknown keys to the variadic keyword parameter of the
// constructor.
type ExtraKwargs = layout.ExtraKwargs

// NameMapping configures the data layout of models matching pred. A nil
// pred matches every model.
func NameMapping(pred any, opts ...NameMappingOption) Provider {
	return must(layout.NameMapping(pred, opts...))
}

// MapWhen maps fields matching pred to result.
func MapWhen(pred, result any) NameMappingOption { return layout.MapWhen(pred, result) }

// MapWith maps fields matching pred with fn.
func MapWith(pred any, fn layout.MapFunc) NameMappingOption { return layout.MapWith(pred, fn) }

// Skip drops fields matching any of preds from the layout.
func Skip(preds ...any) NameMappingOption { return layout.Skip(preds...) }

// Only keeps fields matching any of preds in the layout.
func Only(preds ...any) NameMappingOption { return layout.Only(preds...) }

// NameStyle converts generated keys to style.
func NameStyle(style naming.Style) NameMappingOption { return layout.NameStyle(style) }

// AsList lays models out as lists ordered like their fields.
func AsList(v bool) NameMappingOption { return layout.AsList(v) }

// TrimTrailingUnderscore drops one trailing underscore of generated keys.
func TrimTrailingUnderscore(v bool) NameMappingOption { return layout.TrimTrailingUnderscore(v) }

// OmitDefault leaves fields matching preds out of dumps when they hold
// their default.
func OmitDefault(preds ...any) NameMappingOption { return layout.OmitDefault(preds...) }

// ExtraIn sets the handling of unknown input keys: ExtraSkip, ExtraForbid,
// ExtraKwargs, a field id, a []string of field ids or a saturator func.
func ExtraIn(v any) NameMappingOption { return layout.ExtraIn(v) }

// ExtraOut sets the source of extra output data: ExtraSkip, a field id, a
// []string of field ids or an extractor func.
func ExtraOut(v any) NameMappingOption { return layout.ExtraOut(v) }

// EnumByValue loads and dumps the members of T by their own values.
func EnumByValue[T comparable](values ...T) Provider {
	return morph.EnumByValue(values...)
}

// EnumByName loads and dumps the members of T by their String names.
func EnumByName[T morph.Member](values ...T) Provider {
	return morph.EnumByName(values...)
}

// EnumByStyledName is EnumByName with names converted to style.
func EnumByStyledName[T morph.Member](style naming.Style, values ...T) Provider {
	return must(morph.EnumByNameStyled(&style, values...))
}

// FlagOptions tunes FlagByListUsingName.
type FlagOptions = morph.FlagOptions

// FlagByListUsingName loads and dumps bit flags of T as lists of member
// names.
func FlagByListUsingName[T morph.Flag](opts FlagOptions, values ...T) Provider {
	return must(morph.FlagByListUsingName(opts, values...))
}

// DatetimeByFormat loads and dumps time.Time at locations matching pred as
// strings in a time.Parse layout. A nil pred matches every time.Time.
func DatetimeByFormat(pred any, layout string) Provider {
	return morph.DatetimeByFormat(pred, layout)
}

// DatetimeByTimestamp loads and dumps time.Time at locations matching pred
// as Unix timestamps in seconds, loading into loc (UTC when nil).
func DatetimeByTimestamp(pred any, loc *time.Location) Provider {
	return morph.DatetimeByTimestamp(pred, loc)
}

// DateByTimestamp is DatetimeByTimestamp for dates: loaded values are
// truncated to UTC midnight.
func DateByTimestamp(pred any) Provider {
	return morph.DateByTimestamp(pred)
}

// WithProperty adds a field id to the dumps of models matching pred, read
// from the method of that name. The optional tp overrides the type of the
// field, which defaults to the first result of the method.
func WithProperty(pred any, id, method string, tp ...typing.Expr) Provider {
	var fieldType typing.Expr
	if len(tp) > 0 {
		fieldType = tp[0]
	}

	return introspect.WithProperty(checker(pred), id, method, fieldType)
}

// Coercer converts converter values from locations matching src to
// locations matching dst with fn.
func Coercer(src, dst any, fn CoercerFunc) Provider {
	return convert.Coercer(checker(src), checker(dst), fn)
}

// Link links destination fields matching dst to the source field or
// converter parameter matching src. An optional coercer replaces the one
// the recipe would pick.
func Link(src, dst any, coercer ...CoercerFunc) Provider {
	var c CoercerFunc
	if len(coercer) > 0 {
		c = coercer[0]
	}

	return convert.Link(checker(src), checker(dst), c)
}

// LinkConstant sets destination fields matching dst to value.
func LinkConstant(dst, value any) Provider {
	return convert.LinkConstant(checker(dst), value)
}

// LinkFactory sets destination fields matching dst to a fresh result of
// factory.
func LinkFactory(dst any, factory func() any) Provider {
	return convert.LinkFactory(checker(dst), factory)
}

// LinkFunction fills destination fields matching dst with the result of
// fn. Its first parameter receives the source model; the others, named by
// names, take the source field or the converter parameter of that name.
func LinkFunction(fn any, dst any, names ...string) Provider {
	return convert.LinkFunction(shape.Func(fn, names...), checker(dst))
}

// AllowUnlinkedOptional lets optional destination fields matching preds
// stay unlinked. Without preds it applies to every field.
func AllowUnlinkedOptional(preds ...any) Provider {
	if len(preds) == 0 {
		return convert.AllowUnlinkedOptional(provider.AnyLoc)
	}

	cs := make([]provider.Checker, len(preds))
	for i, p := range preds {
		cs[i] = checker(p)
	}

	return convert.AllowUnlinkedOptional(provider.Or(cs...))
}

// Constructor builds models matching pred with fn instead of their own
// constructor. The parameters of fn, named by names, become the input
// fields.
func Constructor(pred any, fn any, names ...string) Provider {
	fm := shape.Func(fn, names...)
	if err := fm.Validate(); err != nil {
		panic(fmt.Sprintf("retort: %v", err))
	}

	return provider.Handle(checker(pred), func(m provider.Mediator, _ provider.InputShapeRequest) (any, error) {
		return provider.Provide[*shape.InputShape](m, provider.InputShapeRequest{
			Stack: provider.NewLocStack(provider.TypeLoc(fm)),
		})
	})
}

// Register introspects T through its scanned field metadata from now on.
func Register[T any]() {
	introspect.Register[T]()
}

// RecipeRegistry resolves the type, transform and function names used in
// recipe files.
type RecipeRegistry = mapping.Registry

// NewRecipeRegistry creates an empty registry.
func NewRecipeRegistry() *RecipeRegistry { return mapping.NewRegistry() }

// RecipeFromYAML turns a YAML recipe file into providers. Names in the
// file are resolved by reg.
func RecipeFromYAML(data []byte, reg *RecipeRegistry) ([]Provider, error) {
	rf, err := mapping.Parse(data)
	if err != nil {
		return nil, err
	}

	return mapping.Providers(rf, reg)
}

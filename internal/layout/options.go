package layout

import (
	"errors"

	"retort/naming"
	"retort/provider"
)

type config struct {
	structure Structure
	sieves    Sieves
	extra     Extra
	errs      []error
}

// Option configures NameMapping.
type Option interface {
	apply(c *config)
}

type optionFunc func(c *config)

func (f optionFunc) apply(c *config) { f(c) }

func checkers(c *config, preds []any) provider.Checker {
	if len(preds) == 0 {
		return provider.AnyLoc
	}

	cs := make([]provider.Checker, 0, len(preds))

	for _, p := range preds {
		ch, err := provider.ToChecker(p)
		if err != nil {
			c.errs = append(c.errs, err)

			continue
		}

		cs = append(cs, ch)
	}

	return provider.Or(cs...)
}

// Map renames fields by id. Values are a data key, a path ([]any or
// []string, where Generated stands for the generated key), Generated, or
// nil to skip the field.
type Map map[string]any

func (m Map) apply(c *config) {
	c.structure.Map = append(c.structure.Map, DictMapper(m))
}

// MapWhen maps every field matching pred to result.
func MapWhen(pred, result any) Option {
	return optionFunc(func(c *config) {
		c.structure.Map = append(c.structure.Map, ConstMapper(checkers(c, []any{pred}), result))
	})
}

// MapWith maps every field matching pred through fn.
func MapWith(pred any, fn MapFunc) Option {
	return optionFunc(func(c *config) {
		c.structure.Map = append(c.structure.Map, FuncMapper(checkers(c, []any{pred}), fn))
	})
}

// Skip excludes fields matching any of preds. Skipping a required input
// field fails the loader.
func Skip(preds ...any) Option {
	return optionFunc(func(c *config) {
		c.structure.Skip = Some(checkers(c, preds))
	})
}

// Only keeps only fields matching any of preds.
func Only(preds ...any) Option {
	return optionFunc(func(c *config) {
		c.structure.Only = Some(checkers(c, preds))
	})
}

// NameStyle converts generated keys to style.
func NameStyle(style naming.Style) Option {
	return optionFunc(func(c *config) {
		c.structure.Style = Some(&style)
	})
}

// KeepNames uses field ids as generated keys.
func KeepNames() Option {
	return optionFunc(func(c *config) {
		c.structure.Style = Some[*naming.Style](nil)
	})
}

// AsList maps fields to list positions in field order.
func AsList(v bool) Option {
	return optionFunc(func(c *config) {
		c.structure.AsList = Some(v)
	})
}

// TrimTrailingUnderscore drops one run of trailing underscores from field
// ids, leaving dunder names alone.
func TrimTrailingUnderscore(v bool) Option {
	return optionFunc(func(c *config) {
		c.structure.TrimTrailingUnderscore = Some(v)
	})
}

// OmitDefault drops output fields matching any of preds whose value equals
// the default.
func OmitDefault(preds ...any) Option {
	return optionFunc(func(c *config) {
		c.sieves.OmitDefault = Some(checkers(c, preds))
	})
}

// ExtraIn sets the handling of unknown input keys.
func ExtraIn(v any) Option {
	return optionFunc(func(c *config) {
		c.extra.In = Some(v)
	})
}

// ExtraOut sets the source of extra output data.
func ExtraOut(v any) Option {
	return optionFunc(func(c *config) {
		c.extra.Out = Some(v)
	})
}

// NameMapping configures the layout of models matching pred. A nil pred
// matches every model.
func NameMapping(pred any, opts ...Option) (provider.Provider, error) {
	checker := provider.AnyLoc

	if pred != nil {
		ch, err := provider.ToChecker(pred)
		if err != nil {
			return nil, err
		}

		checker = ch
	}

	var c config
	for _, opt := range opts {
		opt.apply(&c)
	}

	if len(c.errs) > 0 {
		return nil, errors.Join(c.errs...)
	}

	return Overlays(checker, c.structure, c.sieves, c.extra), nil
}

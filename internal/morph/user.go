package morph

import (
	"retort/loaderr"
	"retort/provider"
)

// Chain tells how a user function combines with the loader or dumper the
// rest of the recipe would build.
type Chain int

const (
	// ChainNone replaces the next loader or dumper.
	ChainNone Chain = iota
	// ChainFirst runs the user function before the next one.
	ChainFirst
	// ChainLast runs the user function after the next one.
	ChainLast
)

func chained(m provider.Mediator, fn func(any) (any, error), chain Chain) (func(any) (any, error), error) {
	if chain == ChainNone {
		return fn, nil
	}

	next, err := provider.ProvideFromNext[any](m)
	if err != nil {
		return nil, err
	}

	var step func(any) (any, error)

	switch n := next.(type) {
	case provider.Loader:
		step = n
	case provider.Dumper:
		step = n
	default:
		return nil, provider.Cannot("next provider returned %T", next)
	}

	if chain == ChainFirst {
		return func(v any) (any, error) {
			mid, err := fn(v)
			if err != nil {
				return nil, err
			}

			return step(mid)
		}, nil
	}

	return func(v any) (any, error) {
		mid, err := step(v)
		if err != nil {
			return nil, err
		}

		return fn(mid)
	}, nil
}

// UserLoader loads locations matching checker with fn.
func UserLoader(checker provider.Checker, fn provider.Loader, chain Chain) provider.Provider {
	return provider.Handle(checker, func(m provider.Mediator, _ provider.LoaderRequest) (any, error) {
		l, err := chained(m, fn, chain)
		if err != nil {
			return nil, err
		}

		return provider.Loader(l), nil
	})
}

// UserDumper dumps locations matching checker with fn.
func UserDumper(checker provider.Checker, fn provider.Dumper, chain Chain) provider.Provider {
	return provider.Handle(checker, func(m provider.Mediator, _ provider.DumperRequest) (any, error) {
		d, err := chained(m, fn, chain)
		if err != nil {
			return nil, err
		}

		return provider.Dumper(d), nil
	})
}

// Validator checks values loaded at locations matching checker. A value
// rejected by fn fails with a ValidationLoadError carrying msg.
func Validator(checker provider.Checker, fn func(any) bool, msg string) provider.Provider {
	return UserLoader(checker, func(v any) (any, error) {
		if fn(v) {
			return v, nil
		}

		return nil, &loaderr.ValidationLoadError{Msg: msg, Input: v}
	}, ChainLast)
}

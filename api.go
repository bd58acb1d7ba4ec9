package retort

import (
	"context"
	"fmt"
	"reflect"

	"retort/provider"
	"retort/typing"
)

// LoaderFor returns the loader of the type expression tp.
func (r *Retort) LoaderFor(tp typing.Expr) (LoaderFunc, error) {
	v, err := r.engine.Produce(context.Background(), provider.LoaderRequest{Stack: provider.NewLocStack(provider.TypeLoc(tp))})
	if err != nil {
		return nil, err
	}

	return v.(provider.Loader), nil
}

// DumperFor returns the dumper of the type expression tp.
func (r *Retort) DumperFor(tp typing.Expr) (DumperFunc, error) {
	v, err := r.engine.Produce(context.Background(), provider.DumperRequest{Stack: provider.NewLocStack(provider.TypeLoc(tp))})
	if err != nil {
		return nil, err
	}

	return v.(provider.Dumper), nil
}

// GetLoader returns a typed loader of T.
func GetLoader[T any](r *Retort) (func(data any) (T, error), error) {
	load, err := r.LoaderFor(typing.Of[T]())
	if err != nil {
		return nil, err
	}

	return func(data any) (T, error) {
		v, err := load(data)
		if err != nil {
			var zero T

			return zero, err
		}

		return as[T](v)
	}, nil
}

// GetDumper returns a typed dumper of T.
func GetDumper[T any](r *Retort) (func(v T) (any, error), error) {
	dump, err := r.DumperFor(typing.Of[T]())
	if err != nil {
		return nil, err
	}

	return func(v T) (any, error) { return dump(v) }, nil
}

// Load loads data as T.
func Load[T any](r *Retort, data any) (T, error) {
	load, err := GetLoader[T](r)
	if err != nil {
		var zero T

		return zero, err
	}

	return load(data)
}

// Dump dumps v using the dumper of its dynamic type.
func Dump(r *Retort, v any) (any, error) {
	var tp typing.Expr = typing.Of[any]()
	if v != nil {
		tp = reflect.TypeOf(v)
	}

	dump, err := r.DumperFor(tp)
	if err != nil {
		return nil, err
	}

	return dump(v)
}

// DumpAs dumps v as T, e.g. an interface or a union member as the
// declared type.
func DumpAs[T any](r *Retort, v T) (any, error) {
	dump, err := GetDumper[T](r)
	if err != nil {
		return nil, err
	}

	return dump(v)
}

// as converts a loaded value to T. A nil value is the zero T.
func as[T any](v any) (T, error) {
	var zero T

	if v == nil {
		return zero, nil
	}

	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("loaded %T, want %s", v, reflect.TypeFor[T]())
	}

	return out, nil
}

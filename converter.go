package retort

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"retort/provider"
	"retort/typing"
)

var (
	// ErrNotAFuncPointer is returned by ImplConverter for targets other
	// than a pointer to a func variable.
	ErrNotAFuncPointer = errors.New("converter target must be a pointer to a func variable")
	// ErrConverterSignature is returned by ImplConverter for funcs not
	// shaped like func(Src, P1, ...) (Dst[, error]).
	ErrConverterSignature = errors.New("bad converter signature")
)

var errorType = reflect.TypeFor[error]()

// ConverterParam is an extra converter argument, linked by name.
type ConverterParam = provider.ConverterParam

// ConverterFor returns the converter from src to dst taking params as
// extra arguments.
func (r *Retort) ConverterFor(src, dst typing.Expr, params ...ConverterParam) (provider.Converter, error) {
	v, err := r.engine.Produce(context.Background(), provider.ConverterRequest{Src: src, Dst: dst, Params: params})
	if err != nil {
		return nil, err
	}

	return v.(provider.Converter), nil
}

// GetConverter returns a typed converter from S to D.
func GetConverter[S, D any](r *Retort) (func(S) (D, error), error) {
	conv, err := r.ConverterFor(typing.Of[S](), typing.Of[D]())
	if err != nil {
		return nil, err
	}

	return func(src S) (D, error) {
		v, err := conv(src, nil)
		if err != nil {
			var zero D

			return zero, err
		}

		return as[D](v)
	}, nil
}

// ImplConverter fills the func variable fnPtr points to with a converter.
// The func takes the source model first and then converter parameters
// named by names, and returns the destination model and optionally an
// error. Without an error result, conversion failures panic.
//
//	var convert func(src Book, discount int) (BookDTO, error)
//	err := r.ImplConverter(&convert, "discount")
func (r *Retort) ImplConverter(fnPtr any, names ...string) error {
	pv := reflect.ValueOf(fnPtr)
	if pv.Kind() != reflect.Pointer || pv.IsNil() || pv.Elem().Kind() != reflect.Func {
		return fmt.Errorf("%w, got %T", ErrNotAFuncPointer, fnPtr)
	}

	ft := pv.Elem().Type()

	withErr, err := checkConverterSignature(ft, names)
	if err != nil {
		return err
	}

	params := make([]ConverterParam, len(names))
	for i, name := range names {
		params[i] = ConverterParam{Name: name, Type: ft.In(i + 1)}
	}

	conv, err := r.ConverterFor(ft.In(0), ft.Out(0), params...)
	if err != nil {
		return err
	}

	dstType := ft.Out(0)

	fn := reflect.MakeFunc(ft, func(args []reflect.Value) []reflect.Value {
		extra := make([]any, len(args)-1)
		for i, a := range args[1:] {
			extra[i] = a.Interface()
		}

		dst := reflect.New(dstType).Elem()

		v, err := conv(args[0].Interface(), extra)
		if err == nil && v != nil {
			dst.Set(reflect.ValueOf(v))
		}

		if !withErr {
			if err != nil {
				panic(err)
			}

			return []reflect.Value{dst}
		}

		errV := reflect.New(errorType).Elem()
		if err != nil {
			errV.Set(reflect.ValueOf(err))
		}

		return []reflect.Value{dst, errV}
	})

	pv.Elem().Set(fn)

	return nil
}

func checkConverterSignature(ft reflect.Type, names []string) (bool, error) {
	if ft.IsVariadic() {
		return false, fmt.Errorf("%w: %s is variadic", ErrConverterSignature, ft)
	}

	if ft.NumIn() != len(names)+1 {
		return false, fmt.Errorf("%w: %s takes %d arguments, got %d parameter names",
			ErrConverterSignature, ft, ft.NumIn(), len(names))
	}

	switch {
	case ft.NumOut() == 1:
		return false, nil
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %s must return the destination and optionally an error", ErrConverterSignature, ft)
	}
}

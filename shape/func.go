package shape

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

var ErrNotAFunction = errors.New("value is not a function")

// KwargsPrefix marks the last parameter name of a Func as the variadic
// keyword channel.
const KwargsPrefix = "**"

// FuncModel is a function used as a model: its parameters are the input
// fields and its first result the instance.
type FuncModel struct {
	Fn    reflect.Value
	Names []string
}

// Func wraps fn for introspection. Names are the parameter names in order;
// missing names are recovered from the function source when possible.
func Func(fn any, names ...string) *FuncModel {
	return &FuncModel{Fn: reflect.ValueOf(fn), Names: names}
}

// Validate checks that the wrapped value is a function returning a value and
// optionally an error.
func (f *FuncModel) Validate() error {
	if !f.Fn.IsValid() || f.Fn.Kind() != reflect.Func {
		return fmt.Errorf("%w: %v", ErrNotAFunction, f.Fn)
	}

	ft := f.Fn.Type()
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return fmt.Errorf("second result of %s must be an error", f.Name())
		}
	default:
		return fmt.Errorf("%s must return a value and optionally an error", f.Name())
	}

	return nil
}

// Name returns the qualified name of the wrapped function.
func (f *FuncModel) Name() string {
	if !f.Fn.IsValid() || f.Fn.Kind() != reflect.Func {
		return "<invalid>"
	}

	if rf := runtime.FuncForPC(f.Fn.Pointer()); rf != nil {
		return rf.Name()
	}

	return f.Fn.Type().String()
}

// ShortName strips the package path from Name.
func (f *FuncModel) ShortName() string {
	name := f.Name()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}

	return name
}

func (f *FuncModel) String() string { return f.ShortName() }

// Call invokes the function with positional values.
func (f *FuncModel) Call(args []any) (any, error) {
	ft := f.Fn.Type()
	in := make([]reflect.Value, len(args))

	for i, a := range args {
		pt := ft.In(i)
		if a == nil {
			in[i] = reflect.Zero(pt)

			continue
		}

		av := reflect.ValueOf(a)

		switch {
		case av.Type().AssignableTo(pt):
			in[i] = av
		case av.Type().ConvertibleTo(pt):
			in[i] = av.Convert(pt)
		default:
			return nil, fmt.Errorf("argument %d of %s: cannot use %T as %s", i, f.Name(), a, pt)
		}
	}

	out := f.Fn.Call(in)
	if len(out) == 2 {
		if err, _ := out[1].Interface().(error); err != nil {
			return nil, err
		}
	}

	return out[0].Interface(), nil
}

var errorType = reflect.TypeFor[error]()

package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"sync"
)

const packageHeader = "package generated\n\n"

// Source is the rendered equivalent of an emitted closure.
type Source struct {
	// Name is the function name.
	Name string
	// Code is the Go source of a file holding the function.
	Code []byte
	// Formatted is false when go/format rejected the code and Code holds
	// the raw text.
	Formatted bool
	// Err is the formatting error, if any.
	Err error
	// Namespace binds the free names of Code.
	Namespace *Namespace
}

// Render wraps body into "func name(params) results" and formats it.
func Render(name, params, results string, body *Builder, ns *Namespace) Source {
	var buf bytes.Buffer

	buf.WriteString(packageHeader)
	fmt.Fprintf(&buf, "func %s(%s) %s {\n", name, params, results)

	fn := NewBuilder()
	fn.indent = 1
	fn.Extend(body)
	buf.WriteString(fn.String())
	buf.WriteString("\n}\n")

	if ns == nil {
		ns = NewNamespace()
	}

	src := Source{Name: name, Namespace: ns}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		src.Code = buf.Bytes()
		src.Err = fmt.Errorf("formatting code: %w", err)

		return src
	}

	src.Code = formatted
	src.Formatted = true

	return src
}

// Hook receives every rendered source.
type Hook func(Source)

// AccumulatingHook collects rendered sources.
type AccumulatingHook struct {
	mu      sync.Mutex
	sources []Source
}

// Hook returns the function to register.
func (a *AccumulatingHook) Hook() Hook {
	return func(s Source) {
		a.mu.Lock()
		defer a.mu.Unlock()

		a.sources = append(a.sources, s)
	}
}

// Sources returns the collected sources in emission order.
func (a *AccumulatingHook) Sources() []Source {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]Source(nil), a.sources...)
}

// Find returns the last collected source with the given name.
func (a *AccumulatingHook) Find(name string) (Source, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := len(a.sources) - 1; i >= 0; i-- {
		if a.sources[i].Name == name {
			return a.sources[i], true
		}
	}

	return Source{}, false
}

package loaderr

import (
	"fmt"
	"strings"
)

// UnionLoadError collects the failures of every union arm.
type UnionLoadError struct {
	Message string
	Errs    []error
}

func (e *UnionLoadError) Error() string { return groupMessage(e.Message, e.Errs) }

func (e *UnionLoadError) Unwrap() []error { return e.Errs }

func (*UnionLoadError) loadError() {}

// AggregateLoadError collects sibling load failures.
type AggregateLoadError struct {
	Message string
	Errs    []error
}

func (e *AggregateLoadError) Error() string { return groupMessage(e.Message, e.Errs) }

func (e *AggregateLoadError) Unwrap() []error { return e.Errs }

func (*AggregateLoadError) loadError() {}

// Group collects sibling failures when at least one of them is not a LoadError.
type Group struct {
	Message string
	Errs    []error
}

func (e *Group) Error() string { return groupMessage(e.Message, e.Errs) }

func (e *Group) Unwrap() []error { return e.Errs }

// NewGroup returns an AggregateLoadError when all errs are load errors and a
// Group otherwise.
func NewGroup(message string, errs []error) error {
	for _, err := range errs {
		if !IsLoadError(err) {
			return &Group{Message: message, Errs: errs}
		}
	}

	return &AggregateLoadError{Message: message, Errs: errs}
}

func groupMessage(message string, errs []error) string {
	return fmt.Sprintf("%s (%d sub-errors)", message, len(errs))
}

// Render formats err and its nested groups as an indented tree.
func Render(err error) string {
	var b strings.Builder

	render(&b, err, "")

	return strings.TrimRight(b.String(), "\n")
}

func render(b *strings.Builder, err error, indent string) {
	trail := TrailOf(err)

	prefix := ""
	if len(trail) > 0 {
		prefix = FormatTrail(trail) + ": "
	}

	subs, header := subErrors(err)
	if subs == nil {
		b.WriteString(indent + prefix + headline(err) + "\n")

		return
	}

	b.WriteString(indent + prefix + header + "\n")

	for i, sub := range subs {
		fmt.Fprintf(b, "%s+-- [%d]\n", indent, i)
		render(b, sub, indent+"|   ")
	}
}

func headline(err error) string {
	if t, ok := err.(*TrailedError); ok {
		return t.Err.Error()
	}

	return err.Error()
}

func subErrors(err error) ([]error, string) {
	if t, ok := err.(*TrailedError); ok {
		err = t.Err
	}

	switch e := err.(type) {
	case *UnionLoadError:
		return e.Errs, e.Message
	case *AggregateLoadError:
		return e.Errs, e.Message
	case *Group:
		return e.Errs, e.Message
	default:
		return nil, ""
	}
}

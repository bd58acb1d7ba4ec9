package engine

import (
	"errors"
	"fmt"
	"reflect"

	"retort/internal/diagnostic"
	"retort/provider"
	"retort/typing"
)

const (
	kindLoader    = "loader"
	kindDumper    = "dumper"
	kindConverter = "converter"
	kindCoercer   = "coercer"
)

func requestKind(req provider.Request) string {
	switch req.(type) {
	case provider.LoaderRequest:
		return kindLoader
	case provider.DumperRequest:
		return kindDumper
	case provider.ConverterRequest:
		return kindConverter
	case provider.CoercerRequest:
		return kindCoercer
	case provider.LinkingRequest:
		return "linking"
	default:
		return reflect.TypeOf(req).Name()
	}
}

// subject names what the request is about in messages.
func subject(req provider.Request) string {
	switch r := req.(type) {
	case provider.ConverterRequest:
		return typing.Repr(r.Src) + " to " + typing.Repr(r.Dst)
	case provider.LocatedRequest:
		s := r.LocStack()
		if s.Len() == 0 {
			return "?"
		}

		return typing.Repr(s.At(0).Type)
	default:
		return reflect.TypeOf(req).Name()
	}
}

// describe returns the message and notes shown when nothing satisfies req.
func describe(req provider.Request) (string, []string) {
	switch r := req.(type) {
	case provider.LoaderRequest:
		return "Cannot find loader", []string{"Location: " + r.Stack.String()}
	case provider.DumperRequest:
		return "Cannot find dumper", []string{"Location: " + r.Stack.String()}
	case provider.CoercerRequest:
		return "Cannot find coercer", []string{"Linking: " + r.Src.String() + " ──▷ " + r.Dst.String()}
	case provider.LinkingRequest:
		return fmt.Sprintf("Cannot find paired field of `%s` for linking", linkingTarget(r.Destination)),
			[]string{"Location: " + r.Destination.String()}
	case provider.ConverterRequest:
		return "Cannot produce converter", []string{"Linking: " + subject(req)}
	case provider.LocatedRequest:
		return "Cannot satisfy " + reflect.TypeOf(req).Name(), []string{"Location: " + r.LocStack().String()}
	default:
		return "Cannot satisfy " + reflect.TypeOf(req).Name(), nil
	}
}

func linkingTarget(s provider.LocStack) string {
	if s.Len() == 0 {
		return "?"
	}

	last := s.Last()
	if last.Field != nil {
		return last.Field.ID
	}

	return typing.Repr(last.Type)
}

// Nodes converts a failure into the diagnostic tree of its demonstrative
// causes. Non-demonstrative aggregates are replaced by their children.
func Nodes(err error) []diagnostic.Node {
	switch e := err.(type) {
	case nil:
		return nil
	case *provider.AggregateCannotProvide:
		var children []diagnostic.Node
		for _, sub := range e.Errs {
			children = append(children, Nodes(sub)...)
		}

		if !e.IsDemonstrative {
			return children
		}

		return []diagnostic.Node{{Message: e.Message, Notes: e.Notes, Children: children}}
	case *provider.CannotProvide:
		if !e.IsDemonstrative {
			return nil
		}

		return []diagnostic.Node{{Message: e.Message, Notes: e.Notes}}
	}

	if inner := errors.Unwrap(err); inner != nil && provider.IsCannotProvide(inner) {
		return Nodes(inner)
	}

	return []diagnostic.Node{{Message: err.Error()}}
}

// Describe renders the demonstrative causes of a failure.
func Describe(err error) string {
	return diagnostic.Render(Nodes(err))
}

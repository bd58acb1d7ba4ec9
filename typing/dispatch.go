package typing

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
)

// ErrNoDispatch is returned when no registered class is an ancestor.
var ErrNoDispatch = errors.New("no value registered for class or its ancestors")

// ErrInconsistentMRO is returned when bases admit no linearization.
var ErrInconsistentMRO = errors.New("cannot create a consistent method resolution order")

// OriginOf strips parameters and annotations and returns the class of tp.
func OriginOf(tp Expr) Expr {
	switch t := tp.(type) {
	case ParamExpr:
		return OriginOf(t.Origin)
	case AnnotatedExpr:
		return OriginOf(t.Type)
	case *NormType:
		if t.Is(AnnotatedOrigin) {
			return OriginOf(t.Arg(0))
		}

		if t.rt != nil {
			return t.rt
		}

		return t.origin
	default:
		return tp
	}
}

// MRO returns the linearization of cls and its ancestors, cls first.
//
// Model bases and embedded struct fields act as parents; the order follows
// the C3 algorithm.
func MRO(cls Expr) ([]Expr, error) {
	cls = OriginOf(cls)

	var bases []Expr

	switch c := cls.(type) {
	case *Model:
		for _, b := range c.Bases {
			bases = append(bases, OriginOf(b))
		}
	case reflect.Type:
		if c.Kind() == reflect.Struct {
			for i := range c.NumField() {
				if f := c.Field(i); f.Anonymous {
					bases = append(bases, f.Type)
				}
			}
		}
	}

	if len(bases) == 0 {
		return []Expr{cls}, nil
	}

	seqs := make([][]Expr, 0, len(bases)+1)

	for _, b := range bases {
		mro, err := MRO(b)
		if err != nil {
			return nil, err
		}

		seqs = append(seqs, mro)
	}

	seqs = append(seqs, slices.Clone(bases))

	merged, err := c3Merge(seqs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", Repr(cls), err)
	}

	return append([]Expr{cls}, merged...), nil
}

func c3Merge(seqs [][]Expr) ([]Expr, error) {
	var result []Expr

	for {
		seqs = slices.DeleteFunc(seqs, func(s []Expr) bool { return len(s) == 0 })
		if len(seqs) == 0 {
			return result, nil
		}

		var head Expr

		found := false

		for _, s := range seqs {
			candidate := s[0]
			if !inTail(seqs, candidate) {
				head, found = candidate, true

				break
			}
		}

		if !found {
			return nil, ErrInconsistentMRO
		}

		result = append(result, head)

		for i, s := range seqs {
			if s[0] == head {
				seqs[i] = s[1:]
			}
		}
	}
}

func inTail(seqs [][]Expr, cls Expr) bool {
	for _, s := range seqs {
		if slices.Contains(s[1:], cls) {
			return true
		}
	}

	return false
}

// IsSubclass reports whether cls is parent or one of its descendants.
// Any is the parent of every class; interfaces are parents of their implementations.
func IsSubclass(cls, parent Expr) bool {
	cls, parent = OriginOf(cls), OriginOf(parent)
	if _, ok := parent.(AnyType); ok || parent == AnyOrigin {
		return true
	}

	mro, err := MRO(cls)
	if err == nil && slices.Contains(mro, parent) {
		return true
	}

	return implements(cls, parent)
}

func implements(cls, parent Expr) bool {
	ct, ok := cls.(reflect.Type)
	if !ok {
		return false
	}

	pt, ok := parent.(reflect.Type)

	return ok && pt.Kind() == reflect.Interface && ct.Implements(pt)
}

// ClassDispatcher finds the value registered for the closest ancestor of a class.
type ClassDispatcher[V any] struct {
	exact map[Expr]V
	order []Expr
}

// NewClassDispatcher creates an empty dispatcher.
func NewClassDispatcher[V any]() *ClassDispatcher[V] {
	return &ClassDispatcher[V]{exact: make(map[Expr]V)}
}

// Register binds value to cls. Re-registering replaces the value.
func (d *ClassDispatcher[V]) Register(cls Expr, value V) {
	cls = OriginOf(cls)
	if _, ok := d.exact[cls]; !ok {
		d.order = append(d.order, cls)
	}

	d.exact[cls] = value
}

// Classes returns the registered classes in registration order.
func (d *ClassDispatcher[V]) Classes() []Expr {
	return slices.Clone(d.order)
}

// Dispatch returns the value of the closest registered ancestor of cls:
// first along the MRO, then registered interfaces cls implements in
// registration order, then Any.
func (d *ClassDispatcher[V]) Dispatch(cls Expr) (V, error) {
	var zero V

	cls = OriginOf(cls)

	mro, err := MRO(cls)
	if err != nil {
		return zero, err
	}

	for _, c := range mro {
		if v, ok := d.exact[c]; ok {
			return v, nil
		}
	}

	for _, c := range d.order {
		if implements(cls, c) {
			return d.exact[c], nil
		}
	}

	if v, ok := d.exact[Any]; ok {
		return v, nil
	}

	return zero, fmt.Errorf("%s: %w", Repr(cls), ErrNoDispatch)
}

// StripTags removes annotations around n.
func StripTags(n *NormType) *NormType {
	for n.Is(AnnotatedOrigin) {
		n = n.Arg(0)
	}

	return n
}

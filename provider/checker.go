package provider

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"

	"retort/typing"
)

var ErrBadPredicate = errors.New("cannot create checker")

// Checker filters requests by their location path.
type Checker interface {
	Check(m Mediator, s LocStack) bool
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(m Mediator, s LocStack) bool

func (f CheckerFunc) Check(m Mediator, s LocStack) bool { return f(m, s) }

type anyChecker struct{}

func (anyChecker) Check(Mediator, LocStack) bool { return true }

// AnyLoc accepts every location.
var AnyLoc Checker = anyChecker{}

type notChecker struct{ c Checker }

func (n notChecker) Check(m Mediator, s LocStack) bool { return !n.c.Check(m, s) }

// Not inverts c.
func Not(c Checker) Checker { return notChecker{c} }

type boolChecker struct {
	checkers []Checker
	init     bool
	xor      bool
}

func (b boolChecker) Check(m Mediator, s LocStack) bool {
	if b.xor {
		acc := false
		for _, c := range b.checkers {
			acc = acc != c.Check(m, s)
		}

		return acc
	}

	for _, c := range b.checkers {
		if c.Check(m, s) != b.init {
			return !b.init
		}
	}

	return b.init
}

// And accepts when all checkers accept.
func And(cs ...Checker) Checker { return boolChecker{checkers: cs, init: true} }

// Or accepts when any checker accepts.
func Or(cs ...Checker) Checker { return boolChecker{checkers: cs, init: false} }

// Xor accepts when an odd number of checkers accept.
func Xor(cs ...Checker) Checker { return boolChecker{checkers: cs, xor: true} }

// fieldChecker matches the id of the last field location.
type fieldChecker struct {
	id string
	re *regexp.Regexp
}

func (f fieldChecker) Check(_ Mediator, s LocStack) bool {
	if s.Len() == 0 {
		return false
	}

	loc := s.Last()
	if loc.Field == nil {
		return false
	}

	if f.re != nil {
		m := f.re.FindStringIndex(loc.Field.ID)

		return m != nil && m[0] == 0 && m[1] == len(loc.Field.ID)
	}

	return loc.Field.ID == f.id
}

// ExactField matches a field id.
func ExactField(id string) Checker { return fieldChecker{id: id} }

// FieldRegexp matches field ids fully matching re.
func FieldRegexp(re *regexp.Regexp) Checker { return fieldChecker{re: re} }

func lastNorm(s LocStack) (*typing.NormType, bool) {
	if s.Len() == 0 {
		return nil, false
	}

	n, err := typing.Normalize(s.Last().Type)
	if err != nil {
		return nil, false
	}

	return n, true
}

type exactTypeChecker struct{ norm *typing.NormType }

func (e exactTypeChecker) Check(_ Mediator, s LocStack) bool {
	n, ok := lastNorm(s)

	return ok && n.Equal(e.norm)
}

// ExactType matches locations of exactly the given normalized type.
func ExactType(n *typing.NormType) Checker { return exactTypeChecker{n} }

type exactOriginChecker struct{ origin any }

func (e exactOriginChecker) Check(_ Mediator, s LocStack) bool {
	n, ok := lastNorm(s)

	return ok && n.Origin() == e.origin
}

// ExactOrigin matches locations whose normalized origin is origin.
func ExactOrigin(origin any) Checker { return exactOriginChecker{origin} }

type subclassChecker struct{ parent typing.Expr }

func (c subclassChecker) Check(_ Mediator, s LocStack) bool {
	n, ok := lastNorm(s)
	if !ok {
		return false
	}

	return typing.IsSubclass(n.Origin(), c.parent)
}

// OriginSubclass matches locations whose origin derives from or implements parent.
func OriginSubclass(parent typing.Expr) Checker { return subclassChecker{parent} }

type genericParamChecker struct{ pos int }

func (g genericParamChecker) Check(_ Mediator, s LocStack) bool {
	return s.Len() > 0 && s.Last().GenericPos == g.pos
}

// GenericParam matches the generic argument at pos.
func GenericParam(pos int) Checker { return genericParamChecker{pos} }

type varTupleChecker struct{}

func (varTupleChecker) Check(_ Mediator, s LocStack) bool {
	n, ok := lastNorm(s)

	return ok && typing.IsVariadicTuple(n)
}

// VarTuple matches variadic tuples.
var VarTuple Checker = varTupleChecker{}

type stackEndChecker struct{ checkers []Checker }

func (e stackEndChecker) Check(m Mediator, s LocStack) bool {
	if s.Len() < len(e.checkers) {
		return false
	}

	for i := range e.checkers {
		c := e.checkers[len(e.checkers)-1-i]
		if !c.Check(m, s.Prefix(i)) {
			return false
		}
	}

	return true
}

// StackEnd matches when the last locations match the checkers, the last
// checker against the innermost location.
func StackEnd(cs ...Checker) Checker { return stackEndChecker{cs} }

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ToChecker converts a predicate: a string (field id, or a regular
// expression when it is not an identifier), a *regexp.Regexp, a Checker, a
// Pattern or a type expression.
func ToChecker(pred any) (Checker, error) {
	switch p := pred.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil predicate", ErrBadPredicate)
	case string:
		if identRe.MatchString(p) {
			return ExactField(p), nil
		}

		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadPredicate, err)
		}

		return FieldRegexp(re), nil
	case *regexp.Regexp:
		return FieldRegexp(p), nil
	case Checker:
		return p, nil
	case Pattern:
		return p.Build()
	default:
		return typeChecker(pred)
	}
}

// MustChecker is like ToChecker but panics on error.
func MustChecker(pred any) Checker {
	c, err := ToChecker(pred)
	if err != nil {
		panic(err)
	}

	return c
}

func typeChecker(pred typing.Expr) (Checker, error) {
	n, err := typing.Normalize(pred)
	if err != nil {
		return nil, fmt.Errorf("%w from %s: %w", ErrBadPredicate, typing.Repr(pred), err)
	}

	switch n.Origin().(type) {
	case *typing.TypeVar, *typing.ParamSpec, *typing.TypeVarTuple:
		return nil, fmt.Errorf("%w from type variable %s", ErrBadPredicate, typing.Repr(pred))
	}

	if isBareGeneric(pred) {
		return originChecker(n.Origin()), nil
	}

	if len(typing.FreeVars(n)) > 0 {
		return nil, fmt.Errorf("%w from generic %s", ErrBadPredicate, typing.Repr(pred))
	}

	if len(n.Args()) == 0 {
		return originChecker(n.Origin()), nil
	}

	return ExactType(n), nil
}

func originChecker(origin any) Checker {
	if rt, ok := origin.(reflect.Type); ok && rt.Kind() == reflect.Interface {
		return OriginSubclass(rt)
	}

	return ExactOrigin(origin)
}

func isBareGeneric(pred typing.Expr) bool {
	switch p := pred.(type) {
	case *typing.Origin:
		return p.Arity() > 0
	case *typing.Model:
		return len(p.TypeParams) > 0
	default:
		return false
	}
}

package provider

import (
	"errors"
	"fmt"
)

// Pattern matches the end of a LocStack element by element:
//
//	P.Of(typing.Of[Weather]()).Of("IconID")
//
// matches the IconID field of Weather wherever Weather is nested.
type Pattern struct {
	stack []Checker
	err   error
}

// P is the empty pattern every pattern starts from.
var P Pattern

func (p Pattern) extend(cs ...Checker) Pattern {
	stack := make([]Checker, 0, len(p.stack)+len(cs))
	stack = append(stack, p.stack...)

	return Pattern{stack: append(stack, cs...), err: p.err}
}

func (p Pattern) fail(err error) Pattern {
	if p.err != nil {
		return p
	}

	return Pattern{stack: p.stack, err: err}
}

func (p Pattern) checker(pred any) (Checker, error) {
	if _, nested := pred.(Pattern); nested {
		return nil, fmt.Errorf("%w: a Pattern cannot be a predicate inside a Pattern, use Then", ErrBadPredicate)
	}

	return ToChecker(pred)
}

// Of appends an element matching pred.
func (p Pattern) Of(pred any) Pattern {
	c, err := p.checker(pred)
	if err != nil {
		return p.fail(err)
	}

	return p.extend(c)
}

// OneOf appends an element matching any of preds.
func (p Pattern) OneOf(preds ...any) Pattern {
	cs := make([]Checker, len(preds))

	for i, pred := range preds {
		c, err := p.checker(pred)
		if err != nil {
			return p.fail(err)
		}

		cs[i] = c
	}

	return p.extend(Or(cs...))
}

// GenericArg appends an element matching the generic argument at pos.
func (p Pattern) GenericArg(pos int, pred any) Pattern {
	c, err := p.checker(pred)
	if err != nil {
		return p.fail(err)
	}

	return p.extend(And(GenericParam(pos), c))
}

// Then appends the elements of other.
func (p Pattern) Then(other Pattern) Pattern {
	if other.err != nil {
		return p.fail(other.err)
	}

	return p.extend(other.stack...)
}

func (p Pattern) combine(other any, op func(a, b Checker) Checker) Pattern {
	self, err := p.Build()
	if err != nil {
		return p.fail(err)
	}

	c, err := ToChecker(other)
	if err != nil {
		return p.fail(err)
	}

	return Pattern{stack: []Checker{op(self, c)}}
}

// Or matches when p or other matches.
func (p Pattern) Or(other any) Pattern {
	return p.combine(other, func(a, b Checker) Checker { return Or(a, b) })
}

// And matches when p and other match.
func (p Pattern) And(other any) Pattern {
	return p.combine(other, func(a, b Checker) Checker { return And(a, b) })
}

// Xor matches when exactly one of p and other matches.
func (p Pattern) Xor(other any) Pattern {
	return p.combine(other, func(a, b Checker) Checker { return Xor(a, b) })
}

// Not inverts p.
func (p Pattern) Not() Pattern {
	self, err := p.Build()
	if err != nil {
		return p.fail(err)
	}

	return Pattern{stack: []Checker{Not(self)}}
}

var errEmptyPattern = errors.New("pattern has no elements")

// Build produces the checker.
func (p Pattern) Build() (Checker, error) {
	switch {
	case p.err != nil:
		return nil, p.err
	case len(p.stack) == 0:
		return nil, fmt.Errorf("%w: %w", ErrBadPredicate, errEmptyPattern)
	case len(p.stack) == 1:
		return p.stack[0], nil
	default:
		return StackEnd(p.stack...), nil
	}
}

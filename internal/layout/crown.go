package layout

import (
	"fmt"
	"strconv"
	"strings"

	"retort/shape"
)

// ExtraPolicy is what a loader does with data keys no field is mapped to.
type ExtraPolicy int

const (
	ExtraSkip ExtraPolicy = iota
	ExtraForbid
	ExtraCollect
)

func (p ExtraPolicy) String() string {
	switch p {
	case ExtraSkip:
		return "skip"
	case ExtraForbid:
		return "forbid"
	case ExtraCollect:
		return "collect"
	default:
		return "ExtraPolicy(" + strconv.Itoa(int(p)) + ")"
	}
}

// Path addresses a crown node: string keys select dict entries, ints
// select list items.
type Path []any

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, k := range p {
		parts[i] = fmt.Sprintf("%#v", k)
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

// InpCrown is a node of an input crown.
type InpCrown interface{ isInpCrown() }

// InpDictCrown expects a mapping. Keys keeps the order fields are loaded in.
type InpDictCrown struct {
	Keys        []string
	Map         map[string]InpCrown
	ExtraPolicy ExtraPolicy
}

// InpListCrown expects a sequence of exactly len(Items) elements, or more
// when the policy is ExtraSkip.
type InpListCrown struct {
	Items       []InpCrown
	ExtraPolicy ExtraPolicy
}

// InpFieldCrown loads the value into a field.
type InpFieldCrown struct{ ID string }

// InpNoneCrown ignores the value.
type InpNoneCrown struct{}

func (*InpDictCrown) isInpCrown() {}
func (*InpListCrown) isInpCrown() {}
func (InpFieldCrown) isInpCrown() {}
func (InpNoneCrown) isInpCrown()  {}

// Sieve reports whether the value of a field must be kept in the output.
type Sieve func(instance, value any) bool

// OutCrown is a node of an output crown.
type OutCrown interface{ isOutCrown() }

// OutDictCrown produces a mapping. Keys with a sieve are dropped when the
// sieve rejects the value.
type OutDictCrown struct {
	Keys   []string
	Map    map[string]OutCrown
	Sieves map[string]Sieve
}

// OutListCrown produces a sequence.
type OutListCrown struct {
	Items []OutCrown
}

// OutFieldCrown dumps a field.
type OutFieldCrown struct{ ID string }

// OutNoneCrown fills a gap with its placeholder.
type OutNoneCrown struct{ Placeholder shape.Default }

func (*OutDictCrown) isOutCrown() {}
func (*OutListCrown) isOutCrown() {}
func (OutFieldCrown) isOutCrown() {}
func (OutNoneCrown) isOutCrown()  {}

// Saturator stores collected extra data into a built instance and returns
// the instance.
type Saturator func(instance any, extra map[string]any) (any, error)

// Extractor returns the extra data of an instance to merge into its dump.
type Extractor func(instance any) (map[string]any, error)

// InpExtraMove says where collected extra data goes. Nil drops it.
type InpExtraMove interface{ isInpExtraMove() }

// OutExtraMove says where extra data of an instance comes from. Nil means
// the instance has none.
type OutExtraMove interface{ isOutExtraMove() }

// ExtraTargets are fields receiving extra data on load and merged into the
// result on dump.
type ExtraTargets struct{ Fields []string }

// ExtraKwargs passes extra data to the variadic keyword channel of the
// constructor.
type ExtraKwargs struct{}

// ExtraSaturate hands extra data to a saturator after construction.
type ExtraSaturate struct{ Func Saturator }

// ExtraExtract takes extra data from the instance through an extractor.
type ExtraExtract struct{ Func Extractor }

func (ExtraTargets) isInpExtraMove()  {}
func (ExtraTargets) isOutExtraMove()  {}
func (ExtraKwargs) isInpExtraMove()   {}
func (ExtraSaturate) isInpExtraMove() {}
func (ExtraExtract) isOutExtraMove()  {}

// Has reports whether id is an extra target.
func (t ExtraTargets) Has(id string) bool {
	for _, f := range t.Fields {
		if f == id {
			return true
		}
	}

	return false
}

// InputNameLayout is the answer to an InputNameLayoutRequest. Crown is an
// *InpDictCrown or an *InpListCrown.
type InputNameLayout struct {
	Crown     InpCrown
	ExtraMove InpExtraMove
}

// OutputNameLayout is the answer to an OutputNameLayoutRequest. Crown is an
// *OutDictCrown or an *OutListCrown.
type OutputNameLayout struct {
	Crown     OutCrown
	ExtraMove OutExtraMove
}

// InpFields returns the field ids of an input crown in walk order.
func InpFields(c InpCrown) []string {
	var ids []string

	switch c := c.(type) {
	case *InpDictCrown:
		for _, k := range c.Keys {
			ids = append(ids, InpFields(c.Map[k])...)
		}
	case *InpListCrown:
		for _, item := range c.Items {
			ids = append(ids, InpFields(item)...)
		}
	case InpFieldCrown:
		ids = append(ids, c.ID)
	}

	return ids
}

// OutFields returns the field ids of an output crown in walk order.
func OutFields(c OutCrown) []string {
	var ids []string

	switch c := c.(type) {
	case *OutDictCrown:
		for _, k := range c.Keys {
			ids = append(ids, OutFields(c.Map[k])...)
		}
	case *OutListCrown:
		for _, item := range c.Items {
			ids = append(ids, OutFields(item)...)
		}
	case OutFieldCrown:
		ids = append(ids, c.ID)
	}

	return ids
}

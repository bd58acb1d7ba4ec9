package shape

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateField     = errors.New("duplicate field id")
	ErrUnknownParamField  = errors.New("parameter refers to unknown field")
	ErrUnboundField       = errors.New("field has no parameter")
	ErrParamOrder         = errors.New("parameter kinds out of order")
	ErrOptionalBeforeReq  = errors.New("optional parameter precedes required one")
	ErrSelfDefaultPosOnly = errors.New("positional-only field has a self-referencing default")
	ErrUnknownOverride    = errors.New("overridden type refers to unknown field")
	ErrPositionalGap      = errors.New("positional-only parameter cannot be passed")
)

// NewInputShape validates the parts of an input shape and assembles it.
func NewInputShape(
	fields []InputField,
	params []Param,
	kwargs *ParamKwargs,
	overridden map[string]struct{},
	ctor Constructor,
) (*InputShape, error) {
	byID := make(map[string]InputField, len(fields))

	for _, f := range fields {
		if _, dup := byID[f.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, f.ID)
		}

		byID[f.ID] = f
	}

	if err := checkOverrides(overridden, func(id string) bool { _, ok := byID[id]; return ok }); err != nil {
		return nil, err
	}

	bound := make(map[string]int, len(params))

	for i, p := range params {
		f, ok := byID[p.FieldID]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownParamField, p.FieldID)
		}

		if _, dup := bound[p.FieldID]; dup {
			return nil, fmt.Errorf("%w: %q is bound twice", ErrDuplicateField, p.FieldID)
		}

		bound[p.FieldID] = i

		if i > 0 && params[i-1].Kind > p.Kind {
			return nil, fmt.Errorf("%w: %s %q after %s %q",
				ErrParamOrder, p.Kind, p.Name, params[i-1].Kind, params[i-1].Name)
		}

		if p.Kind == PosOnly {
			if _, self := f.Default.(DefaultFactoryWithSelf); self {
				return nil, fmt.Errorf("%w: %q", ErrSelfDefaultPosOnly, p.FieldID)
			}
		}
	}

	for _, f := range fields {
		if _, ok := bound[f.ID]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnboundField, f.ID)
		}
	}

	if err := checkOptionalOrder(params, byID); err != nil {
		return nil, err
	}

	return &InputShape{
		Fields:          fields,
		OverriddenTypes: overridden,
		Params:          params,
		Kwargs:          kwargs,
		Constructor:     ctor,
	}, nil
}

// NewOutputShape validates the parts of an output shape and assembles it.
func NewOutputShape(fields []OutputField, overridden map[string]struct{}) (*OutputShape, error) {
	ids := make(map[string]struct{}, len(fields))

	for _, f := range fields {
		if _, dup := ids[f.ID]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, f.ID)
		}

		ids[f.ID] = struct{}{}
	}

	if err := checkOverrides(overridden, func(id string) bool { _, ok := ids[id]; return ok }); err != nil {
		return nil, err
	}

	return &OutputShape{Fields: fields, OverriddenTypes: overridden}, nil
}

func checkOverrides(overridden map[string]struct{}, exists func(string) bool) error {
	for id := range overridden {
		if !exists(id) {
			return fmt.Errorf("%w: %q", ErrUnknownOverride, id)
		}
	}

	return nil
}

func checkOptionalOrder(params []Param, byID map[string]InputField) error {
	for _, kind := range []ParamKind{PosOnly, PosOrKW} {
		optional := ""

		for _, p := range params {
			if p.Kind != kind {
				continue
			}

			if !byID[p.FieldID].IsRequired {
				if optional == "" {
					optional = p.Name
				}

				continue
			}

			if optional != "" {
				return fmt.Errorf("%w: %s %q before %q", ErrOptionalBeforeReq, kind, optional, p.Name)
			}
		}
	}

	return nil
}

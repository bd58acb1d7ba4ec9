package introspect

import (
	"fmt"

	"retort/typing"
)

// IntrospectionImpossibleError means a backend does not handle the type.
type IntrospectionImpossibleError struct {
	Type    typing.Expr
	Backend string
}

func (e *IntrospectionImpossibleError) Error() string {
	if e.Backend == "" {
		return fmt.Sprintf("%s is not a supported model", typing.Repr(e.Type))
	}

	return fmt.Sprintf("%s is not a %s model", typing.Repr(e.Type), e.Backend)
}

// ClarifiedIntrospectionError means the type is of a backend kind but its
// declaration is unusable.
type ClarifiedIntrospectionError struct {
	Type        typing.Expr
	Description string
}

func (e *ClarifiedIntrospectionError) Error() string {
	return fmt.Sprintf("cannot introspect %s: %s", typing.Repr(e.Type), e.Description)
}

func impossible(tp typing.Expr, backend string) error {
	return &IntrospectionImpossibleError{Type: tp, Backend: backend}
}

func clarified(tp typing.Expr, format string, args ...any) error {
	return &ClarifiedIntrospectionError{Type: tp, Description: fmt.Sprintf(format, args...)}
}

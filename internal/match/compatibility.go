package match

import (
	"reflect"
)

// TypeCompatibility represents the level of compatibility between two types.
type TypeCompatibility int

const (
	// TypeIncompatible means the types cannot be converted.
	TypeIncompatible TypeCompatibility = iota
	// TypeNeedsTransform means conversion requires a coercer.
	TypeNeedsTransform
	// TypeConvertible means types are convertible using Go's type conversion.
	TypeConvertible
	// TypeAssignable means the source type can be directly assigned to the target.
	TypeAssignable
	// TypeIdentical means the types are exactly the same.
	TypeIdentical
)

const (
	VerdictIdentical      = "identical"
	VerdictAssignable     = "assignable"
	VerdictConvertible    = "convertible"
	VerdictNeedsTransform = "needs_transform"
	VerdictIncompatible   = "incompatible"
)

// String returns a human-readable name for the compatibility level.
func (c TypeCompatibility) String() string {
	switch c {
	case TypeIdentical:
		return VerdictIdentical
	case TypeAssignable:
		return VerdictAssignable
	case TypeConvertible:
		return VerdictConvertible
	case TypeNeedsTransform:
		return VerdictNeedsTransform
	case TypeIncompatible:
		return VerdictIncompatible
	default:
		return "unknown"
	}
}

// Score returns a numeric score for sorting (higher is better).
func (c TypeCompatibility) Score() int {
	return int(c)
}

// TypeCompatibilityResult contains detailed information about type compatibility.
type TypeCompatibilityResult struct {
	Compatibility TypeCompatibility
	Reason        string // Human-readable explanation
	SourceType    string // String representation of source type
	TargetType    string // String representation of target type
}

func result(c TypeCompatibility, reason string, source, target reflect.Type) TypeCompatibilityResult {
	return TypeCompatibilityResult{
		Compatibility: c,
		Reason:        reason,
		SourceType:    source.String(),
		TargetType:    target.String(),
	}
}

// ScoreTypeCompatibility determines the compatibility between a source and target type.
func ScoreTypeCompatibility(source, target reflect.Type) TypeCompatibilityResult {
	switch {
	case source == target:
		return result(TypeIdentical, "types are identical", source, target)
	case source.AssignableTo(target):
		return result(TypeAssignable, "source is assignable to target", source, target)
	case convertible(source, target):
		return result(TypeConvertible, "source is convertible to target", source, target)
	case needsTransform(source, target):
		return result(TypeNeedsTransform, "types require a coercer", source, target)
	default:
		return result(TypeIncompatible, "types are not compatible", source, target)
	}
}

// convertible is reflect convertibility without the integer to string
// conversion, which yields a rune rather than the number text.
func convertible(source, target reflect.Type) bool {
	if IsNumericType(source) && IsStringType(target) {
		return false
	}

	return source.ConvertibleTo(target)
}

// needsTransform checks for cases where types might be coerced element-wise
// or through a pointer.
func needsTransform(source, target reflect.Type) bool {
	sourceIsPtr := source.Kind() == reflect.Pointer
	targetIsPtr := target.Kind() == reflect.Pointer

	// *T -> T (dereference possible if not nil)
	if sourceIsPtr && !targetIsPtr && related(source.Elem(), target) {
		return true
	}

	// T -> *T (take address)
	if !sourceIsPtr && targetIsPtr && related(source, target.Elem()) {
		return true
	}

	switch {
	case isList(source) && isList(target):
		return ScoreTypeCompatibility(source.Elem(), target.Elem()).Compatibility >= TypeNeedsTransform
	case source.Kind() == reflect.Map && target.Kind() == reflect.Map:
		return ScoreTypeCompatibility(source.Key(), target.Key()).Compatibility >= TypeNeedsTransform &&
			ScoreTypeCompatibility(source.Elem(), target.Elem()).Compatibility >= TypeNeedsTransform
	case source.Kind() == reflect.Struct && target.Kind() == reflect.Struct:
		// Struct to struct might have compatible fields.
		return true
	case IsNumericType(source) && IsNumericType(target):
		return true
	}

	return false
}

func related(source, target reflect.Type) bool {
	return source == target || source.AssignableTo(target) || convertible(source, target)
}

func isList(t reflect.Type) bool {
	return t.Kind() == reflect.Slice || t.Kind() == reflect.Array
}

// ScorePointerCompatibility checks compatibility considering pointer wrapping/unwrapping.
func ScorePointerCompatibility(source, target reflect.Type) TypeCompatibilityResult {
	res := ScoreTypeCompatibility(source, target)
	if res.Compatibility >= TypeConvertible {
		return res
	}

	// Try unwrapping source pointer
	if source.Kind() == reflect.Pointer {
		if ScoreTypeCompatibility(source.Elem(), target).Compatibility >= TypeConvertible {
			return result(TypeNeedsTransform, "requires pointer dereference", source, target)
		}
	}

	// Try wrapping source as pointer
	if target.Kind() == reflect.Pointer {
		if ScoreTypeCompatibility(source, target.Elem()).Compatibility >= TypeConvertible {
			return result(TypeNeedsTransform, "requires taking address", source, target)
		}
	}

	return res
}

// IsNumericType returns true if the type has an integer or float kind.
func IsNumericType(t reflect.Type) bool {
	k := t.Kind()

	return reflect.Int <= k && k <= reflect.Float64
}

// IsStringType returns true if the type has the string kind.
func IsStringType(t reflect.Type) bool {
	return t.Kind() == reflect.String
}

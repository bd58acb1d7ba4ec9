package primitive

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
)

// Names are the identifiers used by rendered statements.
type Names struct {
	Src  string
	Dst  string
	Stem string // prefix of temporaries
	Func string // function name reported by errors
}

// Generate renders the Go statements converting a value of src held in
// names.Src into names.Dst. It returns nil when the pair is not allowed or
// has no textual form.
func Generate(src, dst reflect.Type, names Names, allowed CategoryEnum) []string {
	srcKind := FromReflectType(src)
	dstKind := FromReflectType(dst)
	pair := ConversionPair{srcKind, dstKind}

	if !allowedSet(allowed).has(pair) {
		return nil
	}

	if srcKind == KindPrimitiveEnum || dstKind == KindPrimitiveEnum {
		return generateEnum(src, dst, names, srcKind, dstKind)
	}

	tmpl, ok := snippets[pair]
	if !ok {
		return nil
	}

	var buf bytes.Buffer

	err := tmpl.Execute(&buf, snippetData{
		Src:     names.Src,
		Dst:     names.Dst,
		DstType: dst.String(),
		Stem:    names.Stem,
		Func:    names.Func,
	})
	if err != nil {
		return nil
	}

	return strings.Split(buf.String(), "\n")
}

func generateEnum(src, dst reflect.Type, names Names, srcKind, dstKind KindEnum) []string {
	srcValue := names.Src

	if srcKind == KindPrimitiveEnum {
		switch {
		case src.Implements(stringerType):
			srcValue += ".String()"
		case src.Kind() == reflect.String:
			srcValue = "string(" + srcValue + ")"
		default:
			return nil
		}
	}

	if dstKind != KindPrimitiveEnum {
		return []string{names.Dst + " = " + srcValue}
	}

	if dst.Kind() != reflect.String {
		return nil
	}

	lines := []string{fmt.Sprintf("%s = %s(%s)", names.Dst, dst.String(), srcValue)}
	if dst.Implements(validatorType) {
		lines = append(lines,
			"if !"+names.Dst+".IsValid() {",
			fmt.Sprintf(`	return nil, fmt.Errorf("%s: %%v is not a valid value for %s", %s)`, names.Func, dst.String(), names.Src),
			"}",
		)
	}

	return lines
}

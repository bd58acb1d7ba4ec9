package primitive

import (
	"fmt"
	"strings"
	"text/template"
)

// snippetData fills the placeholders of a snippet.
type snippetData struct {
	Src     string
	Dst     string
	DstType string
	Stem    string
	Func    string
}

// snippets assign {{.Dst}} from {{.Src}}, one per allowed pair. Failing
// statements return (nil, error) from the enclosing coercer.
var snippets = buildSnippets()

func fail(format, arg string) string {
	return `	return nil, fmt.Errorf("{{.Func}}: ` + format + `", ` + arg + `)`
}

// parsed is a snippet calling a fallible parser into the temporary.
func parsed(call, assign string) []string {
	return []string{
		"{{.Stem}}, err := " + call,
		"if err != nil {",
		fail("%w", "err"),
		"}",
		"",
		"{{.Dst}} = " + assign,
	}
}

func buildSnippets() map[ConversionPair]*template.Template {
	lines := map[ConversionPair][]string{}
	set := func(from, to KindEnum, body ...string) { lines[ConversionPair{from, to}] = body }

	numbers := kinds(KindEnum.IsNumber)
	integers := kinds(KindEnum.IsInteger)

	for _, from := range numbers {
		for _, to := range numbers {
			set(from, to, "{{.Dst}} = {{.DstType}}({{.Src}})")
		}
	}

	for _, k := range numbers {
		bits := k.Bits()

		switch {
		case k.IsSigned():
			set(k, KindString, "{{.Dst}} = {{.DstType}}(strconv.FormatInt(int64({{.Src}}), 10))")
			set(KindString, k, parsed(fmt.Sprintf("strconv.ParseInt({{.Src}}, 10, %d)", bits), "{{.DstType}}({{.Stem}})")...)
		case k.IsUnsigned():
			set(k, KindString, "{{.Dst}} = {{.DstType}}(strconv.FormatUint(uint64({{.Src}}), 10))")
			set(KindString, k, parsed(fmt.Sprintf("strconv.ParseUint({{.Src}}, 10, %d)", bits), "{{.DstType}}({{.Stem}})")...)
		default:
			set(k, KindString, "{{.Dst}} = {{.DstType}}(strconv.FormatFloat(float64({{.Src}}), 'f', -1, 64))")
			set(KindString, k, parsed(fmt.Sprintf("strconv.ParseFloat({{.Src}}, %d)", bits), "{{.DstType}}({{.Stem}})")...)
		}
	}

	for _, k := range integers {
		set(k, KindBool,
			"switch {{.Src}} {",
			"case 0:",
			"	{{.Dst}} = false",
			"case 1:",
			"	{{.Dst}} = true",
			"default:",
			fail("only 0 and 1 load as bool, got %d", "{{.Src}}"),
			"}",
		)
		set(KindBool, k,
			"{{.Dst}} = 0",
			"if {{.Src}} {",
			"	{{.Dst}} = 1",
			"}",
		)
	}

	set(KindString, KindBool,
		"switch strings.ToLower({{.Src}}) {",
		`case "true", "yes", "on":`,
		"	{{.Dst}} = true",
		`case "false", "no", "off":`,
		"	{{.Dst}} = false",
		"default:",
		fail("only true/false, yes/no and on/off load as bool, got %q", "{{.Src}}"),
		"}",
	)
	set(KindBool, KindString, "{{.Dst}} = strconv.FormatBool({{.Src}})")

	set(KindString, KindTime, parsed("time.Parse(time.RFC3339Nano, {{.Src}})", "{{.Stem}}")...)
	set(KindTime, KindString, "{{.Dst}} = {{.Src}}.Format(time.RFC3339Nano)")

	set(KindString, KindDuration, parsed("time.ParseDuration({{.Src}})", "{{.Stem}}")...)
	set(KindDuration, KindString, "{{.Dst}} = {{.Src}}.String()")

	// uint64 may overflow the int64 seconds and nanoseconds of time.
	for _, k := range integers {
		if k == KindUint64 {
			continue
		}

		set(k, KindTime, "{{.Dst}} = time.Unix(int64({{.Src}}), 0)")
		set(k, KindDuration, "{{.Dst}} = time.Duration({{.Src}})")

		if k.IsSigned() {
			set(KindTime, k, "{{.Dst}} = {{.DstType}}({{.Src}}.Unix())")
			set(KindDuration, k, "{{.Dst}} = {{.DstType}}({{.Src}}.Nanoseconds())")
		}
	}

	set(KindFloat32, KindDuration, "{{.Dst}} = time.Duration({{.Src}} * float32(time.Second))")
	set(KindFloat64, KindDuration, "{{.Dst}} = time.Duration({{.Src}} * float64(time.Second))")
	set(KindDuration, KindFloat32, "{{.Dst}} = float32({{.Src}}.Seconds())")
	set(KindDuration, KindFloat64, "{{.Dst}} = {{.Src}}.Seconds()")

	out := make(map[ConversionPair]*template.Template, len(lines))
	for pair, body := range lines {
		out[pair] = template.Must(template.New(fmt.Sprint(pair.From, "-", pair.To)).Parse(strings.Join(body, "\n")))
	}

	return out
}

package codegen_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retort/internal/codegen"
)

func TestBuilder(t *testing.T) {
	t.Parallel()

	b := codegen.NewBuilder()
	b.Line("x := 1")
	b.Block("if x > 0", func() {
		b.Line("x++")
	})
	b.EmptyLine()
	b.EmptyLine()
	b.Line("return x")

	assert.Equal(t, "x := 1\nif x > 0 {\n\tx++\n}\n\nreturn x", b.String())
	assert.Equal(t, 6, b.Len())
}

func TestBuilderExtend(t *testing.T) {
	t.Parallel()

	head := codegen.NewBuilder().Line("a := 1")
	body := codegen.NewBuilder().Block("for range 3", func() {})

	b := codegen.NewBuilder()
	b.Block("func() ", func() {
		b.Extend(body)
	})
	b.ExtendAbove(head)

	assert.Equal(t, "a := 1\nfunc()  {\n\tfor range 3 {\n\t}\n}", b.String())
}

func TestTemplate(t *testing.T) {
	t.Parallel()

	check := codegen.NewBuilder().Line("v, err := load(data)").CheckErr()

	b := codegen.NewBuilder()
	b.Template(`
		for _, data := range items {
			<check>
			out = append(out, <value>)
		}
	`, map[string]*codegen.Builder{
		"check": check,
		"value": codegen.NewBuilder().Line("v"),
	})

	want := strings.Join([]string{
		"for _, data := range items {",
		"\tv, err := load(data)",
		"\tif err != nil {",
		"\t\treturn nil, err",
		"\t}",
		"\tout = append(out, v)",
		"}",
	}, "\n")
	assert.Equal(t, want, b.String())
}

func TestInclude(t *testing.T) {
	t.Parallel()

	b := codegen.NewBuilder()
	b.Block("if ok", func() {
		b.Include(`
			a := 1

			b := 2
		`)
	})

	assert.Equal(t, "if ok {\n\ta := 1\n\n\tb := 2\n}", b.String())
}

func TestLiteral(t *testing.T) {
	t.Parallel()

	type named string

	tests := []struct {
		name string
		in   any
		want string
		ok   bool
	}{
		{name: "nil", in: nil, want: "nil", ok: true},
		{name: "string", in: "a\"b", want: `"a\"b"`, ok: true},
		{name: "int", in: 42, want: "42", ok: true},
		{name: "int8", in: int8(-3), want: "int8(-3)", ok: true},
		{name: "uint", in: uint(3), want: "uint(3)", ok: true},
		{name: "float", in: 2.0, want: "2.0", ok: true},
		{name: "float32", in: float32(0.5), want: "float32(0.5)", ok: true},
		{name: "bool", in: true, want: "true", ok: true},
		{name: "named", in: named("x"), ok: false},
		{name: "slice", in: []int{1}, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := codegen.Literal(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNamespace(t *testing.T) {
	t.Parallel()

	ns := codegen.NewNamespace()

	a := ns.Add("loader", 1)
	b := ns.Add("loader", 2)
	c := ns.Add("icon-id", 3)

	assert.Equal(t, "loader", a)
	assert.Equal(t, "loader_2", b)
	assert.Equal(t, "icon_id", c)
	assert.Equal(t, []string{"loader", "loader_2", "icon_id"}, ns.Names())

	v, ok := ns.Value("loader_2")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	assert.Equal(t, `"x"`, ns.Expr("value", "x"))
	assert.Equal(t, "value", ns.Expr("value", []int{1}))

	assert.Equal(t, `map[string]any{"a": x, "b": y}`, codegen.DictLiteral([]string{"a", "b"}, []string{"x", "y"}))
	assert.Equal(t, "[]any{x, y}", codegen.ListLiteral([]string{"x", "y"}))
	assert.Equal(t, "_1a", codegen.Ident("1a"))
}

func TestRender(t *testing.T) {
	t.Parallel()

	body := codegen.NewBuilder().Line("return data,nil")

	src := codegen.Render("loadPoint", "data any", "(any, error)", body, nil)
	require.NoError(t, src.Err)
	assert.True(t, src.Formatted)
	assert.Equal(t, "package generated\n\nfunc loadPoint(data any) (any, error) {\n\treturn data, nil\n}\n", string(src.Code))

	broken := codegen.Render("broken", "", "", codegen.NewBuilder().Line("return {"), nil)
	assert.False(t, broken.Formatted)
	require.Error(t, broken.Err)
	assert.Contains(t, string(broken.Code), "return {")
}

func TestHooks(t *testing.T) {
	t.Parallel()

	var acc codegen.AccumulatingHook

	hook := acc.Hook()
	hook(codegen.Render("a", "", "", codegen.NewBuilder(), nil))
	hook(codegen.Render("b", "", "", codegen.NewBuilder().Line("}"), nil))

	require.Len(t, acc.Sources(), 2)

	found, ok := acc.Find("a")
	require.True(t, ok)
	assert.True(t, found.Formatted)

	dir := t.TempDir()
	require.NoError(t, codegen.WriteSources(acc.Sources(), dir))

	_, err := os.Stat(filepath.Join(dir, "a.go"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "b.unformatted.go"))
	require.NoError(t, err)

	codegen.DirHook(filepath.Join(dir, "hooked"), nil)(found)
	_, err = os.Stat(filepath.Join(dir, "hooked", "a.go"))
	assert.NoError(t, err)
}

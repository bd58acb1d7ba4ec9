package convert_test

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retort/internal/codegen"
	"retort/internal/convert"
	"retort/internal/engine"
	"retort/internal/introspect"
	"retort/provider"
	"retort/shape"
	"retort/typing"
)

type Book struct {
	Title string
	Price int
}

type BookDTO struct {
	Title string
	Price int
}

type Src struct {
	A int
	B string
}

type Dst struct {
	A    int
	BDst string
}

type box[T any] struct {
	V T
}

type celsius float64

type Node struct {
	Value int32
	Next  *Node
}

type NodeView struct {
	Value int64
	Next  *NodeView
}

func newRetort(front ...provider.Provider) *engine.Retort {
	recipe := append([]provider.Provider{}, front...)
	recipe = append(recipe, convert.Recipe()...)
	recipe = append(recipe, introspect.ShapeProvider())

	return engine.New(recipe)
}

func produce(r *engine.Retort, src, dst typing.Expr, params ...provider.ConverterParam) (provider.Converter, error) {
	v, err := r.Produce(context.Background(), provider.ConverterRequest{Src: src, Dst: dst, Params: params})
	if err != nil {
		return nil, err
	}

	return v.(provider.Converter), nil
}

func converterOf(t *testing.T, r *engine.Retort, src, dst typing.Expr, params ...provider.ConverterParam) provider.Converter {
	t.Helper()

	conv, err := produce(r, src, dst, params...)
	require.NoError(t, err)

	return conv
}

func ptr[T any](v T) *T { return &v }

func TestConverter_SameFields(t *testing.T) {
	t.Parallel()

	conv := converterOf(t, newRetort(), typing.Of[Book](), typing.Of[BookDTO]())

	got, err := conv(Book{Title: "Dune", Price: 10}, nil)
	require.NoError(t, err)
	assert.Equal(t, BookDTO{Title: "Dune", Price: 10}, got)
}

func TestConverter_Link(t *testing.T) {
	t.Parallel()

	r := newRetort(convert.Link(provider.ExactField("B"), provider.ExactField("BDst"), nil))
	conv := converterOf(t, r, typing.Of[Src](), typing.Of[Dst]())

	got, err := conv(Src{A: 1, B: "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, Dst{A: 1, BDst: "b"}, got)
}

func TestConverter_UnlinkedRequiredField(t *testing.T) {
	t.Parallel()

	_, err := produce(newRetort(), typing.Of[Src](), typing.Of[Dst]())
	require.Error(t, err)

	var notFound *provider.ProviderNotFoundError
	require.ErrorAs(t, err, &notFound)

	msg := err.Error()
	assert.Contains(t, msg, "Linkings for some fields are not found")
	assert.Contains(t, msg, "Did you mean `B`?")
	assert.Contains(t, msg, "this is a required field")
}

func TestConverter_Coercions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     typing.Expr
		dst     typing.Expr
		in      any
		want    any
		wantErr error
	}{
		{name: "widen int", src: typing.Of[box[int32]](), dst: typing.Of[box[int64]](), in: box[int32]{V: 7}, want: box[int64]{V: 7}},
		{name: "value to pointer", src: typing.Of[box[int]](), dst: typing.Of[box[*int]](), in: box[int]{V: 5}, want: box[*int]{V: ptr(5)}},
		{name: "pointer to value", src: typing.Of[box[*int]](), dst: typing.Of[box[int]](), in: box[*int]{V: ptr(5)}, want: box[int]{V: 5}},
		{
			name: "nil pointer to value", src: typing.Of[box[*int]](), dst: typing.Of[box[int]](),
			in: box[*int]{}, wantErr: convert.ErrNilPointer,
		},
		{name: "pointer to pointer", src: typing.Of[box[*int32]](), dst: typing.Of[box[*int64]](), in: box[*int32]{V: ptr(int32(3))}, want: box[*int64]{V: ptr(int64(3))}},
		{name: "nil pointer to pointer", src: typing.Of[box[*int32]](), dst: typing.Of[box[*int64]](), in: box[*int32]{}, want: box[*int64]{}},
		{name: "slice", src: typing.Of[box[[]int32]](), dst: typing.Of[box[[]int64]](), in: box[[]int32]{V: []int32{1, 2}}, want: box[[]int64]{V: []int64{1, 2}}},
		{name: "array to slice", src: typing.Of[box[[2]int8]](), dst: typing.Of[box[[]int]](), in: box[[2]int8]{V: [2]int8{4, 5}}, want: box[[]int]{V: []int{4, 5}}},
		{
			name: "map", src: typing.Of[box[map[string]int8]](), dst: typing.Of[box[map[string]int]](),
			in: box[map[string]int8]{V: map[string]int8{"a": 1}}, want: box[map[string]int]{V: map[string]int{"a": 1}},
		},
		{name: "named float", src: typing.Of[box[celsius]](), dst: typing.Of[box[float64]](), in: box[celsius]{V: 36.6}, want: box[float64]{V: 36.6}},
		{name: "to any", src: typing.Of[box[string]](), dst: typing.Of[box[any]](), in: box[string]{V: "x"}, want: box[any]{V: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conv := converterOf(t, newRetort(), tt.src, tt.dst)

			got, err := conv(tt.in, nil)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConverter_NoCoercer(t *testing.T) {
	t.Parallel()

	_, err := produce(newRetort(), typing.Of[box[string]](), typing.Of[box[int]]())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Coercers for some linkings are not found")
}

func TestConverter_Params(t *testing.T) {
	t.Parallel()

	type order struct {
		Amount int
	}

	type priced struct {
		Amount int
		Rate   int64
	}

	conv := converterOf(t, newRetort(), typing.Of[order](), typing.Of[priced](),
		provider.ConverterParam{Name: "Rate", Type: typing.Of[int64]()})

	got, err := conv(order{Amount: 2}, []any{int64(3)})
	require.NoError(t, err)
	assert.Equal(t, priced{Amount: 2, Rate: 3}, got)

	_, err = conv(order{Amount: 2}, nil)
	require.ErrorIs(t, err, convert.ErrMissingParam)
}

func TestConverter_UnlinkedOptional(t *testing.T) {
	t.Parallel()

	type source struct {
		A int
	}

	type target struct {
		A    int
		Tag  string
		Note *string
	}

	t.Run("forbidden", func(t *testing.T) {
		t.Parallel()

		r := newRetort(convert.LinkConstant(provider.ExactField("Tag"), "fixed"))

		_, err := produce(r, typing.Of[source](), typing.Of[target]())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "AllowUnlinkedOptional")
	})

	t.Run("allowed", func(t *testing.T) {
		t.Parallel()

		r := newRetort(
			convert.LinkConstant(provider.ExactField("Tag"), "fixed"),
			convert.AllowUnlinkedOptional(provider.ExactField("Note")),
		)
		conv := converterOf(t, r, typing.Of[source](), typing.Of[target]())

		got, err := conv(source{A: 1}, nil)
		require.NoError(t, err)
		assert.Equal(t, target{A: 1, Tag: "fixed"}, got)
	})
}

func TestConverter_LinkFactory(t *testing.T) {
	t.Parallel()

	type source struct {
		A int
	}

	type target struct {
		A   int
		Seq int
	}

	next := 0
	r := newRetort(convert.LinkFactory(provider.ExactField("Seq"), func() any {
		next++

		return next
	}))
	conv := converterOf(t, r, typing.Of[source](), typing.Of[target]())

	first, err := conv(source{A: 1}, nil)
	require.NoError(t, err)

	second, err := conv(source{A: 1}, nil)
	require.NoError(t, err)

	assert.Equal(t, target{A: 1, Seq: 1}, first)
	assert.Equal(t, target{A: 1, Seq: 2}, second)
}

func TestConverter_LinkFunction(t *testing.T) {
	t.Parallel()

	type line struct {
		Qty   int
		Price int
	}

	type invoice struct {
		Total int
	}

	total := func(l line, k int) int { return l.Qty * l.Price * k }

	r := newRetort(convert.LinkFunction(shape.Func(total, "l", "k"), provider.ExactField("Total")))
	conv := converterOf(t, r, typing.Of[line](), typing.Of[invoice](),
		provider.ConverterParam{Name: "k", Type: typing.Of[int]()})

	got, err := conv(line{Qty: 2, Price: 5}, []any{3})
	require.NoError(t, err)
	assert.Equal(t, invoice{Total: 30}, got)
}

func TestConverter_LinkModel(t *testing.T) {
	t.Parallel()

	type wrapped struct {
		Inner Book
	}

	r := newRetort(convert.Link(provider.MustChecker(typing.Of[Book]()), provider.ExactField("Inner"), nil))
	conv := converterOf(t, r, typing.Of[Book](), typing.Of[wrapped]())

	got, err := conv(Book{Title: "Dune", Price: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, wrapped{Inner: Book{Title: "Dune", Price: 1}}, got)
}

func TestConverter_Recursive(t *testing.T) {
	t.Parallel()

	conv := converterOf(t, newRetort(), typing.Of[Node](), typing.Of[NodeView]())

	got, err := conv(Node{Value: 1, Next: &Node{Value: 2}}, nil)
	require.NoError(t, err)
	assert.Equal(t, NodeView{Value: 1, Next: &NodeView{Value: 2}}, got)
}

func TestConverter_ExplicitCoercer(t *testing.T) {
	t.Parallel()

	atoi := func(v any) (any, error) { return strconv.Atoi(v.(string)) }

	r := newRetort(convert.Coercer(
		provider.MustChecker(typing.Of[string]()),
		provider.MustChecker(typing.Of[int]()),
		atoi,
	))
	conv := converterOf(t, r, typing.Of[box[string]](), typing.Of[box[int]]())

	got, err := conv(box[string]{V: "42"}, nil)
	require.NoError(t, err)
	assert.Equal(t, box[int]{V: 42}, got)

	_, err = conv(box[string]{V: "x"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "converting V")
}

func TestConverter_CodeGenHook(t *testing.T) {
	t.Parallel()

	var hook codegen.AccumulatingHook

	r := newRetort(provider.Value[provider.CodeGenHookRequest](provider.AnyLoc, hook.Hook()))
	converterOf(t, r, typing.Of[box[int32]](), typing.Of[box[int64]]())

	var names []string

	for _, src := range hook.Sources() {
		assert.True(t, src.Formatted, "%s: %v\n%s", src.Name, src.Err, src.Code)
		names = append(names, src.Name)
	}

	require.Len(t, names, 2)
	assert.Equal(t, "coerce_int32_to_int64", names[0])
	assert.True(t, strings.HasPrefix(names[1], "convert_"), names[1])
}

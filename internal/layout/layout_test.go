package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retort/internal/engine"
	"retort/internal/layout"
	"retort/naming"
	"retort/provider"
	"retort/shape"
	"retort/typing"
)

type weather struct{}

type other struct{}

func inField(id string, required bool) shape.InputField {
	return shape.InputField{ID: id, Type: typing.Of[string](), IsRequired: required, Default: shape.NoDefault{}}
}

func outField(id string, def shape.Default) shape.OutputField {
	return shape.OutputField{
		ID:       id,
		Type:     typing.Of[int](),
		Default:  def,
		Accessor: shape.AttrAccessor{Name: id, Required: true},
	}
}

func newRetort(t *testing.T, mappings ...provider.Provider) *engine.Retort {
	t.Helper()

	recipe := append(mappings, layout.Provider(), layout.Defaults())

	return engine.New(recipe)
}

func mapping(t *testing.T, pred any, opts ...layout.Option) provider.Provider {
	t.Helper()

	p, err := layout.NameMapping(pred, opts...)
	require.NoError(t, err)

	return p
}

func stackOf(tp any) provider.LocStack {
	return provider.NewLocStack(provider.TypeLoc(tp))
}

func inputLayout(r *engine.Retort, tp any, fields ...shape.InputField) (layout.InputNameLayout, error) {
	v, err := r.Provide(provider.InputNameLayoutRequest{
		Stack: stackOf(tp),
		Shape: &shape.InputShape{Fields: fields},
	})
	if err != nil {
		return layout.InputNameLayout{}, err
	}

	return v.(layout.InputNameLayout), nil
}

func outputLayout(r *engine.Retort, tp any, fields ...shape.OutputField) (layout.OutputNameLayout, error) {
	v, err := r.Provide(provider.OutputNameLayoutRequest{
		Stack: stackOf(tp),
		Shape: &shape.OutputShape{Fields: fields},
	})
	if err != nil {
		return layout.OutputNameLayout{}, err
	}

	return v.(layout.OutputNameLayout), nil
}

func TestDefaultLayout(t *testing.T) {
	t.Parallel()

	r := newRetort(t)

	got, err := inputLayout(r, typing.Of[weather](), inField("ID", true), inField("IconID", true), inField("Kind_", false))
	require.NoError(t, err)

	crown, ok := got.Crown.(*layout.InpDictCrown)
	require.True(t, ok)
	assert.Equal(t, []string{"id", "icon_id", "kind"}, crown.Keys)
	assert.Equal(t, layout.InpFieldCrown{ID: "IconID"}, crown.Map["icon_id"])
	assert.Equal(t, layout.ExtraSkip, crown.ExtraPolicy)
	assert.Nil(t, got.ExtraMove)
}

func TestRename(t *testing.T) {
	t.Parallel()

	r := newRetort(t, mapping(t, typing.Of[weather](), layout.Map{"Name": "main", "IconID": "icon"}))

	fields := []shape.InputField{inField("ID", true), inField("Name", true), inField("Description", true), inField("IconID", true)}

	got, err := inputLayout(r, typing.Of[weather](), fields...)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "main", "description", "icon"}, got.Crown.(*layout.InpDictCrown).Keys)

	untouched, err := inputLayout(r, typing.Of[other](), fields...)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "description", "icon_id"}, untouched.Crown.(*layout.InpDictCrown).Keys)
}

func TestNestedPaths(t *testing.T) {
	t.Parallel()

	r := newRetort(t, mapping(t, nil, layout.Map{
		"A": []any{"outer", layout.Generated},
		"B": []string{"outer", "b2"},
		"C": layout.Generated,
	}))

	got, err := inputLayout(r, typing.Of[weather](), inField("A", true), inField("B", true), inField("C", true))
	require.NoError(t, err)

	root := got.Crown.(*layout.InpDictCrown)
	assert.Equal(t, []string{"outer", "c"}, root.Keys)

	outer := root.Map["outer"].(*layout.InpDictCrown)
	assert.Equal(t, []string{"a", "b2"}, outer.Keys)
	assert.Equal(t, []string{"A", "B", "C"}, layout.InpFields(got.Crown))
}

func TestAsListWithGaps(t *testing.T) {
	t.Parallel()

	r := newRetort(t, mapping(t, nil, layout.AsList(true)))

	got, err := inputLayout(r, typing.Of[weather](), inField("X", true), inField("Y", true))
	require.NoError(t, err)

	list := got.Crown.(*layout.InpListCrown)
	assert.Equal(t, []layout.InpCrown{layout.InpFieldCrown{ID: "X"}, layout.InpFieldCrown{ID: "Y"}}, list.Items)

	gaps := newRetort(t, mapping(t, nil, layout.Map{"X": []any{"pos", 2}}))

	out, err := outputLayout(gaps, typing.Of[weather](), outField("X", shape.NoDefault{}))
	require.NoError(t, err)

	pos := out.Crown.(*layout.OutDictCrown).Map["pos"].(*layout.OutListCrown)
	require.Len(t, pos.Items, 3)
	assert.Equal(t, layout.OutNoneCrown{Placeholder: shape.DefaultValue{}}, pos.Items[0])
	assert.Equal(t, layout.OutFieldCrown{ID: "X"}, pos.Items[2])

	empty, err := inputLayout(r, typing.Of[other]())
	require.NoError(t, err)
	assert.Equal(t, &layout.InpListCrown{}, empty.Crown)
}

func TestSkipAndOnly(t *testing.T) {
	t.Parallel()

	r := newRetort(t, mapping(t, nil, layout.Skip("B")))

	got, err := inputLayout(r, typing.Of[weather](), inField("A", true), inField("B", false))
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, layout.InpFields(got.Crown))

	_, err = inputLayout(r, typing.Of[other](), inField("A", true), inField("B", true))
	require.Error(t, err)
	assert.Contains(t, engine.Describe(err), "Required fields [B] are skipped")

	only := newRetort(t, mapping(t, nil, layout.Only("A.*")))

	out, err := outputLayout(only, typing.Of[weather](), outField("A1", nil), outField("A2", nil), outField("B", nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, layout.OutFields(out.Crown))
}

func TestInvalidStructures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		opts   []layout.Option
		fields []shape.InputField
		want   string
	}{
		{
			name:   "duplicate",
			opts:   []layout.Option{layout.Map{"A": "k", "B": "k"}},
			fields: []shape.InputField{inField("A", true), inField("B", true)},
			want:   "Some fields point to the same path",
		},
		{
			name:   "prefix",
			opts:   []layout.Option{layout.Map{"A": "k", "B": []any{"k", "sub"}}},
			fields: []shape.InputField{inField("A", true), inField("B", true)},
			want:   "must not be a prefix of another path",
		},
		{
			name:   "optional in list",
			opts:   []layout.Option{layout.AsList(true)},
			fields: []shape.InputField{inField("A", true), inField("B", false)},
			want:   "Optional fields cannot be mapped to list elements",
		},
		{
			name:   "inconsistent",
			opts:   []layout.Option{layout.Map{"A": []any{"k", 0}, "B": []any{"k", "x"}}},
			fields: []shape.InputField{inField("A", true), inField("B", true)},
			want:   "Inconsistent path elements",
		},
		{
			name:   "collect into list",
			opts:   []layout.Option{layout.AsList(true), layout.ExtraIn("Rest")},
			fields: []shape.InputField{inField("A", true), inField("Rest", false)},
			want:   "Cannot use collecting extra_in",
		},
		{
			name:   "missing target",
			opts:   []layout.Option{layout.ExtraIn([]string{"Nope"})},
			fields: []shape.InputField{inField("A", true)},
			want:   "Extra targets [Nope] are not fields",
		},
		{
			name:   "kwargs without channel",
			opts:   []layout.Option{layout.ExtraIn(layout.ExtraKwargs{})},
			fields: []shape.InputField{inField("A", true)},
			want:   "no variadic keyword parameter",
		},
		{
			name:   "bad path element",
			opts:   []layout.Option{layout.Map{"A": []any{1.5}}},
			fields: []shape.InputField{inField("A", true)},
			want:   "must be a string or an int",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newRetort(t, mapping(t, nil, tt.opts...))

			_, err := inputLayout(r, typing.Of[weather](), tt.fields...)
			require.Error(t, err)
			assert.Contains(t, engine.Describe(err), tt.want)
		})
	}
}

func TestExtraMoves(t *testing.T) {
	t.Parallel()

	r := newRetort(t, mapping(t, nil, layout.ExtraIn("Rest"), layout.ExtraOut("Rest")))

	in, err := inputLayout(r, typing.Of[weather](), inField("A", true), inField("Rest", false))
	require.NoError(t, err)
	assert.Equal(t, layout.ExtraTargets{Fields: []string{"Rest"}}, in.ExtraMove)
	assert.Equal(t, []string{"A"}, layout.InpFields(in.Crown))
	assert.Equal(t, layout.ExtraCollect, in.Crown.(*layout.InpDictCrown).ExtraPolicy)

	out, err := outputLayout(r, typing.Of[weather](), outField("A", nil), outField("Rest", nil))
	require.NoError(t, err)
	assert.Equal(t, layout.ExtraTargets{Fields: []string{"Rest"}}, out.ExtraMove)

	forbid := newRetort(t, mapping(t, nil, layout.ExtraIn(layout.ExtraForbid)))

	in, err = inputLayout(forbid, typing.Of[weather](), inField("A", true))
	require.NoError(t, err)
	assert.Nil(t, in.ExtraMove)
	assert.Equal(t, layout.ExtraForbid, in.Crown.(*layout.InpDictCrown).ExtraPolicy)

	saturate := newRetort(t, mapping(t, nil, layout.ExtraIn(layout.Saturator(func(v any, _ map[string]any) (any, error) {
		return v, nil
	}))))

	in, err = inputLayout(saturate, typing.Of[weather](), inField("A", true))
	require.NoError(t, err)
	assert.IsType(t, layout.ExtraSaturate{}, in.ExtraMove)
}

func TestOmitDefault(t *testing.T) {
	t.Parallel()

	r := newRetort(t, mapping(t, nil, layout.OmitDefault()))

	out, err := outputLayout(r, typing.Of[weather](),
		outField("Plain", shape.NoDefault{}),
		outField("Count", shape.DefaultValue{Value: 5}),
		outField("Ref", shape.DefaultValue{Value: nil}),
	)
	require.NoError(t, err)

	crown := out.Crown.(*layout.OutDictCrown)
	assert.NotContains(t, crown.Sieves, "plain")

	count := crown.Sieves["count"]
	require.NotNil(t, count)
	assert.False(t, count(nil, 5))
	assert.True(t, count(nil, 6))

	ref := crown.Sieves["ref"]
	require.NotNil(t, ref)
	assert.False(t, ref(nil, (*int)(nil)))
	assert.True(t, ref(nil, new(int)))
}

func TestPrivateAndMetadataNames(t *testing.T) {
	t.Parallel()

	r := newRetort(t)

	named := outField("IconID", nil)
	named.Metadata = map[string]string{"name": "iconURL"}

	out, err := outputLayout(r, typing.Of[weather](), outField("_secret", nil), named)
	require.NoError(t, err)
	assert.Equal(t, []string{"iconURL"}, out.Crown.(*layout.OutDictCrown).Keys)
}

func TestNameStyleAndFuncs(t *testing.T) {
	t.Parallel()

	r := newRetort(t, mapping(t, nil,
		layout.NameStyle(naming.UpperKebab),
		layout.MapWith("B", func(f provider.FieldLoc, generated any) any {
			return []any{"group", generated}
		}),
		layout.MapWhen("C", nil),
	))

	got, err := inputLayout(r, typing.Of[weather](), inField("IconID", true), inField("B", true), inField("C", false))
	require.NoError(t, err)

	root := got.Crown.(*layout.InpDictCrown)
	assert.Equal(t, []string{"ICON-ID", "group"}, root.Keys)
	assert.Equal(t, []string{"B"}, root.Map["group"].(*layout.InpDictCrown).Keys)
	assert.Equal(t, []string{"IconID", "B"}, layout.InpFields(got.Crown))
}

func TestOverlayChain(t *testing.T) {
	t.Parallel()

	r := newRetort(t,
		mapping(t, typing.Of[weather](), layout.Map{"A": "first"}),
		mapping(t, nil, layout.Map{"A": "second", "B": "also"}, layout.KeepNames()),
	)

	got, err := inputLayout(r, typing.Of[weather](), inField("A", true), inField("B", true), inField("CamelCase", true))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "also", "CamelCase"}, got.Crown.(*layout.InpDictCrown).Keys)
}

func TestNameMappingErrors(t *testing.T) {
	t.Parallel()

	_, err := layout.NameMapping(nil, layout.Skip("("))
	require.Error(t, err)
}

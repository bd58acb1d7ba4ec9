package shape

import (
	"errors"
	"reflect"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retort/typing"
)

func field(id string, required bool, def Default) InputField {
	return InputField{ID: id, Type: typing.Of[int](), Default: def, IsRequired: required}
}

func TestNewInputShape(t *testing.T) {
	tests := []struct {
		name       string
		fields     []InputField
		params     []Param
		overridden map[string]struct{}
		wantErr    error
	}{
		{
			name:   "valid mixed kinds",
			fields: []InputField{field("a", true, NoDefault{}), field("b", false, DefaultValue{1}), field("c", true, NoDefault{})},
			params: []Param{{"a", "a", PosOnly}, {"b", "b", PosOrKW}, {"c", "c", KWOnly}},
		},
		{
			name:    "duplicate field",
			fields:  []InputField{field("a", true, NoDefault{}), field("a", true, NoDefault{})},
			params:  []Param{{"a", "a", KWOnly}},
			wantErr: ErrDuplicateField,
		},
		{
			name:    "unknown param field",
			fields:  []InputField{field("a", true, NoDefault{})},
			params:  []Param{{"a", "a", KWOnly}, {"b", "b", KWOnly}},
			wantErr: ErrUnknownParamField,
		},
		{
			name:    "unbound field",
			fields:  []InputField{field("a", true, NoDefault{}), field("b", true, NoDefault{})},
			params:  []Param{{"a", "a", KWOnly}},
			wantErr: ErrUnboundField,
		},
		{
			name:    "kinds out of order",
			fields:  []InputField{field("a", true, NoDefault{}), field("b", true, NoDefault{})},
			params:  []Param{{"a", "a", KWOnly}, {"b", "b", PosOnly}},
			wantErr: ErrParamOrder,
		},
		{
			name:    "optional before required",
			fields:  []InputField{field("a", false, DefaultValue{0}), field("b", true, NoDefault{})},
			params:  []Param{{"a", "a", PosOrKW}, {"b", "b", PosOrKW}},
			wantErr: ErrOptionalBeforeReq,
		},
		{
			name:   "optional before required of other kind",
			fields: []InputField{field("a", false, DefaultValue{0}), field("b", true, NoDefault{})},
			params: []Param{{"a", "a", PosOrKW}, {"b", "b", KWOnly}},
		},
		{
			name: "self default on positional",
			fields: []InputField{
				field("a", false, DefaultFactoryWithSelf{func(any) any { return 1 }}),
			},
			params:  []Param{{"a", "a", PosOnly}},
			wantErr: ErrSelfDefaultPosOnly,
		},
		{
			name:       "unknown override",
			fields:     []InputField{field("a", true, NoDefault{})},
			params:     []Param{{"a", "a", KWOnly}},
			overridden: IDSet("z"),
			wantErr:    ErrUnknownOverride,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewInputShape(tt.fields, tt.params, nil, tt.overridden, nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Len(t, s.Fields, len(tt.fields))
		})
	}
}

func TestMaterialize(t *testing.T) {
	v, ok := Materialize(DefaultValue{Value: 3}, nil)
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	v, ok = Materialize(DefaultFactory{Factory: func() any { return []int{} }}, nil)
	assert.True(t, ok)
	assert.Equal(t, []int{}, v)

	v, ok = Materialize(DefaultFactoryWithSelf{Factory: func(self any) any { return self.(int) + 1 }}, 1)
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = Materialize(NoDefault{}, nil)
	assert.False(t, ok)
	assert.False(t, HasDefault(nil))
	assert.True(t, HasDefault(DefaultValue{}))
}

type pair struct {
	NamedTuple
	Left  int
	Right string
	inner bool
}

type account struct {
	ID    int
	Owner *person
}

type person struct{ Name string }

func (p person) Greeting() string { return "hi " + p.Name }

func (p *person) Checked() (bool, error) {
	if p.Name == "" {
		return false, errors.New("no name")
	}

	return true, nil
}

func TestAccessors(t *testing.T) {
	acc := account{ID: 7, Owner: &person{Name: "ann"}}

	tests := []struct {
		name     string
		accessor Accessor
		value    any
		want     any
		present  bool
		wantErr  bool
	}{
		{"attr", AttrAccessor{Name: "ID", Index: []int{0}, Required: true}, acc, 7, true, false},
		{"attr through pointer", AttrAccessor{Name: "Name", Index: []int{1, 0}, Required: true}, &acc, "ann", true, false},
		{"attr nil optional", AttrAccessor{Name: "Name", Index: []int{1, 0}}, account{}, nil, false, false},
		{"attr nil required", AttrAccessor{Name: "Name", Index: []int{1, 0}, Required: true}, account{}, nil, false, true},
		{"attr on map", AttrAccessor{Name: "ID", Index: []int{0}}, map[string]any{}, nil, false, true},
		{"item map", ItemAccessor{Key: "a", Required: true}, map[string]any{"a": 1}, 1, true, false},
		{"item map missing optional", ItemAccessor{Key: "b"}, map[string]any{"a": 1}, nil, false, false},
		{"item map missing required", ItemAccessor{Key: "b", Required: true}, map[string]any{}, nil, false, true},
		{"item typed map", ItemAccessor{Key: "k"}, map[string]int{"k": 2}, 2, true, false},
		{"item slice", ItemAccessor{Key: 1, Required: true}, []any{"x", "y"}, "y", true, false},
		{"item struct position", ItemAccessor{Key: 1, Required: true}, pair{Left: 1, Right: "r"}, "r", true, false},
		{"method", MethodAccessor{Name: "Greeting", Required: true}, person{Name: "bo"}, "hi bo", true, false},
		{"pointer method on value", MethodAccessor{Name: "Checked", Required: true}, person{Name: "bo"}, true, true, false},
		{"method error", MethodAccessor{Name: "Checked", Required: true}, person{}, nil, false, true},
		{"missing method", MethodAccessor{Name: "Nope", Required: true}, person{}, nil, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, present, err := tt.accessor.Access(tt.value)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.present, present)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTupleItems(t *testing.T) {
	items := TupleItems(reflect.TypeFor[pair]())
	names := make([]string, len(items))

	for i, sf := range items {
		names[i] = sf.Name
	}

	assert.Equal(t, []string{"Left", "Right"}, names)
	assert.True(t, IsNamedTuple(reflect.TypeFor[pair]()))
	assert.False(t, IsNamedTuple(reflect.TypeFor[account]()))
	assert.False(t, IsNamedTuple(reflect.TypeFor[int]()))
}

func TestFunc(t *testing.T) {
	build := func(a int, b string) (string, error) {
		if a < 0 {
			return "", errors.New("negative")
		}

		return b + strconv.Itoa(a), nil
	}

	fm := Func(build, "a", "b")
	require.NoError(t, fm.Validate())

	got, err := fm.Call([]any{int64(2), "x"})
	require.NoError(t, err)
	assert.Equal(t, "x2", got)

	_, err = fm.Call([]any{-1, "x"})
	assert.EqualError(t, err, "negative")

	_, err = fm.Call([]any{"a", "x"})
	assert.Error(t, err)

	assert.ErrorIs(t, Func(3).Validate(), ErrNotAFunction)
	assert.Error(t, Func(func() {}).Validate())
}

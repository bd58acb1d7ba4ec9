package envflag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retort/provider"
)

type testFlags struct {
	Foo    bool
	BarBaz bool

	DefaultFalse bool `envflag:"default:false"`
	DefaultTrue  bool `envflag:"default:true"`
}

type testTypes struct {
	StringDefaultFoo string              `envflag:"default:foo"`
	IntDefault5      int                 `envflag:"default:5"`
	Trail            provider.DebugTrail `envflag:"default:all"`
	Dir              string              `envflag:"name:codegen"`
}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		env     string
		want    testFlags
		wantErr string
	}{
		{name: "empty", env: "", want: testFlags{DefaultTrue: true}},
		{name: "just commas", env: ",,", want: testFlags{DefaultTrue: true}},
		{name: "set", env: ",foo,", want: testFlags{Foo: true, DefaultTrue: true}},
		{name: "two flags", env: "barbaz,Foo", want: testFlags{Foo: true, BarBaz: true, DefaultTrue: true}},
		{
			name: "toggle defaults",
			env:  "defaulttrue=0,defaultfalse=true",
			want: testFlags{DefaultFalse: true},
		},
		{
			name:    "unknown",
			env:     "other1,other2,foo",
			want:    testFlags{Foo: true, DefaultTrue: true},
			wantErr: "unknown flag \"other1\"\nunknown flag \"other2\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got testFlags

			err := Parse(&got, tt.env)
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.EqualError(t, err, tt.wantErr)
			}

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTypes(t *testing.T) {
	t.Parallel()

	defaults := testTypes{StringDefaultFoo: "foo", IntDefault5: 5, Trail: provider.DebugTrailAll}

	tests := []struct {
		name    string
		env     string
		want    testTypes
		invalid bool
		wantErr string
	}{
		{name: "defaults", env: "", want: defaults},
		{
			name: "values",
			env:  "stringdefaultfoo=bar,intdefault5=123,trail=first,codegen=/tmp/gen",
			want: testTypes{StringDefaultFoo: "bar", IntDefault5: 123, Trail: provider.DebugTrailFirst, Dir: "/tmp/gen"},
		},
		{
			name: "empty string",
			env:  "stringdefaultfoo=",
			want: testTypes{IntDefault5: 5, Trail: provider.DebugTrailAll},
		},
		{name: "empty int", env: "intdefault5=", want: defaults, invalid: true},
		{name: "bad trail", env: "trail=some", want: defaults, invalid: true},
		{
			name:    "string alone",
			env:     "stringdefaultfoo",
			want:    defaults,
			wantErr: `value needed for flag "stringdefaultfoo"`,
		},
		{name: "field name hidden", env: "dir=x", want: defaults, wantErr: `unknown flag "dir=x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got testTypes

			err := Parse(&got, tt.env)

			switch {
			case tt.invalid:
				require.ErrorIs(t, err, ErrInvalid)
			case tt.wantErr != "":
				require.EqualError(t, err, tt.wantErr)
			default:
				require.NoError(t, err)
			}

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInit(t *testing.T) {
	t.Setenv("TEST_VAR", "foo=2")

	var got testFlags

	err := Init(&got, "TEST_VAR")
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "cannot parse TEST_VAR: invalid bool value for foo")
	assert.Equal(t, testFlags{DefaultTrue: true}, got)
}

func TestUnknownTag(t *testing.T) {
	t.Parallel()

	var flags struct {
		X bool `envflag:"deprecated"`
	}

	assert.EqualError(t, Parse(&flags, ""), `unknown envflag tag "deprecated"`)
}

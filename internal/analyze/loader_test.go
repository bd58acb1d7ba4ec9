package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFuncID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want FuncID
		err  bool
	}{
		{in: "retort/shape.Func", want: FuncID{PkgPath: "retort/shape", Name: "Func"}},
		{in: "example.com/a.b/pkg.New", want: FuncID{PkgPath: "example.com/a.b/pkg", Name: "New"}},
		{in: "main.main", want: FuncID{PkgPath: "main", Name: "main"}},
		{in: "retort/shape.(*FuncModel).Call", err: true},
		{in: "retort/shape.Func.func1", err: true},
		{in: "nodot", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseFuncID(tt.in)
			if tt.err {
				require.ErrorIs(t, err, ErrNotPackageFunc)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnalyzer_ParamNames(t *testing.T) {
	analyzer := NewAnalyzer()

	names, err := analyzer.ParamNames("retort/shape.Func")
	require.NoError(t, err)
	assert.Equal(t, []string{"fn", "names"}, names)

	_, err = analyzer.ParamNames("retort/shape.Missing")
	require.ErrorIs(t, err, ErrFuncNotFound)
}

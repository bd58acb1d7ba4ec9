package naming_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retort/naming"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		in    string
		style naming.Style
		want  string
	}{
		{"IconID", naming.LowerSnake, "icon_id"},
		{"icon_id", naming.LowerSnake, "icon_id"},
		{"ID", naming.LowerSnake, "id"},
		{"icon_id", naming.CamelSnake, "icon_Id"},
		{"icon_id", naming.PascalSnake, "Icon_Id"},
		{"IconID", naming.UpperSnake, "ICON_ID"},
		{"icon_id", naming.LowerKebab, "icon-id"},
		{"icon_id", naming.CamelKebab, "icon-Id"},
		{"icon_id", naming.PascalKebab, "Icon-Id"},
		{"icon_id", naming.UpperKebab, "ICON-ID"},
		{"IconID", naming.Lower, "iconid"},
		{"icon_id", naming.Camel, "iconId"},
		{"XMLParser", naming.Camel, "xmlParser"},
		{"icon_id", naming.Pascal, "IconId"},
		{"icon_id", naming.Upper, "ICONID"},
		{"icon_id", naming.LowerDot, "icon.id"},
		{"icon_id", naming.CamelDot, "icon.Id"},
		{"icon_id", naming.PascalDot, "Icon.Id"},
		{"icon_id", naming.UpperDot, "ICON.ID"},
		{"_private_", naming.Camel, "_private_"},
		{"__meta_data", naming.Pascal, "__MetaData"},
	}

	for _, tt := range tests {
		t.Run(tt.in+"/"+tt.style.String(), func(t *testing.T) {
			got, err := naming.Convert(tt.in, tt.style)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStyle(t *testing.T) {
	for _, s := range naming.Styles() {
		parsed, err := naming.ParseStyle(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	s, err := naming.ParseStyle("CamelCase")
	require.NoError(t, err)
	assert.Equal(t, naming.Camel, s)

	s, err = naming.ParseStyle("snake")
	require.NoError(t, err)
	assert.Equal(t, naming.LowerSnake, s)

	_, err = naming.ParseStyle("zigzag")
	assert.Error(t, err)

	var u naming.Style
	require.NoError(t, u.UnmarshalText([]byte("upper-kebab")))
	assert.Equal(t, naming.UpperKebab, u)
}

func ExampleConvert() {
	for _, style := range []naming.Style{naming.LowerSnake, naming.Camel, naming.UpperKebab} {
		fmt.Println(naming.MustConvert("IconID", style))
	}
	// Output:
	// icon_id
	// iconId
	// ICON-ID
}

package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retort"
	"retort/codec"
	"retort/loaderr"
)

type Point struct {
	X int
	Y int
}

type Reading struct {
	Sensor string
	Value  float64
	Tags   []string
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()

	r := retort.New()

	got, err := codec.Load[Point](r, codec.JSON(), []byte(`{"x": 1, "y": 9007199254740993}`))
	require.NoError(t, err)
	assert.Equal(t, Point{X: 1, Y: 9007199254740993}, got)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	r := retort.New()
	in := Reading{Sensor: "t1", Value: 21.5, Tags: []string{"a", "b"}}

	for _, c := range []codec.Codec{codec.JSON(), codec.YAML(), codec.MsgPack()} {
		t.Run(c.ContentType(), func(t *testing.T) {
			t.Parallel()

			data, err := codec.Dump(r, c, in)
			require.NoError(t, err)

			out, err := codec.Load[Reading](r, c, data)
			require.NoError(t, err)
			assert.Equal(t, in, out)
		})
	}
}

func TestDumpYAML(t *testing.T) {
	t.Parallel()

	r := retort.New()

	data, err := codec.DumpAs(r, codec.YAML(), Reading{Sensor: "t1", Value: 1.5})
	require.NoError(t, err)
	assert.Equal(t, "sensor: t1\ntags: []\nvalue: 1.5\n", string(data))

	// "y" reads as a boolean in YAML 1.1, so the key is quoted
	data, err = codec.DumpAs(r, codec.YAML(), Point{X: 1, Y: 2})
	require.NoError(t, err)
	assert.Equal(t, "x: 1\n\"y\": 2\n", string(data))

	got, err := codec.Load[Point](r, codec.YAML(), data)
	require.NoError(t, err)
	assert.Equal(t, Point{X: 1, Y: 2}, got)
}

func TestErrors(t *testing.T) {
	t.Parallel()

	r := retort.New()

	_, err := codec.Load[Point](r, codec.JSON(), []byte(`{"x": 1`))
	require.ErrorIs(t, err, codec.ErrUnmarshal)

	var ce *codec.CodecError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "application/json", ce.ContentType)

	_, err = codec.Load[Point](r, codec.JSON(), []byte(`{"x": 1} {}`))
	require.ErrorIs(t, err, codec.ErrUnmarshal)

	_, err = codec.Load[Point](r, codec.JSON(), []byte(`{"x": "1", "y": 2}`))
	require.Error(t, err)
	assert.True(t, loaderr.IsLoadError(err))

	_, err = codec.Encode(codec.JSON(), map[string]any{"ch": make(chan int)})
	require.ErrorIs(t, err, codec.ErrMarshal)
}

package qrcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasetyowira/qrserve/domain/render"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelL, ParseLevel("L"))
	assert.Equal(t, LevelM, ParseLevel("m"))
	assert.Equal(t, LevelQ, ParseLevel("Q"))
	assert.Equal(t, LevelH, ParseLevel("h"))
	assert.Equal(t, LevelM, ParseLevel(""))
	assert.Equal(t, LevelM, ParseLevel("X"))
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, LevelM, LevelFor(LevelM, false))
	assert.Equal(t, LevelL, LevelFor(LevelL, false))
	// Logo presence always wins.
	assert.Equal(t, LevelH, LevelFor(LevelL, true))
	assert.Equal(t, LevelH, LevelFor(LevelH, true))
}

func TestEncodeProducesSquareMatrix(t *testing.T) {
	m, err := Encode("https://example.com", LevelM)

	require.NoError(t, err)
	side := m.Side()
	// Smallest symbol is version 1 at 21 modules; sides step by 4.
	assert.GreaterOrEqual(t, side, 21)
	assert.Equal(t, 1, side%4)
	for _, row := range m {
		assert.Len(t, row, side)
	}
}

func TestEncodeEmptyTextFails(t *testing.T) {
	_, err := Encode("", LevelM)
	assert.Error(t, err)
}

func TestEncodeRenderDecodeRoundTrip(t *testing.T) {
	const text = "HELLO"

	m, err := Encode(text, LevelH)
	require.NoError(t, err)

	out, err := render.Render(m, render.Options{
		Size:       256,
		Foreground: render.Color{0, 0, 0, 255},
		Background: render.Color{255, 255, 255, 255},
		Style:      render.StyleSquare,
	}, nil, render.FormatPNG)
	require.NoError(t, err)

	decoded, err := Decode(out.Data)
	require.NoError(t, err)
	assert.Equal(t, text, decoded)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not an image"))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestDecodeNoSymbol(t *testing.T) {
	// A blank render decodes to nothing: quiet zone only.
	out, err := render.Render(render.Matrix{}, render.Options{
		Size:       128,
		Foreground: render.Color{0, 0, 0, 255},
		Background: render.Color{255, 255, 255, 255},
	}, nil, render.FormatPNG)
	require.NoError(t, err)

	_, err = Decode(out.Data)
	assert.ErrorIs(t, err, ErrDecode)
}

package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Color
		wantErr bool
	}{
		{name: "opaque red", input: "#FF0000", want: Color{255, 0, 0, 255}},
		{name: "red with alpha", input: "#FF000080", want: Color{255, 0, 0, 128}},
		{name: "lowercase", input: "#a1b2c3", want: Color{161, 178, 195, 255}},
		{name: "no hash prefix", input: "00FF00", want: Color{0, 255, 0, 255}},
		{name: "surrounding whitespace", input: " #000000 ", want: Color{0, 0, 0, 255}},
		{name: "non-hex digits", input: "#GGGGGG", wantErr: true},
		{name: "too short", input: "#12", wantErr: true},
		{name: "seven digits", input: "#1234567", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseColor(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidColor)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColorHex(t *testing.T) {
	assert.Equal(t, "#ff0000", Color{255, 0, 0, 255}.Hex())
	// Alpha never leaks into the hex form.
	assert.Equal(t, "#0a0b0c", Color{10, 11, 12, 17}.Hex())
}

func TestParseStyle(t *testing.T) {
	assert.Equal(t, StyleSquare, ParseStyle("square"))
	assert.Equal(t, StyleRounded, ParseStyle("Rounded"))
	assert.Equal(t, StyleDots, ParseStyle("DOTS"))
	assert.Equal(t, StyleSquare, ParseStyle(""))
	assert.Equal(t, StyleSquare, ParseStyle("hexagons"))
}

func TestMatrixDarkOutOfBounds(t *testing.T) {
	m := Matrix{{true}}

	assert.True(t, m.Dark(0, 0))
	assert.False(t, m.Dark(-1, 0))
	assert.False(t, m.Dark(0, -1))
	assert.False(t, m.Dark(1, 0))
	assert.False(t, m.Dark(0, 1))
}

func TestNeighborsAt(t *testing.T) {
	// Vertical 3x1 run in the middle column.
	m := Matrix{
		{false, true, false},
		{false, true, false},
		{false, true, false},
	}

	mid := m.NeighborsAt(1, 1)
	assert.Equal(t, Neighbors{Top: true, Bottom: true}, mid)

	top := m.NeighborsAt(1, 0)
	assert.Equal(t, Neighbors{Bottom: true}, top)
}

func TestRoundedCornersIsolatedModule(t *testing.T) {
	m := Matrix{
		{false, false, false},
		{false, true, false},
		{false, false, false},
	}

	c := roundedCorners(m.NeighborsAt(1, 1))

	assert.Equal(t, Corners{TL: true, TR: true, BL: true, BR: true}, c)
}

func TestRoundedCornersHorizontalPair(t *testing.T) {
	// Two dark modules side by side: the shared vertical edge must stay
	// sharp on both, outer corners stay rounded.
	m := Matrix{
		{false, false, false, false},
		{false, true, true, false},
		{false, false, false, false},
	}

	left := roundedCorners(m.NeighborsAt(1, 1))
	right := roundedCorners(m.NeighborsAt(2, 1))

	assert.Equal(t, Corners{TL: true, BL: true}, left)
	assert.Equal(t, Corners{TR: true, BR: true}, right)
}

func TestLayoutFor(t *testing.T) {
	lay := layoutFor(21, 256)

	assert.Equal(t, 29, lay.total)
	assert.Equal(t, 8, lay.moduleSize)
	assert.Equal(t, 232, lay.actual)
	assert.Equal(t, lay.moduleSize*lay.total, lay.actual)
}

func TestLayoutForTinyTarget(t *testing.T) {
	// Module size never drops below one pixel, even when the target is
	// smaller than the module count.
	lay := layoutFor(21, 10)

	assert.Equal(t, 1, lay.moduleSize)
	assert.Equal(t, 29, lay.actual)
}

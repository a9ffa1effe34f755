package render

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"strings"
)

// QuietZone is the width of the light border added around the symbol, in
// modules, on every side. It is fixed by the QR spec and not configurable.
const QuietZone = 4

// Style selects the module shape.
type Style int

const (
	StyleSquare Style = iota
	StyleRounded
	StyleDots
)

// ParseStyle maps a style name to a Style, case-insensitively. Unknown or
// empty names fall back to StyleSquare.
func ParseStyle(s string) Style {
	switch strings.ToLower(s) {
	case "rounded":
		return StyleRounded
	case "dots":
		return StyleDots
	default:
		return StyleSquare
	}
}

// String returns the lowercase style name.
func (s Style) String() string {
	switch s {
	case StyleRounded:
		return "rounded"
	case StyleDots:
		return "dots"
	default:
		return "square"
	}
}

// Matrix is a square grid of QR modules, true meaning dark. It comes from
// the encoder without a quiet zone; the renderer adds its own. The engine
// never mutates it.
type Matrix [][]bool

// Side returns the matrix edge length in modules.
func (m Matrix) Side() int {
	return len(m)
}

// Dark reports whether the module at (x, y) is dark. Out-of-range
// coordinates read as light, so matrix edges never contribute neighbors.
func (m Matrix) Dark(x, y int) bool {
	if y < 0 || y >= len(m) {
		return false
	}
	row := m[y]
	if x < 0 || x >= len(row) {
		return false
	}
	return row[x]
}

// Neighbors holds the darkness flags of the four orthogonally adjacent
// modules. Diagonals do not count.
type Neighbors struct {
	Top    bool
	Right  bool
	Bottom bool
	Left   bool
}

// NeighborsAt samples the four modules around (x, y).
func (m Matrix) NeighborsAt(x, y int) Neighbors {
	return Neighbors{
		Top:    m.Dark(x, y-1),
		Right:  m.Dark(x+1, y),
		Bottom: m.Dark(x, y+1),
		Left:   m.Dark(x-1, y),
	}
}

// Corners flags which corners of a module are drawn rounded.
type Corners struct {
	TL bool
	TR bool
	BL bool
	BR bool
}

// roundedCorners decides rounding per corner: a corner is rounded only when
// BOTH of its adjacent edges have no dark neighbor. All three backends
// route their corner decisions through here so connected runs of modules
// keep straight shared edges in every output format.
func roundedCorners(n Neighbors) Corners {
	return Corners{
		TL: !n.Top && !n.Left,
		TR: !n.Top && !n.Right,
		BL: !n.Bottom && !n.Left,
		BR: !n.Bottom && !n.Right,
	}
}

// Color is a non-premultiplied RGBA value.
type Color [4]uint8

// ParseColor parses "#RRGGBB" or "#RRGGBBAA", case-insensitive, with the
// leading '#' optional. A missing alpha component means fully opaque. Any
// other length or a non-hex digit fails with ErrInvalidColor.
func ParseColor(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	raw, err := hex.DecodeString(h)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	c := Color{0, 0, 0, 255}
	copy(c[:], raw)
	return c, nil
}

// NRGBA converts to the stdlib non-premultiplied color type.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c[0], G: c[1], B: c[2], A: c[3]}
}

// Hex returns the color as lowercase "#rrggbb". Alpha is dropped; the
// vector backends emit colors in this form.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// layout fixes the integer pixel geometry for raster output.
type layout struct {
	moduleSize int // pixels per module, never below 1
	total      int // matrix side plus both quiet zones, in modules
	actual     int // output edge length in pixels, moduleSize*total
}

// layoutFor divides the target edge among side+2*QuietZone modules. The
// module size is floored to whole pixels, so the output may undershoot the
// target; it is shrunk rather than distorted.
func layoutFor(side, targetSize int) layout {
	total := side + 2*QuietZone
	ms := targetSize / total
	if ms < 1 {
		ms = 1
	}
	return layout{moduleSize: ms, total: total, actual: ms * total}
}

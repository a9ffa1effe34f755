package render

import (
	"fmt"
	"strings"
)

// renderSVG traces the matrix as an SVG document. Geometry is float math
// against the exact target size, so unlike PNG the viewport never
// undershoots. Coordinates are printed with two decimals and colors as
// lowercase #rrggbb.
func renderSVG(m Matrix, opts Options) string {
	total := m.Side() + 2*QuietZone
	ms := float64(opts.Size) / float64(total)
	fgHex := opts.Foreground.Hex()
	bgHex := opts.Background.Hex()

	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" width=\"%d\" height=\"%d\">\n",
		opts.Size, opts.Size, opts.Size, opts.Size)
	fmt.Fprintf(&b, "<rect width=\"%d\" height=\"%d\" fill=\"%s\"/>\n", opts.Size, opts.Size, bgHex)

	side := m.Side()
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			if !m.Dark(x, y) {
				continue
			}
			px := float64(x+QuietZone) * ms
			py := float64(y+QuietZone) * ms

			switch opts.Style {
			case StyleDots:
				fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"%s\"/>",
					px+ms/2, py+ms/2, ms/2, fgHex)
			case StyleRounded:
				corners := roundedCorners(m.NeighborsAt(x, y))
				b.WriteString(svgRoundedRect(px, py, ms, ms, ms*0.35, fgHex, corners))
			default:
				fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\"/>",
					px, py, ms, ms, fgHex)
			}
			b.WriteByte('\n')
		}
	}

	b.WriteString("</svg>")
	return b.String()
}

// svgRoundedRect emits a module with selectively rounded corners. Corners
// that stay sharp get a zero radius; when every corner is sharp the shape
// collapses to a plain <rect>.
func svgRoundedRect(x, y, w, h, r float64, fill string, c Corners) string {
	var tl, tr, bl, br float64
	if c.TL {
		tl = r
	}
	if c.TR {
		tr = r
	}
	if c.BL {
		bl = r
	}
	if c.BR {
		br = r
	}

	if tl == 0 && tr == 0 && bl == 0 && br == 0 {
		return fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\"/>",
			x, y, w, h, fill)
	}

	// Clockwise from the end of the top-left radius, one quadratic Bezier
	// per corner.
	return fmt.Sprintf("<path d=\"M%.2f,%.2f L%.2f,%.2f Q%.2f,%.2f %.2f,%.2f L%.2f,%.2f Q%.2f,%.2f %.2f,%.2f L%.2f,%.2f Q%.2f,%.2f %.2f,%.2f L%.2f,%.2f Q%.2f,%.2f %.2f,%.2f Z\" fill=\"%s\"/>",
		x+tl, y,
		x+w-tr, y,
		x+w, y, x+w, y+tr,
		x+w, y+h-br,
		x+w, y+h, x+w-br, y+h,
		x+bl, y+h,
		x, y+h, x, y+h-bl,
		x, y+tl,
		x, y, x+tl, y,
		fill)
}

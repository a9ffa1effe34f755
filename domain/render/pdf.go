package render

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// pdfCreationDate is pinned so identical inputs produce byte-identical
// documents; a wall-clock creation date would leak into the file header.
var pdfCreationDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// pdfCanvas draws in PDF page space, origin at the bottom-left with Y
// growing upward, and converts to the library's top-left device space at
// the emit boundary.
type pdfCanvas struct {
	pdf      *gofpdf.Fpdf
	pageSize float64
}

func (c *pdfCanvas) fillRect(x, y, w, h float64) {
	c.pdf.Rect(x, c.pageSize-y-h, w, h, "F")
}

func (c *pdfCanvas) fillPolygon(pts []gofpdf.PointType) {
	dev := make([]gofpdf.PointType, len(pts))
	for i, p := range pts {
		dev[i] = gofpdf.PointType{X: p.X, Y: c.pageSize - p.Y}
	}
	c.pdf.Polygon(dev, "F")
}

// renderPDF traces the matrix as vector graphics on a single square page.
// Options.Size is the page edge in points. Fill colors are RGB; the alpha
// channel is dropped in this format.
func renderPDF(m Matrix, opts Options) ([]byte, error) {
	total := m.Side() + 2*QuietZone
	pageSize := float64(opts.Size)
	ms := pageSize / float64(total)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: pageSize, Ht: pageSize},
	})
	pdf.SetCreationDate(pdfCreationDate)
	pdf.AddPage()

	canvas := &pdfCanvas{pdf: pdf, pageSize: pageSize}

	bg := opts.Background
	pdf.SetFillColor(int(bg[0]), int(bg[1]), int(bg[2]))
	canvas.fillRect(0, 0, pageSize, pageSize)

	fg := opts.Foreground
	pdf.SetFillColor(int(fg[0]), int(fg[1]), int(fg[2]))

	side := m.Side()
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			if !m.Dark(x, y) {
				continue
			}
			px := float64(x+QuietZone) * ms
			// Page space runs bottom-up while the grid runs top-down, so
			// the module's bottom edge sits one row further down.
			py := pageSize - float64(y+QuietZone+1)*ms

			switch opts.Style {
			case StyleDots:
				canvas.fillPolygon(pdfCirclePoints(px+ms/2, py+ms/2, ms/2))
			case StyleRounded:
				corners := roundedCorners(m.NeighborsAt(x, y))
				canvas.fillPolygon(pdfRoundedRectPoints(px, py, ms, ms, ms*0.35, corners))
			default:
				canvas.fillRect(px, py, ms, ms)
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: pdf: %v", ErrEncodingFailed, err)
	}
	return buf.Bytes(), nil
}

// pdfCirclePoints approximates the inscribed circle with a 24-gon.
func pdfCirclePoints(cx, cy, r float64) []gofpdf.PointType {
	const segments = 24
	pts := make([]gofpdf.PointType, 0, segments)
	for i := 0; i < segments; i++ {
		angle := 2 * math.Pi * float64(i) / segments
		pts = append(pts, gofpdf.PointType{X: cx + r*math.Cos(angle), Y: cy + r*math.Sin(angle)})
	}
	return pts
}

// pdfRoundedRectPoints builds a module outline with selectively rounded
// corners, each arc approximated by eight segments. The vertical flip in
// module placement cancels for whole modules, so grid corner flags apply
// to page-space corners unchanged.
func pdfRoundedRectPoints(x, y, w, h, r float64, c Corners) []gofpdf.PointType {
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

	const arcSegments = 8
	pts := make([]gofpdf.PointType, 0, 4*(arcSegments+1))
	arc := func(cx, cy, radius, start float64) {
		for i := 0; i <= arcSegments; i++ {
			angle := start + (math.Pi/2)*float64(i)/arcSegments
			pts = append(pts, gofpdf.PointType{X: cx + radius*math.Cos(angle), Y: cy + radius*math.Sin(angle)})
		}
	}

	// Walk counter-clockwise in page space starting at the bottom-left.
	if bl > 0 {
		arc(x+bl, y+bl, bl, math.Pi)
	} else {
		pts = append(pts, gofpdf.PointType{X: x, Y: y})
	}
	if br > 0 {
		arc(x+w-br, y+br, br, 3*math.Pi/2)
	} else {
		pts = append(pts, gofpdf.PointType{X: x + w, Y: y})
	}
	if tr > 0 {
		arc(x+w-tr, y+h-tr, tr, 0)
	} else {
		pts = append(pts, gofpdf.PointType{X: x + w, Y: y + h})
	}
	if tl > 0 {
		arc(x+tl, y+h-tl, tl, math.Pi/2)
	} else {
		pts = append(pts, gofpdf.PointType{X: x, Y: y + h})
	}
	return pts
}

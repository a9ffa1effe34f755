package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// renderPNG rasterizes the matrix onto a non-premultiplied RGBA canvas and
// encodes it as PNG. Module pixels overwrite the background verbatim, so a
// translucent foreground stays translucent instead of blending.
func renderPNG(m Matrix, opts Options) ([]byte, error) {
	lay := layoutFor(m.Side(), opts.Size)
	img := image.NewNRGBA(image.Rect(0, 0, lay.actual, lay.actual))
	fillCanvas(img, opts.Background)

	fg := opts.Foreground.NRGBA()
	side := m.Side()
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			if !m.Dark(x, y) {
				continue
			}
			px := (x + QuietZone) * lay.moduleSize
			py := (y + QuietZone) * lay.moduleSize

			switch opts.Style {
			case StyleDots:
				drawDotModule(img, px, py, lay.moduleSize, fg)
			case StyleRounded:
				corners := roundedCorners(m.NeighborsAt(x, y))
				drawRoundedModule(img, px, py, lay.moduleSize, fg, corners)
			default:
				drawSquareModule(img, px, py, lay.moduleSize, fg)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: png: %v", ErrEncodingFailed, err)
	}
	return buf.Bytes(), nil
}

// fillCanvas floods the whole image with one color, alpha included.
func fillCanvas(img *image.NRGBA, c Color) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return
	}
	row := img.Pix[:4*w]
	for x := 0; x < w; x++ {
		i := 4 * x
		row[i] = c[0]
		row[i+1] = c[1]
		row[i+2] = c[2]
		row[i+3] = c[3]
	}
	for y := 1; y < h; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+4*w], row)
	}
}

func drawSquareModule(img *image.NRGBA, px, py, size int, c color.NRGBA) {
	for iy := py; iy < py+size; iy++ {
		for ix := px; ix < px+size; ix++ {
			img.SetNRGBA(ix, iy, c)
		}
	}
}

// drawDotModule fills the circle inscribed in the module cell. Distances
// are measured from pixel centers for smoother edges.
func drawDotModule(img *image.NRGBA, px, py, size int, c color.NRGBA) {
	cx := float64(px) + float64(size)/2
	cy := float64(py) + float64(size)/2
	r := float64(size) / 2
	rSq := r * r

	for iy := py; iy < py+size; iy++ {
		for ix := px; ix < px+size; ix++ {
			dx := float64(ix) + 0.5 - cx
			dy := float64(iy) + 0.5 - cy
			if dx*dx+dy*dy <= rSq {
				img.SetNRGBA(ix, iy, c)
			}
		}
	}
}

// drawRoundedModule fills the module square, carving off each rounded
// corner outside its quarter-circle. The corner radius is 35% of the
// module, with a one pixel floor so tiny modules still show the shape.
func drawRoundedModule(img *image.NRGBA, px, py, size int, c color.NRGBA, corners Corners) {
	radius := float64(size) * 0.35
	if radius < 1.0 {
		radius = 1.0
	}
	rSq := radius * radius

	for dy := 0; dy < size; dy++ {
		for dx := 0; dx < size; dx++ {
			ix := px + dx
			iy := py + dy

			fx := float64(dx)
			fy := float64(dy)
			inTL := fx <= radius && fy <= radius
			inTR := float64(size-1-dx) <= radius && fy <= radius
			inBL := fx <= radius && float64(size-1-dy) <= radius
			inBR := float64(size-1-dx) <= radius && float64(size-1-dy) <= radius

			draw := true
			if corners.TL && inTL {
				draw = inCornerCircle(ix, iy, float64(px)+radius, float64(py)+radius, rSq)
			}
			if draw && corners.TR && inTR {
				draw = inCornerCircle(ix, iy, float64(px+size)-radius, float64(py)+radius, rSq)
			}
			if draw && corners.BL && inBL {
				draw = inCornerCircle(ix, iy, float64(px)+radius, float64(py+size)-radius, rSq)
			}
			if draw && corners.BR && inBR {
				draw = inCornerCircle(ix, iy, float64(px+size)-radius, float64(py+size)-radius, rSq)
			}

			if draw {
				img.SetNRGBA(ix, iy, c)
			}
		}
	}
}

// inCornerCircle reports whether the pixel center lies within the rounding
// circle centered at (cx, cy).
func inCornerCircle(ix, iy int, cx, cy, rSq float64) bool {
	dx := float64(ix) + 0.5 - cx
	dy := float64(iy) + 0.5 - cy
	return dx*dx+dy*dy <= rSq
}

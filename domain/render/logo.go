package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"

	"github.com/disintegration/imaging"

	// Logos arrive in whatever format the caller has on hand; webp shows
	// up often enough to register its decoder alongside the stdlib ones.
	_ "golang.org/x/image/webp"
)

// Fraction of the logo edge reserved as padding around it, and of the
// backdrop edge used as its corner radius. Shared by the PNG and SVG
// paths so both formats place the same backdrop.
const logoPadRatio = 0.15

// DecodeLogoPayload turns a caller-supplied logo string into raw image
// bytes. The string is standard base64, optionally wrapped in a
// "data:<mime>;base64," URI prefix which is stripped before decoding.
func DecodeLogoPayload(payload string) ([]byte, error) {
	b64 := payload
	if comma := strings.Index(payload, ","); comma >= 0 && strings.HasPrefix(payload, "data:") {
		b64 = payload[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrLogoDecode, err)
	}
	return data, nil
}

// clampPercent keeps the logo between 5% and 40% of the symbol. Above
// that the symbol loses too many modules to stay decodable even at the
// highest error-correction level.
func clampPercent(pct int) int {
	if pct < 5 {
		return 5
	}
	if pct > 40 {
		return 40
	}
	return pct
}

// overlayLogoPNG composites the logo onto the center of an encoded QR
// PNG. The logo is resized to the requested percentage of the symbol
// edge and drawn over a rounded backdrop in the background color, so it
// stays legible against dark modules.
func overlayLogoPNG(qrPNG []byte, logo *Logo, background Color) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(qrPNG))
	if err != nil {
		return nil, fmt.Errorf("%w: png: %v", ErrEncodingFailed, err)
	}
	canvas := toNRGBA(src)

	logoImg, err := imaging.Decode(bytes.NewReader(logo.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLogoDecode, err)
	}

	qrW := canvas.Rect.Dx()
	qrH := canvas.Rect.Dy()
	qrSide := qrW
	if qrH < qrSide {
		qrSide = qrH
	}

	pct := clampPercent(logo.SizePercent)
	target := qrSide * pct / 100

	lw := logoImg.Bounds().Dx()
	lh := logoImg.Bounds().Dy()
	if lw == 0 || lh == 0 {
		return nil, fmt.Errorf("%w: empty logo image", ErrLogoDecode)
	}
	scale := math.Min(float64(target)/float64(lw), float64(target)/float64(lh))
	newW := int(math.Round(float64(lw) * scale))
	newH := int(math.Round(float64(lh) * scale))
	resized := imaging.Resize(logoImg, newW, newH, imaging.Lanczos)

	larger := newW
	if newH > larger {
		larger = newH
	}
	padding := int(math.Round(float64(larger) * logoPadRatio))
	bgW := newW + padding*2
	bgH := newH + padding*2
	bgX := (qrW - bgW) / 2
	bgY := (qrH - bgH) / 2
	logoX := (qrW - newW) / 2
	logoY := (qrH - newH) / 2

	smaller := bgW
	if bgH < smaller {
		smaller = bgH
	}
	cornerR := math.Round(float64(smaller) * logoPadRatio)

	bg := background.NRGBA()
	for dy := 0; dy < bgH; dy++ {
		for dx := 0; dx < bgW; dx++ {
			ix := bgX + dx
			iy := bgY + dy
			if ix < 0 || iy < 0 || ix >= qrW || iy >= qrH {
				continue
			}
			if insideRoundedRect(dx, dy, bgW, bgH, cornerR) {
				canvas.SetNRGBA(ix, iy, bg)
			}
		}
	}

	logoNRGBA := toNRGBA(resized)
	for ly := 0; ly < newH; ly++ {
		for lx := 0; lx < newW; lx++ {
			ix := logoX + lx
			iy := logoY + ly
			if ix < 0 || iy < 0 || ix >= qrW || iy >= qrH {
				continue
			}
			blended := blendOver(canvas.NRGBAAt(ix, iy), logoNRGBA.NRGBAAt(lx, ly))
			canvas.SetNRGBA(ix, iy, blended)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("%w: png: %v", ErrEncodingFailed, err)
	}
	return buf.Bytes(), nil
}

// blendOver applies source-over compositing of fg onto bg with
// non-premultiplied alpha. A zero combined alpha yields transparent
// black rather than dividing by zero.
func blendOver(bg, fg color.NRGBA) color.NRGBA {
	fa := float64(fg.A) / 255.0
	ba := float64(bg.A) / 255.0
	outA := fa + ba*(1.0-fa)
	if outA == 0 {
		return color.NRGBA{}
	}
	blend := func(f, b uint8) uint8 {
		v := (float64(f)*fa + float64(b)*ba*(1.0-fa)) / outA
		return uint8(math.Round(v))
	}
	return color.NRGBA{
		R: blend(fg.R, bg.R),
		G: blend(fg.G, bg.G),
		B: blend(fg.B, bg.B),
		A: uint8(math.Round(outA * 255.0)),
	}
}

// insideRoundedRect reports whether a point of a w x h box lies inside
// the box once its corners are rounded with radius r.
func insideRoundedRect(x, y, w, h int, r float64) bool {
	fx := float64(x)
	fy := float64(y)
	fw := float64(w)
	fh := float64(h)

	var cx, cy float64
	switch {
	case fx < r && fy < r:
		cx, cy = r, r
	case fx > fw-1-r && fy < r:
		cx, cy = fw-1-r, r
	case fx < r && fy > fh-1-r:
		cx, cy = r, fh-1-r
	case fx > fw-1-r && fy > fh-1-r:
		cx, cy = fw-1-r, fh-1-r
	default:
		return true
	}

	dx := fx - cx
	dy := fy - cy
	return dx*dx+dy*dy <= r*r
}

// toNRGBA converts any decoded image to a non-premultiplied RGBA buffer.
func toNRGBA(src image.Image) *image.NRGBA {
	if img, ok := src.(*image.NRGBA); ok {
		return img
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x-b.Min.X, y-b.Min.Y, src.At(x, y))
		}
	}
	return dst
}

// sniffLogoMIME guesses the logo content type from its magic bytes. The
// SVG overlay embeds the logo as a data URI, so the type only needs to
// be right enough for browsers to pick a decoder.
func sniffLogoMIME(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47}):
		return "image/png"
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8}):
		return "image/jpeg"
	case bytes.HasPrefix(data, []byte("<svg")) || bytes.HasPrefix(data, []byte("<?xml")):
		return "image/svg+xml"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "image/gif"
	case bytes.HasPrefix(data, []byte("RIFF")):
		return "image/webp"
	default:
		return "image/png"
	}
}

// embedLogoSVG inserts a centered logo into a rendered SVG document: a
// rounded backdrop rect in the background color followed by an <image>
// referencing the logo as a base64 data URI, placed just before the
// closing tag. Geometry mirrors the raster path on the viewport size.
func embedLogoSVG(doc string, logo *Logo, opts Options) (string, error) {
	if len(logo.Data) == 0 {
		return "", fmt.Errorf("%w: empty logo payload", ErrLogoDecode)
	}

	size := float64(opts.Size)
	pct := float64(clampPercent(logo.SizePercent))
	logoSize := size * pct / 100.0
	padding := logoSize * logoPadRatio
	bgSize := logoSize + padding*2
	bgX := (size - bgSize) / 2
	bgY := (size - bgSize) / 2
	logoX := (size - logoSize) / 2
	logoY := (size - logoSize) / 2
	cornerR := bgSize * logoPadRatio

	dataURI := fmt.Sprintf("data:%s;base64,%s",
		sniffLogoMIME(logo.Data), base64.StdEncoding.EncodeToString(logo.Data))

	overlay := fmt.Sprintf(
		"<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" rx=\"%.2f\" ry=\"%.2f\" fill=\"%s\"/>\n"+
			"<image x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" href=\"%s\"/>\n",
		bgX, bgY, bgSize, bgSize, cornerR, cornerR, opts.Background.Hex(),
		logoX, logoY, logoSize, logoSize, dataURI)

	pos := strings.LastIndex(doc, "</svg>")
	if pos < 0 {
		return "", fmt.Errorf("%w: svg: missing closing tag", ErrEncodingFailed)
	}
	return doc[:pos] + overlay + doc[pos:], nil
}

package render

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// logoPNG encodes a small solid-color PNG to act as a logo payload.
func logoPNG(t *testing.T, c color.NRGBA, size int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeLogoPayload(t *testing.T) {
	raw := []byte("logo-bytes")
	b64 := base64.StdEncoding.EncodeToString(raw)

	got, err := DecodeLogoPayload(b64)
	assert.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = DecodeLogoPayload("data:image/png;base64," + b64)
	assert.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = DecodeLogoPayload("  " + b64 + "\n")
	assert.NoError(t, err)
	assert.Equal(t, raw, got)

	_, err = DecodeLogoPayload("not!!valid@@base64")
	assert.ErrorIs(t, err, ErrLogoDecode)
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 5, clampPercent(0))
	assert.Equal(t, 5, clampPercent(5))
	assert.Equal(t, 20, clampPercent(20))
	assert.Equal(t, 40, clampPercent(40))
	assert.Equal(t, 40, clampPercent(99))
}

func TestBlendOverOpaqueForeground(t *testing.T) {
	fg := color.NRGBA{R: 12, G: 34, B: 56, A: 255}
	bg := color.NRGBA{R: 200, G: 100, B: 50, A: 255}

	assert.Equal(t, fg, blendOver(bg, fg))
}

func TestBlendOverTransparentForeground(t *testing.T) {
	fg := color.NRGBA{A: 0}
	bg := color.NRGBA{R: 200, G: 100, B: 50, A: 255}

	assert.Equal(t, bg, blendOver(bg, fg))
}

func TestBlendOverBothTransparent(t *testing.T) {
	assert.Equal(t, color.NRGBA{}, blendOver(color.NRGBA{}, color.NRGBA{}))
}

func TestBlendOverHalfAlpha(t *testing.T) {
	fg := color.NRGBA{R: 255, G: 0, B: 0, A: 128}
	bg := color.NRGBA{R: 0, G: 0, B: 255, A: 255}

	out := blendOver(bg, fg)

	assert.Equal(t, uint8(255), out.A)
	// Roughly half red over blue.
	assert.InDelta(t, 128, int(out.R), 2)
	assert.InDelta(t, 127, int(out.B), 2)
	assert.Equal(t, uint8(0), out.G)
}

func TestSniffLogoMIME(t *testing.T) {
	assert.Equal(t, "image/png", sniffLogoMIME([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D}))
	assert.Equal(t, "image/jpeg", sniffLogoMIME([]byte{0xFF, 0xD8, 0xFF}))
	assert.Equal(t, "image/svg+xml", sniffLogoMIME([]byte("<svg width=\"10\">")))
	assert.Equal(t, "image/svg+xml", sniffLogoMIME([]byte("<?xml version=\"1.0\"?>")))
	assert.Equal(t, "image/gif", sniffLogoMIME([]byte("GIF89a")))
	assert.Equal(t, "image/webp", sniffLogoMIME([]byte("RIFF....WEBP")))
	assert.Equal(t, "image/png", sniffLogoMIME([]byte("mystery")))
}

func TestOverlayLogoPNG(t *testing.T) {
	m := testMatrix(21)
	opts := defaultOptions()

	base, err := Render(m, opts, nil, FormatPNG)
	require.NoError(t, err)

	logo := &Logo{
		Data:        logoPNG(t, color.NRGBA{R: 255, G: 0, B: 0, A: 255}, 32),
		SizePercent: 20,
	}

	out, err := Render(m, opts, logo, FormatPNG)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out.Data, pngSignature))
	assert.NotEqual(t, base.Data, out.Data)

	img, err := png.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)

	// The symbol center must now carry the opaque logo color.
	cx := img.Bounds().Dx() / 2
	cy := img.Bounds().Dy() / 2
	r, g, b, _ := img.At(cx, cy).RGBA()
	assert.Equal(t, uint32(255), r>>8)
	assert.Equal(t, uint32(0), g>>8)
	assert.Equal(t, uint32(0), b>>8)
}

func TestOverlayLogoPNGUsesBackgroundBackdrop(t *testing.T) {
	m := testMatrix(21)
	opts := defaultOptions()
	opts.Background = Color{0, 0, 255, 255}

	// Fully transparent logo: only the backdrop shows through.
	logo := &Logo{
		Data:        logoPNG(t, color.NRGBA{}, 16),
		SizePercent: 20,
	}

	out, err := Render(m, opts, logo, FormatPNG)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)

	cx := img.Bounds().Dx() / 2
	cy := img.Bounds().Dy() / 2
	r, g, b, _ := img.At(cx, cy).RGBA()
	assert.Equal(t, uint32(0), r>>8)
	assert.Equal(t, uint32(0), g>>8)
	assert.Equal(t, uint32(255), b>>8)
}

func TestOverlayLogoPNGRejectsGarbage(t *testing.T) {
	m := testMatrix(21)
	logo := &Logo{Data: []byte("definitely not an image"), SizePercent: 20}

	_, err := Render(m, defaultOptions(), logo, FormatPNG)

	assert.ErrorIs(t, err, ErrLogoDecode)
}

func TestEmbedLogoSVG(t *testing.T) {
	m := testMatrix(21)
	opts := defaultOptions()
	logo := &Logo{
		Data:        logoPNG(t, color.NRGBA{R: 1, G: 2, B: 3, A: 255}, 8),
		SizePercent: 20,
	}

	out, err := Render(m, opts, logo, FormatSVG)
	require.NoError(t, err)

	doc := string(out.Data)
	assert.Contains(t, doc, "<image")
	assert.Contains(t, doc, "href=\"data:image/png;base64,")
	assert.Contains(t, doc, "rx=")
	// Overlay sits inside the document, before the closing tag.
	assert.Less(t, bytes.LastIndex(out.Data, []byte("<image")), bytes.LastIndex(out.Data, []byte("</svg>")))
}

func TestEmbedLogoSVGDeterministic(t *testing.T) {
	m := testMatrix(21)
	logo := &Logo{
		Data:        logoPNG(t, color.NRGBA{R: 9, G: 9, B: 9, A: 255}, 8),
		SizePercent: 25,
	}

	first, err := Render(m, defaultOptions(), logo, FormatSVG)
	require.NoError(t, err)
	second, err := Render(m, defaultOptions(), logo, FormatSVG)
	require.NoError(t, err)

	assert.Equal(t, first.Data, second.Data)
}

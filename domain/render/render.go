// Package render turns QR module matrices into styled image documents.
// It draws the same geometry as PNG raster, SVG vector, or PDF vector
// output, with square, rounded, or dot-shaped modules, full RGBA color
// control, and optional center logo embedding. The package is pure: it
// holds no shared state and is safe for concurrent use.
package render

import (
	"errors"
	"fmt"
	"strings"
)

// Format identifies an output encoder.
type Format int

const (
	FormatPNG Format = iota
	FormatSVG
	FormatPDF
)

// MIME types of the rendered outputs.
const (
	MIMEPNG = "image/png"
	MIMESVG = "image/svg+xml"
	MIMEPDF = "application/pdf"
)

var (
	// ErrInvalidColor reports a hex color string that could not be parsed.
	ErrInvalidColor = errors.New("render: invalid hex color")

	// ErrUnknownFormat reports an unrecognized output format name.
	ErrUnknownFormat = errors.New("render: unknown output format")

	// ErrEncodingFailed reports a failure while serializing the output bytes.
	ErrEncodingFailed = errors.New("render: output encoding failed")

	// ErrLogoDecode reports a logo payload that is not valid base64 or does
	// not decode to a recognized image format.
	ErrLogoDecode = errors.New("render: logo could not be decoded")

	// ErrLogoUnsupported reports a logo request for an output format that
	// has no logo support.
	ErrLogoUnsupported = errors.New("render: logo overlay not supported for this format")
)

// ParseFormat maps a format name to a Format, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "png":
		return FormatPNG, nil
	case "svg":
		return FormatSVG, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return FormatPNG, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// String returns the lowercase format name.
func (f Format) String() string {
	switch f {
	case FormatSVG:
		return "svg"
	case FormatPDF:
		return "pdf"
	default:
		return "png"
	}
}

// MIME returns the content type served for the format.
func (f Format) MIME() string {
	switch f {
	case FormatSVG:
		return MIMESVG
	case FormatPDF:
		return MIMEPDF
	default:
		return MIMEPNG
	}
}

// Options control how a matrix is drawn.
type Options struct {
	// Size is the target edge length: pixels for PNG, points for PDF, and
	// viewport units for SVG. PNG may come out smaller than Size because
	// the module size is floored to whole pixels.
	Size       int
	Foreground Color
	Background Color
	Style      Style
}

// Logo is a decoded logo payload to composite onto the output center.
type Logo struct {
	Data        []byte
	SizePercent int
}

// Output is a rendered document.
type Output struct {
	Data []byte
	MIME string
}

// Render draws the matrix into the requested format. A non-nil logo is
// composited onto PNG output and embedded into SVG output; PDF output
// rejects logos with ErrLogoUnsupported. Identical inputs always produce
// byte-identical output.
func Render(m Matrix, opts Options, logo *Logo, format Format) (*Output, error) {
	switch format {
	case FormatPNG:
		data, err := renderPNG(m, opts)
		if err != nil {
			return nil, err
		}
		if logo != nil {
			data, err = overlayLogoPNG(data, logo, opts.Background)
			if err != nil {
				return nil, err
			}
		}
		return &Output{Data: data, MIME: MIMEPNG}, nil

	case FormatSVG:
		doc := renderSVG(m, opts)
		if logo != nil {
			var err error
			doc, err = embedLogoSVG(doc, logo, opts)
			if err != nil {
				return nil, err
			}
		}
		return &Output{Data: []byte(doc), MIME: MIMESVG}, nil

	case FormatPDF:
		if logo != nil {
			return nil, fmt.Errorf("%w: pdf", ErrLogoUnsupported)
		}
		data, err := renderPDF(m, opts)
		if err != nil {
			return nil, err
		}
		return &Output{Data: data, MIME: MIMEPDF}, nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, int(format))
	}
}

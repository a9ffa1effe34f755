// Package qrcode is the boundary to the QR symbol libraries: it turns
// text into module matrices for the render engine and decodes uploaded
// QR images back into text. Reed-Solomon placement and mask selection
// stay inside the underlying libraries.
package qrcode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
	qr "github.com/skip2/go-qrcode"

	"github.com/prasetyowira/qrserve/domain/render"
)

var (
	// ErrEncode reports input the QR standard cannot represent, such as
	// text beyond the version-40 capacity.
	ErrEncode = errors.New("qrcode: encoding failed")

	// ErrDecode reports an image in which no QR symbol could be found.
	ErrDecode = errors.New("qrcode: no QR code found")

	// ErrInvalidImage reports bytes that are not a decodable image.
	ErrInvalidImage = errors.New("qrcode: invalid image")
)

// Level is the Reed-Solomon error-correction tier. Higher levels
// tolerate more obscured modules at the cost of symbol density.
type Level int

const (
	LevelL Level = iota
	LevelM
	LevelQ
	LevelH
)

// ParseLevel maps "L"/"M"/"Q"/"H" (case-insensitive) to a Level.
// Anything else falls back to LevelM, the usual default.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L":
		return LevelL
	case "Q":
		return LevelQ
	case "H":
		return LevelH
	default:
		return LevelM
	}
}

// String returns the single-letter level name.
func (l Level) String() string {
	switch l {
	case LevelL:
		return "L"
	case LevelQ:
		return "Q"
	case LevelH:
		return "H"
	default:
		return "M"
	}
}

// LevelFor resolves the effective level for a render. A logo overlay
// covers modules, so its presence forces the highest level regardless
// of what the caller asked for.
func LevelFor(requested Level, logoPresent bool) Level {
	if logoPresent {
		return LevelH
	}
	return requested
}

func (l Level) recovery() qr.RecoveryLevel {
	switch l {
	case LevelL:
		return qr.Low
	case LevelQ:
		return qr.High
	case LevelH:
		return qr.Highest
	default:
		return qr.Medium
	}
}

// Encode builds the module matrix for the given text. The library
// border is disabled; the render engine adds its own quiet zone.
func Encode(text string, level Level) (render.Matrix, error) {
	code, err := qr.New(text, level.recovery())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	code.DisableBorder = true
	return render.Matrix(code.Bitmap()), nil
}

// Decode scans an uploaded image for a QR symbol and returns its text.
func Decode(imageBytes []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	result, err := zxqrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return result.GetText(), nil
}

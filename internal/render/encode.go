package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/banshee-data/heatgrid/internal/frame"
)

// Encoder produces PNG images. The compression level is fixed and the
// standard encoder writes no timestamps or ancillary chunks, so identical
// pixels always yield identical bytes.
type Encoder struct {
	enc png.Encoder
}

// NewEncoder returns a PNG encoder using the default compression level.
func NewEncoder() *Encoder {
	return &Encoder{enc: png.Encoder{CompressionLevel: png.DefaultCompression}}
}

// EncodeBytes encodes img as PNG.
func (e *Encoder) EncodeBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Encode wraps the PNG bytes of img in an immutable frame.Image.
func (e *Encoder) Encode(id string, img image.Image, createdAt time.Time) (*frame.Image, error) {
	data, err := e.EncodeBytes(img)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return frame.NewImage(id, frame.MediaTypePNG, b.Dx(), b.Dy(), createdAt, data), nil
}

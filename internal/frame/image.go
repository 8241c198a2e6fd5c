// Package frame holds encoded heatmap images and the single-slot store that
// serves the most recent one.
package frame

import (
	"bytes"
	"io"
	"time"
)

// MediaTypePNG is the media type of every image the encoder produces.
const MediaTypePNG = "image/png"

// Image is an immutable encoded raster. The byte slice is never exposed for
// writing; use Bytes for a copy or WriteTo to stream it.
type Image struct {
	ID        string
	MediaType string
	Width     int
	Height    int
	CreatedAt time.Time

	data []byte
}

// NewImage copies data into a new Image.
func NewImage(id, mediaType string, width, height int, createdAt time.Time, data []byte) *Image {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Image{
		ID:        id,
		MediaType: mediaType,
		Width:     width,
		Height:    height,
		CreatedAt: createdAt,
		data:      buf,
	}
}

// Len returns the encoded size in bytes.
func (im *Image) Len() int { return len(im.data) }

// Bytes returns a copy of the encoded data.
func (im *Image) Bytes() []byte {
	return bytes.Clone(im.data)
}

// WriteTo writes the encoded data to w.
func (im *Image) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(im.data)
	return int64(n), err
}

// Metadata is the JSON view of an image used by status and push endpoints.
type Metadata struct {
	ID        string    `json:"id"`
	MediaType string    `json:"media_type"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Bytes     int       `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Metadata describes the image without its payload.
func (im *Image) Metadata() Metadata {
	return Metadata{
		ID:        im.ID,
		MediaType: im.MediaType,
		Width:     im.Width,
		Height:    im.Height,
		Bytes:     len(im.data),
		CreatedAt: im.CreatedAt,
	}
}

// Package imaging checks that uploaded bytes are a decodable image.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
)

// ErrNotImage is returned when data cannot be decoded as an image.
var ErrNotImage = errors.New("not a valid image")

// Info describes a decoded image header.
type Info struct {
	Format string
	Width  int
	Height int
}

// Check decodes the image header in data. Only the header is read; pixel
// data is never decoded.
func Check(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, fmt.Errorf("%w: empty payload", ErrNotImage)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, fmt.Errorf("%w: zero dimensions", ErrNotImage)
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// ContentType sniffs the MIME type of data, falling back to image/jpeg for
// anything that does not look like an image.
func ContentType(data []byte) string {
	ct := http.DetectContentType(data)
	if len(ct) >= 6 && ct[:6] == "image/" {
		return ct
	}
	return "image/jpeg"
}

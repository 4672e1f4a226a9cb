package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodedImage(t *testing.T, format string) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})

	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, nil)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", format, err)
	}
	return buf.Bytes()
}

func TestCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		data       []byte
		wantFormat string
		wantErr    bool
	}{
		{"jpeg", encodedImage(t, "jpeg"), "jpeg", false},
		{"png", encodedImage(t, "png"), "png", false},
		{"empty", nil, "", true},
		{"text", []byte("definitely not an image"), "", true},
		{"truncated jpeg", encodedImage(t, "jpeg")[:4], "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			info, err := Check(tt.data)
			if tt.wantErr {
				if !errors.Is(err, ErrNotImage) {
					t.Fatalf("Check() error = %v, want ErrNotImage", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if info.Format != tt.wantFormat {
				t.Errorf("Format = %q, want %q", info.Format, tt.wantFormat)
			}
			if info.Width != 4 || info.Height != 3 {
				t.Errorf("size = %dx%d, want 4x3", info.Width, info.Height)
			}
		})
	}
}

func TestContentType(t *testing.T) {
	t.Parallel()

	if got := ContentType(encodedImage(t, "png")); got != "image/png" {
		t.Errorf("ContentType(png) = %q, want image/png", got)
	}
	if got := ContentType(encodedImage(t, "jpeg")); got != "image/jpeg" {
		t.Errorf("ContentType(jpeg) = %q, want image/jpeg", got)
	}
	if got := ContentType([]byte("plain")); got != "image/jpeg" {
		t.Errorf("ContentType(text) = %q, want image/jpeg fallback", got)
	}
}

package asset

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(3, 1, color.NRGBA{B: 255, A: 255})
	return img
}

func TestDecodeImageFormats(t *testing.T) {
	encoders := map[string]func(*bytes.Buffer) error{
		"png": func(b *bytes.Buffer) error { return png.Encode(b, testImage()) },
		"bmp": func(b *bytes.Buffer) error { return bmp.Encode(b, testImage()) },
	}
	for name, encode := range encoders {
		var buf bytes.Buffer
		if err := encode(&buf); err != nil {
			t.Fatal(err)
		}
		img, format, err := DecodeImage(&buf)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if format != name {
			t.Errorf("format = %q, want %q", format, name)
		}
		if img.Bounds() != image.Rect(0, 0, 4, 2) {
			t.Errorf("%s: bounds = %v", name, img.Bounds())
		}
		if got := img.RGBAAt(0, 0); got != (color.RGBA{R: 255, A: 255}) {
			t.Errorf("%s: pixel (0,0) = %v", name, got)
		}
		if got := img.RGBAAt(3, 1); got != (color.RGBA{B: 255, A: 255}) {
			t.Errorf("%s: pixel (3,1) = %v", name, got)
		}
	}
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	if _, _, err := DecodeImage(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("garbage decoded")
	}
}

func TestLoadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tex.png")
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	img, err := LoadImage(path)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 4 {
		t.Errorf("width = %d", img.Bounds().Dx())
	}
	if _, err := LoadImage(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("missing file loaded")
	}
}

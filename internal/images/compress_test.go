package images

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
)

// testFile renders a width x height gradient and encodes it as PNG or JPEG
func testFile(t *testing.T, name string, width, height int, format Format) File {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: uint8((x + y) % 256), A: 255})
		}
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case FormatPNG:
		err = png.Encode(&buf, img)
	default:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90))
	}
	if err != nil {
		t.Fatalf("failed to build test image: %v", err)
	}

	return File{Name: name, MIMEType: mimeType(format), Data: buf.Bytes()}
}

func TestFitDimensions(t *testing.T) {
	tests := []struct {
		name           string
		w, h           int
		maxW, maxH     int
		preserve       bool
		wantW, wantH   int
	}{
		{"already fits", 800, 600, 1920, 1080, true, 800, 600},
		{"exact bounds", 1920, 1080, 1920, 1080, true, 1920, 1080},
		{"width bound", 4000, 2000, 1920, 1080, true, 1920, 960},
		{"height bound", 2000, 4000, 1920, 1080, true, 540, 1080},
		{"square into landscape", 3000, 3000, 1920, 1080, true, 1080, 1080},
		{"no aspect clamp", 4000, 500, 1920, 1080, false, 1920, 500},
		{"no aspect both clamped", 4000, 4000, 1920, 1080, false, 1920, 1080},
	}

	for _, tt := range tests {
		gotW, gotH := FitDimensions(tt.w, tt.h, tt.maxW, tt.maxH, tt.preserve)
		if gotW != tt.wantW || gotH != tt.wantH {
			t.Errorf("%s: FitDimensions(%d,%d,%d,%d,%v) = %dx%d, want %dx%d",
				tt.name, tt.w, tt.h, tt.maxW, tt.maxH, tt.preserve, gotW, gotH, tt.wantW, tt.wantH)
		}
	}
}

func TestCompressNeverUpscales(t *testing.T) {
	file := testFile(t, "small.jpg", 320, 240, FormatJPEG)

	result, err := Compress(file, DefaultOptions())
	if err != nil {
		t.Fatalf("compress failed: %v", err)
	}
	if result.Dimensions.Width != 320 || result.Dimensions.Height != 240 {
		t.Errorf("small image was rescaled to %dx%d", result.Dimensions.Width, result.Dimensions.Height)
	}
}

func TestCompressDownscalesToBound(t *testing.T) {
	file := testFile(t, "wide.jpg", 400, 200, FormatJPEG)

	opts := DefaultOptions()
	opts.MaxWidth = 192
	opts.MaxHeight = 108

	result, err := Compress(file, opts)
	if err != nil {
		t.Fatalf("compress failed: %v", err)
	}
	// scale = min(192/400, 108/200) = 0.48
	if result.Dimensions.Width != 192 || result.Dimensions.Height != 96 {
		t.Errorf("got %dx%d, want 192x96", result.Dimensions.Width, result.Dimensions.Height)
	}
}

func TestCompressRejectsNonImage(t *testing.T) {
	file := File{Name: "notes.txt", MIMEType: "text/plain", Data: []byte("hello")}
	if _, err := Compress(file, DefaultOptions()); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCompressPropagatesDecodeFailure(t *testing.T) {
	file := File{Name: "broken.jpg", MIMEType: "image/jpeg", Data: []byte("not an image at all")}
	if _, err := Compress(file, DefaultOptions()); !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}

func TestCompressUnsupportedFormat(t *testing.T) {
	file := testFile(t, "a.jpg", 64, 64, FormatJPEG)
	opts := DefaultOptions()
	opts.Format = Format("bmp")
	if _, err := Compress(file, opts); !errors.Is(err, ErrEncode) {
		t.Errorf("expected ErrEncode for unsupported format, got %v", err)
	}
}

func TestCompressionRatioMayBeNegative(t *testing.T) {
	// A tiny, already-optimal PNG re-encoded as jpeg grows; the ratio must be
	// surfaced as negative, not clamped
	file := testFile(t, "tiny.png", 2, 2, FormatPNG)

	opts := DefaultOptions()
	opts.Quality = 1.0

	result, err := Compress(file, opts)
	if err != nil {
		t.Fatalf("compress failed: %v", err)
	}
	if result.CompressedSize <= result.OriginalSize {
		t.Skipf("encoder produced %d <= %d bytes; cannot exercise negative ratio", result.CompressedSize, result.OriginalSize)
	}
	if result.CompressionRatio >= 0 {
		t.Errorf("expected negative ratio, got %.2f", result.CompressionRatio)
	}
}

func TestCompressRenamesForFormat(t *testing.T) {
	file := testFile(t, "villa.png", 32, 32, FormatPNG)

	result, err := Compress(file, DefaultOptions())
	if err != nil {
		t.Fatalf("compress failed: %v", err)
	}
	if result.File.Name != "villa.jpg" {
		t.Errorf("expected villa.jpg, got %q", result.File.Name)
	}
	if result.File.MIMEType != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", result.File.MIMEType)
	}
}

func TestPresetOptions(t *testing.T) {
	opts, ok := PresetOptions(PresetThumbnail)
	if !ok || opts.MaxWidth != 300 || opts.MaxHeight != 300 || opts.Quality != 0.8 {
		t.Errorf("unexpected thumbnail preset: %+v", opts)
	}
	if _, ok := PresetOptions("nonexistent"); ok {
		t.Error("unknown preset should not resolve")
	}
	if opts, _ := PresetOptions(PresetHighQuality); opts.Format != FormatWebP {
		t.Errorf("highQuality preset should target webp, got %s", opts.Format)
	}
}

// Package images resizes and re-encodes listing photos. Every operation takes
// ownership of its input bytes and produces fresh output, so concurrent calls
// never share state.
package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// Failure taxonomy. Data-quality problems are reported structurally by the
// validator elsewhere; these errors mean the input or environment is unusable.
var (
	ErrInvalidInput = errors.New("images: input is not an image")
	ErrDecode       = errors.New("images: decode failed")
	ErrEncode       = errors.New("images: encode failed")
)

// Format is the target encoding for compressed output
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatWebP Format = "webp"
	FormatPNG  Format = "png"
)

// File bundles image bytes with their declared name and mime type
type File struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

// Options controls a single compression pass. Zero MaxWidth, MaxHeight,
// Quality and Format fall back to the defaults (1920, 1080, 0.85, jpeg);
// MaintainAspectRatio is honored as given, so build options from
// DefaultOptions or a preset rather than a bare literal.
type Options struct {
	MaxWidth            int     `json:"max_width"`
	MaxHeight           int     `json:"max_height"`
	Quality             float64 `json:"quality"` // 0.1 - 1.0
	Format              Format  `json:"format"`
	MaintainAspectRatio bool    `json:"maintain_aspect_ratio"`
}

// DefaultOptions returns the standard web-delivery bounds
func DefaultOptions() Options {
	return Options{
		MaxWidth:            1920,
		MaxHeight:           1080,
		Quality:             0.85,
		Format:              FormatJPEG,
		MaintainAspectRatio: true,
	}
}

// Dimensions of the transformed image
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Result reports one compression outcome. CompressionRatio is the percentage
// size reduction and is reported as-is: a negative value means the output grew
// and callers may want to keep the original instead.
type Result struct {
	File             File       `json:"file"`
	OriginalSize     int64      `json:"original_size"`
	CompressedSize   int64      `json:"compressed_size"`
	CompressionRatio float64    `json:"compression_ratio"`
	Dimensions       Dimensions `json:"dimensions"`
}

// FitDimensions computes output dimensions under a maximum-bound constraint.
// With preserveAspect the image is scaled by the tighter bound and is never
// upscaled; without it each axis is clamped independently.
func FitDimensions(origW, origH, maxW, maxH int, preserveAspect bool) (int, int) {
	if !preserveAspect {
		return min(origW, maxW), min(origH, maxH)
	}

	if origW <= maxW && origH <= maxH {
		return origW, origH
	}

	scale := math.Min(float64(maxW)/float64(origW), float64(maxH)/float64(origH))
	return int(math.Round(float64(origW) * scale)), int(math.Round(float64(origH) * scale))
}

// Compress decodes the file, fits it within the option bounds, re-encodes it
// at the target quality and format, and reports size metrics.
func Compress(file File, opts Options) (*Result, error) {
	if !strings.HasPrefix(file.MIMEType, "image/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidInput, file.MIMEType)
	}
	opts = normalizeOptions(opts)

	img, err := decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	width, height := FitDimensions(bounds.Dx(), bounds.Dy(), opts.MaxWidth, opts.MaxHeight, opts.MaintainAspectRatio)

	if width != bounds.Dx() || height != bounds.Dy() {
		img = imaging.Resize(img, width, height, imaging.Lanczos)
	}

	data, err := encode(img, opts.Format, opts.Quality)
	if err != nil {
		return nil, err
	}

	originalSize := int64(len(file.Data))
	compressedSize := int64(len(data))

	return &Result{
		File: File{
			Name:     renamed(file.Name, opts.Format),
			MIMEType: mimeType(opts.Format),
			Data:     data,
		},
		OriginalSize:     originalSize,
		CompressedSize:   compressedSize,
		CompressionRatio: ratio(originalSize, compressedSize),
		Dimensions:       Dimensions{Width: width, Height: height},
	}, nil
}

// Preset names for the common rendition sizes
const (
	PresetThumbnail   = "thumbnail"
	PresetMedium      = "medium"
	PresetLarge       = "large"
	PresetHighQuality = "highQuality"
)

var presets = map[string]Options{
	PresetThumbnail:   {MaxWidth: 300, MaxHeight: 300, Quality: 0.8, Format: FormatJPEG, MaintainAspectRatio: true},
	PresetMedium:      {MaxWidth: 800, MaxHeight: 600, Quality: 0.85, Format: FormatJPEG, MaintainAspectRatio: true},
	PresetLarge:       {MaxWidth: 1920, MaxHeight: 1080, Quality: 0.9, Format: FormatJPEG, MaintainAspectRatio: true},
	PresetHighQuality: {MaxWidth: 2560, MaxHeight: 1440, Quality: 0.95, Format: FormatWebP, MaintainAspectRatio: true},
}

// PresetOptions returns the named option bundle
func PresetOptions(name string) (Options, bool) {
	opts, ok := presets[name]
	return opts, ok
}

func normalizeOptions(opts Options) Options {
	def := DefaultOptions()
	if opts.MaxWidth == 0 {
		opts.MaxWidth = def.MaxWidth
	}
	if opts.MaxHeight == 0 {
		opts.MaxHeight = def.MaxHeight
	}
	if opts.Quality == 0 {
		opts.Quality = def.Quality
	}
	if opts.Format == "" {
		opts.Format = def.Format
	}
	return opts
}

func decode(file File) (image.Image, error) {
	if file.MIMEType == "image/webp" {
		return webp.Decode(bytes.NewReader(file.Data))
	}
	return imaging.Decode(bytes.NewReader(file.Data))
}

func encode(img image.Image, format Format, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case FormatJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(int(math.Round(quality*100))))
	case FormatPNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	case FormatWebP:
		err = webp.Encode(&buf, img, &webp.Options{Quality: float32(quality * 100)})
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrEncode, format)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil
}

func ratio(original, compressed int64) float64 {
	if original == 0 {
		return 0
	}
	return float64(original-compressed) / float64(original) * 100
}

func renamed(name string, format Format) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "image"
	}
	switch format {
	case FormatWebP:
		return base + ".webp"
	case FormatPNG:
		return base + ".png"
	default:
		return base + ".jpg"
	}
}

func mimeType(format Format) string {
	switch format {
	case FormatWebP:
		return "image/webp"
	case FormatPNG:
		return "image/png"
	default:
		return "image/jpeg"
	}
}

package images

import (
	"fmt"
	"sync"
)

// Adaptive strategies compose Compress; none of them re-implement the base
// transform. Multi-variant operations fan out, wait for every variant to
// settle, and fail as a whole if any variant fails.

const smartSizeThreshold = 5 * 1024 * 1024 // 5MB

// SmartCompress picks compression settings from the source image itself:
// the large preset for anything over 2000px on a side, a quality-bumped
// medium preset for small images, plain medium otherwise. Sources over 5MB
// get their quality dropped a notch (floor 0.7).
func SmartCompress(file File) (*Result, error) {
	img, err := decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	var opts Options
	switch {
	case width > 2000 || height > 2000:
		opts = presets[PresetLarge]
	case width < 800 && height < 600:
		opts = presets[PresetMedium]
		opts.Quality = 0.9
	default:
		opts = presets[PresetMedium]
	}

	if int64(len(file.Data)) > smartSizeThreshold {
		opts.Quality = opts.Quality - 0.1
		if opts.Quality < 0.7 {
			opts.Quality = 0.7
		}
	}

	return Compress(file, opts)
}

// ResponsiveSet holds the renditions used by responsive markup. Original is
// nil unless the source was large enough to warrant a full-size webp copy.
type ResponsiveSet struct {
	Small    *Result `json:"small"`
	Medium   *Result `json:"medium"`
	Large    *Result `json:"large"`
	Original *Result `json:"original,omitempty"`
}

// CreateResponsiveImageSet produces the small/medium/large renditions in
// parallel, plus a re-encoded (not downsized) webp original when the source
// exceeds 1400x900.
func CreateResponsiveImageSet(file File) (*ResponsiveSet, error) {
	specs := []variantSpec{
		{"small", Options{MaxWidth: 480, MaxHeight: 320, Quality: 0.8, Format: FormatJPEG, MaintainAspectRatio: true}},
		{"medium", Options{MaxWidth: 768, MaxHeight: 512, Quality: 0.85, Format: FormatJPEG, MaintainAspectRatio: true}},
		{"large", Options{MaxWidth: 1200, MaxHeight: 800, Quality: 0.9, Format: FormatJPEG, MaintainAspectRatio: true}},
	}

	img, err := decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if width > 1400 || height > 900 {
		// Re-encode only: bounds equal to the source so no resample happens
		specs = append(specs, variantSpec{"original", Options{
			MaxWidth: width, MaxHeight: height, Quality: 0.95, Format: FormatWebP, MaintainAspectRatio: true,
		}})
	}

	variants, err := compressVariants(file, specs)
	if err != nil {
		return nil, err
	}

	return &ResponsiveSet{
		Small:    variants["small"],
		Medium:   variants["medium"],
		Large:    variants["large"],
		Original: variants["original"],
	}, nil
}

// OptimizeForWeb targets webp at 0.85 quality within 1920x1080. If the result
// still exceeds targetSize (0 = no target), quality is scaled down
// proportionally to the overshoot (floor 0.6). If webp saves less than 30%,
// a jpeg attempt is made and the smaller of the two wins.
func OptimizeForWeb(file File, targetSize int64) (*Result, error) {
	opts := Options{MaxWidth: 1920, MaxHeight: 1080, Quality: 0.85, Format: FormatWebP, MaintainAspectRatio: true}

	result, err := Compress(file, opts)
	if err != nil {
		return nil, err
	}

	if targetSize > 0 && result.CompressedSize > targetSize {
		quality := opts.Quality * float64(targetSize) / float64(result.CompressedSize)
		if quality < 0.6 {
			quality = 0.6
		}
		opts.Quality = quality
		if result, err = Compress(file, opts); err != nil {
			return nil, err
		}
	}

	if result.CompressionRatio < 30 {
		jpegOpts := Options{MaxWidth: 1920, MaxHeight: 1080, Quality: 0.8, Format: FormatJPEG, MaintainAspectRatio: true}
		jpegResult, err := Compress(file, jpegOpts)
		if err != nil {
			return nil, err
		}
		if jpegResult.CompressedSize < result.CompressedSize {
			result = jpegResult
		}
	}

	return result, nil
}

// GenerateImageVariants produces the thumbnail, medium and large presets in
// parallel, keyed by preset name.
func GenerateImageVariants(file File) (map[string]*Result, error) {
	return compressVariants(file, []variantSpec{
		{PresetThumbnail, presets[PresetThumbnail]},
		{PresetMedium, presets[PresetMedium]},
		{PresetLarge, presets[PresetLarge]},
	})
}

type variantSpec struct {
	name string
	opts Options
}

// compressVariants runs each spec concurrently and joins on all of them.
// First-failure-fails-all: a single variant error rejects the whole call,
// never a partial map.
func compressVariants(file File, specs []variantSpec) (map[string]*Result, error) {
	results := make([]*Result, len(specs))
	errs := make([]error, len(specs))

	var wg sync.WaitGroup
	wg.Add(len(specs))

	for i, spec := range specs {
		go func(i int, spec variantSpec) {
			defer wg.Done()
			results[i], errs[i] = Compress(file, spec.opts)
		}(i, spec)
	}

	wg.Wait()

	out := make(map[string]*Result, len(specs))
	for i, spec := range specs {
		if errs[i] != nil {
			return nil, fmt.Errorf("variant %s: %w", spec.name, errs[i])
		}
		out[spec.name] = results[i]
	}

	return out, nil
}

// DecodeDimensions reports the natural pixel dimensions of an image without
// transforming it
func DecodeDimensions(file File) (Dimensions, error) {
	img, err := decode(file)
	if err != nil {
		return Dimensions{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	b := img.Bounds()
	return Dimensions{Width: b.Dx(), Height: b.Dy()}, nil
}

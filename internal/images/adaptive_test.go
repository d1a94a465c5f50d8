package images

import (
	"errors"
	"strings"
	"testing"
)

func TestSmartCompressSmallSource(t *testing.T) {
	file := testFile(t, "flat.jpg", 400, 300, FormatJPEG)

	result, err := SmartCompress(file)
	if err != nil {
		t.Fatalf("smart compress failed: %v", err)
	}
	// Small source: medium preset bounds, no rescale
	if result.Dimensions.Width != 400 || result.Dimensions.Height != 300 {
		t.Errorf("small source should keep its dimensions, got %dx%d",
			result.Dimensions.Width, result.Dimensions.Height)
	}
}

func TestSmartCompressBoundsMediumSource(t *testing.T) {
	file := testFile(t, "mid.jpg", 1000, 700, FormatJPEG)

	result, err := SmartCompress(file)
	if err != nil {
		t.Fatalf("smart compress failed: %v", err)
	}
	// Medium preset is 800x600: scale = min(0.8, 600/700)
	if result.Dimensions.Width > 800 || result.Dimensions.Height > 600 {
		t.Errorf("medium source should fit 800x600, got %dx%d",
			result.Dimensions.Width, result.Dimensions.Height)
	}
}

func TestGenerateImageVariants(t *testing.T) {
	file := testFile(t, "estate.jpg", 640, 480, FormatJPEG)

	variants, err := GenerateImageVariants(file)
	if err != nil {
		t.Fatalf("variant generation failed: %v", err)
	}

	for _, name := range []string{PresetThumbnail, PresetMedium, PresetLarge} {
		v, ok := variants[name]
		if !ok || v == nil {
			t.Fatalf("missing variant %q", name)
		}
		if len(v.File.Data) == 0 {
			t.Errorf("variant %q has no data", name)
		}
	}

	thumb := variants[PresetThumbnail]
	if thumb.Dimensions.Width > 300 || thumb.Dimensions.Height > 300 {
		t.Errorf("thumbnail exceeds bounds: %dx%d", thumb.Dimensions.Width, thumb.Dimensions.Height)
	}
}

func TestVariantFailureFailsWholeCall(t *testing.T) {
	file := testFile(t, "estate.jpg", 64, 64, FormatJPEG)

	specs := []variantSpec{
		{"good", presets[PresetThumbnail]},
		{"bad", Options{MaxWidth: 100, MaxHeight: 100, Quality: 0.8, Format: Format("tiff"), MaintainAspectRatio: true}},
		{"also-good", presets[PresetMedium]},
	}

	out, err := compressVariants(file, specs)
	if err == nil {
		t.Fatal("expected the whole call to fail when one variant fails")
	}
	if out != nil {
		t.Errorf("no partial result allowed, got %v", out)
	}
	if !errors.Is(err, ErrEncode) || !strings.Contains(err.Error(), "bad") {
		t.Errorf("error should name the failing variant and wrap the cause, got %v", err)
	}
}

func TestCreateResponsiveImageSetSmallSource(t *testing.T) {
	file := testFile(t, "compact.jpg", 640, 480, FormatJPEG)

	set, err := CreateResponsiveImageSet(file)
	if err != nil {
		t.Fatalf("responsive set failed: %v", err)
	}
	if set.Small == nil || set.Medium == nil || set.Large == nil {
		t.Fatal("missing base renditions")
	}
	if set.Original != nil {
		t.Error("small source should not produce an original variant")
	}
	if set.Small.Dimensions.Width > 480 || set.Small.Dimensions.Height > 320 {
		t.Errorf("small rendition exceeds bounds: %+v", set.Small.Dimensions)
	}
}

func TestCreateResponsiveImageSetLargeSource(t *testing.T) {
	file := testFile(t, "panorama.jpg", 1600, 1000, FormatJPEG)

	set, err := CreateResponsiveImageSet(file)
	if err != nil {
		t.Fatalf("responsive set failed: %v", err)
	}
	if set.Original == nil {
		t.Fatal("source over 1400x900 should produce an original variant")
	}
	// The original variant is re-encoded, never downsized
	if set.Original.Dimensions.Width != 1600 || set.Original.Dimensions.Height != 1000 {
		t.Errorf("original variant was resized to %dx%d", set.Original.Dimensions.Width, set.Original.Dimensions.Height)
	}
	if set.Original.File.MIMEType != "image/webp" {
		t.Errorf("original variant should be webp, got %q", set.Original.File.MIMEType)
	}
}

func TestOptimizeForWebProducesBoundedOutput(t *testing.T) {
	file := testFile(t, "hero.jpg", 640, 480, FormatJPEG)

	result, err := OptimizeForWeb(file, 0)
	if err != nil {
		t.Fatalf("optimize failed: %v", err)
	}
	if result.Dimensions.Width > 1920 || result.Dimensions.Height > 1080 {
		t.Errorf("output exceeds web bounds: %+v", result.Dimensions)
	}
	if result.File.MIMEType != "image/webp" && result.File.MIMEType != "image/jpeg" {
		t.Errorf("unexpected output mime %q", result.File.MIMEType)
	}
}

func TestOptimizeForWebHonorsTarget(t *testing.T) {
	file := testFile(t, "hero.jpg", 800, 600, FormatJPEG)

	unconstrained, err := OptimizeForWeb(file, 0)
	if err != nil {
		t.Fatalf("optimize failed: %v", err)
	}

	target := unconstrained.CompressedSize / 2
	constrained, err := OptimizeForWeb(file, target)
	if err != nil {
		t.Fatalf("optimize with target failed: %v", err)
	}
	if constrained.CompressedSize > unconstrained.CompressedSize {
		t.Errorf("targeted output should not be larger: %d > %d",
			constrained.CompressedSize, unconstrained.CompressedSize)
	}
}

func TestDecodeDimensions(t *testing.T) {
	file := testFile(t, "probe.jpg", 123, 45, FormatJPEG)

	dims, err := DecodeDimensions(file)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if dims.Width != 123 || dims.Height != 45 {
		t.Errorf("got %dx%d, want 123x45", dims.Width, dims.Height)
	}
}

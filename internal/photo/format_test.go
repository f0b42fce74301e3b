package photo_test

import (
	"testing"

	"losslessvault/internal/photo"
)

func TestFormatTiersOrderRawBeforeLosslessBeforeLossy(t *testing.T) {
	raw := []photo.Format{
		photo.FormatCR2, photo.FormatCR3, photo.FormatNEF, photo.FormatARW,
		photo.FormatORF, photo.FormatRAF, photo.FormatRW2, photo.FormatDNG,
	}
	for _, f := range raw {
		if f.Tier() != 0 {
			t.Fatalf("%s tier = %d, want 0", f, f.Tier())
		}
		if !f.IsRaw() {
			t.Fatalf("%s should be RAW", f)
		}
	}
	ordered := []photo.Format{photo.FormatTIFF, photo.FormatPNG, photo.FormatJPEG, photo.FormatHEIC, photo.FormatWebP}
	prev := 0
	for _, f := range ordered {
		if f.Tier() <= prev {
			t.Fatalf("%s tier %d should be worse than %d", f, f.Tier(), prev)
		}
		prev = f.Tier()
	}
	if photo.FormatUnknown.Tier() <= photo.FormatWebP.Tier() {
		t.Fatal("unknown format should rank behind every known format")
	}
}

func TestPerceptualSupport(t *testing.T) {
	for _, f := range photo.Formats() {
		want := f == photo.FormatJPEG || f == photo.FormatPNG || f == photo.FormatTIFF || f == photo.FormatWebP
		if got := f.SupportsPerceptualHash(); got != want {
			t.Fatalf("%s SupportsPerceptualHash = %v, want %v", f, got, want)
		}
	}
}

func TestFormatFromExtension(t *testing.T) {
	tests := []struct {
		ext  string
		want photo.Format
		ok   bool
	}{
		{".JPG", photo.FormatJPEG, true},
		{"jpeg", photo.FormatJPEG, true},
		{"tif", photo.FormatTIFF, true},
		{".heif", photo.FormatHEIC, true},
		{"Rw2", photo.FormatRW2, true},
		{".gif", photo.FormatUnknown, false},
		{"", photo.FormatUnknown, false},
	}
	for _, tc := range tests {
		got, ok := photo.FormatFromExtension(tc.ext)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("FormatFromExtension(%q) = %v,%v want %v,%v", tc.ext, got, ok, tc.want, tc.ok)
		}
	}
}

func TestTagRoundTripAndExtensions(t *testing.T) {
	for _, f := range photo.Formats() {
		parsed, err := photo.ParseFormat(f.String())
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", f.String(), err)
		}
		if parsed != f {
			t.Fatalf("ParseFormat(%q) = %v, want %v", f.String(), parsed, f)
		}
	}
	if photo.FormatJPEG.Extension() != "jpg" || photo.FormatTIFF.Extension() != "tiff" {
		t.Fatalf("unexpected extensions: %s %s", photo.FormatJPEG.Extension(), photo.FormatTIFF.Extension())
	}
	if got := photo.ExtensionForTag("WebP"); got != "webp" {
		t.Fatalf("ExtensionForTag(WebP) = %q", got)
	}
	if got := photo.ExtensionForTag("XYZ"); got != "xyz" {
		t.Fatalf("ExtensionForTag(XYZ) = %q", got)
	}
	if _, err := photo.ParseFormat("gif"); err == nil {
		t.Fatal("expected error for unknown tag")
	}
}

func TestConfidenceOrderingAndLabels(t *testing.T) {
	if !(photo.ConfidenceLow < photo.ConfidenceProbable &&
		photo.ConfidenceProbable < photo.ConfidenceHigh &&
		photo.ConfidenceHigh < photo.ConfidenceNearCertain &&
		photo.ConfidenceNearCertain < photo.ConfidenceCertain) {
		t.Fatal("confidence scale is not strictly ordered")
	}
	if photo.ConfidenceNearCertain.String() != "Near-Certain" {
		t.Fatalf("label = %q", photo.ConfidenceNearCertain.String())
	}
	if got := photo.ConfidenceCertain.Min(photo.ConfidenceProbable); got != photo.ConfidenceProbable {
		t.Fatalf("Min = %v", got)
	}
	for _, label := range []string{"near-certain", "NearCertain", "Near-Certain"} {
		c, err := photo.ParseConfidence(label)
		if err != nil || c != photo.ConfidenceNearCertain {
			t.Fatalf("ParseConfidence(%q) = %v, %v", label, c, err)
		}
	}
}

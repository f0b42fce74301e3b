package photo

import (
	"fmt"
	"strings"
)

// Format identifies the container of a photo file.
type Format int

const (
	FormatUnknown Format = iota
	FormatCR2
	FormatCR3
	FormatNEF
	FormatARW
	FormatORF
	FormatRAF
	FormatRW2
	FormatDNG
	FormatTIFF
	FormatPNG
	FormatJPEG
	FormatHEIC
	FormatWebP
)

type formatInfo struct {
	tag        string
	extension  string
	tier       int
	perceptual bool
}

var formatTable = map[Format]formatInfo{
	FormatCR2:  {tag: "CR2", extension: "cr2", tier: 0},
	FormatCR3:  {tag: "CR3", extension: "cr3", tier: 0},
	FormatNEF:  {tag: "NEF", extension: "nef", tier: 0},
	FormatARW:  {tag: "ARW", extension: "arw", tier: 0},
	FormatORF:  {tag: "ORF", extension: "orf", tier: 0},
	FormatRAF:  {tag: "RAF", extension: "raf", tier: 0},
	FormatRW2:  {tag: "RW2", extension: "rw2", tier: 0},
	FormatDNG:  {tag: "DNG", extension: "dng", tier: 0},
	FormatTIFF: {tag: "TIFF", extension: "tiff", tier: 1, perceptual: true},
	FormatPNG:  {tag: "PNG", extension: "png", tier: 2, perceptual: true},
	FormatJPEG: {tag: "JPEG", extension: "jpg", tier: 3, perceptual: true},
	FormatHEIC: {tag: "HEIC", extension: "heic", tier: 4},
	FormatWebP: {tag: "WebP", extension: "webp", tier: 5, perceptual: true},
}

// extensionTable maps lower-case file extensions (without the dot) to formats.
var extensionTable = map[string]Format{
	"jpg":  FormatJPEG,
	"jpeg": FormatJPEG,
	"png":  FormatPNG,
	"tif":  FormatTIFF,
	"tiff": FormatTIFF,
	"webp": FormatWebP,
	"heic": FormatHEIC,
	"heif": FormatHEIC,
	"cr2":  FormatCR2,
	"cr3":  FormatCR3,
	"nef":  FormatNEF,
	"arw":  FormatARW,
	"orf":  FormatORF,
	"raf":  FormatRAF,
	"rw2":  FormatRW2,
	"dng":  FormatDNG,
}

// worstTier ranks unknown formats behind every known one.
const worstTier = 99

// Formats lists every known format in declaration order.
func Formats() []Format {
	return []Format{
		FormatCR2, FormatCR3, FormatNEF, FormatARW, FormatORF, FormatRAF, FormatRW2, FormatDNG,
		FormatTIFF, FormatPNG, FormatJPEG, FormatHEIC, FormatWebP,
	}
}

// Tier returns the quality tier. Lower is better; every RAW format shares tier 0.
func (f Format) Tier() int {
	if info, ok := formatTable[f]; ok {
		return info.tier
	}
	return worstTier
}

// SupportsPerceptualHash reports whether the format can be decoded for
// perceptual fingerprinting.
func (f Format) SupportsPerceptualHash() bool {
	return formatTable[f].perceptual
}

// IsRaw reports whether the format is a camera RAW container.
func (f Format) IsRaw() bool {
	info, ok := formatTable[f]
	return ok && info.tier == 0
}

// Extension returns the canonical file extension used for vault paths.
func (f Format) Extension() string {
	if info, ok := formatTable[f]; ok {
		return info.extension
	}
	return "bin"
}

// String returns the display tag, which is also the persisted form.
func (f Format) String() string {
	if info, ok := formatTable[f]; ok {
		return info.tag
	}
	return "unknown"
}

// ParseFormat resolves a persisted tag such as "JPEG" or "WebP".
func ParseFormat(tag string) (Format, error) {
	trimmed := strings.TrimSpace(tag)
	for format, info := range formatTable {
		if strings.EqualFold(info.tag, trimmed) {
			return format, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unknown photo format %q", tag)
}

// FormatFromExtension resolves an extension with or without the leading dot.
func FormatFromExtension(ext string) (Format, bool) {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	format, ok := extensionTable[key]
	return format, ok
}

// ExtensionForTag maps a persisted format tag back to its vault extension.
// Unknown tags are returned lower-cased so stale manifest rows still resolve
// to a deterministic path.
func ExtensionForTag(tag string) string {
	if format, err := ParseFormat(tag); err == nil {
		return format.Extension()
	}
	return strings.ToLower(strings.TrimSpace(tag))
}

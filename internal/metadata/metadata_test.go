package metadata_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"losslessvault/internal/metadata"
	"losslessvault/internal/photo"
)

type ifdEntry struct {
	tag  uint16
	typ  uint16
	data []byte
}

func asciiEntry(tag uint16, value string) ifdEntry {
	return ifdEntry{tag: tag, typ: 2, data: append([]byte(value), 0)}
}

func longEntry(tag uint16, value uint32) ifdEntry {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, value)
	return ifdEntry{tag: tag, typ: 4, data: data}
}

func (e ifdEntry) count() uint32 {
	if e.typ == 4 {
		return uint32(len(e.data) / 4)
	}
	return uint32(len(e.data))
}

func padded(n int) int {
	return n + n%2
}

func ifdSize(entries []ifdEntry) int {
	size := 2 + 12*len(entries) + 4
	for _, e := range entries {
		if len(e.data) > 4 {
			size += padded(len(e.data))
		}
	}
	return size
}

func writeIFD(buf *bytes.Buffer, entries []ifdEntry) {
	le := binary.LittleEndian
	dataOffset := uint32(buf.Len() + 2 + 12*len(entries) + 4)
	_ = binary.Write(buf, le, uint16(len(entries)))
	for _, e := range entries {
		_ = binary.Write(buf, le, e.tag)
		_ = binary.Write(buf, le, e.typ)
		_ = binary.Write(buf, le, e.count())
		if len(e.data) <= 4 {
			value := make([]byte, 4)
			copy(value, e.data)
			buf.Write(value)
			continue
		}
		_ = binary.Write(buf, le, dataOffset)
		dataOffset += uint32(padded(len(e.data)))
	}
	_ = binary.Write(buf, le, uint32(0))
	for _, e := range entries {
		if len(e.data) > 4 {
			buf.Write(e.data)
			if len(e.data)%2 == 1 {
				buf.WriteByte(0)
			}
		}
	}
}

// tiffBlob lays out a little-endian TIFF stream with IFD0 followed by an
// EXIF sub-IFD.
func tiffBlob(ifd0, sub []ifdEntry) []byte {
	var buf bytes.Buffer
	buf.WriteString("II")
	_ = binary.Write(&buf, binary.LittleEndian, uint16(42))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(8))

	ifd0 = append(ifd0, longEntry(0x8769, 0))
	subOffset := uint32(8 + ifdSize(ifd0))
	ifd0[len(ifd0)-1] = longEntry(0x8769, subOffset)
	writeIFD(&buf, ifd0)
	writeIFD(&buf, sub)
	return buf.Bytes()
}

func jpegWithExif(tiff []byte) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	_ = binary.Write(&buf, binary.BigEndian, uint16(2+6+len(tiff)))
	buf.WriteString("Exif\x00\x00")
	buf.Write(tiff)
	buf.Write([]byte{0xFF, 0xD9})
	return buf.Bytes()
}

func sampleTIFF() []byte {
	return tiffBlob(
		[]ifdEntry{
			asciiEntry(0x010F, "Canon"),
			asciiEntry(0x0110, "Canon EOS R5"),
			asciiEntry(0x0132, "2024:06:16 08:00:00"),
		},
		[]ifdEntry{
			asciiEntry(0x9003, "2024:06:15 14:30:00"),
			longEntry(0xA002, 8192),
			longEntry(0xA003, 5464),
		},
	)
}

func writeBytes(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestEXIFExtractorReadsJPEG(t *testing.T) {
	path := writeBytes(t, "shot.jpg", jpegWithExif(sampleTIFF()))

	meta, err := metadata.EXIFExtractor{}.Extract(path, photo.FormatJPEG)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := &photo.Metadata{
		CaptureDate: "2024:06:15 14:30:00",
		CameraMake:  "Canon",
		CameraModel: "Canon EOS R5",
		Width:       8192,
		Height:      5464,
	}
	if diff := cmp.Diff(want, meta); diff != "" {
		t.Fatalf("metadata mismatch (-want +got):\n%s", diff)
	}
}

func TestEXIFExtractorFallsBackToDateTime(t *testing.T) {
	blob := tiffBlob(
		[]ifdEntry{asciiEntry(0x0132, "2023:12:31 23:59:59")},
		[]ifdEntry{longEntry(0xA002, 640)},
	)
	path := writeBytes(t, "scan.tif", blob)

	meta, err := metadata.EXIFExtractor{}.Extract(path, photo.FormatTIFF)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if meta.CaptureDate != "2023:12:31 23:59:59" {
		t.Fatalf("capture date = %q", meta.CaptureDate)
	}
	if meta.Width != 640 || meta.Height != 0 {
		t.Fatalf("dimensions = %dx%d", meta.Width, meta.Height)
	}
	if meta.GPSLat != nil || meta.GPSLon != nil {
		t.Fatal("expected no GPS coordinates")
	}
}

func TestEXIFExtractorRejectsUnsupportedAndBrokenFiles(t *testing.T) {
	if _, err := (metadata.EXIFExtractor{}).Extract("/dev/null", photo.FormatPNG); err == nil {
		t.Fatal("expected PNG to be unsupported")
	}
	path := writeBytes(t, "broken.jpg", []byte("not a jpeg"))
	if _, err := (metadata.EXIFExtractor{}).Extract(path, photo.FormatJPEG); err == nil {
		t.Fatal("expected decode error")
	}
}

type stubExtractor struct {
	meta  *photo.Metadata
	err   error
	calls int
}

func (s *stubExtractor) Extract(string, photo.Format) (*photo.Metadata, error) {
	s.calls++
	return s.meta, s.err
}

func TestChainReturnsFirstNonEmptyResult(t *testing.T) {
	failing := &stubExtractor{err: errors.New("boom")}
	empty := &stubExtractor{meta: &photo.Metadata{}}
	good := &stubExtractor{meta: &photo.Metadata{CameraMake: "Nikon"}}
	unused := &stubExtractor{meta: &photo.Metadata{CameraMake: "Sony"}}

	meta, err := metadata.Chain{failing, empty, good, unused}.Extract("x.nef", photo.FormatNEF)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if meta.CameraMake != "Nikon" {
		t.Fatalf("make = %q", meta.CameraMake)
	}
	if unused.calls != 0 {
		t.Fatal("chain kept going after a result")
	}

	_, err = metadata.Chain{empty}.Extract("x.nef", photo.FormatNEF)
	if !errors.Is(err, metadata.ErrNoMetadata) {
		t.Fatalf("expected ErrNoMetadata, got %v", err)
	}
	_, err = metadata.Chain{failing}.Extract("x.nef", photo.FormatNEF)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected last error, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "2024:01:15 12:00:00", want: "2024-01-15", ok: true},
		{in: "2024-01-15 12:00:00", want: "2024-01-15", ok: true},
		{in: "2024:01:15", want: "2024-01-15", ok: true},
		{in: "1970:01:01 00:00:00", want: "1970-01-01", ok: true},
		{in: "2100:12:31 00:00:00", want: "2100-12-31", ok: true},
		{in: "1969:12:31 00:00:00"},
		{in: "2101:01:01 00:00:00"},
		{in: "2024:13:01 00:00:00"},
		{in: "2024:00:10 00:00:00"},
		{in: "2024:01:32 00:00:00"},
		{in: "0000:00:00 00:00:00"},
		{in: "garbage"},
		{in: ""},
	}
	for _, tc := range cases {
		got, ok := metadata.ParseDate(tc.in)
		if ok != tc.ok {
			t.Fatalf("ParseDate(%q) ok = %v, want %v", tc.in, ok, tc.ok)
		}
		if ok && got.Format(time.DateOnly) != tc.want {
			t.Fatalf("ParseDate(%q) = %s, want %s", tc.in, got.Format(time.DateOnly), tc.want)
		}
	}
}

func TestDateForFallsBackToModTime(t *testing.T) {
	withExif := photo.Photo{ModTime: 1718444400, Metadata: &photo.Metadata{CaptureDate: "2021:03:04 05:06:07"}}
	if got := metadata.DateFor(withExif).Format(time.DateOnly); got != "2021-03-04" {
		t.Fatalf("DateFor with EXIF = %s", got)
	}

	// 1718444400 is 2024-06-15 09:40:00 UTC.
	bare := photo.Photo{ModTime: 1718444400}
	if got := metadata.DateFor(bare).Format(time.DateOnly); got != "2024-06-15" {
		t.Fatalf("DateFor without EXIF = %s", got)
	}

	invalid := photo.Photo{ModTime: 1718444400, Metadata: &photo.Metadata{CaptureDate: "0000:00:00 00:00:00"}}
	if got := metadata.DateFor(invalid).Format(time.DateOnly); got != "2024-06-15" {
		t.Fatalf("DateFor with invalid EXIF = %s", got)
	}
}

func TestNewExifToolMissingBinary(t *testing.T) {
	_, err := metadata.NewExifTool(metadata.WithExifToolBinary(filepath.Join(t.TempDir(), "missing-exiftool")))
	if err == nil {
		t.Fatal("expected error for missing exiftool binary")
	}
}

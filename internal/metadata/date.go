package metadata

import (
	"strconv"
	"strings"
	"time"

	"losslessvault/internal/photo"
)

const (
	minCaptureYear = 1970
	maxCaptureYear = 2100
)

// ParseDate reads the calendar date from an EXIF timestamp. Both the raw
// "2024:01:15 12:00:00" form and the hyphenated display form are accepted.
// Years outside 1970..2100, months outside 1..12 and days outside 1..31 are
// rejected. The result is midnight UTC.
func ParseDate(value string) (time.Time, bool) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return time.Time{}, false
	}
	parts := strings.FieldsFunc(fields[0], func(r rune) bool { return r == ':' || r == '-' })
	if len(parts) < 3 {
		return time.Time{}, false
	}
	year, errY := strconv.Atoi(parts[0])
	month, errM := strconv.Atoi(parts[1])
	day, errD := strconv.Atoi(parts[2])
	if errY != nil || errM != nil || errD != nil {
		return time.Time{}, false
	}
	if year < minCaptureYear || year > maxCaptureYear || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// DateFor returns the capture date of p, falling back to its modification
// time in UTC.
func DateFor(p photo.Photo) time.Time {
	if p.Metadata != nil {
		if date, ok := ParseDate(p.Metadata.CaptureDate); ok {
			return date
		}
	}
	mtime := p.ModTimeUTC()
	return time.Date(mtime.Year(), mtime.Month(), mtime.Day(), 0, 0, 0, 0, time.UTC)
}

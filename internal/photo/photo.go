package photo

import "time"

// Fingerprint holds the two 64-bit perceptual hashes of a decoded image.
// Photos carry it by pointer so both hashes are present or both are absent.
type Fingerprint struct {
	AHash uint64
	DHash uint64
}

// Metadata is the optional EXIF block attached after extraction.
type Metadata struct {
	CaptureDate string
	CameraMake  string
	CameraModel string
	GPSLat      *float64
	GPSLon      *float64
	Width       int
	Height      int
}

// Empty reports whether no field carries a value.
func (m Metadata) Empty() bool {
	return m.CaptureDate == "" && m.CameraMake == "" && m.CameraModel == "" &&
		m.GPSLat == nil && m.GPSLon == nil && m.Width == 0 && m.Height == 0
}

// Photo is one catalogued file.
type Photo struct {
	ID          int64
	SourceID    int64
	Path        string
	Size        int64
	Format      Format
	ContentHash string
	Fingerprint *Fingerprint
	Metadata    *Metadata
	ModTime     int64
}

// HasFingerprint reports whether perceptual comparison is possible.
func (p Photo) HasFingerprint() bool {
	return p.Fingerprint != nil
}

// ModTimeUTC returns the modification time as a UTC time.
func (p Photo) ModTimeUTC() time.Time {
	return time.Unix(p.ModTime, 0).UTC()
}

// Source is a registered directory that scan passes walk.
type Source struct {
	ID          int64
	Path        string
	LastScanned *time.Time
}

// ScannedFile is a candidate produced by the scanner before hashing.
type ScannedFile struct {
	Path    string
	Size    int64
	Format  Format
	ModTime int64
}

// DuplicateGroup is a connected component of the similarity graph.
// Members are ordered by ascending photo id.
type DuplicateGroup struct {
	ID            int64
	Members       []Photo
	SourceOfTruth int64
	Confidence    Confidence
}

// SourceOfTruthPhoto returns the elected member.
func (g DuplicateGroup) SourceOfTruthPhoto() (Photo, bool) {
	for _, member := range g.Members {
		if member.ID == g.SourceOfTruth {
			return member, true
		}
	}
	return Photo{}, false
}

// MemberIDs returns the member ids in group order.
func (g DuplicateGroup) MemberIDs() []int64 {
	ids := make([]int64, len(g.Members))
	for i, member := range g.Members {
		ids[i] = member.ID
	}
	return ids
}

// Stats summarizes catalog contents.
type Stats struct {
	Sources    int
	Photos     int
	Groups     int
	Duplicates int
	TotalBytes int64
}

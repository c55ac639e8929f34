package format

import (
	"strconv"
	"strings"
	"time"

	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/iptc"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/tiff"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/xmp"
)

// Metadata is everything a single read pass extracts from a container: the
// EXIF directory forest, the XMP packet and the IPTC record stream. Absent
// dialects stay nil or empty.
type Metadata struct {
	FormatName string
	Exif       *tiff.Contents
	Xmp        string
	Iptc       []iptc.Record

	xmpDoc *xmp.Document
}

func (m *Metadata) xmp() *xmp.Document {
	if m.xmpDoc == nil {
		m.xmpDoc = xmp.Parse(m.Xmp)
	}
	return m.xmpDoc
}

// Orientation prefers the EXIF value and falls back to XMP.
func (m *Metadata) Orientation() meta.Orientation {
	if m.Exif != nil {
		if f := m.Exif.FindField(tiff.DirIFD0, tiff.TagOrientation); f != nil {
			return m.Exif.Orientation()
		}
	}
	if v, ok := m.xmp().Property("tiff:Orientation"); ok {
		if n, err := strconv.Atoi(v); err == nil && meta.Orientation(n).Valid() {
			return meta.Orientation(n)
		}
	}
	return meta.OrientationStandard
}

const exifDateTimeLayout = "2006:01:02 15:04:05"

// TakenDate returns the DateTimeOriginal instant in the given zone, with
// SubSecTimeOriginal millisecond precision when present.
func (m *Metadata) TakenDate(zone *time.Location) (time.Time, bool) {
	if m.Exif == nil {
		return time.Time{}, false
	}
	f := m.Exif.FindField(tiff.DirExif, tiff.TagDateTimeOriginal)
	if f == nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(exifDateTimeLayout, f.Ascii(), zone)
	if err != nil {
		return time.Time{}, false
	}
	if sub := m.Exif.FindField(tiff.DirExif, tiff.TagSubSecTimeOriginal); sub != nil {
		digits := strings.TrimSpace(sub.Ascii())
		millis := 0
		for i := 0; i < 3; i++ {
			millis *= 10
			if i < len(digits) && digits[i] >= '0' && digits[i] <= '9' {
				millis += int(digits[i] - '0')
			}
		}
		t = t.Add(time.Duration(millis) * time.Millisecond)
	}
	return t, true
}

// GpsCoordinates returns the decimal GPS position.
func (m *Metadata) GpsCoordinates() (lat, lon float64, ok bool) {
	if m.Exif == nil {
		return 0, 0, false
	}
	lat, ok = gpsValue(m.Exif, tiff.TagGpsLatitude, tiff.TagGpsLatitudeRef, "S")
	if !ok {
		return 0, 0, false
	}
	lon, ok = gpsValue(m.Exif, tiff.TagGpsLongitude, tiff.TagGpsLongitudeRef, "W")
	if !ok {
		return 0, 0, false
	}
	return lat, lon, true
}

func gpsValue(contents *tiff.Contents, tag, refTag uint16, negativeRef string) (float64, bool) {
	f := contents.FindField(tiff.DirGPS, tag)
	if f == nil || f.Type != tiff.TypeRational || f.Count != 3 {
		return 0, false
	}
	value := 0.0
	for i, scale := range []float64{1, 60, 3600} {
		num, den := f.Rational(uint32(i))
		if den == 0 {
			if num != 0 {
				return 0, false
			}
			continue
		}
		value += float64(num) / float64(den) / scale
	}
	if ref := contents.FindField(tiff.DirGPS, refTag); ref != nil && ref.Ascii() == negativeRef {
		value = -value
	}
	return value, true
}

// Keywords returns the IPTC keyword set, falling back to the XMP subject
// bag when the IPTC records hold no keywords.
func (m *Metadata) Keywords() []string {
	if kw := iptc.Keywords(m.Iptc); len(kw) > 0 {
		return kw
	}
	return m.xmp().Array("dc:subject")
}

// Rating returns the XMP rating, -1 through 5.
func (m *Metadata) Rating() (int, bool) {
	v, ok := m.xmp().Property("xmp:Rating")
	if !ok {
		return 0, false
	}
	rating, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return rating, true
}

// PersonsInImage returns the XMP person display names.
func (m *Metadata) PersonsInImage() []string {
	return m.xmp().Array("MP:RegionPersonDisplayName")
}

// Dimensions returns the pixel size recorded in IFD0, falling back to the
// Exif image size tags.
func (m *Metadata) Dimensions() (width, height int64, ok bool) {
	if m.Exif == nil {
		return 0, 0, false
	}
	width = integerField(m.Exif, tiff.DirIFD0, tiff.TagImageWidth)
	height = integerField(m.Exif, tiff.DirIFD0, tiff.TagImageLength)
	if width == 0 || height == 0 {
		width = integerField(m.Exif, tiff.DirExif, tiff.TagExifImageWidth)
		height = integerField(m.Exif, tiff.DirExif, tiff.TagExifImageHeight)
	}
	return width, height, width > 0 && height > 0
}

func integerField(contents *tiff.Contents, dirType int, tag uint16) int64 {
	f := contents.FindField(dirType, tag)
	if f == nil || f.Count < 1 {
		return 0
	}
	v, err := f.AnyInteger(0)
	if err != nil {
		return 0
	}
	return v
}

// Package kim reads and losslessly rewrites the metadata embedded in still
// image containers: EXIF directory trees, XMP packets and IPTC records
// inside JPEG, TIFF, RAF, JPEG XL and HEIC files.
package kim

import (
	"fmt"
	"time"

	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/format"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/update"
)

// ErrUnsupportedFormat is returned when no container matches the input's
// magic number.
var ErrUnsupportedFormat = fmt.Errorf("unsupported image format")

// ReadMetadata parses the metadata of an image buffer.
func ReadMetadata(data []byte) (*format.Metadata, error) {
	f, ok := format.Detect(data)
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	return f.Read(data)
}

// ApplyUpdate routes a metadata update through the container's rewrite path
// and returns the new file bytes. The pixel payload is carried over
// unchanged. Date updates are rendered in the local time zone; use
// ApplyUpdateInZone to pin one.
func ApplyUpdate(data []byte, u meta.Update) ([]byte, error) {
	return ApplyUpdateInZone(data, u, time.Local)
}

func ApplyUpdateInZone(data []byte, u meta.Update, zone *time.Location) ([]byte, error) {
	f, ok := format.Detect(data)
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	return f.Update(data, u, update.NewCoordinator(zone))
}

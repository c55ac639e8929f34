// Package format routes byte buffers to the container that can read and
// rewrite them, keyed by magic number. Each container entry wires the three
// metadata dialects through the update coordinator in the XMP, EXIF, IPTC
// order.
package format

import (
	"fmt"

	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/bmff"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/jpeg"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/raf"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/tiff"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/update"
)

// Format is one supported container.
type Format struct {
	Name   string
	Detect func(data []byte) bool
	Read   func(data []byte) (*Metadata, error)
	Update func(data []byte, u meta.Update, c *update.Coordinator) ([]byte, error)
}

var formats = []Format{
	{Name: "JPEG", Detect: jpeg.IsJPEG, Read: readJpeg, Update: updateJpeg},
	{Name: "TIFF", Detect: tiff.IsTIFF, Read: readTiff, Update: updateTiff},
	{Name: "RAF", Detect: raf.IsRAF, Read: readRaf, Update: updateRaf},
	{Name: "JPEG XL", Detect: bmff.IsJXL, Read: readJxl, Update: updateJxl},
	{Name: "HEIC", Detect: bmff.IsBMFF, Read: readHeic, Update: updateHeic},
}

// Formats lists the supported containers in detection order. JPEG XL must
// run before the generic ftyp match.
func Formats() []Format {
	return formats
}

// Detect returns the container matching the buffer's magic number.
func Detect(data []byte) (*Format, bool) {
	for i := range formats {
		if formats[i].Detect(data) {
			return &formats[i], true
		}
	}
	return nil, false
}

func exifRelevant(u meta.Update) bool {
	switch u.(type) {
	case meta.OrientationUpdate, meta.TakenDateUpdate, meta.GpsUpdate:
		return true
	}
	return false
}

func iptcRelevant(u meta.Update) bool {
	_, ok := u.(meta.KeywordsUpdate)
	return ok
}

func readTiffPayload(payload []byte) (*tiff.Contents, error) {
	contents, err := tiff.Read(payload)
	if err != nil {
		return nil, fmt.Errorf("embedded TIFF stream: %w", err)
	}
	return contents, nil
}

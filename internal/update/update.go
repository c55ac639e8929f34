// Package update projects metadata update requests onto the XMP, EXIF and
// IPTC dialects. Containers apply the three projections in a fixed order,
// XMP first, then EXIF, then IPTC, so each later dialect sees bytes already
// carrying the earlier rewrites.
package update

import (
	"time"

	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/iptc"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/tiff"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/xmp"
)

// Coordinator holds the time zone used to render date updates. Production
// callers pass time.Local; tests inject a fixed zone.
type Coordinator struct {
	zone *time.Location
}

func NewCoordinator(zone *time.Location) *Coordinator {
	if zone == nil {
		zone = time.Local
	}
	return &Coordinator{zone: zone}
}

// ApplyXmp projects the update onto an XMP document. Every update variant
// has an XMP effect; XMP is the authoritative copy.
func (c *Coordinator) ApplyXmp(doc xmp.Editor, u meta.Update) {
	switch u := u.(type) {
	case meta.OrientationUpdate:
		doc.SetOrientation(int(u.Orientation))
	case meta.TakenDateUpdate:
		if u.Clear {
			doc.DeleteDateTimeOriginal()
		} else {
			doc.SetDateTimeOriginal(isoDateTime(u.Millis, c.zone))
		}
	case meta.GpsUpdate:
		if u.Clear {
			doc.DeleteGpsCoordinates()
		} else {
			doc.SetGpsCoordinates(
				FormatDdm(u.Latitude, 'N', 'S'),
				FormatDdm(u.Longitude, 'E', 'W'))
		}
	case meta.RatingUpdate:
		doc.SetRating(u.Rating)
	case meta.KeywordsUpdate:
		doc.SetKeywords(u.Keywords)
	case meta.PersonsUpdate:
		doc.SetPersonsInImage(u.Persons)
	}
}

// ApplyExif projects the update onto a TIFF output set. Only orientation,
// taken date and GPS position are mirrored into EXIF.
func (c *Coordinator) ApplyExif(set *tiff.OutputSet, u meta.Update) error {
	switch u := u.(type) {
	case meta.OrientationUpdate:
		set.Root().SetShort(tiff.TagOrientation, uint16(u.Orientation))
	case meta.TakenDateUpdate:
		if u.Clear {
			if dir := set.FindDirectory(tiff.DirExif); dir != nil {
				dir.Remove(tiff.TagDateTimeOriginal)
				dir.Remove(tiff.TagSubSecTimeOriginal)
			}
			return nil
		}
		dir, err := set.GetOrCreateDirectory(tiff.DirExif)
		if err != nil {
			return err
		}
		dateTime, subSec := exifDateTime(u.Millis, c.zone)
		dir.SetAscii(tiff.TagDateTimeOriginal, dateTime)
		dir.SetAscii(tiff.TagSubSecTimeOriginal, subSec)
	case meta.GpsUpdate:
		if u.Clear {
			if dir := set.FindDirectory(tiff.DirGPS); dir != nil {
				for _, tag := range gpsPositionTags {
					dir.Remove(tag)
				}
			}
			return nil
		}
		dir, err := set.GetOrCreateDirectory(tiff.DirGPS)
		if err != nil {
			return err
		}
		dir.SetBytes(tiff.TagGpsVersionID, tiff.TypeByte, 4, []byte{2, 3, 0, 0})
		dir.SetAscii(tiff.TagGpsLatitudeRef, hemisphere(u.Latitude, "N", "S"))
		dir.SetRationals(tiff.TagGpsLatitude, gpsRationals(u.Latitude))
		dir.SetAscii(tiff.TagGpsLongitudeRef, hemisphere(u.Longitude, "E", "W"))
		dir.SetRationals(tiff.TagGpsLongitude, gpsRationals(u.Longitude))
	}
	return nil
}

var gpsPositionTags = []uint16{
	tiff.TagGpsVersionID,
	tiff.TagGpsLatitudeRef,
	tiff.TagGpsLatitude,
	tiff.TagGpsLongitudeRef,
	tiff.TagGpsLongitude,
}

func hemisphere(value float64, positive, negative string) string {
	if value < 0 {
		return negative
	}
	return positive
}

// ApplyIptc projects the update onto an IIM record stream. Only keywords are
// mirrored into IPTC; every other variant returns the records unchanged.
func (c *Coordinator) ApplyIptc(records []iptc.Record, u meta.Update) []iptc.Record {
	if kw, ok := u.(meta.KeywordsUpdate); ok {
		return iptc.SetKeywords(records, kw.Keywords)
	}
	return records
}

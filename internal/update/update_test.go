package update

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/iptc"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/tiff"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/xmp"
)

func testCoordinator() *Coordinator {
	return NewCoordinator(time.FixedZone("GMT+02:00", 2*60*60))
}

func TestFormatDdm(t *testing.T) {
	assert.Equal(t, "53,13.1635N", FormatDdm(53.219391, 'N', 'S'))
	assert.Equal(t, "8,14.3797E", FormatDdm(8.239661, 'E', 'W'))
	assert.Equal(t, "53,13.1635S", FormatDdm(-53.219391, 'N', 'S'))
	assert.Equal(t, "0,0.0000N", FormatDdm(0, 'N', 'S'))
}

func TestIsoDateTime(t *testing.T) {
	zone := time.FixedZone("GMT+02:00", 2*60*60)
	assert.Equal(t, "2023-07-12T14:48:45.401", isoDateTime(1_689_166_125_401, zone))

	dateTime, subSec := exifDateTime(1_689_166_125_401, zone)
	assert.Equal(t, "2023:07:12 14:48:45", dateTime)
	assert.Equal(t, "401", subSec)
}

func TestApplyXmp(t *testing.T) {
	c := testCoordinator()
	doc := xmp.Empty()
	c.ApplyXmp(doc, meta.OrientationUpdate{Orientation: meta.OrientationRotateRight})
	c.ApplyXmp(doc, meta.TakenDateUpdate{Millis: 1_689_166_125_401})
	c.ApplyXmp(doc, meta.GpsUpdate{Latitude: 53.219391, Longitude: 8.239661})
	c.ApplyXmp(doc, meta.RatingUpdate{Rating: 4})
	c.ApplyXmp(doc, meta.KeywordsUpdate{Keywords: []string{"test", "hello"}})
	c.ApplyXmp(doc, meta.PersonsUpdate{Persons: []string{"Ada Lovelace"}})

	parsed := xmp.Parse(doc.Serialize(false))
	v, _ := parsed.Property("tiff:Orientation")
	assert.Equal(t, "6", v)
	v, _ = parsed.Property("exif:DateTimeOriginal")
	assert.Equal(t, "2023-07-12T14:48:45.401", v)
	v, _ = parsed.Property("exif:GPSLatitude")
	assert.Equal(t, "53,13.1635N", v)
	v, _ = parsed.Property("exif:GPSLongitude")
	assert.Equal(t, "8,14.3797E", v)
	v, _ = parsed.Property("xmp:Rating")
	assert.Equal(t, "4", v)
	assert.Equal(t, []string{"hello", "test"}, parsed.Array("dc:subject"))
	assert.Equal(t, []string{"Ada Lovelace"}, parsed.Array("MP:RegionPersonDisplayName"))
}

func TestApplyXmpClears(t *testing.T) {
	c := testCoordinator()
	doc := xmp.Empty()
	c.ApplyXmp(doc, meta.TakenDateUpdate{Millis: 1_689_166_125_401})
	c.ApplyXmp(doc, meta.GpsUpdate{Latitude: 1, Longitude: 1})
	c.ApplyXmp(doc, meta.TakenDateUpdate{Clear: true})
	c.ApplyXmp(doc, meta.GpsUpdate{Clear: true})

	packet := doc.Serialize(false)
	assert.NotContains(t, packet, "DateTimeOriginal")
	assert.NotContains(t, packet, "GPSLatitude")
}

func TestApplyExifOrientation(t *testing.T) {
	c := testCoordinator()
	set := tiff.NewOutputSet(binary.LittleEndian)
	require.NoError(t, c.ApplyExif(set, meta.OrientationUpdate{Orientation: meta.OrientationRotateLeft}))

	f := set.Root().FindField(tiff.TagOrientation)
	require.NotNil(t, f)
	assert.Equal(t, []byte{8, 0}, f.Value)
}

func TestApplyExifTakenDate(t *testing.T) {
	c := testCoordinator()
	set := tiff.NewOutputSet(binary.LittleEndian)
	require.NoError(t, c.ApplyExif(set, meta.TakenDateUpdate{Millis: 1_689_166_125_401}))

	dir := set.FindDirectory(tiff.DirExif)
	require.NotNil(t, dir)
	f := dir.FindField(tiff.TagDateTimeOriginal)
	require.NotNil(t, f)
	assert.Equal(t, "2023:07:12 14:48:45\x00", string(f.Value))
	f = dir.FindField(tiff.TagSubSecTimeOriginal)
	require.NotNil(t, f)
	assert.Equal(t, "401\x00", string(f.Value))

	require.NoError(t, c.ApplyExif(set, meta.TakenDateUpdate{Clear: true}))
	assert.Nil(t, dir.FindField(tiff.TagDateTimeOriginal))
	assert.Nil(t, dir.FindField(tiff.TagSubSecTimeOriginal))
}

func TestApplyExifGps(t *testing.T) {
	c := testCoordinator()
	set := tiff.NewOutputSet(binary.LittleEndian)
	require.NoError(t, c.ApplyExif(set, meta.GpsUpdate{Latitude: 53.219391, Longitude: -8.239661}))

	dir := set.FindDirectory(tiff.DirGPS)
	require.NotNil(t, dir)
	assert.Equal(t, []byte{2, 3, 0, 0}, dir.FindField(tiff.TagGpsVersionID).Value)
	assert.Equal(t, "N\x00", string(dir.FindField(tiff.TagGpsLatitudeRef).Value))
	assert.Equal(t, "W\x00", string(dir.FindField(tiff.TagGpsLongitudeRef).Value))

	lat := dir.FindField(tiff.TagGpsLatitude)
	require.NotNil(t, lat)
	require.Equal(t, uint32(3), lat.Count)
	assert.Equal(t, uint32(53), binary.LittleEndian.Uint32(lat.Value))
	assert.Equal(t, uint32(131635), binary.LittleEndian.Uint32(lat.Value[8:]))
	assert.Equal(t, uint32(10000), binary.LittleEndian.Uint32(lat.Value[12:]))

	require.NoError(t, c.ApplyExif(set, meta.GpsUpdate{Clear: true}))
	assert.Nil(t, dir.FindField(tiff.TagGpsLatitude))
	assert.Nil(t, dir.FindField(tiff.TagGpsVersionID))
}

func TestApplyExifIgnoresXmpOnlyUpdates(t *testing.T) {
	c := testCoordinator()
	set := tiff.NewOutputSet(binary.LittleEndian)
	require.NoError(t, c.ApplyExif(set, meta.RatingUpdate{Rating: 4}))
	require.NoError(t, c.ApplyExif(set, meta.KeywordsUpdate{Keywords: []string{"a"}}))
	assert.Empty(t, set.Root().Fields())
	assert.Nil(t, set.FindDirectory(tiff.DirExif))
}

func TestApplyIptc(t *testing.T) {
	c := testCoordinator()
	records := []iptc.Record{{Record: 2, DataSet: 5, Data: []byte("title")}}

	out := c.ApplyIptc(records, meta.KeywordsUpdate{Keywords: []string{"test", "hello", "Äußerst öffentlich"}})
	assert.Equal(t, []string{"hello", "test", "Äußerst öffentlich"}, iptc.Keywords(out))

	unchanged := c.ApplyIptc(records, meta.RatingUpdate{Rating: 2})
	assert.Equal(t, records, unchanged)
}

package jpeg

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/tiff"
)

var jfifPayload = []byte("JFIF\x00\x01\x02\x01\x00\x48\x00\x48\x00\x00")

// scanData is a minimal SOS marker, scan header, entropy bytes and EOI.
var scanData = []byte{0xFF, 0xDA, 0x00, 0x04, 0x01, 0x02, 0x11, 0x22, 0x00, 0x3F, 0xFF, 0xD9}

func rawSegment(marker byte, payload []byte) []byte {
	b := []byte{0xFF, marker, byte((len(payload) + 2) >> 8), byte(len(payload) + 2)}
	return append(b, payload...)
}

func buildJPEG(segments ...[]byte) []byte {
	out := []byte{0xFF, 0xD8}
	for _, s := range segments {
		out = append(out, s...)
	}
	return append(out, scanData...)
}

func exifPayload(t *testing.T, orientation meta.Orientation) []byte {
	t.Helper()
	set := tiff.NewOutputSet(binary.LittleEndian)
	set.Root().SetAscii(tiff.TagMake, "Canon")
	set.Root().SetShort(tiff.TagOrientation, uint16(orientation))
	stream, err := tiff.Write(set)
	require.NoError(t, err)
	return append(append([]byte(nil), "Exif\x00\x00"...), stream...)
}

func TestParseSerializeRoundTrip(t *testing.T) {
	data := buildJPEG(
		rawSegment(markerAPP0, jfifPayload),
		rawSegment(markerAPP1, exifPayload(t, 1)),
	)
	f, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, f.Segments, 2)

	out, err := f.Serialize()
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("not a jpeg"))
	assert.ErrorIs(t, err, meta.ErrInvalidMagic)

	_, err = Parse([]byte{0xFF, 0xD8, 0xFF})
	assert.ErrorIs(t, err, meta.ErrTruncated)

	// Segment length running past the end of the stream.
	_, err = Parse([]byte{0xFF, 0xD8, 0xFF, 0xE1, 0x40, 0x00, 0x01})
	assert.ErrorIs(t, err, meta.ErrTruncated)
}

func TestSetExifReplacesSegment(t *testing.T) {
	data := buildJPEG(
		rawSegment(markerAPP0, jfifPayload),
		rawSegment(markerAPP1, exifPayload(t, 1)),
	)
	f, err := Parse(data)
	require.NoError(t, err)

	set := tiff.NewOutputSet(binary.LittleEndian)
	set.Root().SetShort(tiff.TagOrientation, 3)
	require.NoError(t, f.SetExif(set))

	out, err := f.Serialize()
	require.NoError(t, err)
	reparsed, err := Parse(out)
	require.NoError(t, err)
	require.Len(t, reparsed.Segments, 2)

	contents, err := reparsed.ReadExif()
	require.NoError(t, err)
	require.NotNil(t, contents)
	assert.Equal(t, meta.Orientation(3), contents.Orientation())
	assert.True(t, bytes.HasSuffix(out, scanData))
}

func TestSetExifInsertsAfterApp0(t *testing.T) {
	data := buildJPEG(rawSegment(markerAPP0, jfifPayload))
	f, err := Parse(data)
	require.NoError(t, err)

	set := tiff.NewOutputSet(binary.LittleEndian)
	set.Root().SetShort(tiff.TagOrientation, 6)
	require.NoError(t, f.SetExif(set))

	require.Len(t, f.Segments, 2)
	assert.Equal(t, byte(markerAPP0), f.Segments[0].Marker)
	assert.Equal(t, byte(markerAPP1), f.Segments[1].Marker)

	out, err := f.Serialize()
	require.NoError(t, err)
	assert.True(t, bytes.HasSuffix(out, scanData))
}

func TestSetExifTooLarge(t *testing.T) {
	f, err := Parse(buildJPEG())
	require.NoError(t, err)

	set := tiff.NewOutputSet(binary.LittleEndian)
	set.Root().SetBytes(tiff.TagMakerNote, tiff.TypeUndefined, 70000, make([]byte, 70000))
	assert.ErrorIs(t, f.SetExif(set), meta.ErrExifTooLarge)
}

func TestSetXmp(t *testing.T) {
	data := buildJPEG(
		rawSegment(markerAPP0, jfifPayload),
		rawSegment(markerAPP1, exifPayload(t, 1)),
	)
	f, err := Parse(data)
	require.NoError(t, err)

	_, ok := f.Xmp()
	assert.False(t, ok)

	f.SetXmpXml("<x:xmpmeta/>")
	require.Len(t, f.Segments, 3)
	// The new packet lands right after the EXIF segment.
	assert.Equal(t, byte(markerAPP1), f.Segments[2].Marker)
	xmp, ok := f.Xmp()
	require.True(t, ok)
	assert.Equal(t, "<x:xmpmeta/>", xmp)

	f.SetXmpXml("<x:xmpmeta>2</x:xmpmeta>")
	require.Len(t, f.Segments, 3)
	xmp, ok = f.Xmp()
	require.True(t, ok)
	assert.Equal(t, "<x:xmpmeta>2</x:xmpmeta>", xmp)
}

func TestSetPhotoshopBlock(t *testing.T) {
	f, err := Parse(buildJPEG(rawSegment(markerAPP0, jfifPayload)))
	require.NoError(t, err)

	irb := []byte{'8', 'B', 'I', 'M', 0x04, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	f.SetPhotoshopBlock(irb)
	require.Len(t, f.Segments, 2)
	assert.Equal(t, byte(markerAPP13), f.Segments[1].Marker)

	got, ok := f.PhotoshopBlock()
	require.True(t, ok)
	assert.Equal(t, irb, got)
}

func TestSetOrientationFastPath(t *testing.T) {
	data := buildJPEG(
		rawSegment(markerAPP0, jfifPayload),
		rawSegment(markerAPP1, exifPayload(t, 1)),
	)
	out, ok := SetOrientation(data, meta.OrientationRotateRight)
	require.True(t, ok)
	require.Equal(t, len(data), len(out))

	changed := 0
	for i := range data {
		if data[i] != out[i] {
			changed++
		}
	}
	assert.Equal(t, 1, changed)

	f, err := Parse(out)
	require.NoError(t, err)
	contents, err := f.ReadExif()
	require.NoError(t, err)
	assert.Equal(t, meta.OrientationRotateRight, contents.Orientation())
}

func TestSetOrientationWithoutExif(t *testing.T) {
	data := buildJPEG(rawSegment(markerAPP0, jfifPayload))
	_, ok := SetOrientation(data, meta.OrientationRotateLeft)
	assert.False(t, ok)
}

func TestEntropyDataPreserved(t *testing.T) {
	data := buildJPEG(rawSegment(markerAPP0, jfifPayload))
	f, err := Parse(data)
	require.NoError(t, err)

	set := tiff.NewOutputSet(binary.BigEndian)
	set.Root().SetShort(tiff.TagOrientation, 8)
	require.NoError(t, f.SetExif(set))
	f.SetXmpXml("<x/>")

	out, err := f.Serialize()
	require.NoError(t, err)
	assert.Equal(t, scanData, out[len(out)-len(scanData):])
	assert.Equal(t, []byte{0xFF, 0xD8}, out[:2])
}

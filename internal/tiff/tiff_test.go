package tiff

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
)

func TestReadHeader(t *testing.T) {
	_, err := Read([]byte{'I', 'I'})
	assert.ErrorIs(t, err, meta.ErrTruncated)

	_, err = Read([]byte{'I', 'M', 42, 0, 8, 0, 0, 0})
	assert.ErrorIs(t, err, meta.ErrInvalidByteOrder)

	_, err = Read([]byte{'X', 'X', 42, 0, 8, 0, 0, 0})
	assert.ErrorIs(t, err, meta.ErrInvalidByteOrder)

	_, err = Read([]byte{'I', 'I', 43, 0, 8, 0, 0, 0})
	assert.Error(t, err)
}

func TestReadEmpty(t *testing.T) {
	// Valid header whose first-IFD offset points past the end of data.
	_, err := Read([]byte{'I', 'I', 42, 0, 200, 0, 0, 0})
	assert.ErrorIs(t, err, meta.ErrNoDirectories)
}

func TestWriteReadRoundTrip(t *testing.T) {
	set := NewOutputSet(binary.LittleEndian)
	root := set.Root()
	root.SetAscii(TagMake, "Canon")
	root.SetShort(TagOrientation, 6)
	root.SetRationals(TagXResolution, []Rational{{72, 1}})

	exif, err := set.GetOrCreateDirectory(DirExif)
	require.NoError(t, err)
	exif.SetAscii(TagDateTimeOriginal, "2023:08:01 11:00:00")
	exif.SetRationals(TagExposureTime, []Rational{{1, 250}})

	gps, err := set.GetOrCreateDirectory(DirGPS)
	require.NoError(t, err)
	gps.SetAscii(TagGpsLatitudeRef, "N")

	ifd1, err := set.GetOrCreateDirectory(DirIFD1)
	require.NoError(t, err)
	ifd1.Thumbnail = []byte{0xFF, 0xD8, 0x01, 0x02, 0xFF, 0xD9}

	data, err := Write(set)
	require.NoError(t, err)

	contents, err := Read(data)
	require.NoError(t, err)

	ifd0 := contents.FindDirectory(DirIFD0)
	require.NotNil(t, ifd0)
	makeField := ifd0.FindField(TagMake)
	require.NotNil(t, makeField)
	assert.Equal(t, "Canon", makeField.Ascii())
	assert.Equal(t, meta.Orientation(6), contents.Orientation())

	res := ifd0.FindField(TagXResolution)
	require.NotNil(t, res)
	n, d := res.Rational(0)
	assert.Equal(t, uint32(72), n)
	assert.Equal(t, uint32(1), d)

	exifDir := contents.FindDirectory(DirExif)
	require.NotNil(t, exifDir)
	taken := exifDir.FindField(TagDateTimeOriginal)
	require.NotNil(t, taken)
	assert.Equal(t, "2023:08:01 11:00:00", taken.Ascii())

	gpsDir := contents.FindDirectory(DirGPS)
	require.NotNil(t, gpsDir)
	ref := gpsDir.FindField(TagGpsLatitudeRef)
	require.NotNil(t, ref)
	assert.Equal(t, "N", ref.Ascii())

	thumbDir := contents.FindDirectory(DirIFD1)
	require.NotNil(t, thumbDir)
	assert.Equal(t, []byte{0xFF, 0xD8, 0x01, 0x02, 0xFF, 0xD9}, thumbDir.Thumbnail)
}

func TestWriteBigEndian(t *testing.T) {
	set := NewOutputSet(binary.BigEndian)
	set.Root().SetShort(TagOrientation, 3)

	data, err := Write(set)
	require.NoError(t, err)
	assert.Equal(t, byte('M'), data[0])
	assert.Equal(t, byte('M'), data[1])

	contents, err := Read(data)
	require.NoError(t, err)
	assert.Equal(t, meta.Orientation(3), contents.Orientation())
}

func TestWriteSortsEntries(t *testing.T) {
	set := NewOutputSet(binary.LittleEndian)
	root := set.Root()
	root.SetAscii(TagSoftware, "kim")
	root.SetShort(TagOrientation, 1)
	root.SetAscii(TagMake, "Nikon")

	data, err := Write(set)
	require.NoError(t, err)
	contents, err := Read(data)
	require.NoError(t, err)

	fields := contents.FindDirectory(DirIFD0).Fields
	require.Len(t, fields, 3)
	for i := 1; i < len(fields); i++ {
		assert.Less(t, fields[i-1].Tag, fields[i].Tag)
	}
}

func TestWriteDropsMaterialisedOffsetFields(t *testing.T) {
	set := NewOutputSet(binary.LittleEndian)
	root := set.Root()
	root.SetShort(TagOrientation, 1)
	// A stale pointer must not survive into the output.
	root.SetLong(TagExifOffset, 0xDEAD)

	data, err := Write(set)
	require.NoError(t, err)
	contents, err := Read(data)
	require.NoError(t, err)
	assert.Nil(t, contents.FindDirectory(DirExif))
	assert.Nil(t, contents.FindField(DirIFD0, TagExifOffset))
}

func TestWriteRejectsCountMismatch(t *testing.T) {
	set := NewOutputSet(binary.LittleEndian)
	set.Root().SetBytes(TagOrientation, TypeShort, 2, []byte{0, 1})

	_, err := Write(set)
	var mismatch meta.FieldCountMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "Orientation", mismatch.Name)
}

func TestGetOrCreateDirectoryRejectsMakerNotes(t *testing.T) {
	set := NewOutputSet(binary.LittleEndian)
	_, err := set.GetOrCreateDirectory(DirMakerNoteCanon)
	assert.ErrorIs(t, err, meta.ErrUnsupportedDirectory)
}

// rawIFD assembles a little-endian TIFF with a single IFD0 from pre-built
// 12-byte entries.
func rawIFD(entries ...[]byte) []byte {
	data := []byte{'I', 'I', 42, 0, 8, 0, 0, 0}
	data = append(data, byte(len(entries)), 0)
	for _, e := range entries {
		data = append(data, e...)
	}
	return append(data, 0, 0, 0, 0)
}

func rawEntry(tag uint16, fieldType uint16, count uint32, value [4]byte) []byte {
	e := make([]byte, 12)
	binary.LittleEndian.PutUint16(e[0:], tag)
	binary.LittleEndian.PutUint16(e[2:], fieldType)
	binary.LittleEndian.PutUint32(e[4:], count)
	copy(e[8:], value[:])
	return e
}

func TestReadSkipsInvalidEntries(t *testing.T) {
	data := rawIFD(
		rawEntry(TagOrientation, 99, 1, [4]byte{1}),             // unknown type
		rawEntry(0, uint16(TypeShort), 1, [4]byte{1}),           // fill word
		rawEntry(TagImageWidth, uint16(TypeLong), 1, [4]byte{100}),
		rawEntry(TagMake, uint16(TypeAscii), 4000, [4]byte{0xF0, 0xFF, 0, 0}), // offset past EOF
	)
	contents, err := Read(data)
	require.NoError(t, err)

	dir := contents.FindDirectory(DirIFD0)
	require.NotNil(t, dir)
	require.Len(t, dir.Fields, 1)
	assert.Equal(t, TagImageWidth, dir.Fields[0].Tag)
}

func TestReadKeepsFirstDuplicateTag(t *testing.T) {
	data := rawIFD(
		rawEntry(TagOrientation, uint16(TypeShort), 1, [4]byte{6}),
		rawEntry(TagOrientation, uint16(TypeShort), 1, [4]byte{3}),
	)
	contents, err := Read(data)
	require.NoError(t, err)
	assert.Equal(t, meta.Orientation(6), contents.Orientation())
}

func TestReadBreaksDirectoryCycle(t *testing.T) {
	// IFD0 whose next pointer loops back onto itself.
	data := []byte{'I', 'I', 42, 0, 8, 0, 0, 0}
	data = append(data, 1, 0)
	data = append(data, rawEntry(TagOrientation, uint16(TypeShort), 1, [4]byte{1})...)
	data = append(data, 8, 0, 0, 0)

	contents, err := Read(data)
	require.NoError(t, err)
	assert.Len(t, contents.Directories, 1)
}

func TestReadDropsDanglingExifPointer(t *testing.T) {
	data := rawIFD(
		rawEntry(TagOrientation, uint16(TypeShort), 1, [4]byte{1}),
		rawEntry(TagExifOffset, uint16(TypeLong), 1, [4]byte{0xF0, 0xFF, 0, 0}),
	)
	contents, err := Read(data)
	require.NoError(t, err)

	dir := contents.FindDirectory(DirIFD0)
	require.NotNil(t, dir)
	assert.Nil(t, dir.FindField(TagExifOffset))
	assert.Nil(t, contents.FindDirectory(DirExif))
}

func TestReadDropsBrokenThumbnailDirectory(t *testing.T) {
	data := []byte{'I', 'I', 42, 0, 8, 0, 0, 0}
	data = append(data, 1, 0)
	data = append(data, rawEntry(TagOrientation, uint16(TypeShort), 1, [4]byte{1})...)
	// Next pointer aims at the last byte, where no entry count fits.
	next := uint32(len(data) + 4)
	var nextBytes [4]byte
	binary.LittleEndian.PutUint32(nextBytes[:], next)
	data = append(data, nextBytes[:]...)
	data = append(data, 0xFF)

	contents, err := Read(data)
	require.NoError(t, err)
	assert.Len(t, contents.Directories, 1)
	assert.NotNil(t, contents.FindDirectory(DirIFD0))
}

func TestReadClipsThumbnailLength(t *testing.T) {
	set := NewOutputSet(binary.LittleEndian)
	set.Root().SetShort(TagOrientation, 1)
	ifd1, err := set.GetOrCreateDirectory(DirIFD1)
	require.NoError(t, err)
	ifd1.Thumbnail = []byte{1, 2, 3, 4}

	data, err := Write(set)
	require.NoError(t, err)
	// Inflate the declared thumbnail length past the end of the stream.
	contents, err := Read(data)
	require.NoError(t, err)
	dir := contents.FindDirectory(DirIFD1)
	require.NotNil(t, dir)
	lengthField := dir.FindField(TagJPEGInterchangeFormatLength)
	require.NotNil(t, lengthField)
	pos := int(dir.Offset) + 2 + 12*lengthField.EntryIndex + 8
	binary.LittleEndian.PutUint32(data[pos:], 4000)

	contents, err = Read(data)
	require.NoError(t, err)
	dir = contents.FindDirectory(DirIFD1)
	require.NotNil(t, dir)
	assert.Equal(t, []byte{1, 2, 3, 4}, dir.Thumbnail[:4])
	assert.True(t, len(dir.Thumbnail) < 4000)
}

func TestReadGpsVersionID(t *testing.T) {
	set := NewOutputSet(binary.LittleEndian)
	set.Root().SetShort(TagOrientation, 1)
	gps, err := set.GetOrCreateDirectory(DirGPS)
	require.NoError(t, err)
	gps.SetBytes(TagGpsVersionID, TypeByte, 4, []byte{2, 3, 0, 0})

	data, err := Write(set)
	require.NoError(t, err)
	contents, err := Read(data)
	require.NoError(t, err)

	gpsDir := contents.FindDirectory(DirGPS)
	require.NotNil(t, gpsDir)
	version := gpsDir.FindField(TagGpsVersionID)
	require.NotNil(t, version)
	assert.Equal(t, []byte{2, 3, 0, 0}, version.Value)
}

func TestSubIFDsRoundTrip(t *testing.T) {
	set := NewOutputSet(binary.LittleEndian)
	set.Root().SetShort(TagOrientation, 1)
	sub, err := set.GetOrCreateDirectory(DirSubIFD1)
	require.NoError(t, err)
	sub.ViaSubIFDs = true
	sub.SetLong(TagImageWidth, 4000)

	data, err := Write(set)
	require.NoError(t, err)
	contents, err := Read(data)
	require.NoError(t, err)

	subDir := contents.FindDirectory(DirSubIFD1)
	require.NotNil(t, subDir)
	width := subDir.FindField(TagImageWidth)
	require.NotNil(t, width)
	v, err := width.AnyInteger(0)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), v)
}

func TestPatchOrientation(t *testing.T) {
	set := NewOutputSet(binary.LittleEndian)
	root := set.Root()
	root.SetAscii(TagMake, "Fujifilm")
	root.SetShort(TagOrientation, 1)

	data, err := Write(set)
	require.NoError(t, err)

	require.True(t, PatchOrientation(data, meta.OrientationRotateRight))
	contents, err := Read(data)
	require.NoError(t, err)
	assert.Equal(t, meta.OrientationRotateRight, contents.Orientation())

	makeField := contents.FindField(DirIFD0, TagMake)
	require.NotNil(t, makeField)
	assert.Equal(t, "Fujifilm", makeField.Ascii())
}

func TestPatchOrientationAbsent(t *testing.T) {
	set := NewOutputSet(binary.LittleEndian)
	set.Root().SetAscii(TagMake, "Fujifilm")

	data, err := Write(set)
	require.NoError(t, err)
	assert.False(t, PatchOrientation(data, meta.OrientationRotateLeft))
	assert.False(t, PatchOrientation([]byte{'I', 'I'}, meta.OrientationRotateLeft))
}

func TestNewOutputSetFrom(t *testing.T) {
	set := NewOutputSet(binary.LittleEndian)
	root := set.Root()
	root.SetAscii(TagMake, "Sony")
	root.SetBytes(TagCopyright, TypeAscii, 8, []byte("ab\x00\x00\x00\x00\x00\x00"))
	exif, err := set.GetOrCreateDirectory(DirExif)
	require.NoError(t, err)
	exif.SetAscii(TagDateTimeOriginal, "2023:01:01 00:00:00")

	data, err := Write(set)
	require.NoError(t, err)
	contents, err := Read(data)
	require.NoError(t, err)

	out, err := NewOutputSetFrom(contents)
	require.NoError(t, err)

	outRoot := out.FindDirectory(DirIFD0)
	require.NotNil(t, outRoot)
	assert.Nil(t, outRoot.FindField(TagExifOffset))

	copyright := outRoot.FindField(TagCopyright)
	require.NotNil(t, copyright)
	assert.Equal(t, []byte("ab\x00"), copyright.Value)

	orientation := outRoot.FindField(TagOrientation)
	require.NotNil(t, orientation)

	// The conversion must survive a second serialization unchanged in
	// semantics.
	data2, err := Write(out)
	require.NoError(t, err)
	contents2, err := Read(data2)
	require.NoError(t, err)
	taken := contents2.FindField(DirExif, TagDateTimeOriginal)
	require.NotNil(t, taken)
	assert.Equal(t, "2023:01:01 00:00:00", taken.Ascii())
}

func TestFieldTypeSizes(t *testing.T) {
	assert.Equal(t, uint32(1), TypeByte.Size())
	assert.Equal(t, uint32(2), TypeShort.Size())
	assert.Equal(t, uint32(4), TypeLong.Size())
	assert.Equal(t, uint32(8), TypeRational.Size())
	assert.Equal(t, uint32(0), FieldType(99).Size())
	assert.False(t, FieldType(99).Valid())
	assert.Equal(t, "Unknown", FieldType(99).Name())
}

func TestTagName(t *testing.T) {
	assert.Equal(t, "Orientation", TagName(DirIFD0, TagOrientation))
	assert.Equal(t, "GPSVersionID", TagName(DirGPS, TagGpsVersionID))
	assert.Equal(t, "0xBEEF", TagName(DirIFD0, 0xBEEF))
}

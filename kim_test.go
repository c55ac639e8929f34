package kim

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/tiff"
)

func testJpeg(t *testing.T) []byte {
	t.Helper()
	set := tiff.NewOutputSet(binary.LittleEndian)
	set.Root().SetShort(tiff.TagOrientation, 1)
	stream, err := tiff.Write(set)
	require.NoError(t, err)

	app1 := append([]byte("Exif\x00\x00"), stream...)
	out := []byte{0xFF, 0xD8, 0xFF, 0xE1}
	length := make([]byte, 2)
	binary.BigEndian.PutUint16(length, uint16(len(app1)+2))
	out = append(out, length...)
	out = append(out, app1...)
	return append(out, 0xFF, 0xDA, 0x00, 0x02, 0x05, 0xFF, 0xD9)
}

func TestReadMetadata(t *testing.T) {
	m, err := ReadMetadata(testJpeg(t))
	require.NoError(t, err)
	assert.Equal(t, "JPEG", m.FormatName)
	assert.Equal(t, meta.OrientationStandard, m.Orientation())

	_, err = ReadMetadata([]byte("not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestApplyUpdate(t *testing.T) {
	zone := time.FixedZone("GMT+02:00", 2*60*60)
	out, err := ApplyUpdateInZone(testJpeg(t), meta.TakenDateUpdate{Millis: 1_689_166_125_401}, zone)
	require.NoError(t, err)

	m, err := ReadMetadata(out)
	require.NoError(t, err)
	taken, ok := m.TakenDate(zone)
	require.True(t, ok)
	assert.Equal(t, "2023-07-12T14:48:45.401", taken.Format("2006-01-02T15:04:05.000"))
	assert.Contains(t, m.Xmp, "2023-07-12T14:48:45.401")
}

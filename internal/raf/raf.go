// Package raf edits the metadata of Fujifilm RAF files through the JPEG
// preview they embed. The raw sensor payload is never touched; updates
// rewrite the embedded JPEG and patch the header fields that frame it.
package raf

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/bytesio"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
)

var magic = []byte("FUJIFILMCCD-RAW")

const (
	jpegOffsetField = 84
	jpegLengthField = 88
	// Offset fields after the JPEG pointer that shift when the embedded
	// JPEG changes length.
	cfaHeaderOffsetField = 92
	cfaOffsetField       = 100

	headerEnd = 108
)

func IsRAF(data []byte) bool {
	return bytes.HasPrefix(data, magic)
}

// File is a parsed RAF container: the bytes plus the location of the
// embedded JPEG.
type File struct {
	data       []byte
	jpegOffset int
	jpegLength int
}

// Parse locates the embedded JPEG. The header's offset field is preferred;
// when it does not point at a JPEG magic the stream is scanned for one.
func Parse(data []byte) (*File, error) {
	if !IsRAF(data) {
		return nil, fmt.Errorf("RAF magic: %w", meta.ErrInvalidMagic)
	}
	r := bytesio.NewRandomReader(data)
	offset, err := r.ReadUint32At(jpegOffsetField, binary.BigEndian)
	if err != nil {
		return nil, err
	}
	length, err := r.ReadUint32At(jpegLengthField, binary.BigEndian)
	if err != nil {
		return nil, err
	}
	f := &File{data: data, jpegOffset: int(offset), jpegLength: int(length)}
	if !f.jpegValid() {
		start, ok := scanForJpeg(data, headerEnd)
		if !ok {
			return nil, fmt.Errorf("embedded JPEG: %w", meta.ErrTruncated)
		}
		f.jpegOffset = start
		f.jpegLength = len(data) - start
	}
	return f, nil
}

func (f *File) jpegValid() bool {
	end := f.jpegOffset + f.jpegLength
	return f.jpegOffset >= headerEnd && f.jpegLength > 2 && end <= len(f.data) &&
		f.data[f.jpegOffset] == 0xFF && f.data[f.jpegOffset+1] == 0xD8
}

// scanForJpeg walks the stream byte by byte for an SOI marker followed by
// another marker prefix. The scanner consumes the SOI while matching, so the
// match position is recovered from the cursor.
func scanForJpeg(data []byte, from int) (int, bool) {
	r := bytesio.NewReader(data)
	if err := r.Skip(from); err != nil {
		return 0, false
	}
	matched := 0
	for r.Available() > 0 {
		b, err := r.ReadByte()
		if err != nil {
			return 0, false
		}
		switch {
		case matched == 0 && b == 0xFF, matched == 1 && b == 0xD8:
			matched++
		case matched == 2 && b == 0xFF:
			return r.Position() - 3, true
		case b == 0xFF:
			matched = 1
		default:
			matched = 0
		}
	}
	return 0, false
}

// EmbeddedJpeg returns a copy of the embedded JPEG stream, read through a
// PrePendingReader that yields the SOI marker at jpegOffset in front of the
// remainder.
func (f *File) EmbeddedJpeg() ([]byte, error) {
	r := bytesio.NewPrePendingReader(
		f.data[f.jpegOffset:f.jpegOffset+2],
		f.data[f.jpegOffset+2:f.jpegOffset+f.jpegLength])
	return r.ReadBytes(r.Available())
}

// SetEmbeddedJpeg splices a new JPEG into the container, patching the
// header's length field and the offset fields that point past the JPEG.
func (f *File) SetEmbeddedJpeg(jpeg []byte) ([]byte, error) {
	delta := len(jpeg) - f.jpegLength
	out := make([]byte, 0, len(f.data)+delta)
	out = append(out, f.data[:f.jpegOffset]...)
	out = append(out, jpeg...)
	out = append(out, f.data[f.jpegOffset+f.jpegLength:]...)

	binary.BigEndian.PutUint32(out[jpegLengthField:], uint32(len(jpeg)))
	for _, field := range []int{cfaHeaderOffsetField, cfaOffsetField} {
		v := binary.BigEndian.Uint32(out[field:])
		if v != 0 && int(v) >= f.jpegOffset+f.jpegLength {
			binary.BigEndian.PutUint32(out[field:], uint32(int(v)+delta))
		}
	}
	return out, nil
}

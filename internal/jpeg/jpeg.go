package jpeg

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/bytesio"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
)

const (
	markerSOI = 0xD8
	markerEOI = 0xD9
	markerSOS = 0xDA

	markerAPP0  = 0xE0
	markerAPP1  = 0xE1
	markerAPP13 = 0xED
)

// A segment payload plus its 2-byte length field must fit a u16.
const maxSegmentPayload = 65533

var magic = []byte{0xFF, 0xD8, 0xFF}

func IsJPEG(data []byte) bool {
	return bytes.HasPrefix(data, magic)
}

// Segment is one marker segment between SOI and SOS.
type Segment struct {
	Marker byte
	// Payload aliases the parsed input until replaced; callers must not
	// mutate it in place.
	Payload []byte
	// PayloadOffset is the payload's position in the parsed stream, or -1
	// for segments created after parsing.
	PayloadOffset int
}

// File is a parsed JPEG marker stream. Segments covers everything between
// SOI and the first SOS (or EOI); Trailer is the byte range from that marker
// through the end of the stream, carried verbatim so the entropy-coded image
// data is never touched.
type File struct {
	Segments []*Segment
	Trailer  []byte
}

func Parse(data []byte) (*File, error) {
	if !IsJPEG(data) {
		return nil, fmt.Errorf("JPEG magic: %w", meta.ErrInvalidMagic)
	}
	f := &File{}
	pos := 2
	for {
		if pos+2 > len(data) {
			return nil, fmt.Errorf("JPEG marker stream: %w", meta.ErrTruncated)
		}
		if data[pos] != 0xFF {
			return nil, fmt.Errorf("marker prefix %02X at offset %d: %w",
				data[pos], pos, meta.InvalidValueError{Reason: "corrupt marker stream"})
		}
		marker := data[pos+1]
		if marker == 0xFF {
			// Fill byte.
			pos++
			continue
		}
		if marker == markerSOS || marker == markerEOI {
			f.Trailer = data[pos:]
			return f, nil
		}
		if marker == markerSOI || marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			pos += 2
			continue
		}
		if pos+4 > len(data) {
			return nil, fmt.Errorf("segment length at offset %d: %w", pos, meta.ErrTruncated)
		}
		length := int(binary.BigEndian.Uint16(data[pos+2:]))
		if length < 2 || pos+2+length > len(data) {
			return nil, fmt.Errorf("segment 0xFF%02X at offset %d: %w", marker, pos, meta.ErrTruncated)
		}
		f.Segments = append(f.Segments, &Segment{
			Marker:        marker,
			Payload:       data[pos+4 : pos+2+length],
			PayloadOffset: pos + 4,
		})
		pos += 2 + length
	}
}

// Serialize re-emits the marker stream. The trailer is appended unchanged.
func (f *File) Serialize() ([]byte, error) {
	w := bytesio.NewWriter()
	w.Write([]byte{0xFF, markerSOI})
	for _, s := range f.Segments {
		if len(s.Payload) > maxSegmentPayload {
			return nil, meta.InvalidValueError{
				Reason: fmt.Sprintf("segment 0xFF%02X payload of %d bytes exceeds segment limit", s.Marker, len(s.Payload)),
			}
		}
		w.WriteByte(0xFF)
		w.WriteByte(s.Marker)
		w.WriteUint16(uint16(len(s.Payload)+2), binary.BigEndian)
		w.Write(s.Payload)
	}
	w.Write(f.Trailer)
	return w.Bytes(), nil
}

func (f *File) findSegment(marker byte, identifier []byte) *Segment {
	for _, s := range f.Segments {
		if s.Marker == marker && bytes.HasPrefix(s.Payload, identifier) {
			return s
		}
	}
	return nil
}

func (f *File) insertAt(index int, s *Segment) {
	f.Segments = append(f.Segments, nil)
	copy(f.Segments[index+1:], f.Segments[index:])
	f.Segments[index] = s
}

// afterApp0 is the insertion point for a new EXIF segment: past any leading
// JFIF/JFXX APP0 run, before everything else.
func (f *File) afterApp0() int {
	i := 0
	for i < len(f.Segments) && f.Segments[i].Marker == markerAPP0 {
		i++
	}
	return i
}

// afterExif is the insertion point for a new XMP segment.
func (f *File) afterExif() int {
	for i, s := range f.Segments {
		if s.Marker == markerAPP1 && bytes.HasPrefix(s.Payload, exifIdentifier) {
			return i + 1
		}
	}
	return f.afterApp0()
}

// afterApp1 is the insertion point for a new Photoshop IRB segment.
func (f *File) afterApp1() int {
	index := f.afterApp0()
	for i, s := range f.Segments {
		if s.Marker == markerAPP1 {
			index = i + 1
		}
	}
	return index
}

package bmff

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/bytesio"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
)

// Box is one ISO-BMFF box. Payload aliases the parsed input.
type Box struct {
	Type string
	// Offset is the absolute position of the box's length word.
	Offset int
	// Size is the full box size including the header; a to-end-of-stream
	// box (length word 0) has its size resolved at parse time.
	Size    int
	Payload []byte

	headerSize int
}

// PayloadOffset is the absolute position of the first payload byte.
func (b *Box) PayloadOffset() int {
	return b.Offset + b.headerSize
}

// File is a parsed top-level box sequence.
type File struct {
	data  []byte
	Boxes []*Box
}

// IsBMFF reports whether data starts with an ftyp box.
func IsBMFF(data []byte) bool {
	return len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp"))
}

// Parse reads the top-level box sequence. When stopAfterMeta is set, parsing
// ends at the first meta box; iPhone files place meta before the large mdat
// payload, Samsung files after it, so callers that miss their box with the
// early stop retry with a full scan.
func Parse(data []byte, stopAfterMeta bool) (*File, error) {
	boxes, err := parseBoxes(data, 0, stopAfterMeta)
	if err != nil {
		return nil, err
	}
	return &File{data: data, Boxes: boxes}, nil
}

func parseBoxes(buf []byte, base int, stopAfterMeta bool) ([]*Box, error) {
	var boxes []*Box
	pos := 0
	for pos < len(buf) {
		if pos+8 > len(buf) {
			return nil, fmt.Errorf("box header at offset %d: %w", base+pos, meta.ErrTruncated)
		}
		size := int(binary.BigEndian.Uint32(buf[pos:]))
		boxType := string(buf[pos+4 : pos+8])
		for _, c := range []byte(boxType) {
			if c < 0x20 || c > 0x7E {
				return nil, meta.InvalidValueError{
					Reason: fmt.Sprintf("box type %q at offset %d", boxType, base+pos),
				}
			}
		}
		headerSize := 8
		switch size {
		case 0:
			// To end of stream; only valid for the final box.
			size = len(buf) - pos
		case 1:
			if pos+16 > len(buf) {
				return nil, fmt.Errorf("box %s large size: %w", boxType, meta.ErrTruncated)
			}
			size = int(binary.BigEndian.Uint64(buf[pos+8:]))
			headerSize = 16
		}
		if size < headerSize || pos+size > len(buf) {
			return nil, fmt.Errorf("box %s of size %d at offset %d: %w",
				boxType, size, base+pos, meta.ErrTruncated)
		}
		boxes = append(boxes, &Box{
			Type:       boxType,
			Offset:     base + pos,
			Size:       size,
			Payload:    buf[pos+headerSize : pos+size],
			headerSize: headerSize,
		})
		if stopAfterMeta && boxType == "meta" {
			break
		}
		pos += size
	}
	return boxes, nil
}

func (f *File) Find(boxType string) *Box {
	for _, b := range f.Boxes {
		if b.Type == boxType {
			return b
		}
	}
	return nil
}

// Children parses the box's nested box sequence. The meta box is a full box;
// its 4-byte version word is skipped before the children start.
func (b *Box) Children() ([]*Box, error) {
	skip := 0
	if b.Type == "meta" {
		skip = 4
	}
	if len(b.Payload) < skip {
		return nil, fmt.Errorf("box %s payload: %w", b.Type, meta.ErrTruncated)
	}
	return parseBoxes(b.Payload[skip:], b.PayloadOffset()+skip, false)
}

func findBox(boxes []*Box, boxType string) *Box {
	for _, b := range boxes {
		if b.Type == boxType {
			return b
		}
	}
	return nil
}

func appendBox(w *bytesio.Writer, boxType string, payload []byte) {
	w.WriteUint32(uint32(len(payload)+8), binary.BigEndian)
	w.Write([]byte(boxType))
	w.Write(payload)
}

// replaceBox returns the file bytes with the given top-level box reframed
// around payload. Sibling boxes shift but top-level boxes carry no offsets
// into each other, so the result stays consistent.
func (f *File) replaceBox(b *Box, payload []byte) []byte {
	w := bytesio.NewWriter()
	w.Write(f.data[:b.Offset])
	appendBox(w, b.Type, payload)
	w.Write(f.data[b.Offset+b.Size:])
	return w.Bytes()
}

// insertBoxAfter returns the file bytes with a new top-level box spliced in
// directly after the given box.
func (f *File) insertBoxAfter(after *Box, boxType string, payload []byte) []byte {
	w := bytesio.NewWriter()
	w.Write(f.data[:after.Offset+after.Size])
	appendBox(w, boxType, payload)
	w.Write(f.data[after.Offset+after.Size:])
	return w.Bytes()
}

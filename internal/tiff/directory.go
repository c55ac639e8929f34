package tiff

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
)

// Directory type ids. Non-negative ids are image directories in chain order;
// negative ids are semantic sub-directories reached through offset fields.
// The ids are stable integers, not ordinals.
const (
	DirUnknown = -1
	DirIFD0    = 0
	DirIFD1    = 1
	DirIFD2    = 2
	DirIFD3    = 3
	DirIFD4    = 4

	// SubIFDs entries map onto the same id space as the image IFDs.
	DirSubIFD1 = 2
	DirSubIFD2 = 3
	DirSubIFD3 = 4

	DirExif    = -2
	DirGPS     = -3
	DirInterop = -4

	DirMakerNoteCanon = -101
	DirMakerNoteNikon = -102
)

func DirName(dirType int) string {
	switch dirType {
	case DirIFD0:
		return "IFD0"
	case DirIFD1:
		return "IFD1"
	case DirExif:
		return "ExifIFD"
	case DirGPS:
		return "GPSIFD"
	case DirInterop:
		return "InteropIFD"
	}
	if dirType >= 0 {
		return fmt.Sprintf("IFD%d", dirType)
	}
	return fmt.Sprintf("Dir(%d)", dirType)
}

// TIFF version word; always 42.
const tiffVersion = 42

// Header is the 8-byte TIFF header.
type Header struct {
	Order            binary.ByteOrder
	OffsetToFirstIFD uint32
}

// Field is a parsed IFD entry with its raw value bytes.
type Field struct {
	Tag       uint16
	Directory int
	Type      FieldType
	Count     uint32
	Value     []byte
	// RawEntry is the 4-byte inline value-or-offset word as it appeared
	// in the entry.
	RawEntry [4]byte
	Order    binary.ByteOrder
	// EntryIndex records the field's original position within its
	// directory; the writer uses it as a stable tie-breaker.
	EntryIndex int
}

func (f *Field) Size() uint32 {
	return f.Type.Size() * f.Count
}

func (f *Field) Byte(i uint32) uint8 {
	return f.Value[i]
}

func (f *Field) Short(i uint32) uint16 {
	return f.Order.Uint16(f.Value[i*2:])
}

func (f *Field) Long(i uint32) uint32 {
	return f.Order.Uint32(f.Value[i*4:])
}

func (f *Field) SLong(i uint32) int32 {
	return int32(f.Order.Uint32(f.Value[i*4:]))
}

func (f *Field) Rational(i uint32) (uint32, uint32) {
	return f.Order.Uint32(f.Value[i*8:]), f.Order.Uint32(f.Value[i*8+4:])
}

func (f *Field) SRational(i uint32) (int32, int32) {
	return int32(f.Order.Uint32(f.Value[i*8:])), int32(f.Order.Uint32(f.Value[i*8+4:]))
}

func (f *Field) Float(i uint32) float32 {
	return math.Float32frombits(f.Order.Uint32(f.Value[i*4:]))
}

func (f *Field) Double(i uint32) float64 {
	return math.Float64frombits(f.Order.Uint64(f.Value[i*8:]))
}

// AnyInteger widens any integral element to int64.
func (f *Field) AnyInteger(i uint32) (int64, error) {
	switch f.Type {
	case TypeByte, TypeUndefined:
		return int64(f.Byte(i)), nil
	case TypeShort:
		return int64(f.Short(i)), nil
	case TypeLong, TypeIFD:
		return int64(f.Long(i)), nil
	case TypeSByte:
		return int64(int8(f.Value[i])), nil
	case TypeSShort:
		return int64(int16(f.Order.Uint16(f.Value[i*2:]))), nil
	case TypeSLong:
		return int64(f.SLong(i)), nil
	}
	return 0, meta.FieldTypeMismatchError{
		Name:     TagName(f.Directory, f.Tag),
		Expected: "integral",
		Actual:   f.Type.Name(),
	}
}

// Ascii returns the field data as a string, without the trailing NUL.
func (f *Field) Ascii() string {
	v := f.Value
	for len(v) > 0 && v[len(v)-1] == 0 {
		v = v[:len(v)-1]
	}
	return string(v)
}

func (f *Field) String() string {
	name := TagName(f.Directory, f.Tag)
	switch {
	case f.Type == TypeAscii:
		return fmt.Sprintf("%s %q", name, f.Ascii())
	case f.Type.IsRational() && f.Count >= 1:
		n, d := f.Rational(0)
		return fmt.Sprintf("%s %d/%d", name, n, d)
	case f.Type.IsIntegral() && f.Count >= 1:
		v, _ := f.AnyInteger(0)
		return fmt.Sprintf("%s %d", name, v)
	default:
		return fmt.Sprintf("%s %s(%d)", name, f.Type.Name(), f.Count)
	}
}

// Directory is a parsed IFD.
type Directory struct {
	Type       int
	Fields     []*Field
	Offset     uint32
	NextOffset uint32
	Order      binary.ByteOrder
	// Thumbnail holds the raw embedded JPEG declared by
	// JPEGInterchangeFormat/-Length, if any.
	Thumbnail []byte
}

func (d *Directory) FindField(tag uint16) *Field {
	for _, f := range d.Fields {
		if f.Tag == tag {
			return f
		}
	}
	return nil
}

func (d *Directory) RequireField(tag uint16) (*Field, error) {
	f := d.FindField(tag)
	if f == nil {
		return nil, meta.MissingFieldError{Name: TagName(d.Type, tag)}
	}
	return f, nil
}

// removeField drops a field from the directory, keeping order.
func (d *Directory) removeField(tag uint16) {
	for i, f := range d.Fields {
		if f.Tag == tag {
			d.Fields = append(d.Fields[:i], d.Fields[i+1:]...)
			return
		}
	}
}

// Contents is the full directory forest discovered by a read.
type Contents struct {
	Header      Header
	Directories []*Directory
}

func (c *Contents) FindDirectory(dirType int) *Directory {
	for _, d := range c.Directories {
		if d.Type == dirType {
			return d
		}
	}
	return nil
}

// FindField locates a tag in a directory type; DirUnknown matches any
// directory.
func (c *Contents) FindField(dirType int, tag uint16) *Field {
	for _, d := range c.Directories {
		if dirType != DirUnknown && d.Type != dirType {
			continue
		}
		if f := d.FindField(tag); f != nil {
			return f
		}
	}
	return nil
}

// Orientation returns the IFD0 orientation, or OrientationStandard when the
// tag is absent.
func (c *Contents) Orientation() meta.Orientation {
	f := c.FindField(DirIFD0, TagOrientation)
	if f == nil || f.Count < 1 || f.Type != TypeShort {
		return meta.OrientationStandard
	}
	v := meta.Orientation(f.Short(0))
	if !v.Valid() {
		return meta.OrientationStandard
	}
	return v
}

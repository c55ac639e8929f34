package tiff

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
)

// Rational is an unsigned TIFF rational value.
type Rational struct {
	Num uint32
	Den uint32
}

// OutputField is a field staged for serialization. Value bytes are already
// encoded in the output set's byte order.
type OutputField struct {
	Tag   uint16
	Type  FieldType
	Count uint32
	Value []byte
	// SortHint preserves the original entry position; emission order is
	// tag-ascending with the hint as a stable tie-breaker.
	SortHint int
}

// OutputDirectory is a directory staged for serialization. It holds at most
// one field per tag.
type OutputDirectory struct {
	Type int
	// ViaSubIFDs marks a directory that is referenced from IFD0's
	// SubIFDs field rather than the next-IFD chain.
	ViaSubIFDs bool
	Thumbnail  []byte

	order    binary.ByteOrder
	fields   []*OutputField
	nextHint int
}

func (d *OutputDirectory) Fields() []*OutputField {
	return d.fields
}

func (d *OutputDirectory) FindField(tag uint16) *OutputField {
	for _, f := range d.fields {
		if f.Tag == tag {
			return f
		}
	}
	return nil
}

func (d *OutputDirectory) Remove(tag uint16) {
	for i, f := range d.fields {
		if f.Tag == tag {
			d.fields = append(d.fields[:i], d.fields[i+1:]...)
			return
		}
	}
}

// add replaces any existing field with the same tag, keeping its sort hint.
func (d *OutputDirectory) add(f *OutputField) {
	if existing := d.FindField(f.Tag); existing != nil {
		f.SortHint = existing.SortHint
		*existing = *f
		return
	}
	f.SortHint = d.nextHint
	d.nextHint++
	d.fields = append(d.fields, f)
}

func (d *OutputDirectory) SetBytes(tag uint16, fieldType FieldType, count uint32, value []byte) {
	d.add(&OutputField{Tag: tag, Type: fieldType, Count: count, Value: value})
}

func (d *OutputDirectory) SetShort(tag uint16, value uint16) {
	v := make([]byte, 2)
	d.order.PutUint16(v, value)
	d.SetBytes(tag, TypeShort, 1, v)
}

func (d *OutputDirectory) SetLong(tag uint16, value uint32) {
	v := make([]byte, 4)
	d.order.PutUint32(v, value)
	d.SetBytes(tag, TypeLong, 1, v)
}

func (d *OutputDirectory) SetAscii(tag uint16, value string) {
	v := make([]byte, len(value)+1)
	copy(v, value)
	d.SetBytes(tag, TypeAscii, uint32(len(v)), v)
}

func (d *OutputDirectory) SetRationals(tag uint16, values []Rational) {
	v := make([]byte, 8*len(values))
	for i, r := range values {
		d.order.PutUint32(v[i*8:], r.Num)
		d.order.PutUint32(v[i*8+4:], r.Den)
	}
	d.SetBytes(tag, TypeRational, uint32(len(values)), v)
}

// OutputSet is the writer-side mirror of Contents. Sets are short-lived:
// build, serialize, discard.
type OutputSet struct {
	Order binary.ByteOrder
	dirs  []*OutputDirectory
}

func NewOutputSet(order binary.ByteOrder) *OutputSet {
	return &OutputSet{Order: order}
}

func (s *OutputSet) Directories() []*OutputDirectory {
	return s.dirs
}

func (s *OutputSet) FindDirectory(dirType int) *OutputDirectory {
	for _, d := range s.dirs {
		if d.Type == dirType {
			return d
		}
	}
	return nil
}

// GetOrCreateDirectory returns the directory of the given type, creating it
// if needed. Maker-note sub-trees cannot be written.
func (s *OutputSet) GetOrCreateDirectory(dirType int) (*OutputDirectory, error) {
	if dirType <= -100 {
		return nil, fmt.Errorf("%s: %w", DirName(dirType), meta.ErrUnsupportedDirectory)
	}
	if d := s.FindDirectory(dirType); d != nil {
		return d, nil
	}
	d := &OutputDirectory{Type: dirType, order: s.Order}
	s.dirs = append(s.dirs, d)
	return d, nil
}

// Root returns IFD0, creating it if needed.
func (s *OutputSet) Root() *OutputDirectory {
	d, _ := s.GetOrCreateDirectory(DirIFD0)
	return d
}

// Tags whose values are NUL-padded by some writers; trimmed on conversion
// and omitted when empty.
var trimmedTextTags = map[uint16]bool{
	TagCopyright:   true,
	TagArtist:      true,
	TagUserComment: true,
}

// NewOutputSetFrom copies parsed contents into a fresh output set.
// Offset-carrying fields are dropped (the writer re-synthesises them) and
// IFD0 receives a standard orientation when none is present, so later
// in-place edits have a byte to patch.
func NewOutputSetFrom(contents *Contents) (*OutputSet, error) {
	set := NewOutputSet(contents.Header.Order)
	for _, dir := range contents.Directories {
		out, err := set.GetOrCreateDirectory(dir.Type)
		if err != nil {
			return nil, err
		}
		for _, field := range dir.Fields {
			if IsOffsetTag(field.Tag) {
				continue
			}
			value := field.Value
			count := field.Count
			if trimmedTextTags[field.Tag] {
				trimmed := bytes.Trim(field.Value, "\x00 \t\r\n")
				if len(trimmed) == 0 {
					continue
				}
				if field.Type == TypeAscii {
					value = append(trimmed, 0)
				} else {
					value = trimmed
				}
				count = uint32(len(value))
			} else {
				value = append([]byte(nil), value...)
			}
			out.add(&OutputField{
				Tag:   field.Tag,
				Type:  field.Type,
				Count: count,
				Value: value,
			})
			if f := out.FindField(field.Tag); f != nil {
				f.SortHint = field.EntryIndex
			}
		}
		if dir.Thumbnail != nil {
			out.Thumbnail = append([]byte(nil), dir.Thumbnail...)
		}
	}
	root := set.Root()
	if root.FindField(TagOrientation) == nil {
		root.SetShort(TagOrientation, uint16(meta.OrientationStandard))
	}
	return set, nil
}

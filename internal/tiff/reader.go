package tiff

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/bytesio"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
)

// IsTIFF reports whether data starts with a TIFF header, which also covers
// the DNG, ARW and NEF raw containers.
func IsTIFF(data []byte) bool {
	if len(data) < 4 || data[0] != data[1] {
		return false
	}
	switch data[0] {
	case 'I':
		return data[2] == 42 && data[3] == 0
	case 'M':
		return data[2] == 0 && data[3] == 42
	}
	return false
}

// Read parses a TIFF stream into its directory forest. Offsets in the stream
// are relative to the start of data, which is the start of the Exif\0\0-
// stripped APP1 payload when the stream is embedded in a JPEG.
//
// Entry-level corruption is absorbed: bad entries are skipped, dangling
// sub-IFD offset fields are dropped from their parent, and a broken IFD1
// (thumbnail) directory is dropped entirely. Header-level problems fail
// the read.
func Read(data []byte) (*Contents, error) {
	header, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	r := bytesio.NewRandomReader(data)
	contents := &Contents{Header: header}
	visited := make(map[uint32]bool)
	if int(header.OffsetToFirstIFD) < r.Length() {
		err = readDirectory(r, header, header.OffsetToFirstIFD, DirIFD0, visited, contents)
		if err != nil {
			var de *dirError
			if errors.As(err, &de) {
				err = de.err
			}
			return nil, err
		}
	}
	if len(contents.Directories) == 0 {
		return nil, meta.ErrNoDirectories
	}
	return contents, nil
}

func readHeader(data []byte) (Header, error) {
	if len(data) < 8 {
		return Header{}, fmt.Errorf("reading TIFF header: %w", meta.ErrTruncated)
	}
	if data[0] != data[1] {
		return Header{}, fmt.Errorf("byte order bytes %02X %02X disagree: %w",
			data[0], data[1], meta.ErrInvalidByteOrder)
	}
	var order binary.ByteOrder
	switch data[0] {
	case 'I':
		order = binary.LittleEndian
	case 'M':
		order = binary.BigEndian
	default:
		return Header{}, fmt.Errorf("byte order bytes %02X %02X: %w",
			data[0], data[1], meta.ErrInvalidByteOrder)
	}
	if version := order.Uint16(data[2:4]); version != tiffVersion {
		return Header{}, fmt.Errorf("unsupported TIFF version %d", version)
	}
	return Header{Order: order, OffsetToFirstIFD: order.Uint32(data[4:8])}, nil
}

// dirError tags a directory-level failure with the directory type that
// failed, so callers can apply the thumbnail-only (IFD1) tolerance.
type dirError struct {
	dirType int
	err     error
}

func (e *dirError) Error() string {
	return fmt.Sprintf("reading %s: %s", DirName(e.dirType), e.err)
}

func (e *dirError) Unwrap() error {
	return e.err
}

func readDirectory(r *bytesio.RandomReader, header Header, offset uint32, dirType int, visited map[uint32]bool, contents *Contents) error {
	if visited[offset] {
		return nil
	}
	visited[offset] = true
	order := header.Order

	if err := r.Seek(int(offset)); err != nil {
		return &dirError{dirType, err}
	}
	entryCount, err := r.ReadUint16(order)
	if err != nil {
		return &dirError{dirType, err}
	}
	dir := &Directory{Type: dirType, Offset: offset, Order: order}
	for i := 0; i < int(entryCount); i++ {
		entry, err := r.ReadBytes(12)
		if err != nil {
			return &dirError{dirType, err}
		}
		tag := order.Uint16(entry[0:2])
		// Tag 0 is normally a fill word, but in the GPS directory it is
		// the valid GPSVersionID.
		if tag == 0 && dirType != DirGPS {
			continue
		}
		fieldType := FieldType(order.Uint16(entry[2:4]))
		if !fieldType.Valid() {
			continue
		}
		count := order.Uint32(entry[4:8])
		size := fieldType.Size() * count
		var value []byte
		if size <= 4 {
			value = entry[8 : 8+size]
		} else {
			valueOffset := order.Uint32(entry[8:12])
			value, err = r.ReadBytesAt(int(valueOffset), int(size))
			if err != nil {
				continue
			}
		}
		if dir.FindField(tag) != nil {
			continue
		}
		field := &Field{
			Tag:        tag,
			Directory:  dirType,
			Type:       fieldType,
			Count:      count,
			Value:      value,
			Order:      order,
			EntryIndex: i,
		}
		copy(field.RawEntry[:], entry[8:12])
		dir.Fields = append(dir.Fields, field)
	}
	dir.NextOffset, err = r.ReadUint32(order)
	if err != nil {
		return &dirError{dirType, err}
	}
	contents.Directories = append(contents.Directories, dir)

	readThumbnail(r, dir)

	for _, link := range []struct {
		tag     uint16
		dirType int
	}{
		{TagExifOffset, DirExif},
		{TagGpsInfo, DirGPS},
		{TagInteropOffset, DirInterop},
	} {
		field := dir.FindField(link.tag)
		if field == nil {
			continue
		}
		subOffset, err := field.AnyInteger(0)
		if err != nil || subOffset <= 0 {
			dir.removeField(link.tag)
			continue
		}
		if err := readDirectory(r, header, uint32(subOffset), link.dirType, visited, contents); err != nil {
			dir.removeField(link.tag)
		}
	}
	if field := dir.FindField(TagSubIFDs); field != nil {
		ok := true
		for i := uint32(0); i < field.Count; i++ {
			subOffset, err := field.AnyInteger(i)
			if err != nil || subOffset <= 0 {
				continue
			}
			subType := DirUnknown
			if i < 3 {
				subType = DirSubIFD1 + int(i)
			}
			if err := readDirectory(r, header, uint32(subOffset), subType, visited, contents); err != nil {
				ok = false
				break
			}
		}
		if !ok {
			dir.removeField(TagSubIFDs)
		}
	}

	// Only image directories chain; semantic sub-directories never do.
	if dir.NextOffset > 0 && dirType >= 0 && int(dir.NextOffset) < r.Length() {
		err := readDirectory(r, header, dir.NextOffset, dirType+1, visited, contents)
		if err != nil {
			var de *dirError
			if errors.As(err, &de) && de.dirType == DirIFD1 {
				// A corrupt thumbnail directory is dropped, not fatal.
				dropDirectory(contents, DirIFD1)
			} else {
				return err
			}
		}
	}
	return nil
}

// readThumbnail captures the embedded JPEG declared by
// JPEGInterchangeFormat/-Length. A declared length running past the end of
// the stream is clipped, not failed.
func readThumbnail(r *bytesio.RandomReader, dir *Directory) {
	offsetField := dir.FindField(TagJPEGInterchangeFormat)
	lengthField := dir.FindField(TagJPEGInterchangeFormatLength)
	if offsetField == nil || lengthField == nil {
		return
	}
	offset, err := offsetField.AnyInteger(0)
	if err != nil || offset <= 0 || int(offset) >= r.Length() {
		return
	}
	length, err := lengthField.AnyInteger(0)
	if err != nil || length <= 0 {
		return
	}
	if int(offset+length) > r.Length() {
		length = int64(r.Length()) - offset
	}
	thumb, err := r.ReadBytesAt(int(offset), int(length))
	if err != nil {
		return
	}
	dir.Thumbnail = thumb
}

func dropDirectory(contents *Contents, dirType int) {
	for i, d := range contents.Directories {
		if d.Type == dirType {
			contents.Directories = append(contents.Directories[:i], contents.Directories[i+1:]...)
			return
		}
	}
}

package bmff

import (
	"encoding/binary"
	"fmt"

	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/bytesio"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
)

const xmpContentType = "application/rdf+xml"

// Item is an entry of the meta box's item table with its data extents
// resolved to absolute file offsets.
type Item struct {
	ID          uint32
	Type        string
	ContentType string
	Extents     []Extent
}

type Extent struct {
	Offset int
	Length int
}

// Items joins the iinf item infos with the iloc extent table. Items using a
// construction method other than plain file offsets are returned without
// extents.
func (f *File) Items() ([]Item, error) {
	metaBox := f.Find("meta")
	if metaBox == nil {
		return nil, nil
	}
	children, err := metaBox.Children()
	if err != nil {
		return nil, err
	}
	infos, err := parseItemInfos(findBox(children, "iinf"))
	if err != nil {
		return nil, err
	}
	extents, err := parseItemLocations(findBox(children, "iloc"))
	if err != nil {
		return nil, err
	}
	for i := range infos {
		infos[i].Extents = extents[infos[i].ID]
	}
	return infos, nil
}

func parseItemInfos(iinf *Box) ([]Item, error) {
	if iinf == nil {
		return nil, nil
	}
	if len(iinf.Payload) < 6 {
		return nil, fmt.Errorf("iinf box: %w", meta.ErrTruncated)
	}
	countSize := 2
	if iinf.Payload[0] != 0 {
		countSize = 4
	}
	entries, err := parseBoxes(iinf.Payload[4+countSize:], iinf.PayloadOffset()+4+countSize, false)
	if err != nil {
		return nil, err
	}
	var items []Item
	for _, entry := range entries {
		if entry.Type != "infe" {
			continue
		}
		item, err := parseItemInfoEntry(entry.Payload)
		if err != nil {
			return nil, err
		}
		if item != nil {
			items = append(items, *item)
		}
	}
	return items, nil
}

func parseItemInfoEntry(payload []byte) (*Item, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("infe box: %w", meta.ErrTruncated)
	}
	version := payload[0]
	if version < 2 {
		return nil, nil
	}
	r := bytesio.NewReader(payload[4:])
	var id uint32
	if version == 2 {
		v, err := r.ReadUint16(binary.BigEndian)
		if err != nil {
			return nil, err
		}
		id = uint32(v)
	} else {
		v, err := r.ReadUint32(binary.BigEndian)
		if err != nil {
			return nil, err
		}
		id = v
	}
	if err := r.Skip(2); err != nil {
		return nil, err
	}
	itemType, err := r.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	item := &Item{ID: id, Type: string(itemType)}
	if _, err := readNulTerminated(r); err != nil {
		return nil, err
	}
	if item.Type == "mime" {
		contentType, err := readNulTerminated(r)
		if err != nil {
			return nil, err
		}
		item.ContentType = contentType
	}
	return item, nil
}

func readNulTerminated(r *bytesio.Reader) (string, error) {
	var out []byte
	for r.Available() > 0 {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		out = append(out, b)
	}
	return string(out), nil
}

func parseItemLocations(iloc *Box) (map[uint32][]Extent, error) {
	if iloc == nil {
		return nil, nil
	}
	r := bytesio.NewReader(iloc.Payload)
	version, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(3); err != nil {
		return nil, err
	}
	sizes, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	offsetSize := int(sizes >> 4)
	lengthSize := int(sizes & 0x0F)
	sizes, err = r.ReadByte()
	if err != nil {
		return nil, err
	}
	baseOffsetSize := int(sizes >> 4)
	indexSize := 0
	if version > 0 {
		indexSize = int(sizes & 0x0F)
	}
	countSize := 2
	if version == 2 {
		countSize = 4
	}
	itemCount, err := readSized(r, countSize)
	if err != nil {
		return nil, err
	}
	result := make(map[uint32][]Extent)
	for i := 0; i < int(itemCount); i++ {
		idSize := 2
		if version == 2 {
			idSize = 4
		}
		id, err := readSized(r, idSize)
		if err != nil {
			return nil, err
		}
		skipExtents := false
		if version > 0 {
			method, err := r.ReadUint16(binary.BigEndian)
			if err != nil {
				return nil, err
			}
			// Only plain file offsets; idat and item references are
			// not data this rewriter can patch.
			skipExtents = method&0x0F != 0
		}
		if err := r.Skip(2); err != nil {
			return nil, err
		}
		baseOffset, err := readSized(r, baseOffsetSize)
		if err != nil {
			return nil, err
		}
		extentCount, err := r.ReadUint16(binary.BigEndian)
		if err != nil {
			return nil, err
		}
		for e := 0; e < int(extentCount); e++ {
			if err := r.Skip(indexSize); err != nil {
				return nil, err
			}
			extentOffset, err := readSized(r, offsetSize)
			if err != nil {
				return nil, err
			}
			extentLength, err := readSized(r, lengthSize)
			if err != nil {
				return nil, err
			}
			if skipExtents {
				continue
			}
			result[uint32(id)] = append(result[uint32(id)], Extent{
				Offset: int(baseOffset + extentOffset),
				Length: int(extentLength),
			})
		}
	}
	return result, nil
}

func readSized(r *bytesio.Reader, size int) (uint64, error) {
	switch size {
	case 0:
		return 0, nil
	case 2:
		v, err := r.ReadUint16(binary.BigEndian)
		return uint64(v), err
	case 4:
		v, err := r.ReadUint32(binary.BigEndian)
		return uint64(v), err
	case 8:
		return r.ReadUint64(binary.BigEndian)
	}
	return 0, meta.InvalidValueError{Reason: fmt.Sprintf("iloc field size %d", size)}
}

func (f *File) itemData(item *Item) ([]byte, bool) {
	if item == nil || len(item.Extents) == 0 {
		return nil, false
	}
	var data []byte
	for _, e := range item.Extents {
		if e.Offset < 0 || e.Length < 0 || e.Offset+e.Length > len(f.data) {
			return nil, false
		}
		data = append(data, f.data[e.Offset:e.Offset+e.Length]...)
	}
	return data, true
}

func (f *File) findItem(match func(Item) bool) *Item {
	items, err := f.Items()
	if err != nil {
		return nil
	}
	for i := range items {
		if match(items[i]) {
			return &items[i]
		}
	}
	return nil
}

// ItemExifPayload returns the TIFF stream of the meta Exif item. The item
// data starts with a 4-byte offset word locating the TIFF header past the
// Exif\0\0 identifier.
func (f *File) ItemExifPayload() ([]byte, bool) {
	item := f.findItem(func(it Item) bool { return it.Type == "Exif" })
	data, ok := f.itemData(item)
	if !ok || len(data) < 4 {
		return nil, false
	}
	shift := 4 + int(binary.BigEndian.Uint32(data))
	if shift < 4 || shift > len(data) {
		return nil, false
	}
	return data[shift:], true
}

// SetItemExifPayload substitutes the Exif item's TIFF stream in place. The
// iloc table references the item by absolute offset, so only a same-length
// substitution is possible; anything else fails with ErrIlocOffsetShift.
func (f *File) SetItemExifPayload(stream []byte) ([]byte, error) {
	item := f.findItem(func(it Item) bool { return it.Type == "Exif" })
	if item == nil || len(item.Extents) != 1 {
		return nil, meta.ErrIlocOffsetShift
	}
	extent := item.Extents[0]
	data, ok := f.itemData(item)
	if !ok || len(data) < 4 {
		return nil, meta.ErrIlocOffsetShift
	}
	shift := 4 + int(binary.BigEndian.Uint32(data))
	if shift < 4 || shift > len(data) || shift+len(stream) != extent.Length {
		return nil, meta.ErrIlocOffsetShift
	}
	out := append([]byte(nil), f.data...)
	copy(out[extent.Offset+shift:], stream)
	return out, nil
}

// ItemXmp returns the packet of the meta XMP item (a mime item with the
// rdf+xml content type).
func (f *File) ItemXmp() (string, bool) {
	item := f.findItem(func(it Item) bool {
		return it.Type == "mime" && it.ContentType == xmpContentType
	})
	data, ok := f.itemData(item)
	if !ok {
		return "", false
	}
	return string(data), true
}

// SetItemXmp substitutes the XMP item's packet in place, under the same
// length restriction as SetItemExifPayload.
func (f *File) SetItemXmp(xml string) ([]byte, error) {
	item := f.findItem(func(it Item) bool {
		return it.Type == "mime" && it.ContentType == xmpContentType
	})
	if item == nil || len(item.Extents) != 1 {
		return nil, meta.ErrIlocOffsetShift
	}
	extent := item.Extents[0]
	if len(xml) != extent.Length {
		return nil, meta.ErrIlocOffsetShift
	}
	if extent.Offset < 0 || extent.Offset+extent.Length > len(f.data) {
		return nil, meta.ErrIlocOffsetShift
	}
	out := append([]byte(nil), f.data...)
	copy(out[extent.Offset:], xml)
	return out, nil
}

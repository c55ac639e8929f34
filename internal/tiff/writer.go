package tiff

import (
	"encoding/binary"
	"sort"

	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/bytesio"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
)

// Write serializes an output set into a standalone TIFF stream. Offsets are
// resolved in a layout pass before any byte is emitted, so entry order and
// value placement are deterministic for a given set.
//
// Offset-carrying fields (ExifOffset, GPSInfo, InteropOffset, SubIFDs,
// JPEGInterchangeFormat and its length) are synthesised from the set's
// directory structure; any such field materialised by the caller is dropped
// first. Directories with no fields and no thumbnail are not emitted, except
// IFD0 which always is.
func Write(set *OutputSet) ([]byte, error) {
	root := set.Root()
	for _, dir := range set.Directories() {
		for tag := range offsetTags {
			dir.Remove(tag)
		}
		if err := checkDirectory(dir); err != nil {
			return nil, err
		}
	}

	emitted := func(d *OutputDirectory) bool {
		return d != nil && (len(d.fields) > 0 || d.Thumbnail != nil)
	}

	exifDir := set.FindDirectory(DirExif)
	if !emitted(exifDir) {
		exifDir = nil
	}
	gpsDir := set.FindDirectory(DirGPS)
	if !emitted(gpsDir) {
		gpsDir = nil
	}
	interopDir := set.FindDirectory(DirInterop)
	if !emitted(interopDir) {
		interopDir = nil
	}

	var subDirs []*OutputDirectory
	var chain []*OutputDirectory
	for _, d := range set.Directories() {
		if d.Type < 0 || !emitted(d) {
			continue
		}
		if d.ViaSubIFDs {
			subDirs = append(subDirs, d)
		} else if d.Type > 0 {
			chain = append(chain, d)
		}
	}
	sort.Slice(subDirs, func(i, j int) bool { return subDirs[i].Type < subDirs[j].Type })
	sort.Slice(chain, func(i, j int) bool { return chain[i].Type < chain[j].Type })
	chain = append([]*OutputDirectory{root}, chain...)

	if exifDir != nil {
		root.SetLong(TagExifOffset, 0)
	}
	if gpsDir != nil {
		root.SetLong(TagGpsInfo, 0)
	}
	if interopDir != nil {
		// The interop pointer lives in the Exif directory when there is
		// one, otherwise in IFD0.
		target := root
		if exifDir != nil {
			target = exifDir
		}
		target.SetLong(TagInteropOffset, 0)
	}
	if len(subDirs) > 0 {
		root.SetBytes(TagSubIFDs, TypeLong, uint32(len(subDirs)), make([]byte, 4*len(subDirs)))
	}
	ordered := []*OutputDirectory{root}
	for _, d := range []*OutputDirectory{exifDir, gpsDir, interopDir} {
		if d != nil {
			ordered = append(ordered, d)
		}
	}
	ordered = append(ordered, subDirs...)
	ordered = append(ordered, chain[1:]...)
	for _, d := range ordered {
		if d.Thumbnail != nil {
			d.SetLong(TagJPEGInterchangeFormat, 0)
			d.SetLong(TagJPEGInterchangeFormatLength, uint32(len(d.Thumbnail)))
		}
		sortFields(d.fields)
	}

	// Layout pass. Each directory block is followed by its out-of-line
	// values; thumbnail payloads go last. Everything is word-aligned.
	dirOffsets := make(map[*OutputDirectory]uint32)
	valueOffsets := make(map[*OutputField]uint32)
	thumbOffsets := make(map[*OutputDirectory]uint32)
	pos := uint32(8)
	for _, d := range ordered {
		pos = align(pos)
		dirOffsets[d] = pos
		pos += 2 + 12*uint32(len(d.fields)) + 4
		for _, f := range d.fields {
			if len(f.Value) > 4 {
				pos = align(pos)
				valueOffsets[f] = pos
				pos += uint32(len(f.Value))
			}
		}
	}
	for _, d := range ordered {
		if d.Thumbnail != nil {
			pos = align(pos)
			thumbOffsets[d] = pos
			pos += uint32(len(d.Thumbnail))
		}
	}

	order := set.Order
	patchLong := func(d *OutputDirectory, tag uint16, value uint32) {
		if f := d.FindField(tag); f != nil {
			order.PutUint32(f.Value, value)
		}
	}
	if exifDir != nil {
		patchLong(root, TagExifOffset, dirOffsets[exifDir])
	}
	if gpsDir != nil {
		patchLong(root, TagGpsInfo, dirOffsets[gpsDir])
	}
	if interopDir != nil {
		target := root
		if exifDir != nil {
			target = exifDir
		}
		patchLong(target, TagInteropOffset, dirOffsets[interopDir])
	}
	if f := root.FindField(TagSubIFDs); f != nil {
		for i, d := range subDirs {
			order.PutUint32(f.Value[i*4:], dirOffsets[d])
		}
	}
	for _, d := range ordered {
		if d.Thumbnail != nil {
			patchLong(d, TagJPEGInterchangeFormat, thumbOffsets[d])
		}
	}
	nextOffsets := make(map[*OutputDirectory]uint32)
	for i, d := range chain {
		if i+1 < len(chain) {
			nextOffsets[d] = dirOffsets[chain[i+1]]
		}
	}

	w := bytesio.NewWriter()
	if order == binary.LittleEndian {
		w.Write([]byte{'I', 'I'})
	} else {
		w.Write([]byte{'M', 'M'})
	}
	w.WriteUint16(tiffVersion, order)
	w.WriteUint32(dirOffsets[root], order)
	for _, d := range ordered {
		padTo(w, dirOffsets[d])
		w.WriteUint16(uint16(len(d.fields)), order)
		for _, f := range d.fields {
			w.WriteUint16(f.Tag, order)
			w.WriteUint16(uint16(f.Type), order)
			w.WriteUint32(f.Count, order)
			if len(f.Value) <= 4 {
				w.Write(f.Value)
				for i := len(f.Value); i < 4; i++ {
					w.WriteByte(0)
				}
			} else {
				w.WriteUint32(valueOffsets[f], order)
			}
		}
		w.WriteUint32(nextOffsets[d], order)
		for _, f := range d.fields {
			if len(f.Value) > 4 {
				padTo(w, valueOffsets[f])
				w.Write(f.Value)
			}
		}
	}
	for _, d := range ordered {
		if d.Thumbnail != nil {
			padTo(w, thumbOffsets[d])
			w.Write(d.Thumbnail)
		}
	}
	return w.Bytes(), nil
}

func checkDirectory(d *OutputDirectory) error {
	for _, f := range d.fields {
		if !f.Type.Valid() {
			return meta.UnknownFieldTypeError{Code: uint16(f.Type)}
		}
		if f.Type.Size()*f.Count != uint32(len(f.Value)) {
			return meta.FieldCountMismatchError{
				Name:  TagName(d.Type, f.Tag),
				Count: f.Count,
			}
		}
	}
	return nil
}

// sortFields orders entries tag-ascending as TIFF requires, with the sort
// hint as a stable tie-breaker.
func sortFields(fields []*OutputField) {
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].Tag != fields[j].Tag {
			return fields[i].Tag < fields[j].Tag
		}
		return fields[i].SortHint < fields[j].SortHint
	})
}

func align(pos uint32) uint32 {
	return pos + pos%2
}

func padTo(w *bytesio.Writer, offset uint32) {
	for uint32(w.Len()) < offset {
		w.WriteByte(0)
	}
}

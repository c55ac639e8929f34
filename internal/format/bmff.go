package format

import (
	"encoding/binary"
	"strings"

	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/bmff"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/tiff"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/update"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/xmp"
)

func readJxl(data []byte) (*Metadata, error) {
	f, err := bmff.Parse(data, false)
	if err != nil {
		return nil, err
	}
	m := &Metadata{FormatName: "JPEG XL"}
	if payload, ok := f.ExifPayload(); ok {
		m.Exif, err = readTiffPayload(payload)
		if err != nil {
			return nil, err
		}
	}
	m.Xmp, _ = f.Xmp()
	return m, nil
}

func updateJxl(data []byte, u meta.Update, c *update.Coordinator) ([]byte, error) {
	f, err := bmff.Parse(data, false)
	if err != nil {
		return nil, err
	}
	if f.HasBrotliWrapped("Exif") || f.HasBrotliWrapped("xml ") {
		return nil, meta.InvalidValueError{Reason: "brotli-compressed metadata box"}
	}

	doc := xmp.Empty()
	if packet, ok := f.Xmp(); ok {
		doc = xmp.Parse(packet)
	}
	c.ApplyXmp(doc, u)
	out := f.SetXmp(doc.Serialize(false))

	if !exifRelevant(u) {
		return out, nil
	}
	f, err = bmff.Parse(out, false)
	if err != nil {
		return nil, err
	}
	var set *tiff.OutputSet
	if payload, ok := f.ExifPayload(); ok {
		contents, err := readTiffPayload(payload)
		if err != nil {
			return nil, err
		}
		set, err = tiff.NewOutputSetFrom(contents)
		if err != nil {
			return nil, err
		}
	} else {
		set = tiff.NewOutputSet(binary.LittleEndian)
	}
	if err := c.ApplyExif(set, u); err != nil {
		return nil, err
	}
	stream, err := tiff.Write(set)
	if err != nil {
		return nil, err
	}
	return f.SetExifPayload(stream), nil
}

func readHeic(data []byte) (*Metadata, error) {
	f, err := bmff.Parse(data, true)
	if err != nil {
		return nil, err
	}
	m := &Metadata{FormatName: "HEIC"}
	payload, ok := f.ItemExifPayload()
	if !ok {
		// Samsung writes meta after mdat; rescan the whole stream.
		f, err = bmff.Parse(data, false)
		if err != nil {
			return nil, err
		}
		payload, ok = f.ItemExifPayload()
	}
	if ok {
		m.Exif, err = readTiffPayload(payload)
		if err != nil {
			return nil, err
		}
	}
	m.Xmp, _ = f.ItemXmp()
	return m, nil
}

// updateHeic rewrites item payloads in place. The iloc table pins every item
// to an absolute offset, so only length-preserving substitutions are
// possible; XMP packets are padded with trailing whitespace to fit.
func updateHeic(data []byte, u meta.Update, c *update.Coordinator) ([]byte, error) {
	f, err := bmff.Parse(data, false)
	if err != nil {
		return nil, err
	}

	out := data
	if packet, ok := f.ItemXmp(); ok {
		doc := xmp.Parse(packet)
		c.ApplyXmp(doc, u)
		serialized := doc.Serialize(false)
		if len(serialized) > len(packet) {
			return nil, meta.ErrIlocOffsetShift
		}
		serialized += strings.Repeat(" ", len(packet)-len(serialized))
		out, err = f.SetItemXmp(serialized)
		if err != nil {
			return nil, err
		}
		f, err = bmff.Parse(out, false)
		if err != nil {
			return nil, err
		}
	}

	if !exifRelevant(u) {
		return out, nil
	}
	payload, ok := f.ItemExifPayload()
	if !ok {
		// No Exif item and no way to add one without shifting offsets.
		return nil, meta.ErrIlocOffsetShift
	}
	if o, isOrientation := u.(meta.OrientationUpdate); isOrientation {
		patched := append([]byte(nil), payload...)
		if tiff.PatchOrientation(patched, o.Orientation) {
			return f.SetItemExifPayload(patched)
		}
	}
	contents, err := readTiffPayload(payload)
	if err != nil {
		return nil, err
	}
	set, err := tiff.NewOutputSetFrom(contents)
	if err != nil {
		return nil, err
	}
	if err := c.ApplyExif(set, u); err != nil {
		return nil, err
	}
	stream, err := tiff.Write(set)
	if err != nil {
		return nil, err
	}
	return f.SetItemExifPayload(stream)
}

package format

import (
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/iptc"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/tiff"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/update"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/xmp"
)

// TIFF carries all three dialects inside IFD0: the directory tree itself,
// the XMP packet in tag 0x02BC and the IIM stream in tag 0x83BB.

func readTiff(data []byte) (*Metadata, error) {
	contents, err := tiff.Read(data)
	if err != nil {
		return nil, err
	}
	m := &Metadata{FormatName: "TIFF", Exif: contents}
	if f := contents.FindField(tiff.DirIFD0, tiff.TagXMP); f != nil {
		m.Xmp = string(f.Value)
	}
	if f := contents.FindField(tiff.DirIFD0, tiff.TagIPTC); f != nil {
		m.Iptc, err = iptc.ParseRecords(f.Value)
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func updateTiff(data []byte, u meta.Update, c *update.Coordinator) ([]byte, error) {
	contents, err := tiff.Read(data)
	if err != nil {
		return nil, err
	}
	// The writer re-emits directories and thumbnails but cannot relocate
	// strip payloads, so a TIFF carrying strip-based pixel data would come
	// out with dangling strip offsets.
	if contents.FindField(tiff.DirUnknown, tiff.TagStripOffsets) != nil {
		return nil, meta.InvalidValueError{Reason: "TIFF with strip-based image data cannot be rewritten"}
	}
	set, err := tiff.NewOutputSetFrom(contents)
	if err != nil {
		return nil, err
	}

	doc := xmp.Empty()
	if f := contents.FindField(tiff.DirIFD0, tiff.TagXMP); f != nil {
		doc = xmp.Parse(string(f.Value))
	}
	c.ApplyXmp(doc, u)
	packet := []byte(doc.Serialize(false))
	set.Root().SetBytes(tiff.TagXMP, tiff.TypeByte, uint32(len(packet)), packet)

	if err := c.ApplyExif(set, u); err != nil {
		return nil, err
	}

	if iptcRelevant(u) {
		var records []iptc.Record
		if f := contents.FindField(tiff.DirIFD0, tiff.TagIPTC); f != nil {
			records, err = iptc.ParseRecords(f.Value)
			if err != nil {
				return nil, err
			}
		}
		records = c.ApplyIptc(records, u)
		iim := iptc.SerializeRecords(records)
		set.Root().SetBytes(tiff.TagIPTC, tiff.TypeByte, uint32(len(iim)), iim)
	}

	return tiff.Write(set)
}

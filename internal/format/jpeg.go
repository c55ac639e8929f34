package format

import (
	"encoding/binary"

	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/iptc"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/jpeg"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/tiff"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/update"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/xmp"
)

func readJpeg(data []byte) (*Metadata, error) {
	f, err := jpeg.Parse(data)
	if err != nil {
		return nil, err
	}
	m := &Metadata{FormatName: "JPEG"}
	m.Exif, err = f.ReadExif()
	if err != nil {
		return nil, err
	}
	m.Xmp, _ = f.Xmp()
	if irb, ok := f.PhotoshopBlock(); ok {
		blocks, err := iptc.ParseBlocks(irb)
		if err != nil {
			return nil, err
		}
		if iim, ok := iptc.IptcBlock(blocks); ok {
			m.Iptc, err = iptc.ParseRecords(iim)
			if err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func updateJpeg(data []byte, u meta.Update, c *update.Coordinator) ([]byte, error) {
	out, err := updateJpegXmp(data, u, c)
	if err != nil {
		return nil, err
	}
	if exifRelevant(u) {
		out, err = updateJpegExif(out, u, c)
		if err != nil {
			return nil, err
		}
	}
	if iptcRelevant(u) {
		out, err = updateJpegIptc(out, u, c)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func updateJpegXmp(data []byte, u meta.Update, c *update.Coordinator) ([]byte, error) {
	f, err := jpeg.Parse(data)
	if err != nil {
		return nil, err
	}
	doc := xmp.Empty()
	if packet, ok := f.Xmp(); ok {
		doc = xmp.Parse(packet)
	}
	c.ApplyXmp(doc, u)
	f.SetXmpXml(doc.Serialize(false))
	return f.Serialize()
}

func updateJpegExif(data []byte, u meta.Update, c *update.Coordinator) ([]byte, error) {
	// An orientation change patches the value byte in place when the
	// segment already carries the tag.
	if o, ok := u.(meta.OrientationUpdate); ok {
		if out, patched := jpeg.SetOrientation(data, o.Orientation); patched {
			return out, nil
		}
	}
	f, err := jpeg.Parse(data)
	if err != nil {
		return nil, err
	}
	contents, err := f.ReadExif()
	if err != nil {
		return nil, err
	}
	var set *tiff.OutputSet
	if contents != nil {
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
	if err := f.SetExif(set); err != nil {
		return nil, err
	}
	return f.Serialize()
}

func updateJpegIptc(data []byte, u meta.Update, c *update.Coordinator) ([]byte, error) {
	f, err := jpeg.Parse(data)
	if err != nil {
		return nil, err
	}
	var blocks []iptc.Block
	var records []iptc.Record
	if irb, ok := f.PhotoshopBlock(); ok {
		blocks, err = iptc.ParseBlocks(irb)
		if err != nil {
			return nil, err
		}
		if iim, ok := iptc.IptcBlock(blocks); ok {
			records, err = iptc.ParseRecords(iim)
			if err != nil {
				return nil, err
			}
		}
	}
	records = c.ApplyIptc(records, u)
	blocks = iptc.SetIptcBlock(blocks, iptc.SerializeRecords(records))
	f.SetPhotoshopBlock(iptc.SerializeBlocks(blocks))
	return f.Serialize()
}

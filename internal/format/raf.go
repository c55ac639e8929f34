package format

import (
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/meta"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/raf"
	"github.com/TrildaDevCenter-kmm-kmp/kim/internal/update"
)

// RAF delegates to the JPEG pipeline on the embedded preview and splices the
// rewritten preview back into the container.

func readRaf(data []byte) (*Metadata, error) {
	f, err := raf.Parse(data)
	if err != nil {
		return nil, err
	}
	embedded, err := f.EmbeddedJpeg()
	if err != nil {
		return nil, err
	}
	m, err := readJpeg(embedded)
	if err != nil {
		return nil, err
	}
	m.FormatName = "RAF"
	return m, nil
}

func updateRaf(data []byte, u meta.Update, c *update.Coordinator) ([]byte, error) {
	f, err := raf.Parse(data)
	if err != nil {
		return nil, err
	}
	embedded, err := f.EmbeddedJpeg()
	if err != nil {
		return nil, err
	}
	updated, err := updateJpeg(embedded, u, c)
	if err != nil {
		return nil, err
	}
	return f.SetEmbeddedJpeg(updated)
}

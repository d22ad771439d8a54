package utils

import (
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bodgit/sevenzip"
)

// LoadFile reads the program image at filename, transparently
// decompressing gzip, zip and 7z archives. Archives are expected to
// carry the image as their first entry.
func LoadFile(filename string) ([]byte, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	var decoder io.Reader
	switch filepath.Ext(filename) {
	case ".gz":
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		decoder, err = gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
	case ".zip":
		r, err := zip.NewReader(f, int64(len(data)))
		if err != nil {
			return nil, err
		}
		if len(r.File) == 0 {
			return nil, fmt.Errorf("empty zip archive: %s", filename)
		}
		if decoder, err = r.File[0].Open(); err != nil {
			return nil, err
		}
	case ".7z":
		r, err := sevenzip.NewReader(f, int64(len(data)))
		if err != nil {
			return nil, err
		}
		if len(r.File) == 0 {
			return nil, fmt.Errorf("empty 7z archive: %s", filename)
		}
		if decoder, err = r.File[0].Open(); err != nil {
			return nil, err
		}
	default:
		// plain image
		return data, nil
	}

	return io.ReadAll(decoder)
}

// Compressed reports whether filename carries an extension that
// LoadFile decompresses.
func Compressed(filename string) bool {
	switch filepath.Ext(filename) {
	case ".gz", ".zip", ".7z":
		return true
	}
	return false
}

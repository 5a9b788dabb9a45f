package logpipe

import (
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// compressSegment gzips a rotated segment to path+".gz" and removes the
// uncompressed copy. Callers on the rotation path treat failures as
// housekeeping noise and swallow them.
func compressSegment(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}

	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		gz.Close()
		dst.Close()
		_ = os.Remove(path + ".gz")
		return err
	}
	if err := gz.Close(); err != nil {
		dst.Close()
		_ = os.Remove(path + ".gz")
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}

	return os.Remove(path)
}

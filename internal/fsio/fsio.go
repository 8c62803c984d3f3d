// Package fsio provides crash-safe file replacement: write to a temporary
// file in the target's directory, fsync, then rename over the target.
package fsio

import (
	"io"
	"os"
	"path/filepath"
)

// TempSuffix is appended to the target path for the in-flight temp file.
const TempSuffix = ".tmp"

// WriteAtomic streams the callback's output into path+".tmp" and renames it
// over path once complete. If write, sync, close, or rename fail, the temp
// file is removed and the target keeps its previous content or stays absent.
// With sync enabled the file and its parent directory are fsynced so the
// replacement survives power loss. Returns the byte count written.
func WriteAtomic(path string, sync bool, write func(io.Writer) error) (int64, error) {
	tmp := path + TempSuffix
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: f}
	if err := write(cw); err != nil {
		f.Close()
		os.Remove(tmp)
		return 0, err
	}
	if sync {
		if err := syncFile(f); err != nil {
			f.Close()
			os.Remove(tmp)
			return 0, err
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return 0, err
	}
	if sync {
		// The rename is durable only once the directory entry is flushed.
		if err := syncDir(filepath.Dir(path)); err != nil {
			return cw.n, err
		}
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

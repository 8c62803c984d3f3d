//go:build linux

package fsio

import (
	"os"

	"golang.org/x/sys/unix"
)

// syncFile flushes file data without forcing a full metadata flush.
func syncFile(f *os.File) error {
	return unix.Fdatasync(int(f.Fd()))
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

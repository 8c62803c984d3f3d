//go:build !linux && !darwin

package fsio

import "os"

func syncFile(f *os.File) error {
	return f.Sync()
}

// Directory fsync is not portable off unix. The rename itself is still
// atomic; only power-loss durability of the entry is weaker.
func syncDir(string) error { return nil }

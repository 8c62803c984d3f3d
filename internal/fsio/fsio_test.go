package fsio

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAtomicCreates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.snap")
	content := []byte("snapshot bytes")

	n, err := WriteAtomic(path, true, func(w io.Writer) error {
		_, werr := w.Write(content)
		return werr
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), n)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	_, err = os.Stat(path + TempSuffix)
	assert.True(t, os.IsNotExist(err), "temp file must not survive a successful write")
}

func TestWriteAtomicReplaces(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.snap")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	_, err := WriteAtomic(path, false, func(w io.Writer) error {
		_, werr := w.Write([]byte("new"))
		return werr
	})
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got)
}

func TestWriteAtomicFailureKeepsTarget(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.snap")
	prior := []byte("prior content")
	require.NoError(t, os.WriteFile(path, prior, 0o644))

	boom := errors.New("disk hiccup")
	_, err := WriteAtomic(path, true, func(w io.Writer) error {
		// Fail mid-stream, after some bytes already reached the temp file.
		if _, werr := w.Write([]byte("partial")); werr != nil {
			return werr
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, rerr := os.ReadFile(path)
	require.NoError(t, rerr)
	assert.Equal(t, prior, got, "target must keep its previous content")

	_, serr := os.Stat(path + TempSuffix)
	assert.True(t, os.IsNotExist(serr), "temp file must be cleaned up on failure")
}

func TestWriteAtomicFailureLeavesNoFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fresh.snap")

	boom := errors.New("encode failed")
	_, err := WriteAtomic(path, false, func(io.Writer) error {
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, serr := os.Stat(path)
	assert.True(t, os.IsNotExist(serr), "no file may appear for a failed first write")
	_, serr = os.Stat(path + TempSuffix)
	assert.True(t, os.IsNotExist(serr))
}

func TestWriteAtomicUnwritableDir(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("directory permissions do not bind for root")
	}

	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o700) })

	_, err := WriteAtomic(filepath.Join(dir, "state.snap"), false, func(w io.Writer) error {
		_, werr := w.Write([]byte("x"))
		return werr
	})
	assert.Error(t, err)
}

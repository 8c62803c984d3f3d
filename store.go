// Package anticheat persists versioned, compressed snapshots of game state
// to single files and restores them with explicit failure classification.
// Writes are atomic (temp file + rename); reads gate on the snapshot
// version before the payload is touched.
package anticheat

import (
	"compress/flate"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/elastic/go-freelru"

	"github.com/maxgamesNL/MaxAntiCheat/internal/envelope"
	"github.com/maxgamesNL/MaxAntiCheat/internal/fsio"
)

// SnapshotInfo describes a snapshot file without decoding its payload.
type SnapshotInfo struct {
	Path        string
	Size        int64 // compressed bytes on disk
	ModTime     time.Time
	Version     uint64 // snapshot version tag
	Codec       string // codec display name
	PayloadSize int64  // encoded payload bytes inside the envelope
	Checksum    uint64 // envelope xxhash64
}

// Store saves and loads compressed snapshot files. A store recognizes a
// fixed set of snapshot versions; files carrying any other version are
// rejected before their payload is read. Methods are safe for concurrent
// use on distinct paths; concurrent Saves to the same path must be
// serialized by the caller (see Keeper).
type Store struct {
	versions map[uint64]struct{}
	opts     StoreOptions
	stats    *freelru.SyncedLRU[string, SnapshotInfo] // nil when disabled
}

// New creates a store that recognizes exactly the given snapshot versions.
func New(versions []uint64, options ...StoreOption) (*Store, error) {
	if len(versions) == 0 {
		return nil, ErrNoVersions
	}
	opts := defaultStoreOptions()
	for _, opt := range options {
		opt(&opts)
	}
	if opts.level < gzip.HuffmanOnly || opts.level > gzip.BestCompression {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCompressionLevel, opts.level)
	}

	known := make(map[uint64]struct{}, len(versions))
	for _, v := range versions {
		known[v] = struct{}{}
	}

	s := &Store{versions: known, opts: opts}
	if opts.statCacheSize > 0 {
		cache, err := freelru.NewSynced[string, SnapshotInfo](uint32(opts.statCacheSize), hashStringXXHASH)
		if err != nil {
			return nil, err
		}
		s.stats = cache
	}
	return s, nil
}

func hashStringXXHASH(s string) uint32 {
	return uint32(xxhash.Sum64String(s))
}

// Versions returns the sorted set of snapshot versions this store accepts.
func (s *Store) Versions() []uint64 {
	out := make([]uint64, 0, len(s.versions))
	for v := range s.versions {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *Store) knows(version uint64) bool {
	_, ok := s.versions[version]
	return ok
}

// Save serializes payload under the given version tag, compresses it, and
// atomically replaces path. On failure the target is left absent or in its
// prior state, never partially written. The parent directory must exist.
func (s *Store) Save(path string, version uint64, payload any) error {
	start := time.Now()

	if !s.knows(version) {
		return fmt.Errorf("%w %d (known %v)", ErrUnknownVersion, version, s.Versions())
	}

	data, err := s.opts.codec.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	written, err := s.writeSnapshot(path, version, data)
	if err != nil {
		return err
	}

	s.opts.logger.Info("snapshot saved",
		"path", path,
		"version", version,
		"payload_bytes", len(data),
		"compressed_bytes", written,
		"elapsed", time.Since(start),
	)
	return nil
}

// writeSnapshot wraps already-encoded payload bytes in an envelope and
// writes them through gzip and the atomic replace. Shared with the keeper,
// which encodes once so it can hash the bytes for its unchanged-skip.
func (s *Store) writeSnapshot(path string, version uint64, data []byte) (int64, error) {
	if int64(len(data)) > s.opts.maxPayloadSize {
		return 0, fmt.Errorf("%w: %d bytes (limit %d)", ErrPayloadTooLarge, len(data), s.opts.maxPayloadSize)
	}

	hdr := envelope.NewHeader(version, s.opts.codec.ID(), data)
	written, err := fsio.WriteAtomic(path, s.opts.sync, func(w io.Writer) error {
		gz, gerr := gzip.NewWriterLevel(w, s.opts.level)
		if gerr != nil {
			return gerr
		}
		if _, werr := gz.Write(hdr.Encode()); werr != nil {
			return werr
		}
		if _, werr := gz.Write(data); werr != nil {
			return werr
		}
		return gz.Close()
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return written, nil
}

// Load reads, verifies, and decodes the snapshot at path into payload,
// which must be a non-nil pointer of the saved type. It returns the file's
// snapshot version tag. The version gate runs before any payload byte is
// read, so a forward-incompatible file fails fast instead of producing a
// garbage value. If Load returns an error the contents of payload are
// unspecified and must be discarded, as with json.Unmarshal.
func (s *Store) Load(path string, payload any) (uint64, error) {
	start := time.Now()

	hdr, data, err := s.read(path)
	if err != nil {
		return 0, err
	}
	if err := s.opts.codec.Unmarshal(data, payload); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	s.opts.logger.Info("snapshot loaded",
		"path", path,
		"version", hdr.Version,
		"payload_bytes", len(data),
		"elapsed", time.Since(start),
	)
	return hdr.Version, nil
}

// Verify runs every Load check except payload decoding: envelope shape,
// version gate, codec gate, stream integrity, and checksum. It reports the
// version of a file this store could load.
func (s *Store) Verify(path string) (uint64, error) {
	hdr, _, err := s.read(path)
	if err != nil {
		return 0, err
	}
	return hdr.Version, nil
}

// Stat reads only the envelope header and file metadata. Unlike Load it
// does not gate the version: inspection must work on files written by other
// builds. Results are cached keyed by path, mtime, and size, so polling an
// unchanged file costs one os.Stat.
func (s *Store) Stat(path string) (SnapshotInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("%w: %w", ErrIO, err)
	}

	key := statKey(path, fi)
	if s.stats != nil {
		if info, ok := s.stats.Get(key); ok {
			return info, nil
		}
	}

	hdr, err := s.readHeader(path)
	if err != nil {
		return SnapshotInfo{}, err
	}

	info := SnapshotInfo{
		Path:        path,
		Size:        fi.Size(),
		ModTime:     fi.ModTime(),
		Version:     hdr.Version,
		Codec:       codecName(hdr.Codec),
		PayloadSize: int64(hdr.PayloadLen),
		Checksum:    hdr.Checksum,
	}
	if s.stats != nil {
		s.stats.Add(key, info)
	}
	return info, nil
}

func statKey(path string, fi os.FileInfo) string {
	return path + "|" + strconv.FormatInt(fi.ModTime().UnixNano(), 10) +
		"|" + strconv.FormatInt(fi.Size(), 10)
}

// openEnvelope opens path, positions a gzip reader past the envelope
// header, and validates the header's shape. On success the caller owns both
// closers; on error everything is closed here.
func (s *Store) openEnvelope(path string) (*os.File, *gzip.Reader, envelope.Header, error) {
	var hdr envelope.Header

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, hdr, fmt.Errorf("%w: %w", ErrIO, err)
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, hdr, fmt.Errorf("%w: %w", classifyStreamErr(err), err)
	}

	var hbuf [envelope.HeaderSize]byte
	if _, rerr := io.ReadFull(gz, hbuf[:]); rerr != nil {
		gz.Close()
		f.Close()
		return nil, nil, hdr, fmt.Errorf("%w: %w", classifyStreamErr(rerr), rerr)
	}

	hdr, err = envelope.DecodeHeader(hbuf[:])
	if err != nil {
		gz.Close()
		f.Close()
		return nil, nil, hdr, fmt.Errorf("%w: %w", ErrCorruption, err)
	}
	if err := hdr.Validate(); err != nil {
		gz.Close()
		f.Close()
		// A wrong magic or a zeroed codec id means a foreign or garbled
		// file; only an unsupported envelope format is a schema concern.
		cat := ErrCorruption
		if errors.Is(err, envelope.ErrInvalidFormat) {
			cat = ErrSchemaMismatch
		}
		return nil, nil, hdr, fmt.Errorf("%w: %w", cat, err)
	}
	return f, gz, hdr, nil
}

// read performs the shared open/validate/gate/verify pipeline and returns
// the header and payload bytes.
func (s *Store) read(path string) (envelope.Header, []byte, error) {
	f, gz, hdr, err := s.openEnvelope(path)
	if err != nil {
		return hdr, nil, err
	}
	defer f.Close()
	defer gz.Close()

	// Version gate, before any payload byte is read.
	if !s.knows(hdr.Version) {
		return hdr, nil, fmt.Errorf("%w %d (known %v)", ErrUnknownVersion, hdr.Version, s.Versions())
	}
	if hdr.Codec != s.opts.codec.ID() {
		return hdr, nil, fmt.Errorf("%w: file has %s, store uses %s",
			ErrCodecMismatch, codecName(hdr.Codec), s.opts.codec.Name())
	}
	if hdr.PayloadLen > uint64(s.opts.maxPayloadSize) {
		return hdr, nil, fmt.Errorf("%w: declared payload length %d exceeds limit %d",
			ErrCorruption, hdr.PayloadLen, s.opts.maxPayloadSize)
	}

	data := make([]byte, hdr.PayloadLen)
	if _, err := io.ReadFull(gz, data); err != nil {
		return hdr, nil, fmt.Errorf("%w: %w", classifyStreamErr(err), err)
	}

	// Read one byte past the payload. A clean stream yields io.EOF, and
	// reaching EOF is what makes gzip verify its CRC32 trailer.
	var one [1]byte
	switch n, err := io.ReadFull(gz, one[:]); {
	case err == nil || n > 0:
		return hdr, nil, fmt.Errorf("%w: trailing data after payload", ErrCorruption)
	case errors.Is(err, io.EOF):
		// clean end of stream
	default:
		return hdr, nil, fmt.Errorf("%w: %w", classifyStreamErr(err), err)
	}

	if err := hdr.VerifyPayload(data); err != nil {
		return hdr, nil, fmt.Errorf("%w: %w", ErrCorruption, err)
	}
	return hdr, data, nil
}

// readHeader decompresses just the leading envelope header.
func (s *Store) readHeader(path string) (envelope.Header, error) {
	f, gz, hdr, err := s.openEnvelope(path)
	if err != nil {
		return hdr, err
	}
	gz.Close()
	f.Close()
	return hdr, nil
}

// classifyStreamErr separates damaged-stream errors from plain I/O faults.
func classifyStreamErr(err error) error {
	var corrupt flate.CorruptInputError
	switch {
	case errors.Is(err, gzip.ErrHeader),
		errors.Is(err, gzip.ErrChecksum),
		errors.As(err, &corrupt),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF):
		return ErrCorruption
	default:
		return ErrIO
	}
}

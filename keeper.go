package anticheat

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/oklog/ulid/v2"
)

// SnapshotExt is the file extension for keeper-managed snapshots.
const SnapshotExt = ".snap"

// Keeper rotates snapshots of one state source into one directory. File
// names are ULIDs, so lexicographic order is creation order and no index
// file is needed. All directory writes go through one mutex, providing the
// per-path serialization the store itself leaves to callers. A keeper with
// an interval also captures in the background, off the host's tick path.
type Keeper struct {
	store   *Store
	dir     string
	version uint64
	source  func() (any, error)
	opts    KeeperOptions
	log     Logger

	mu      sync.Mutex
	lastSum uint64 // xxhash64 of the last captured payload bytes
	haveSum bool
	closed  bool

	stopC chan struct{}
	wg    sync.WaitGroup
}

// NewKeeper creates a keeper over dir, creating the directory if needed.
// version must be one the store recognizes. source produces the payload for
// each capture; it may be nil for a keeper used only to list, load, and
// prune, but is required when an interval is set.
func NewKeeper(store *Store, dir string, version uint64, source func() (any, error), options ...KeeperOption) (*Keeper, error) {
	if store == nil {
		return nil, errors.New("nil store")
	}
	if !store.knows(version) {
		return nil, fmt.Errorf("%w %d (known %v)", ErrUnknownVersion, version, store.Versions())
	}

	opts := defaultKeeperOptions()
	for _, opt := range options {
		opt(&opts)
	}
	if opts.logger == nil {
		opts.logger = store.opts.logger
	}
	if opts.interval > 0 && source == nil {
		return nil, ErrNoSource
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	k := &Keeper{
		store:   store,
		dir:     dir,
		version: version,
		source:  source,
		opts:    opts,
		log:     opts.logger,
		stopC:   make(chan struct{}),
	}
	if opts.interval > 0 {
		k.wg.Add(1)
		go k.run()
	}
	return k, nil
}

// Dir returns the managed directory.
func (k *Keeper) Dir() string { return k.dir }

// Save captures the source and writes a new snapshot file, even when the
// payload is unchanged since the last capture. Returns the new file's path.
func (k *Keeper) Save() (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return "", ErrKeeperClosed
	}
	return k.saveLocked(true)
}

// saveLocked captures and writes one snapshot. With force false the write
// is skipped (returning "") when the encoded payload hashes identically to
// the previous capture.
func (k *Keeper) saveLocked(force bool) (string, error) {
	if k.source == nil {
		return "", ErrNoSource
	}
	payload, err := k.source()
	if err != nil {
		return "", fmt.Errorf("snapshot source: %w", err)
	}
	data, err := k.store.opts.codec.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	sum := xxhash.Sum64(data)
	if !force && k.haveSum && sum == k.lastSum {
		return "", nil
	}

	path := filepath.Join(k.dir, ulid.Make().String()+SnapshotExt)
	written, err := k.store.writeSnapshot(path, k.version, data)
	if err != nil {
		return "", err
	}
	k.lastSum, k.haveSum = sum, true

	k.log.Info("snapshot rotated",
		"path", path,
		"version", k.version,
		"payload_bytes", len(data),
		"compressed_bytes", written,
	)
	return path, nil
}

// LoadLatest decodes the newest loadable snapshot into payload, falling
// back past damaged or rejected files with a warning. It stops early on
// decode failures, because the destination may then hold partial state,
// and on I/O faults other than a concurrently pruned file. Returns the
// loaded file's path and version tag.
func (k *Keeper) LoadLatest(payload any) (string, uint64, error) {
	names, err := k.snapshotNames()
	if err != nil {
		return "", 0, err
	}
	for i := len(names) - 1; i >= 0; i-- {
		path := filepath.Join(k.dir, names[i])
		version, lerr := k.store.Load(path, payload)
		switch {
		case lerr == nil:
			return path, version, nil
		case errors.Is(lerr, ErrSerialization):
			return "", 0, lerr
		case errors.Is(lerr, ErrIO) && !errors.Is(lerr, os.ErrNotExist):
			return "", 0, lerr
		}
		k.log.Warn("snapshot unreadable, trying older", "path", path, "error", lerr)
	}
	return "", 0, ErrNoSnapshots
}

// List describes the directory's snapshots, oldest first. Files whose
// header cannot be read are skipped with a warning; Prune still counts
// them.
func (k *Keeper) List() ([]SnapshotInfo, error) {
	names, err := k.snapshotNames()
	if err != nil {
		return nil, err
	}
	infos := make([]SnapshotInfo, 0, len(names))
	for _, name := range names {
		path := filepath.Join(k.dir, name)
		info, serr := k.store.Stat(path)
		if serr != nil {
			k.log.Warn("skipping unreadable snapshot", "path", path, "error", serr)
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Prune deletes snapshots beyond the retention policy and reports how many
// were removed. The newest snapshot always survives.
func (k *Keeper) Prune() (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.pruneLocked()
}

// PruneCandidates returns the paths Prune would delete, without deleting
// anything.
func (k *Keeper) PruneCandidates() ([]string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.pruneCandidatesLocked()
}

func (k *Keeper) pruneLocked() (int, error) {
	victims, err := k.pruneCandidatesLocked()
	if err != nil {
		return 0, err
	}

	deleted := 0
	var firstErr error
	for _, path := range victims {
		if rerr := os.Remove(path); rerr != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: %w", ErrIO, rerr)
			}
			continue
		}
		deleted++
	}
	if deleted > 0 {
		k.log.Info("snapshots pruned", "dir", k.dir, "deleted", deleted)
	}
	return deleted, firstErr
}

func (k *Keeper) pruneCandidatesLocked() ([]string, error) {
	names, err := k.snapshotNames()
	if err != nil {
		return nil, err
	}
	if len(names) <= 1 {
		return nil, nil
	}

	victims := make(map[string]struct{})

	// Count-based retention: keep the newest maxCount files.
	if k.opts.maxCount > 0 && len(names) > k.opts.maxCount {
		for _, name := range names[:len(names)-k.opts.maxCount] {
			victims[name] = struct{}{}
		}
	}

	// Age-based retention, never touching the newest file.
	if k.opts.maxAge > 0 {
		cutoff := time.Now().Add(-k.opts.maxAge)
		for _, name := range names[:len(names)-1] {
			if _, ok := victims[name]; ok {
				continue
			}
			fi, serr := os.Stat(filepath.Join(k.dir, name))
			if serr != nil {
				continue
			}
			if fi.ModTime().Before(cutoff) {
				victims[name] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(victims))
	for _, name := range names { // oldest first
		if _, ok := victims[name]; ok {
			out = append(out, filepath.Join(k.dir, name))
		}
	}
	return out, nil
}

// snapshotNames returns the sorted snapshot file names in the directory.
func (k *Keeper) snapshotNames() ([]string, error) {
	entries, err := os.ReadDir(k.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), SnapshotExt) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// run is the background capture loop: periodic unchanged-skipping saves
// followed by retention pruning.
func (k *Keeper) run() {
	defer k.wg.Done()

	ticker := time.NewTicker(k.opts.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			k.mu.Lock()
			if _, err := k.saveLocked(false); err != nil {
				k.log.Error("background snapshot failed", "dir", k.dir, "error", err)
			}
			if _, err := k.pruneLocked(); err != nil {
				k.log.Warn("background prune failed", "dir", k.dir, "error", err)
			}
			k.mu.Unlock()

		case <-k.stopC:
			return
		}
	}
}

// Close stops the background goroutine and, for background keepers, takes
// one final unchanged-skipping capture unless WithNoFinalSave was set.
// Safe to call more than once.
func (k *Keeper) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	k.mu.Unlock()

	// The run loop locks k.mu on every tick, so the wait must happen
	// outside the lock.
	close(k.stopC)
	k.wg.Wait()

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.opts.interval > 0 && k.opts.finalSave {
		if _, err := k.saveLocked(false); err != nil {
			return err
		}
	}
	return nil
}

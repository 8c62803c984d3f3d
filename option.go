package anticheat

import (
	"compress/gzip"
	"time"
)

const (
	// DefaultMaxPayloadSize caps the encoded payload at 1 GiB. A length
	// field above the configured cap is treated as corruption on load.
	DefaultMaxPayloadSize = 1 << 30

	// DefaultStatCacheSize is the number of Stat results kept per store.
	DefaultStatCacheSize = 256

	// DefaultMaxSnapshots is the keeper's retention count.
	DefaultMaxSnapshots = 10
)

// StoreOptions configures store behavior.
type StoreOptions struct {
	codec          Codec
	logger         Logger
	level          int   // gzip compression level
	sync           bool  // fsync before rename
	maxPayloadSize int64 // encoded payload cap in bytes
	statCacheSize  int   // Stat cache entries, 0 disables
}

func defaultStoreOptions() StoreOptions {
	return StoreOptions{
		codec:          GobCodec{},
		logger:         DiscardLogger{},
		level:          gzip.DefaultCompression,
		sync:           true,
		maxPayloadSize: DefaultMaxPayloadSize,
		statCacheSize:  DefaultStatCacheSize,
	}
}

// StoreOption configures a store using the functional options pattern.
type StoreOption func(*StoreOptions)

// WithCodec sets the payload codec. Defaults to GobCodec.
func WithCodec(c Codec) StoreOption {
	return func(opts *StoreOptions) {
		opts.codec = c
	}
}

// WithLogger sets the structured logger. Defaults to DiscardLogger.
func WithLogger(l Logger) StoreOption {
	return func(opts *StoreOptions) {
		opts.logger = l
	}
}

// WithCompressionLevel sets the gzip level, gzip.HuffmanOnly through
// gzip.BestCompression. Defaults to gzip.DefaultCompression.
func WithCompressionLevel(level int) StoreOption {
	return func(opts *StoreOptions) {
		opts.level = level
	}
}

// WithSyncOff skips fsync before the rename. Faster, but a power cut right
// after Save can lose the new file. Only use where the snapshot can be
// recaptured.
func WithSyncOff() StoreOption {
	return func(opts *StoreOptions) {
		opts.sync = false
	}
}

// WithMaxPayloadSize sets the encoded payload cap in bytes.
func WithMaxPayloadSize(n int64) StoreOption {
	return func(opts *StoreOptions) {
		opts.maxPayloadSize = n
	}
}

// WithStatCacheSize sets how many Stat results the store caches. 0 disables
// the cache.
func WithStatCacheSize(n int) StoreOption {
	return func(opts *StoreOptions) {
		opts.statCacheSize = n
	}
}

// KeeperOptions configures keeper behavior.
type KeeperOptions struct {
	interval  time.Duration // background capture period, 0 = manual only
	maxCount  int           // retention count, 0 = unlimited
	maxAge    time.Duration // retention age, 0 = unlimited
	finalSave bool          // capture once more during Close
	logger    Logger        // nil = inherit the store's logger
}

func defaultKeeperOptions() KeeperOptions {
	return KeeperOptions{
		interval:  0,
		maxCount:  DefaultMaxSnapshots,
		maxAge:    0,
		finalSave: true,
	}
}

// KeeperOption configures a keeper using the functional options pattern.
type KeeperOption func(*KeeperOptions)

// WithInterval enables background capture at the given period.
func WithInterval(d time.Duration) KeeperOption {
	return func(opts *KeeperOptions) {
		opts.interval = d
	}
}

// WithMaxSnapshots sets how many snapshot files Prune retains. 0 disables
// count-based retention. The newest snapshot is always kept.
func WithMaxSnapshots(n int) KeeperOption {
	return func(opts *KeeperOptions) {
		opts.maxCount = n
	}
}

// WithMaxSnapshotAge prunes snapshots older than d. 0 disables age-based
// retention. The newest snapshot is always kept.
func WithMaxSnapshotAge(d time.Duration) KeeperOption {
	return func(opts *KeeperOptions) {
		opts.maxAge = d
	}
}

// WithNoFinalSave disables the capture a background keeper normally takes
// while closing.
func WithNoFinalSave() KeeperOption {
	return func(opts *KeeperOptions) {
		opts.finalSave = false
	}
}

// WithKeeperLogger overrides the logger inherited from the store.
func WithKeeperLogger(l Logger) KeeperOption {
	return func(opts *KeeperOptions) {
		opts.logger = l
	}
}

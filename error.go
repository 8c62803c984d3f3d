package anticheat

import (
	"errors"
	"fmt"

	"github.com/maxgamesNL/MaxAntiCheat/internal/envelope"
)

// The four failure kinds every Save/Load error wraps. Callers branch with
// errors.Is on these; the fine-grained sentinels below narrow the cause.
var (
	ErrIO             = errors.New("snapshot io failure")
	ErrCorruption     = errors.New("snapshot corruption detected")
	ErrSchemaMismatch = errors.New("snapshot schema mismatch")
	ErrSerialization  = errors.New("snapshot serialization failure")
)

var (
	// ErrUnknownVersion reports a snapshot version tag outside the set the
	// store was built with. Matched by errors.Is against ErrSchemaMismatch
	// as well.
	ErrUnknownVersion = fmt.Errorf("%w: unknown snapshot version", ErrSchemaMismatch)

	// ErrCodecMismatch reports a file written by a codec other than the
	// store's configured one.
	ErrCodecMismatch = fmt.Errorf("%w: snapshot codec mismatch", ErrSchemaMismatch)
)

var (
	ErrNoVersions              = errors.New("no snapshot versions registered")
	ErrNoSnapshots             = errors.New("no snapshots found")
	ErrNoSource                = errors.New("keeper has no snapshot source")
	ErrPayloadTooLarge         = errors.New("payload exceeds size limit")
	ErrInvalidCompressionLevel = errors.New("invalid compression level")
	ErrKeeperClosed            = errors.New("keeper is closed")
)

var (
	ErrInvalidMagicNumber = envelope.ErrInvalidMagicNumber
	ErrInvalidFormat      = envelope.ErrInvalidFormat
	ErrInvalidCodec       = envelope.ErrInvalidCodec
	ErrInvalidChecksum    = envelope.ErrInvalidChecksum
	ErrTruncated          = envelope.ErrTruncated
)

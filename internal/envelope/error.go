package envelope

import "errors"

var (
	ErrInvalidMagicNumber = errors.New("invalid magic number")
	ErrInvalidFormat      = errors.New("unsupported envelope format")
	ErrInvalidCodec       = errors.New("invalid codec id")
	ErrInvalidChecksum    = errors.New("invalid checksum")
	ErrTruncated          = errors.New("truncated envelope")
)

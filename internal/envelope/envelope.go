// Package envelope defines the binary header that frames every snapshot
// payload. The header is written inside the compressed stream, ahead of the
// payload bytes, so a reader can identify the file and gate on its version
// before touching the payload.
package envelope

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

const (
	// MagicNumber identifies a snapshot envelope ("macs" in hex).
	MagicNumber uint32 = 0x6D616373

	// FormatVersion is the envelope layout version. It changes only when
	// the header layout itself changes, independent of snapshot versions.
	FormatVersion uint16 = 1

	// HeaderSize is the encoded header length in bytes.
	// Layout: [Magic:4][Format:2][Codec:1][Reserved:1][Version:8][PayloadLen:8][Checksum:8]
	HeaderSize = 32

	// checksumCoverage is the number of leading header bytes included in
	// the checksum together with the payload. The checksum field itself is
	// excluded.
	checksumCoverage = 24
)

// Header is the decoded snapshot envelope header.
type Header struct {
	Magic      uint32 // 4 bytes: 0x6D616373 ("macs")
	Format     uint16 // 2 bytes: envelope layout version (1)
	Codec      uint8  // 1 byte: codec that encoded the payload
	Version    uint64 // 8 bytes: caller's snapshot version tag
	PayloadLen uint64 // 8 bytes: payload byte count
	Checksum   uint64 // 8 bytes: xxhash64 of header[0:24] + payload
}

// NewHeader builds a fully populated header for the given payload,
// including its checksum.
func NewHeader(version uint64, codec uint8, payload []byte) Header {
	h := Header{
		Magic:      MagicNumber,
		Format:     FormatVersion,
		Codec:      codec,
		Version:    version,
		PayloadLen: uint64(len(payload)),
	}
	h.Checksum = h.CalculateChecksum(payload)
	return h
}

// Encode serializes the header to its fixed 32-byte little-endian form.
func (h *Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Format)
	buf[6] = h.Codec
	buf[7] = 0 // reserved
	binary.LittleEndian.PutUint64(buf[8:16], h.Version)
	binary.LittleEndian.PutUint64(buf[16:24], h.PayloadLen)
	binary.LittleEndian.PutUint64(buf[24:32], h.Checksum)
	return buf
}

// DecodeHeader parses a header from buf. buf must hold at least HeaderSize
// bytes; shorter input returns ErrTruncated.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrTruncated
	}
	return Header{
		Magic:      binary.LittleEndian.Uint32(buf[0:4]),
		Format:     binary.LittleEndian.Uint16(buf[4:6]),
		Codec:      buf[6],
		Version:    binary.LittleEndian.Uint64(buf[8:16]),
		PayloadLen: binary.LittleEndian.Uint64(buf[16:24]),
		Checksum:   binary.LittleEndian.Uint64(buf[24:32]),
	}, nil
}

// CalculateChecksum computes the xxhash64 over the first 24 encoded header
// bytes and the payload. The Checksum field does not participate.
func (h *Header) CalculateChecksum(payload []byte) uint64 {
	buf := h.Encode()
	d := xxhash.New()
	_, _ = d.Write(buf[:checksumCoverage])
	_, _ = d.Write(payload)
	return d.Sum64()
}

// Validate checks the fields that can be verified without the payload:
// magic number, envelope format, and a non-zero codec id. Checksum
// verification requires the payload and is done via VerifyPayload.
func (h *Header) Validate() error {
	if h.Magic != MagicNumber {
		return ErrInvalidMagicNumber
	}
	if h.Format != FormatVersion {
		return ErrInvalidFormat
	}
	if h.Codec == 0 {
		return ErrInvalidCodec
	}
	return nil
}

// VerifyPayload checks payload length and checksum against the header.
func (h *Header) VerifyPayload(payload []byte) error {
	if uint64(len(payload)) != h.PayloadLen {
		return ErrTruncated
	}
	if h.CalculateChecksum(payload) != h.Checksum {
		return ErrInvalidChecksum
	}
	return nil
}

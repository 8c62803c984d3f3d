package anticheat

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
)

// Codec ids recorded in the envelope header. Ids below 64 are reserved for
// built-in codecs; custom codecs should use 64 and above.
const (
	CodecGob  uint8 = 1
	CodecJSON uint8 = 2
)

// Codec encodes and decodes snapshot payloads. The id is written into every
// snapshot file so a store configured with a different codec fails loudly
// instead of feeding one format's bytes to another's decoder.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	ID() uint8
	Name() string
}

// GobCodec is the default codec. gob handles struct-keyed maps and arrays
// natively, which JSON object keys cannot express without TextMarshaler
// support on the key type.
type GobCodec struct{}

func (GobCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (GobCodec) Unmarshal(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func (GobCodec) ID() uint8 { return CodecGob }

func (GobCodec) Name() string { return "gob" }

// JSONCodec trades gob's compactness for files an operator can decompress
// and read. Map key types must implement encoding.TextMarshaler.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (JSONCodec) ID() uint8 { return CodecJSON }

func (JSONCodec) Name() string { return "json" }

// codecName resolves an envelope codec id to a display name for logs and
// SnapshotInfo. Unknown ids are shown numerically rather than failing.
func codecName(id uint8) string {
	switch id {
	case CodecGob:
		return "gob"
	case CodecJSON:
		return "json"
	default:
		return fmt.Sprintf("codec(%d)", id)
	}
}

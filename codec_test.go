package anticheat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type position struct {
	World   string
	X, Y, Z int32
}

type inventory struct {
	Owner string         `json:"owner"`
	Items map[string]int `json:"items"`
}

func TestGobCodecRoundTrip(t *testing.T) {
	t.Parallel()

	c := GobCodec{}
	in := inventory{Owner: "alice", Items: map[string]int{"sword": 1, "arrow": 64}}

	data, err := c.Marshal(in)
	require.NoError(t, err)

	var out inventory
	require.NoError(t, c.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestGobCodecStructKeys(t *testing.T) {
	t.Parallel()

	c := GobCodec{}
	in := map[position]string{
		{World: "overworld", X: 1, Y: 2, Z: 3}:  "stone",
		{World: "overworld", X: -4, Y: 0, Z: 9}: "dirt",
	}

	data, err := c.Marshal(in)
	require.NoError(t, err)

	var out map[position]string
	require.NoError(t, c.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestGobCodecUnsupportedType(t *testing.T) {
	t.Parallel()

	_, err := GobCodec{}.Marshal(make(chan int))
	assert.Error(t, err)
}

func TestJSONCodecRoundTrip(t *testing.T) {
	t.Parallel()

	c := JSONCodec{}
	in := inventory{Owner: "bob", Items: map[string]int{"pickaxe": 1}}

	data, err := c.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"owner":"bob"`)

	var out inventory
	require.NoError(t, c.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestCodecIdentity(t *testing.T) {
	t.Parallel()

	gob, json := GobCodec{}, JSONCodec{}
	assert.Equal(t, CodecGob, gob.ID())
	assert.Equal(t, CodecJSON, json.ID())
	assert.NotEqual(t, gob.ID(), json.ID())
	assert.Equal(t, "gob", gob.Name())
	assert.Equal(t, "json", json.Name())
}

func TestCodecName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "gob", codecName(CodecGob))
	assert.Equal(t, "json", codecName(CodecJSON))
	assert.Equal(t, "codec(77)", codecName(77))
}

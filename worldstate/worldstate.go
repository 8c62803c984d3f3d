// Package worldstate holds the serializable snapshot payload for world and
// player data: block descriptors keyed by world position, plus the set of
// online player UUIDs. Live host handles never appear here; callers
// decompose them into these plain values before saving.
package worldstate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// BlockKey addresses one block: world name plus integer coordinates.
// Equality is structural, so two keys with the same fields are the same
// map key.
type BlockKey struct {
	World string
	X     int32
	Y     int32
	Z     int32
}

// At builds a BlockKey.
func At(world string, x, y, z int32) BlockKey {
	return BlockKey{World: world, X: x, Y: y, Z: z}
}

// String renders "world:x:y:z".
func (k BlockKey) String() string {
	return fmt.Sprintf("%s:%d:%d:%d", k.World, k.X, k.Y, k.Z)
}

// MarshalText lets BlockKey act as a JSON object key.
func (k BlockKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses "world:x:y:z". The three coordinates are taken from
// the right, so world names may themselves contain colons.
func (k *BlockKey) UnmarshalText(text []byte) error {
	s := string(text)
	parts := make([]string, 0, 3)
	rest := s
	for i := 0; i < 3; i++ {
		idx := strings.LastIndexByte(rest, ':')
		if idx < 0 {
			return fmt.Errorf("block key %q: want world:x:y:z", s)
		}
		parts = append(parts, rest[idx+1:])
		rest = rest[:idx]
	}

	coords := make([]int32, 3)
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 32)
		if err != nil {
			return fmt.Errorf("block key %q: %w", s, err)
		}
		coords[i] = int32(n)
	}

	// parts were collected right to left: z, y, x.
	k.World = rest
	k.X = coords[2]
	k.Y = coords[1]
	k.Z = coords[0]
	return nil
}

// State is one snapshot payload: placed blocks and online players.
//
// Decode into a value from New so empty containers stay allocated: gob
// omits empty fields, and decoding into a zero State would leave its maps
// nil.
type State struct {
	Blocks  map[BlockKey]string    `json:"blocks"`
	Players map[uuid.UUID]struct{} `json:"players"`
}

// New returns a State with empty, non-nil containers.
func New() *State {
	return &State{
		Blocks:  make(map[BlockKey]string),
		Players: make(map[uuid.UUID]struct{}),
	}
}

// SetBlock records the descriptor at k.
func (s *State) SetBlock(k BlockKey, descriptor string) {
	s.Blocks[k] = descriptor
}

// Block returns the descriptor at k.
func (s *State) Block(k BlockKey) (string, bool) {
	d, ok := s.Blocks[k]
	return d, ok
}

// RemoveBlock drops the entry at k.
func (s *State) RemoveBlock(k BlockKey) {
	delete(s.Blocks, k)
}

// AddPlayer records an online player.
func (s *State) AddPlayer(id uuid.UUID) {
	s.Players[id] = struct{}{}
}

// RemovePlayer drops a player.
func (s *State) RemovePlayer(id uuid.UUID) {
	delete(s.Players, id)
}

// HasPlayer reports membership.
func (s *State) HasPlayer(id uuid.UUID) bool {
	_, ok := s.Players[id]
	return ok
}

// CaptureCube walks the axis-aligned cube between the two corners
// (inclusive, corners in any order) and records every position where probe
// reports a block. Positions probe declines are skipped, keeping the map
// sparse.
func (s *State) CaptureCube(world string, x1, y1, z1, x2, y2, z2 int32, probe func(x, y, z int32) (string, bool)) {
	x1, x2 = ordered(x1, x2)
	y1, y2 = ordered(y1, y2)
	z1, z2 = ordered(z1, z2)
	// The walk is inclusive, so int32 counters would wrap instead of
	// stopping when an upper corner sits at the int32 maximum.
	for x := int64(x1); x <= int64(x2); x++ {
		for y := int64(y1); y <= int64(y2); y++ {
			for z := int64(z1); z <= int64(z2); z++ {
				if d, ok := probe(int32(x), int32(y), int32(z)); ok {
					s.Blocks[At(world, int32(x), int32(y), int32(z))] = d
				}
			}
		}
	}
}

func ordered(a, b int32) (int32, int32) {
	if a > b {
		return b, a
	}
	return a, b
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := New()
	for k, v := range s.Blocks {
		c.Blocks[k] = v
	}
	for id := range s.Players {
		c.Players[id] = struct{}{}
	}
	return c
}

// Equal reports structural equality of blocks and players.
func (s *State) Equal(o *State) bool {
	if len(s.Blocks) != len(o.Blocks) || len(s.Players) != len(o.Players) {
		return false
	}
	for k, v := range s.Blocks {
		if ov, ok := o.Blocks[k]; !ok || ov != v {
			return false
		}
	}
	for id := range s.Players {
		if _, ok := o.Players[id]; !ok {
			return false
		}
	}
	return true
}

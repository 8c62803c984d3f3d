// Package test provides integration tests for the snapshot store.
package test

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	anticheat "github.com/maxgamesNL/MaxAntiCheat"
	"github.com/maxgamesNL/MaxAntiCheat/worldstate"
)

const snapshotVersion = 1

// setup creates a store and a snapshot path inside a fresh temp directory.
func setup(t *testing.T, options ...anticheat.StoreOption) (*anticheat.Store, string) {
	t.Helper()

	store, err := anticheat.New([]uint64{snapshotVersion}, options...)
	require.NoError(t, err, "Failed to create store")

	return store, filepath.Join(t.TempDir(), "snap.bin")
}

// testWorld builds a populated state: a stone floor, some ore, and two
// online players.
func testWorld(t *testing.T) *worldstate.State {
	t.Helper()

	s := worldstate.New()
	s.CaptureCube("overworld", 0, 0, 0, 4, 0, 4, func(x, y, z int32) (string, bool) {
		return "stone", true
	})
	s.SetBlock(worldstate.At("overworld", 2, 1, 2), "iron_ore")
	s.SetBlock(worldstate.At("the_nether", 0, 64, 0), "netherrack")
	s.AddPlayer(uuid.MustParse("11111111-1111-1111-1111-111111111111"))
	s.AddPlayer(uuid.MustParse("22222222-2222-2222-2222-222222222222"))
	return s
}

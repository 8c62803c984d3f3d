package test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	anticheat "github.com/maxgamesNL/MaxAntiCheat"
	"github.com/maxgamesNL/MaxAntiCheat/worldstate"
)

// TestSnapshotPersistsAcrossStores saves with one store instance and loads
// with a fresh one, as a restarted process would.
func TestSnapshotPersistsAcrossStores(t *testing.T) {
	t.Parallel()

	writer, path := setup(t)
	world := testWorld(t)
	require.NoError(t, writer.Save(path, snapshotVersion, world), "Failed to save snapshot")

	reader, err := anticheat.New([]uint64{snapshotVersion})
	require.NoError(t, err, "Failed to create second store")

	got := worldstate.New()
	version, err := reader.Load(path, got)
	require.NoError(t, err, "Failed to load with a fresh store")
	assert.Equal(t, uint64(snapshotVersion), version)
	assert.True(t, world.Equal(got))
}

// TestKeeperRecoveryAfterRestart rotates a few snapshots, then recovers the
// newest one through a brand new keeper over the same directory.
func TestKeeperRecoveryAfterRestart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := anticheat.New([]uint64{snapshotVersion})
	require.NoError(t, err, "Failed to create store")

	world := worldstate.New()
	keeper, err := anticheat.NewKeeper(store, dir, snapshotVersion, func() (any, error) {
		return world, nil
	})
	require.NoError(t, err, "Failed to create keeper")

	world.SetBlock(worldstate.At("overworld", 0, 0, 0), "stone")
	_, err = keeper.Save()
	require.NoError(t, err, "Failed first rotation")

	world.SetBlock(worldstate.At("overworld", 0, 1, 0), "torch")
	world.AddPlayer(uuid.MustParse("11111111-1111-1111-1111-111111111111"))
	_, err = keeper.Save()
	require.NoError(t, err, "Failed second rotation")
	require.NoError(t, keeper.Close(), "Failed to close keeper")

	// Simulated restart: new store, read-only keeper over the same dir.
	store2, err := anticheat.New([]uint64{snapshotVersion})
	require.NoError(t, err, "Failed to create store after restart")
	keeper2, err := anticheat.NewKeeper(store2, dir, snapshotVersion, nil)
	require.NoError(t, err, "Failed to reopen keeper")
	defer keeper2.Close()

	got := worldstate.New()
	_, version, err := keeper2.LoadLatest(got)
	require.NoError(t, err, "Failed to recover latest snapshot")
	assert.Equal(t, uint64(snapshotVersion), version)
	assert.True(t, world.Equal(got), "recovered state differs from last rotation")
}

// TestFailedSaveKeepsPreviousSnapshot checks the atomic replace: a save
// that fails mid-way must leave the previous file fully intact.
func TestFailedSaveKeepsPreviousSnapshot(t *testing.T) {
	t.Parallel()

	store, path := setup(t)
	world := testWorld(t)
	require.NoError(t, store.Save(path, snapshotVersion, world), "Failed to save snapshot")

	// Channels cannot be encoded, so this save dies during serialization.
	err := store.Save(path, snapshotVersion, make(chan int))
	require.ErrorIs(t, err, anticheat.ErrSerialization)

	// A version the store does not know dies even earlier.
	err = store.Save(path, 99, world)
	require.ErrorIs(t, err, anticheat.ErrSchemaMismatch)

	got := worldstate.New()
	_, err = store.Load(path, got)
	require.NoError(t, err, "previous snapshot must survive failed saves")
	assert.True(t, world.Equal(got))
}

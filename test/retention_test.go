package test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	anticheat "github.com/maxgamesNL/MaxAntiCheat"
	"github.com/maxgamesNL/MaxAntiCheat/worldstate"
)

// TestKeeperRetentionEndToEnd rotates more snapshots than the retention
// policy keeps, prunes, and confirms the newest state is still loadable.
func TestKeeperRetentionEndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := anticheat.New([]uint64{snapshotVersion})
	require.NoError(t, err, "Failed to create store")

	world := worldstate.New()
	keeper, err := anticheat.NewKeeper(store, dir, snapshotVersion, func() (any, error) {
		return world, nil
	}, anticheat.WithMaxSnapshots(3))
	require.NoError(t, err, "Failed to create keeper")
	defer keeper.Close()

	for i := int32(1); i <= 7; i++ {
		world.SetBlock(worldstate.At("overworld", i, 0, 0), "stone")
		_, serr := keeper.Save()
		require.NoError(t, serr, "Failed rotation %d", i)
	}

	deleted, err := keeper.Prune()
	require.NoError(t, err, "Failed to prune")
	assert.Equal(t, 4, deleted)

	infos, err := keeper.List()
	require.NoError(t, err, "Failed to list after prune")
	assert.Len(t, infos, 3)

	got := worldstate.New()
	_, _, err = keeper.LoadLatest(got)
	require.NoError(t, err, "Failed to load after prune")
	assert.True(t, world.Equal(got), "newest state must survive pruning")
	assert.Len(t, got.Blocks, 7)
}

package test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	anticheat "github.com/maxgamesNL/MaxAntiCheat"
	"github.com/maxgamesNL/MaxAntiCheat/worldstate"
)

// TestConcurrentLoadsDuringRotation runs readers calling LoadLatest while a
// writer rotates new snapshots into the same directory. Every load must
// return some complete snapshot, never an error or a partial state.
func TestConcurrentLoadsDuringRotation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := anticheat.New([]uint64{snapshotVersion})
	require.NoError(t, err, "Failed to create store")

	var stateMu sync.Mutex
	world := worldstate.New()
	keeper, err := anticheat.NewKeeper(store, dir, snapshotVersion, func() (any, error) {
		stateMu.Lock()
		defer stateMu.Unlock()
		return world.Clone(), nil
	})
	require.NoError(t, err, "Failed to create keeper")
	defer keeper.Close()

	// Seed one snapshot so readers always have something to load.
	stateMu.Lock()
	world.SetBlock(worldstate.At("overworld", 0, 0, 0), "stone")
	stateMu.Unlock()
	_, err = keeper.Save()
	require.NoError(t, err, "Failed to seed snapshot")

	const (
		numReaders   = 4
		loadsPerRead = 25
		numRotations = 25
	)

	errC := make(chan error, numReaders*loadsPerRead+numRotations)
	var wg sync.WaitGroup

	for i := 0; i < numReaders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < loadsPerRead; j++ {
				got := worldstate.New()
				if _, _, lerr := keeper.LoadLatest(got); lerr != nil {
					errC <- lerr
					return
				}
				// Every snapshot contains at least the seed block.
				if _, ok := got.Block(worldstate.At("overworld", 0, 0, 0)); !ok {
					errC <- assert.AnError
					return
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := int32(1); j <= numRotations; j++ {
			stateMu.Lock()
			world.SetBlock(worldstate.At("overworld", j, 0, 0), "dirt")
			stateMu.Unlock()
			if _, serr := keeper.Save(); serr != nil {
				errC <- serr
				return
			}
		}
	}()

	wg.Wait()
	close(errC)
	for e := range errC {
		assert.NoError(t, e)
	}
}

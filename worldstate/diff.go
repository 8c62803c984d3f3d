package worldstate

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
)

// BlockChange pairs the previous and current descriptor at one position.
type BlockChange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Diff is the change set between two states. Placed holds blocks present
// now but not before, Removed the reverse with the old descriptor as
// value, Changed positions whose descriptor differs.
type Diff struct {
	Placed  map[BlockKey]string      `json:"placed"`
	Removed map[BlockKey]string      `json:"removed"`
	Changed map[BlockKey]BlockChange `json:"changed"`
	Joined  []uuid.UUID              `json:"joined"`
	Left    []uuid.UUID              `json:"left"`
}

// Empty reports whether the two states were identical.
func (d *Diff) Empty() bool {
	return len(d.Placed) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0 &&
		len(d.Joined) == 0 && len(d.Left) == 0
}

// DiffFrom compares s against an earlier state. The UUID slices come back
// sorted so results are deterministic.
func (s *State) DiffFrom(prev *State) *Diff {
	d := &Diff{
		Placed:  make(map[BlockKey]string),
		Removed: make(map[BlockKey]string),
		Changed: make(map[BlockKey]BlockChange),
	}
	for k, cur := range s.Blocks {
		old, ok := prev.Blocks[k]
		switch {
		case !ok:
			d.Placed[k] = cur
		case old != cur:
			d.Changed[k] = BlockChange{From: old, To: cur}
		}
	}
	for k, old := range prev.Blocks {
		if _, ok := s.Blocks[k]; !ok {
			d.Removed[k] = old
		}
	}
	for id := range s.Players {
		if !prev.HasPlayer(id) {
			d.Joined = append(d.Joined, id)
		}
	}
	for id := range prev.Players {
		if !s.HasPlayer(id) {
			d.Left = append(d.Left, id)
		}
	}
	sortUUIDs(d.Joined)
	sortUUIDs(d.Left)
	return d
}

func sortUUIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}

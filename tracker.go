package chunkdb

import (
	"github.com/hupe1980/chunkdb/internal/mr"
)

type keySlot[C comparable] struct {
	key   C
	valid bool
}

// chunkTracker mirrors the store's chunk positions into a key list so that
// owners of per-chunk derived state can find out which chunk keys left the
// store since the last sync. Key movement caused by swap-removal cancels
// out: a key that reappears at another position is not reported.
type chunkTracker[C, I comparable, E Record[C, I]] struct {
	keys *mr.Vec[keySlot[C]]
}

func newChunkTracker[C, I comparable, E Record[C, I]]() *chunkTracker[C, I, E] {
	return &chunkTracker[C, I, E]{keys: mr.NewVec[keySlot[C]]()}
}

func (t *chunkTracker[C, I, E]) sync(s *Store[C, I, E]) (removed []C) {
	var gone, added map[C]struct{}
	markGone := func(k C) {
		if gone == nil {
			gone = make(map[C]struct{})
		}
		gone[k] = struct{}{}
	}
	op := func(group []*Chunk[C, I, E], old keySlot[C], _ int) (keySlot[C], bool) {
		k := group[0].Key()
		if old.valid && old.key == k {
			return old, false
		}
		if old.valid {
			markGone(old.key)
		}
		if added == nil {
			added = make(map[C]struct{})
		}
		added[k] = struct{}{}
		return keySlot[C]{key: k, valid: true}, true
	}
	drop := func(old keySlot[C], _ int) {
		if old.valid {
			markGone(old.key)
		}
	}
	mr.Reduce(t.keys, s.chunks, 1, op, drop)

	for k := range gone {
		if _, ok := added[k]; !ok {
			removed = append(removed, k)
		}
	}
	return removed
}

func (t *chunkTracker[C, I, E]) mem() int {
	bytes, _, _ := t.keys.Mem()
	return bytes
}

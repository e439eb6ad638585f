package bits

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"sync/atomic"
)

// Bitset is a sparse set of uint64 indexes stored as a sorted slice of
// populated blocks.
//
// Clone is O(1): both bitsets share the block slice until one of them
// mutates, at which point the mutating side copies. The shared flag uses an
// atomic so that clones may be taken concurrently with other readers;
// mutations still require exclusive access.
type Bitset struct {
	blocks []Bitfield
	shared atomic.Bool
}

// NewBitset creates an empty bitset.
func NewBitset() *Bitset { return &Bitset{} }

// BitsetOf creates a bitset holding the given indexes.
func BitsetOf(idxs ...uint64) *Bitset {
	s := NewBitset()
	for _, i := range idxs {
		s.Set(i)
	}
	return s
}

// Clone returns a copy sharing storage with s until either side mutates.
func (s *Bitset) Clone() *Bitset {
	s.shared.Store(true)
	out := &Bitset{blocks: s.blocks}
	out.shared.Store(true)
	return out
}

func (s *Bitset) mut() {
	if s.shared.Load() {
		s.blocks = slices.Clone(s.blocks)
		s.shared.Store(false)
	}
}

func (s *Bitset) find(start uint64) (int, bool) {
	return slices.BinarySearchFunc(s.blocks, start, func(b Bitfield, start uint64) int {
		return cmp.Compare(b.Start(), start)
	})
}

// Set marks index i, inserting its block if needed.
func (s *Bitset) Set(i uint64) {
	s.mut()
	idx, ok := s.find(BlockStart(i))
	if ok {
		s.blocks[idx].Set(i)
		return
	}
	s.blocks = slices.Insert(s.blocks, idx, NewBitfield(i))
}

// Unset clears index i. A block left empty stays in place.
func (s *Bitset) Unset(i uint64) {
	idx, ok := s.find(BlockStart(i))
	if !ok {
		return
	}
	s.mut()
	s.blocks[idx].Unset(i)
}

// Get reports whether index i is set.
func (s *Bitset) Get(i uint64) bool {
	idx, ok := s.find(BlockStart(i))
	return ok && s.blocks[idx].Get(i)
}

// Contains is Get under the name index set consumers expect.
func (s *Bitset) Contains(i uint64) bool { return s.Get(i) }

// Intersect clips the given block to the bitset. A block the bitset does
// not populate produces an empty result at the same start.
func (s *Bitset) Intersect(b Bitfield) Bitfield {
	if idx, ok := s.find(b.Start()); ok {
		return s.blocks[idx].Intersect(b)
	}
	return b.Cleared()
}

// Count returns the number of set indexes.
func (s *Bitset) Count() int {
	n := 0
	for _, b := range s.blocks {
		n += b.Count()
	}
	return n
}

// Size returns the exact element count, satisfying the index set contract
// of an upper bound.
func (s *Bitset) Size() int { return s.Count() }

// NumBlocks returns the number of populated blocks, empty ones included.
func (s *Bitset) NumBlocks() int { return len(s.blocks) }

// Blocks yields the populated blocks in ascending start order.
func (s *Bitset) Blocks() iter.Seq[Bitfield] {
	return func(yield func(Bitfield) bool) {
		for _, b := range s.blocks {
			if !yield(b) {
				return
			}
		}
	}
}

// ReverseBlocks yields the populated blocks in descending start order.
func (s *Bitset) ReverseBlocks() iter.Seq[Bitfield] {
	return func(yield func(Bitfield) bool) {
		for i := len(s.blocks) - 1; i >= 0; i-- {
			if !yield(s.blocks[i]) {
				return
			}
		}
	}
}

// Indexes yields all set indexes in ascending order.
func (s *Bitset) Indexes() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for _, b := range s.blocks {
			for i := range b.Indexes() {
				if !yield(i) {
					return
				}
			}
		}
	}
}

// ReverseIndexes yields all set indexes in descending order.
func (s *Bitset) ReverseIndexes() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for i := len(s.blocks) - 1; i >= 0; i-- {
			for j := range s.blocks[i].ReverseIndexes() {
				if !yield(j) {
					return
				}
			}
		}
	}
}

// Mem reports the approximate retained bytes.
func (s *Bitset) Mem() int {
	return cap(s.blocks) * 16
}

// ShrinkToFit drops empty blocks and slack capacity. It must not be called
// while clones are still in use concurrently.
func (s *Bitset) ShrinkToFit() {
	s.mut()
	blocks := make([]Bitfield, 0, len(s.blocks))
	for _, b := range s.blocks {
		if !b.Empty() {
			blocks = append(blocks, b)
		}
	}
	s.blocks = blocks
}

// Validate panics if the block sequence is out of order, misaligned or
// contains the invalid sentinel. Empty blocks are fine: Unset leaves a
// cleared block in place and only ShrinkToFit drops it.
func (s *Bitset) Validate() {
	var prev *Bitfield
	for i := range s.blocks {
		b := &s.blocks[i]
		if !b.Valid() {
			panic("bits: bitset contains an invalid block")
		}
		if b.Start() != BlockStart(b.Start()) {
			panic(fmt.Sprintf("bits: misaligned block start %d", b.Start()))
		}
		if prev != nil && prev.Start() >= b.Start() {
			panic(fmt.Sprintf("bits: blocks out of order at start %d", b.Start()))
		}
		prev = b
	}
}

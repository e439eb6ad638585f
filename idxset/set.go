package idxset

import (
	"iter"

	"github.com/hupe1980/chunkdb/bits"
)

// Set is a sorted set of uint64 indexes exposed at block granularity.
// *bits.Bitset satisfies it directly.
type Set interface {
	// Blocks yields the set's blocks in ascending start order. Blocks may
	// be empty.
	Blocks() iter.Seq[bits.Bitfield]

	// ReverseBlocks yields the set's blocks in descending start order.
	ReverseBlocks() iter.Seq[bits.Bitfield]

	// Size returns an upper bound on the number of indexes in the set.
	Size() int

	// Contains reports whether i is in the set.
	Contains(i uint64) bool

	// Intersect clips the given block to the set.
	Intersect(b bits.Bitfield) bits.Bitfield
}

// Indexes yields a set's indexes in ascending order.
func Indexes(s Set) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for b := range s.Blocks() {
			for i := range b.Indexes() {
				if !yield(i) {
					return
				}
			}
		}
	}
}

// ReverseIndexes yields a set's indexes in descending order.
func ReverseIndexes(s Set) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for b := range s.ReverseBlocks() {
			for i := range b.ReverseIndexes() {
				if !yield(i) {
					return
				}
			}
		}
	}
}

type nothing struct{}

// Nothing returns the empty set.
func Nothing() Set { return nothing{} }

func (nothing) Blocks() iter.Seq[bits.Bitfield] {
	return func(func(bits.Bitfield) bool) {}
}

func (nothing) ReverseBlocks() iter.Seq[bits.Bitfield] {
	return func(func(bits.Bitfield) bool) {}
}

func (nothing) Size() int                               { return 0 }
func (nothing) Contains(uint64) bool                    { return false }
func (nothing) Intersect(b bits.Bitfield) bits.Bitfield { return b.Cleared() }

type exact uint64

// Exact returns the set holding the single index i.
func Exact(i uint64) Set { return exact(i) }

func (e exact) Blocks() iter.Seq[bits.Bitfield] {
	return func(yield func(bits.Bitfield) bool) {
		yield(bits.NewBitfield(uint64(e)))
	}
}

func (e exact) ReverseBlocks() iter.Seq[bits.Bitfield] { return e.Blocks() }

func (e exact) Size() int              { return 1 }
func (e exact) Contains(i uint64) bool { return uint64(e) == i }

func (e exact) Intersect(b bits.Bitfield) bits.Bitfield {
	return b.Clip(uint64(e), uint64(e)+1)
}

type span struct{ lo, hi uint64 }

// Range returns the set of all indexes in [lo, hi).
func Range(lo, hi uint64) Set {
	if hi <= lo {
		return Nothing()
	}
	return span{lo: lo, hi: hi}
}

// Span returns the set of all indexes in [0, n).
func Span(n uint64) Set { return Range(0, n) }

func (s span) Blocks() iter.Seq[bits.Bitfield] {
	return func(yield func(bits.Bitfield) bool) {
		for lo := s.lo; lo < s.hi; {
			var b bits.Bitfield
			b, lo = bits.RangeBlock(lo, s.hi)
			if !yield(b) {
				return
			}
		}
	}
}

func (s span) ReverseBlocks() iter.Seq[bits.Bitfield] {
	return func(yield func(bits.Bitfield) bool) {
		for hi := s.hi; hi > s.lo; {
			var b bits.Bitfield
			b, hi = bits.RangeBlockRev(s.lo, hi)
			if !yield(b) {
				return
			}
		}
	}
}

func (s span) Size() int { return int(s.hi - s.lo) }

func (s span) Contains(i uint64) bool { return s.lo <= i && i < s.hi }

func (s span) Intersect(b bits.Bitfield) bits.Bitfield {
	return b.Clip(s.lo, s.hi)
}

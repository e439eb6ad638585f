package idxset

import (
	"cmp"
	"iter"
	"slices"

	"github.com/hupe1980/chunkdb/bits"
)

type intersection struct {
	// operands sorted by ascending size; the first one drives iteration.
	sets []Set
}

// Intersect builds the intersection of the given sets.
//
// Nested intersections are flattened. An empty operand collapses the whole
// result to Nothing and a single-index operand collapses it to a membership
// check. The remaining operands are ordered by their size bound so the most
// selective one drives iteration; membership is order-independent.
func Intersect(sets ...Set) Set {
	flat := make([]Set, 0, len(sets))
	for _, s := range sets {
		switch v := s.(type) {
		case nothing:
			return Nothing()
		case intersection:
			flat = append(flat, v.sets...)
		default:
			flat = append(flat, s)
		}
	}
	if len(flat) == 0 {
		return Nothing()
	}

	for _, s := range flat {
		e, ok := s.(exact)
		if !ok {
			continue
		}
		for _, o := range flat {
			if !o.Contains(uint64(e)) {
				return Nothing()
			}
		}
		return e
	}

	slices.SortStableFunc(flat, func(a, b Set) int {
		return cmp.Compare(a.Size(), b.Size())
	})
	if len(flat) == 1 {
		return flat[0]
	}
	return intersection{sets: flat}
}

func (x intersection) clip(b bits.Bitfield) (bits.Bitfield, bool) {
	for _, s := range x.sets[1:] {
		b = s.Intersect(b)
		if b.Empty() {
			return b, false
		}
	}
	return b, !b.Empty()
}

func (x intersection) Blocks() iter.Seq[bits.Bitfield] {
	return func(yield func(bits.Bitfield) bool) {
		for b := range x.sets[0].Blocks() {
			if b, ok := x.clip(b); ok && !yield(b) {
				return
			}
		}
	}
}

func (x intersection) ReverseBlocks() iter.Seq[bits.Bitfield] {
	return func(yield func(bits.Bitfield) bool) {
		for b := range x.sets[0].ReverseBlocks() {
			if b, ok := x.clip(b); ok && !yield(b) {
				return
			}
		}
	}
}

func (x intersection) Size() int { return x.sets[0].Size() }

func (x intersection) Contains(i uint64) bool {
	for _, s := range x.sets {
		if !s.Contains(i) {
			return false
		}
	}
	return true
}

func (x intersection) Intersect(b bits.Bitfield) bits.Bitfield {
	for _, s := range x.sets {
		b = s.Intersect(b)
		if b.Empty() {
			break
		}
	}
	return b
}

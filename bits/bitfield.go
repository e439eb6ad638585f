package bits

import (
	"cmp"
	"fmt"
	"iter"
	mathbits "math/bits"
)

// BlockBits is the number of indexes covered by a single Bitfield.
const BlockBits = 64

const blockMask = BlockBits - 1

// invalidStart marks a Bitfield that covers no block. It sorts after every
// valid start.
const invalidStart = ^uint64(0)

// Bitfield is one aligned block of up to 64 indexes. The zero value is an
// empty block starting at 0.
type Bitfield struct {
	start uint64
	bits  uint64
}

// BlockStart returns the start of the block containing i.
func BlockStart(i uint64) uint64 { return i &^ blockMask }

// NewBitfield returns the block containing i with exactly that index set.
func NewBitfield(i uint64) Bitfield {
	return Bitfield{start: BlockStart(i), bits: 1 << (i & blockMask)}
}

// EmptyBitfield returns the block containing i with no index set.
func EmptyBitfield(i uint64) Bitfield {
	return Bitfield{start: BlockStart(i)}
}

// InvalidBitfield returns the sentinel block that covers nothing and sorts
// after every valid block.
func InvalidBitfield() Bitfield {
	return Bitfield{start: invalidStart}
}

// Valid reports whether the block covers an actual index range.
func (b Bitfield) Valid() bool { return b.start != invalidStart }

// Start returns the first index covered by the block.
func (b Bitfield) Start() uint64 { return b.start }

// Empty reports whether no index is set.
func (b Bitfield) Empty() bool { return b.bits == 0 }

// Count returns the number of set indexes.
func (b Bitfield) Count() int { return mathbits.OnesCount64(b.bits) }

// Compare orders blocks by start. The invalid sentinel compares last.
func (b Bitfield) Compare(o Bitfield) int { return cmp.Compare(b.start, o.start) }

func (b Bitfield) covers(i uint64) {
	if BlockStart(i) != b.start {
		panic(fmt.Sprintf("bits: index %d outside block starting at %d", i, b.start))
	}
}

// Set marks i, which must fall into this block.
func (b *Bitfield) Set(i uint64) {
	b.covers(i)
	b.bits |= 1 << (i & blockMask)
}

// Unset clears i, which must fall into this block.
func (b *Bitfield) Unset(i uint64) {
	b.covers(i)
	b.bits &^= 1 << (i & blockMask)
}

// Get reports whether i is set. i must fall into this block.
func (b Bitfield) Get(i uint64) bool {
	b.covers(i)
	return b.bits&(1<<(i&blockMask)) != 0
}

// Cleared returns the same block with no index set.
func (b Bitfield) Cleared() Bitfield { return Bitfield{start: b.start} }

// Intersect intersects two blocks. Blocks with different starts have an
// empty intersection at b's start.
func (b Bitfield) Intersect(o Bitfield) Bitfield {
	if b.start != o.start {
		return Bitfield{start: b.start}
	}
	return Bitfield{start: b.start, bits: b.bits & o.bits}
}

// Clip masks the block down to the indexes inside [lo, hi).
func (b Bitfield) Clip(lo, hi uint64) Bitfield {
	if !b.Valid() {
		return b
	}
	end := b.start + BlockBits
	if lo >= end || hi <= b.start || hi <= lo {
		return Bitfield{start: b.start}
	}
	out := b
	if lo > b.start {
		out.bits &= ^uint64(0) << (lo - b.start)
	}
	if hi < end {
		out.bits &= ^uint64(0) >> (end - hi)
	}
	return out
}

// RangeBlock cuts the first block out of [lo, hi): the block containing lo
// clipped to the range. It returns the block and the start of the next one.
// A fully covered block takes the full-word fast path. lo must be below hi.
func RangeBlock(lo, hi uint64) (Bitfield, uint64) {
	start := BlockStart(lo)
	end := start + BlockBits
	b := Bitfield{start: start, bits: ^uint64(0)}
	if lo > start {
		b.bits &= ^uint64(0) << (lo - start)
	}
	if hi < end {
		b.bits &= ^uint64(0) >> (end - hi)
	}
	return b, end
}

// RangeBlockRev cuts the last block out of [lo, hi). It returns the block
// and the new exclusive upper bound. lo must be below hi.
func RangeBlockRev(lo, hi uint64) (Bitfield, uint64) {
	start := BlockStart(hi - 1)
	end := start + BlockBits
	b := Bitfield{start: start, bits: ^uint64(0)}
	if lo > start {
		b.bits &= ^uint64(0) << (lo - start)
	}
	if hi < end {
		b.bits &= ^uint64(0) >> (end - hi)
	}
	return b, start
}

// Indexes yields the set indexes in ascending order.
func (b Bitfield) Indexes() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		w := b.bits
		for w != 0 {
			i := uint64(mathbits.TrailingZeros64(w))
			if !yield(b.start + i) {
				return
			}
			w &= w - 1
		}
	}
}

// ReverseIndexes yields the set indexes in descending order.
func (b Bitfield) ReverseIndexes() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		w := b.bits
		for w != 0 {
			i := uint64(blockMask - mathbits.LeadingZeros64(w))
			if !yield(b.start + i) {
				return
			}
			w &^= 1 << i
		}
	}
}

// String renders the block for debugging.
func (b Bitfield) String() string {
	if !b.Valid() {
		return "Bitfield(invalid)"
	}
	return fmt.Sprintf("Bitfield(%d, %064b)", b.start, b.bits)
}

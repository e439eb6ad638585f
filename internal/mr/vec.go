package mr

import (
	"fmt"
	"iter"
	"sync/atomic"
	"unsafe"
)

const (
	// numLevels is the depth of the checkpoint hierarchy. Level l covers
	// buckets of 16^(l+1) elements, so the strides are 16, 256, 4096,
	// 65536 and 1048576.
	numLevels = 4 + 1

	baseShift = 4
)

func levelShift(level int) int { return baseShift * (level + 1) }

// vecIDs hands out process-wide unique vector identities. IDs start at 1 so
// that 0 can mean "not bound to any parent".
var vecIDs atomic.Uint64

// Vec is a vector that remembers where it has been modified.
//
// Every mutation bumps a per-vector change counter and stamps the counter
// into one bucket per checkpoint level. A consumer that remembers the
// counter value of its last visit can later skip any bucket whose stamp is
// not newer, at the coarsest level that allows the skip.
//
// Vec is not safe for concurrent use.
type Vec[T any] struct {
	id          uint64
	parentID    uint64
	parentCount uint64
	data        []T
	count       uint64
	counts      [numLevels][]uint64
}

// NewVec creates an empty change-tracked vector with a fresh identity.
func NewVec[T any]() *Vec[T] {
	v := &Vec[T]{id: vecIDs.Add(1)}
	v.resizeCounts()
	return v
}

// ID returns the vector's process-wide unique identity.
func (v *Vec[T]) ID() uint64 { return v.id }

// ParentID returns the identity of the source vector this vector was last
// reduced from, or 0 if it has never been a reduction target.
func (v *Vec[T]) ParentID() uint64 { return v.parentID }

// ChangeCount returns the number of mutations applied so far.
func (v *Vec[T]) ChangeCount() uint64 { return v.count }

// Len returns the number of elements.
func (v *Vec[T]) Len() int { return len(v.data) }

// At returns the element at i without recording a modification.
func (v *Vec[T]) At(i int) T { return v.data[i] }

// Touch records a modification of the element at i. The change counter
// increases by one and all checkpoint levels covering i are stamped.
func (v *Vec[T]) Touch(i int) {
	if i < 0 || i >= len(v.data) {
		panic(fmt.Sprintf("mr: touch index %d out of range [0, %d)", i, len(v.data)))
	}
	v.count++
	for l := range numLevels {
		v.counts[l][i>>levelShift(l)] = v.count
	}
}

// Push appends an element and records it as modified.
func (v *Vec[T]) Push(val T) {
	v.data = append(v.data, val)
	v.resizeCounts()
	v.Touch(len(v.data) - 1)
}

// Set overwrites the element at i and records the modification.
func (v *Vec[T]) Set(i int, val T) {
	v.data[i] = val
	v.Touch(i)
}

// Ref records a modification of the element at i and returns a pointer to
// it. The pointer is invalidated by the next Push or SwapRemove.
func (v *Vec[T]) Ref(i int) *T {
	v.Touch(i)
	return &v.data[i]
}

// SwapRemove removes the element at i by swapping the last element into its
// place, and returns the removed element. Both affected positions are
// recorded as modified before the vector shrinks.
func (v *Vec[T]) SwapRemove(i int) T {
	last := len(v.data) - 1
	v.Touch(last)
	if i != last {
		v.Touch(i)
	}
	v.data[i], v.data[last] = v.data[last], v.data[i]
	out := v.data[last]
	var zero T
	v.data[last] = zero
	v.data = v.data[:last]
	v.resizeCounts()
	return out
}

// All iterates over index/element pairs in order. Iteration does not record
// modifications.
func (v *Vec[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, e := range v.data {
			if !yield(i, e) {
				return
			}
		}
	}
}

// reset restores the vector to its freshly constructed state under a fresh
// identity. The new identity is what makes resets cascade: any vector
// reduced from this one sees a parent it has never met and resets in turn,
// instead of trusting stale checkpoint stamps against its old parent count.
func (v *Vec[T]) reset() {
	v.id = vecIDs.Add(1)
	clear(v.data)
	v.data = v.data[:0]
	v.count = 0
	v.parentID = 0
	v.parentCount = 0
	for l := range v.counts {
		clear(v.counts[l])
	}
	v.resizeCounts()
}

// resizeCounts keeps every checkpoint level at len/stride+1 buckets.
func (v *Vec[T]) resizeCounts() {
	for l := range numLevels {
		want := len(v.data)>>levelShift(l) + 1
		cur := v.counts[l]
		switch {
		case len(cur) > want:
			clear(cur[want:])
			v.counts[l] = cur[:want]
		case len(cur) < want:
			for len(cur) < want {
				cur = append(cur, 0)
			}
			v.counts[l] = cur
		}
	}
}

// Mem reports the approximate retained bytes together with the element
// length and capacity.
func (v *Vec[T]) Mem() (bytes, length, capacity int) {
	var zero T
	bytes = cap(v.data) * int(unsafe.Sizeof(zero))
	for l := range v.counts {
		bytes += cap(v.counts[l]) * 8
	}
	return bytes, len(v.data), cap(v.data)
}

// ShrinkToFit reallocates the backing storage when more than a quarter of
// the capacity is slack.
func (v *Vec[T]) ShrinkToFit() {
	if cap(v.data) <= len(v.data)+len(v.data)/4 {
		return
	}
	data := make([]T, len(v.data))
	copy(data, v.data)
	v.data = data
	for l := range v.counts {
		if cap(v.counts[l]) > len(v.counts[l]) {
			counts := make([]uint64, len(v.counts[l]))
			copy(counts, v.counts[l])
			v.counts[l] = counts
		}
	}
}

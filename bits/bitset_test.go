package bits

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitset_SparseRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	s := NewBitset()
	oracle := make(map[uint64]struct{})

	const span = uint64(800_000_000)
	for range 5000 {
		i := rng.Uint64() % span
		switch rng.Intn(3) {
		case 0, 1:
			s.Set(i)
			oracle[i] = struct{}{}
		case 2:
			s.Unset(i)
			delete(oracle, i)
		}
	}
	// Revisit known indexes so unset actually exercises populated blocks.
	for i := range oracle {
		if rng.Intn(4) == 0 {
			s.Unset(i)
			delete(oracle, i)
		}
		if len(oracle) < 100 {
			break
		}
	}

	s.Validate()
	require.Equal(t, len(oracle), s.Count())
	for i := range oracle {
		assert.True(t, s.Get(i), "index %d must be set", i)
	}

	got := slices.Collect(s.Indexes())
	want := make([]uint64, 0, len(oracle))
	for i := range oracle {
		want = append(want, i)
	}
	slices.Sort(want)
	assert.Equal(t, want, got)

	rev := slices.Collect(s.ReverseIndexes())
	slices.Reverse(rev)
	assert.Equal(t, want, rev)

	// Storage stays proportional to touched blocks, not the index span.
	assert.LessOrEqual(t, s.NumBlocks(), 5000)
}

func TestBitset_CloneIsolation(t *testing.T) {
	a := BitsetOf(1, 100, 1000)
	b := a.Clone()

	b.Set(5000)
	assert.True(t, b.Get(5000))
	assert.False(t, a.Get(5000), "mutating a clone must not leak into the original")

	a.Unset(100)
	assert.False(t, a.Get(100))
	assert.True(t, b.Get(100), "mutating the original must not leak into a clone")

	assert.Equal(t, 2, a.Count())
	assert.Equal(t, 4, b.Count())
}

func TestBitset_CloneOfClone(t *testing.T) {
	a := BitsetOf(10)
	b := a.Clone()
	c := b.Clone()
	c.Set(20)
	b.Set(30)
	assert.Equal(t, []uint64{10}, slices.Collect(a.Indexes()))
	assert.Equal(t, []uint64{10, 30}, slices.Collect(b.Indexes()))
	assert.Equal(t, []uint64{10, 20}, slices.Collect(c.Indexes()))
}

func TestBitset_Intersect(t *testing.T) {
	s := BitsetOf(65, 70, 300)

	b := EmptyBitfield(64)
	b.Set(70)
	b.Set(71)
	got := s.Intersect(b)
	assert.Equal(t, []uint64{70}, slices.Collect(got.Indexes()))

	// A block the set does not populate comes back empty at the same start.
	got = s.Intersect(NewBitfield(1024))
	assert.Equal(t, uint64(1024), got.Start())
	assert.True(t, got.Empty())
}

func TestBitset_UnsetMissingIsNoop(t *testing.T) {
	s := BitsetOf(1)
	s.Unset(99999)
	assert.Equal(t, 1, s.Count())
}

func TestBitset_ShrinkToFitDropsEmptyBlocks(t *testing.T) {
	s := BitsetOf(0, 64, 128)
	s.Unset(64)
	assert.Equal(t, 3, s.NumBlocks())
	s.ShrinkToFit()
	assert.Equal(t, 2, s.NumBlocks())
	assert.Equal(t, []uint64{0, 128}, slices.Collect(s.Indexes()))
}

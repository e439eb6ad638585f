package idxset

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/chunkdb/bits"
)

// FromBitmap converts a roaring bitmap into a block bitset so externally
// produced index sets can participate in queries.
func FromBitmap(bm *roaring64.Bitmap) *bits.Bitset {
	out := bits.NewBitset()
	it := bm.Iterator()
	for it.HasNext() {
		out.Set(it.Next())
	}
	return out
}

// ToBitmap converts a Set into a roaring bitmap, e.g. to hand query results
// to code built around roaring.
func ToBitmap(s Set) *roaring64.Bitmap {
	out := roaring64.New()
	for i := range Indexes(s) {
		out.Add(i)
	}
	return out
}

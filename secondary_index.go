package chunkdb

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/chunkdb/bits"
	"github.com/hupe1980/chunkdb/idxset"
	"github.com/hupe1980/chunkdb/internal/mr"
)

// reverseIndex maps an index key to the positions of the records carrying
// it within one chunk.
type reverseIndex[K comparable] map[K]*bits.Bitset

// SecondaryIndex maintains, per chunk, a reverse map from index keys to
// record positions. It is lazy: nothing updates on writes, and an
// index-backed query refreshes only the chunks it is about to visit.
//
// Index keys are derived from each record by the keysOf function given at
// construction. A record may carry any number of keys, including none.
type SecondaryIndex[C, I comparable, E Record[C, I], K comparable] struct {
	mu       sync.RWMutex
	parentID uint64
	keysOf   func(E) []K
	tracker  *chunkTracker[C, I, E]
	byChunk  map[C]*mr.Summarizer[E, []K, reverseIndex[K]]
	logger   *Logger
	metrics  MetricsCollector
}

// NewSecondaryIndex creates a secondary index over the given store.
func NewSecondaryIndex[C, I comparable, E Record[C, I], K comparable](
	s *Store[C, I, E], keysOf func(E) []K,
) *SecondaryIndex[C, I, E, K] {
	return &SecondaryIndex[C, I, E, K]{
		parentID: s.ID(),
		keysOf:   keysOf,
		tracker:  newChunkTracker[C, I, E](),
		byChunk:  make(map[C]*mr.Summarizer[E, []K, reverseIndex[K]]),
		logger:   s.logger,
		metrics:  s.metrics,
	}
}

func (x *SecondaryIndex[C, I, E, K]) check(s *Store[C, I, E]) {
	if s.ID() != x.parentID {
		panic(fmt.Sprintf("chunkdb: secondary index built for store %d used with store %d", x.parentID, s.ID()))
	}
}

// gc drops per-chunk state whose chunk left the store. Caller holds the
// write lock.
func (x *SecondaryIndex[C, I, E, K]) gc(s *Store[C, I, E]) {
	start := time.Now()
	removed := x.tracker.sync(s)
	for _, k := range removed {
		delete(x.byChunk, k)
	}
	if len(removed) > 0 {
		x.logger.LogGC(len(removed))
		x.metrics.RecordGC(len(removed), time.Since(start))
	}
}

func (x *SecondaryIndex[C, I, E, K]) rules() mr.SummaryRules[E, []K, reverseIndex[K]] {
	return mr.SummaryRules[E, []K, reverseIndex[K]]{
		Map: func(e E, old []K, _ int) ([]K, bool) {
			keys := x.keysOf(e)
			if slices.Equal(keys, old) {
				return old, false
			}
			return keys, true
		},
		Contribute: func(keys []K, idx int, ri *reverseIndex[K]) {
			for _, k := range keys {
				set, ok := (*ri)[k]
				if !ok {
					set = bits.NewBitset()
					(*ri)[k] = set
				}
				set.Set(uint64(idx))
			}
		},
		Uncontribute: func(keys []K, idx int, ri *reverseIndex[K]) {
			for _, k := range keys {
				set, ok := (*ri)[k]
				if !ok {
					continue
				}
				set.Unset(uint64(idx))
				if set.Count() == 0 {
					delete(*ri, k)
				}
			}
		},
		IsZero: func(keys []K) bool { return len(keys) == 0 },
		NewSum: func() reverseIndex[K] { return make(reverseIndex[K]) },
	}
}

// updateChunk brings one chunk's reverse map up to date. Caller holds the
// write lock.
func (x *SecondaryIndex[C, I, E, K]) updateChunk(s *Store[C, I, E], chunkIdx int) {
	c := s.chunks.At(chunkIdx)
	sum, ok := x.byChunk[c.Key()]
	if !ok {
		sum = mr.NewSummarizer(x.rules())
		x.byChunk[c.Key()] = sum
	}
	if _, rebound := sum.Update(c.items); rebound {
		x.logger.WithChunk(c.Key()).Warn("reverse index rebound and rebuilt from scratch")
	}
}

// Matching returns the query selecting every record carrying the given
// index key.
func (x *SecondaryIndex[C, I, E, K]) Matching(key K) Query[C, I, E] {
	return matchQuery[C, I, E, K]{idx: x, key: key}
}

// MatchingIn is Matching narrowed to the records another query selects.
// Only chunks that query visits get their index state refreshed.
func (x *SecondaryIndex[C, I, E, K]) MatchingIn(key K, parent Query[C, I, E]) Query[C, I, E] {
	return matchQuery[C, I, E, K]{idx: x, key: key, parent: parent}
}

// Validate panics if the index disagrees with a from-scratch rebuild of the
// chunks it covers. Opt-in O(n) check.
func (x *SecondaryIndex[C, I, E, K]) Validate(s *Store[C, I, E]) {
	x.check(s)
	x.mu.Lock()
	defer x.mu.Unlock()
	x.gc(s)
	for ci := range s.chunks.Len() {
		x.updateChunk(s, ci)
		c := s.chunks.At(ci)
		want := make(map[K]map[uint64]struct{})
		for i := range c.Len() {
			for _, k := range x.keysOf(c.At(i)) {
				if want[k] == nil {
					want[k] = make(map[uint64]struct{})
				}
				want[k][uint64(i)] = struct{}{}
			}
		}
		ri := x.byChunk[c.Key()].Sum()
		for k, set := range ri {
			if len(want[k]) != set.Count() {
				panic(fmt.Sprintf("chunkdb: secondary index for chunk %v key %v holds %d positions, expected %d",
					c.Key(), k, set.Count(), len(want[k])))
			}
			for i := range set.Indexes() {
				if _, ok := want[k][i]; !ok {
					panic(fmt.Sprintf("chunkdb: secondary index for chunk %v key %v holds stray position %d", c.Key(), k, i))
				}
			}
		}
		for k := range want {
			if _, ok := ri[k]; !ok {
				panic(fmt.Sprintf("chunkdb: secondary index for chunk %v misses key %v", c.Key(), k))
			}
		}
	}
}

// MemoryUsage reports the approximate memory retained by the index.
func (x *SecondaryIndex[C, I, E, K]) MemoryUsage() MemoryUsage {
	x.mu.RLock()
	defer x.mu.RUnlock()
	u := MemoryUsage{Bytes: x.tracker.mem()}
	for _, sum := range x.byChunk {
		u.Bytes += sum.Mem()
		for _, set := range sum.Sum() {
			u.Bytes += set.Mem()
		}
	}
	return u
}

// Shrink reclaims slack capacity. It requires the same exclusive access as
// a mutation.
func (x *SecondaryIndex[C, I, E, K]) Shrink() {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, sum := range x.byChunk {
		sum.ShrinkToFit()
		for _, set := range sum.Sum() {
			set.ShrinkToFit()
		}
	}
}

type matchQuery[C, I comparable, E Record[C, I], K comparable] struct {
	idx    *SecondaryIndex[C, I, E, K]
	key    K
	parent Query[C, I, E] // nil means everything
}

func (q matchQuery[C, I, E, K]) parentQuery(s *Store[C, I, E]) Query[C, I, E] {
	if q.parent != nil {
		return q.parent
	}
	return s.Everything()
}

func (q matchQuery[C, I, E, K]) ChunkIdxs(s *Store[C, I, E]) idxset.Set {
	q.idx.check(s)
	chunks := q.parentQuery(s).ChunkIdxs(s)
	q.idx.mu.Lock()
	defer q.idx.mu.Unlock()
	q.idx.gc(s)
	for ci := range idxset.Indexes(chunks) {
		q.idx.updateChunk(s, int(ci))
	}
	return chunks
}

func (q matchQuery[C, I, E, K]) ItemIdxs(s *Store[C, I, E], chunkIdx int) idxset.Set {
	q.idx.check(s)
	parentSet := q.parentQuery(s).ItemIdxs(s, chunkIdx)
	q.idx.mu.RLock()
	defer q.idx.mu.RUnlock()
	sum, ok := q.idx.byChunk[s.chunks.At(chunkIdx).Key()]
	if !ok {
		return idxset.Nothing()
	}
	set, ok := sum.Sum()[q.key]
	if !ok {
		return idxset.Nothing()
	}
	return idxset.Intersect(parentSet, set.Clone())
}

func (q matchQuery[C, I, E, K]) Matches(e E) bool {
	if q.parent != nil {
		return q.parent.Matches(e)
	}
	return true
}

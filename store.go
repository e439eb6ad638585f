package chunkdb

import (
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/hupe1980/chunkdb/idxset"
	"github.com/hupe1980/chunkdb/internal/mr"
)

// Store holds records grouped into chunks by their chunk key.
//
// Every mutation is tracked, which is what keeps secondary indexes and
// reductions incremental: they only revisit chunks that changed since their
// last update.
//
// A Store is single-writer. See the package documentation for the full
// concurrency contract.
type Store[C, I comparable, E Record[C, I]] struct {
	chunks  *mr.Vec[*Chunk[C, I, E]]
	index   map[C]int
	dirty   []int
	logger  *Logger
	metrics MetricsCollector
}

// NewStore creates an empty store.
func NewStore[C, I comparable, E Record[C, I]](optFns ...Option) *Store[C, I, E] {
	o := applyOptions(optFns)
	s := &Store[C, I, E]{
		chunks:  mr.NewVec[*Chunk[C, I, E]](),
		index:   make(map[C]int),
		metrics: o.metricsCollector,
	}
	s.logger = o.logger.WithStore(s.chunks.ID())
	return s
}

// ID returns the store's identity. Derived state remembers the identity of
// the store it was built for and refuses to work with any other.
func (s *Store[C, I, E]) ID() uint64 { return s.chunks.ID() }

// chunkFor returns the position and chunk for key, creating the chunk when
// absent. Existing chunks are recorded as modified since callers are about
// to mutate them.
func (s *Store[C, I, E]) chunkFor(key C) (int, *Chunk[C, I, E]) {
	idx, ok := s.index[key]
	if !ok {
		idx = s.chunks.Len()
		s.chunks.Push(newChunk[C, I, E](key))
		s.index[key] = idx
	} else {
		s.chunks.Touch(idx)
	}
	return idx, s.chunks.At(idx)
}

// Add inserts a record into the chunk its chunk key selects. Adding a
// record whose item key already exists in that chunk panics; use Entry or
// Modify for upsert-style access.
func (s *Store[C, I, E]) Add(e E) {
	start := time.Now()
	_, c := s.chunkFor(e.ChunkKey())
	c.add(e)
	s.metrics.RecordAdd(time.Since(start))
}

// Get returns the record stored under the given keys. Lookups do not count
// as modifications.
func (s *Store[C, I, E]) Get(ck C, ik I) (E, bool) {
	if idx, ok := s.index[ck]; ok {
		return s.chunks.At(idx).Get(ik)
	}
	var zero E
	return zero, false
}

// Modify applies fn to the record stored under the given keys and reports
// whether it existed. fn must not change the record's keys.
func (s *Store[C, I, E]) Modify(ck C, ik I, fn func(*E)) bool {
	idx, ok := s.index[ck]
	if !ok {
		return false
	}
	c := s.chunks.At(idx)
	p, ok := c.ref(ik)
	if !ok {
		return false
	}
	s.chunks.Touch(idx)
	fn(p)
	return true
}

// Remove deletes every record the query selects and returns how many were
// removed. Chunks left empty are compacted away.
func (s *Store[C, I, E]) Remove(q Query[C, I, E]) int {
	start := time.Now()
	s.Clean()
	removed := 0
	for ci := range idxset.Indexes(q.ChunkIdxs(s)) {
		idx := int(ci)
		c := s.chunks.At(idx)
		touched := false
		// Walk item positions backwards so pending positions survive
		// swap-removal.
		for ii := range idxset.ReverseIndexes(q.ItemIdxs(s, idx)) {
			i := int(ii)
			if !q.Matches(c.At(i)) {
				continue
			}
			if !touched {
				s.chunks.Touch(idx)
				s.dirty = append(s.dirty, idx)
				touched = true
			}
			c.removeAt(i)
			removed++
		}
	}
	s.Clean()
	if removed > 0 {
		s.logger.LogRemove(removed)
	}
	s.metrics.RecordRemove(removed, time.Since(start))
	return removed
}

// RemoveChunk deletes a whole chunk and reports whether it existed.
func (s *Store[C, I, E]) RemoveChunk(ck C) bool {
	idx, ok := s.index[ck]
	if !ok {
		return false
	}
	s.metrics.RecordRemove(s.chunks.At(idx).Len(), 0)
	s.removeChunkAt(idx)
	return true
}

func (s *Store[C, I, E]) removeChunkAt(idx int) {
	last := s.chunks.Len() - 1
	c := s.chunks.SwapRemove(idx)
	delete(s.index, c.Key())
	if idx < s.chunks.Len() {
		s.index[s.chunks.At(idx).Key()] = idx
	}
	// Dirty positions follow the swap.
	out := s.dirty[:0]
	for _, d := range s.dirty {
		switch d {
		case idx:
		case last:
			out = append(out, idx)
		default:
			out = append(out, d)
		}
	}
	s.dirty = out
}

// Clean compacts away chunks that removals have left empty. It runs
// automatically around queries and removal passes.
func (s *Store[C, I, E]) Clean() {
	if len(s.dirty) == 0 {
		return
	}
	dirty := s.dirty
	s.dirty = nil
	slices.SortFunc(dirty, func(a, b int) int { return b - a })
	removed := 0
	seen := -1
	for _, idx := range dirty {
		if idx == seen || idx >= s.chunks.Len() {
			continue
		}
		seen = idx
		if s.chunks.At(idx).Len() != 0 {
			continue
		}
		s.removeChunkAt(idx)
		removed++
	}
	if removed > 0 {
		s.logger.LogClean(removed)
	}
}

// NumChunks returns the number of chunks.
func (s *Store[C, I, E]) NumChunks() int { return s.chunks.Len() }

// Len returns the total number of records.
func (s *Store[C, I, E]) Len() int {
	n := 0
	for _, c := range s.chunks.All() {
		n += c.Len()
	}
	return n
}

// Chunk returns a read-only view of the chunk stored under ck. The view
// stays live: later store mutations show through it.
func (s *Store[C, I, E]) Chunk(ck C) (*Chunk[C, I, E], bool) {
	if idx, ok := s.index[ck]; ok {
		return s.chunks.At(idx), true
	}
	return nil, false
}

// ChunkKeys iterates over all chunk keys in chunk position order.
func (s *Store[C, I, E]) ChunkKeys() iter.Seq[C] {
	return func(yield func(C) bool) {
		for _, c := range s.chunks.All() {
			if !yield(c.Key()) {
				return
			}
		}
	}
}

// Scan iterates over the records the query selects, chunk by chunk.
func (s *Store[C, I, E]) Scan(q Query[C, I, E]) iter.Seq[E] {
	return func(yield func(E) bool) {
		start := time.Now()
		matched := 0
		defer func() {
			s.metrics.RecordScan(matched, time.Since(start))
		}()
		s.Clean()
		for ci := range idxset.Indexes(q.ChunkIdxs(s)) {
			c := s.chunks.At(int(ci))
			for ii := range idxset.Indexes(q.ItemIdxs(s, int(ci))) {
				e := c.At(int(ii))
				if !q.Matches(e) {
					continue
				}
				matched++
				if !yield(e) {
					return
				}
			}
		}
	}
}

// Count returns the number of records the query selects.
func (s *Store[C, I, E]) Count(q Query[C, I, E]) int {
	n := 0
	for range s.Scan(q) {
		n++
	}
	return n
}

// Dissolve empties the store and returns all records it held. The store
// gets a fresh identity; derived state bound to it has to be rebuilt.
func (s *Store[C, I, E]) Dissolve() []E {
	out := make([]E, 0, s.Len())
	for _, c := range s.chunks.All() {
		out = slices.AppendSeq(out, c.All())
	}
	s.chunks = mr.NewVec[*Chunk[C, I, E]]()
	s.index = make(map[C]int)
	s.dirty = nil
	s.logger = s.logger.WithStore(s.chunks.ID())
	return out
}

// Validate panics on the first internal inconsistency it finds. It is an
// opt-in O(n) check for tests and debugging.
func (s *Store[C, I, E]) Validate() {
	if len(s.index) != s.chunks.Len() {
		panic(fmt.Sprintf("chunkdb: %d indexed chunk keys for %d chunks", len(s.index), s.chunks.Len()))
	}
	for ck, idx := range s.index {
		if idx < 0 || idx >= s.chunks.Len() {
			panic(fmt.Sprintf("chunkdb: chunk key %v points at %d, out of range", ck, idx))
		}
		if got := s.chunks.At(idx).Key(); got != ck {
			panic(fmt.Sprintf("chunkdb: chunk key %v points at chunk keyed %v", ck, got))
		}
	}
	for _, c := range s.chunks.All() {
		c.validate()
	}
	for _, d := range s.dirty {
		if d < 0 || d >= s.chunks.Len() {
			panic(fmt.Sprintf("chunkdb: dirty position %d out of range", d))
		}
	}
}

// MemoryUsage reports the approximate memory retained by the store.
func (s *Store[C, I, E]) MemoryUsage() MemoryUsage {
	bytes, _, capacity := s.chunks.Mem()
	u := MemoryUsage{Bytes: bytes, Cap: capacity}
	for _, c := range s.chunks.All() {
		cu := c.memoryUsage()
		u.Bytes += cu.Bytes
		u.Len += cu.Len
		u.Cap += cu.Cap
	}
	return u
}

// Shrink reclaims slack capacity throughout the store.
func (s *Store[C, I, E]) Shrink() {
	s.chunks.ShrinkToFit()
	for _, c := range s.chunks.All() {
		c.items.ShrinkToFit()
	}
}

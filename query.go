package chunkdb

import (
	"github.com/hupe1980/chunkdb/bits"
	"github.com/hupe1980/chunkdb/idxset"
)

// Query selects chunks and records within them at block granularity.
// Queries compose: Filter wraps any query with a predicate and a secondary
// index intersects its matches with the query it refines.
type Query[C, I comparable, E Record[C, I]] interface {
	// ChunkIdxs returns the set of chunk positions the query may match.
	// Index-backed queries bring their derived state up to date here.
	ChunkIdxs(s *Store[C, I, E]) idxset.Set

	// ItemIdxs returns the set of record positions within the chunk at
	// chunkIdx that the query may match.
	ItemIdxs(s *Store[C, I, E], chunkIdx int) idxset.Set

	// Matches reports whether the record passes the query's predicates.
	// Position sets are allowed to overapproximate; Matches is the final
	// word.
	Matches(e E) bool
}

type everything[C, I comparable, E Record[C, I]] struct{}

// Everything returns the query selecting every record.
func (s *Store[C, I, E]) Everything() Query[C, I, E] {
	return everything[C, I, E]{}
}

func (everything[C, I, E]) ChunkIdxs(s *Store[C, I, E]) idxset.Set {
	return idxset.Span(uint64(s.chunks.Len()))
}

func (everything[C, I, E]) ItemIdxs(s *Store[C, I, E], chunkIdx int) idxset.Set {
	return idxset.Span(uint64(s.chunks.At(chunkIdx).Len()))
}

func (everything[C, I, E]) Matches(E) bool { return true }

type inChunks[C, I comparable, E Record[C, I]] struct {
	keys []C
}

// InChunks returns the query selecting every record in the named chunks.
// Unknown chunk keys select nothing.
func (s *Store[C, I, E]) InChunks(keys ...C) Query[C, I, E] {
	return inChunks[C, I, E]{keys: keys}
}

func (q inChunks[C, I, E]) ChunkIdxs(s *Store[C, I, E]) idxset.Set {
	set := bits.NewBitset()
	found := 0
	for _, k := range q.keys {
		if idx, ok := s.index[k]; ok {
			set.Set(uint64(idx))
			found++
		}
	}
	if found == 0 {
		return idxset.Nothing()
	}
	return set
}

func (q inChunks[C, I, E]) ItemIdxs(s *Store[C, I, E], chunkIdx int) idxset.Set {
	return idxset.Span(uint64(s.chunks.At(chunkIdx).Len()))
}

func (inChunks[C, I, E]) Matches(E) bool { return true }

type filtered[C, I comparable, E Record[C, I]] struct {
	inner Query[C, I, E]
	pred  func(E) bool
}

// Filter narrows a query with a predicate evaluated per record.
func Filter[C, I comparable, E Record[C, I]](q Query[C, I, E], pred func(E) bool) Query[C, I, E] {
	return filtered[C, I, E]{inner: q, pred: pred}
}

func (q filtered[C, I, E]) ChunkIdxs(s *Store[C, I, E]) idxset.Set {
	return q.inner.ChunkIdxs(s)
}

func (q filtered[C, I, E]) ItemIdxs(s *Store[C, I, E], chunkIdx int) idxset.Set {
	return q.inner.ItemIdxs(s, chunkIdx)
}

func (q filtered[C, I, E]) Matches(e E) bool {
	return q.inner.Matches(e) && q.pred(e)
}

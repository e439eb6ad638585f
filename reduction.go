package chunkdb

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/hupe1980/chunkdb/internal/mr"
)

// ReduceRules describes a reduction over stored records. Map derives a
// record's summary value; Fold combines a group of summary values into one.
// Both receive the old value and report whether it changed, which is what
// stops recomputation from cascading further than it must.
//
// Fold is applied layer by layer until a single value remains, so it has to
// be associative over regrouping (sums, minima, counts, merged sketches).
type ReduceRules[E, S any] struct {
	Map  func(elem E, old S, idx int) (S, bool)
	Fold func(group []S, old S, idx int) (S, bool)
}

// chunkSummary carries a chunk's reduced value together with the key that
// produced it, so a chunk moving to another position is noticed. valid
// distinguishes a computed summary from a fresh zero slot; the key alone
// cannot, since a chunk key may itself be the zero value.
type chunkSummary[C comparable, S any] struct {
	key   C
	val   S
	valid bool
}

// Reduction maintains a store-wide reduced value. Each chunk owns a layered
// reducer over its records; chunk results feed a final reducer. Both levels
// are incremental, so after an edit the recomputation follows one
// logarithmic path instead of rebuilding.
//
// Like a secondary index, a reduction is lazy: nothing recomputes until
// Reduce or ReduceChunk is called.
type Reduction[C, I comparable, E Record[C, I], S any] struct {
	mu        sync.Mutex
	parentID  uint64
	rules     ReduceRules[E, S]
	groupSize int
	tracker   *chunkTracker[C, I, E]
	byChunk   map[C]*mr.Reducer[E, S]
	summaries *mr.Vec[chunkSummary[C, S]]
	final     *mr.Reducer[chunkSummary[C, S], S]
	logger    *Logger
	metrics   MetricsCollector
}

// NewReduction creates a reduction over the given store. groupSize controls
// the fan-in of every fold layer and must be at least 2.
func NewReduction[C, I comparable, E Record[C, I], S any](
	s *Store[C, I, E], groupSize int, rules ReduceRules[E, S],
) *Reduction[C, I, E, S] {
	if groupSize < 2 {
		panic("chunkdb: reduction group size must be at least 2")
	}
	if rules.Map == nil || rules.Fold == nil {
		panic("chunkdb: reduction needs both a map and a fold rule")
	}
	r := &Reduction[C, I, E, S]{
		parentID:  s.ID(),
		rules:     rules,
		groupSize: groupSize,
		tracker:   newChunkTracker[C, I, E](),
		byChunk:   make(map[C]*mr.Reducer[E, S]),
		summaries: mr.NewVec[chunkSummary[C, S]](),
		logger:    s.logger,
		metrics:   s.metrics,
	}
	r.final = mr.NewReducer(groupSize, mr.ReduceRules[chunkSummary[C, S], S]{
		// Chunk summaries only reach this layer when they changed, so
		// write-through is unconditional.
		Map: func(cs chunkSummary[C, S], _ S, _ int) (S, bool) {
			return cs.val, true
		},
		Fold: func(group []S, old S, idx int) (S, bool) {
			return rules.Fold(group, old, idx)
		},
	})
	return r
}

func (r *Reduction[C, I, E, S]) check(s *Store[C, I, E]) {
	if s.ID() != r.parentID {
		panic(fmt.Sprintf("chunkdb: reduction built for store %d used with store %d", r.parentID, s.ID()))
	}
}

func (r *Reduction[C, I, E, S]) chunkReducer(key C) *mr.Reducer[E, S] {
	red, ok := r.byChunk[key]
	if !ok {
		red = mr.NewReducer(r.groupSize, mr.ReduceRules[E, S](r.rules))
		r.byChunk[key] = red
	}
	return red
}

// Reduce brings the reduction up to date and returns the store-wide value.
// ok is false while the store is empty.
func (r *Reduction[C, I, E, S]) Reduce(s *Store[C, I, E]) (S, bool) {
	r.check(s)
	start := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	s.Clean()
	gcStart := time.Now()
	removed := r.tracker.sync(s)
	for _, k := range removed {
		delete(r.byChunk, k)
	}
	if len(removed) > 0 {
		r.logger.LogGC(len(removed))
		r.metrics.RecordGC(len(removed), time.Since(gcStart))
	}

	recomputed := 0
	rebound := false
	op := func(group []*Chunk[C, I, E], old chunkSummary[C, S], _ int) (chunkSummary[C, S], bool) {
		c := group[0]
		red := r.chunkReducer(c.Key())
		n, rb := red.Update(c.items)
		recomputed += n
		rebound = rebound || rb
		if n == 0 && old.valid && old.key == c.Key() {
			return old, false
		}
		val, ok := red.Peek()
		if !ok {
			// Clean ran, so only a freshly created empty chunk can get
			// here; it contributes its zero value until it fills.
			var zero S
			val = zero
		}
		return chunkSummary[C, S]{key: c.Key(), val: val, valid: true}, true
	}
	n, rb := mr.Reduce(r.summaries, s.chunks, 1, op, nil)
	recomputed += n
	rebound = rebound || rb

	nf, rbf := r.final.Update(r.summaries)
	recomputed += nf
	rebound = rebound || rbf

	r.logger.LogReduce(recomputed, rebound)
	r.metrics.RecordReduce(recomputed, time.Since(start))
	return r.final.Peek()
}

// ReduceChunk brings a single chunk's reduction up to date and returns its
// value, without touching the rest of the store. ok is false when the chunk
// does not exist or is empty.
func (r *Reduction[C, I, E, S]) ReduceChunk(s *Store[C, I, E], ck C) (S, bool) {
	r.check(s)
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := s.index[ck]
	if !ok {
		var zero S
		return zero, false
	}
	red := r.chunkReducer(ck)
	n, _ := red.Update(s.chunks.At(idx).items)
	if n > 0 {
		r.metrics.RecordReduce(n, 0)
	}
	return red.Peek()
}

// Validate panics if the incrementally maintained value disagrees with a
// from-scratch recomputation. Opt-in O(n) check for tests and debugging.
func (r *Reduction[C, I, E, S]) Validate(s *Store[C, I, E]) {
	got, ok := r.Reduce(s)
	fresh := NewReduction(s, r.groupSize, r.rules)
	want, wantOK := fresh.Reduce(s)
	if ok != wantOK || !reflect.DeepEqual(got, want) {
		panic(fmt.Sprintf("chunkdb: reduction value %v (ok=%v) diverged from recomputation %v (ok=%v)",
			got, ok, want, wantOK))
	}
}

// MemoryUsage reports the approximate memory retained by the reduction.
func (r *Reduction[C, I, E, S]) MemoryUsage() MemoryUsage {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := MemoryUsage{Bytes: r.tracker.mem() + r.final.Mem()}
	sb, _, _ := r.summaries.Mem()
	u.Bytes += sb
	for _, red := range r.byChunk {
		u.Bytes += red.Mem()
	}
	return u
}

// Shrink reclaims slack capacity.
func (r *Reduction[C, I, E, S]) Shrink() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries.ShrinkToFit()
	r.final.ShrinkToFit()
	for _, red := range r.byChunk {
		red.ShrinkToFit()
	}
}

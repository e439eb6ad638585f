// Package chunkdb is an embedded, in-process store for records grouped into
// chunks, with lazily maintained secondary indexes and incrementally
// recomputed reductions.
//
// Records implement the Record contract: a chunk key that groups them
// physically and an item key that is unique within the chunk. The store
// tracks where it has been modified, so derived state (indexes, reductions)
// is brought up to date on demand and only the changed parts recompute.
//
// # Quick Start
//
//	store := chunkdb.NewStore[string, int, Reading]()
//	store.Add(Reading{Sensor: "s1", Seq: 1, Value: 7})
//
//	byValue := chunkdb.NewSecondaryIndex(store, func(r Reading) []int {
//	    return []int{r.Value}
//	})
//	for r := range store.Scan(byValue.Matching(7)) {
//	    fmt.Println(r)
//	}
//
// Queries compose: secondary index matches intersect with chunk selections
// and predicates, and everything is answered at bit-block granularity.
//
// # Reductions
//
//	total := chunkdb.NewReduction(store, 16, chunkdb.ReduceRules[Reading, int]{
//	    Map:  func(r Reading, old int, _ int) (int, bool) { return r.Value, r.Value != old },
//	    Fold: func(group []int, old int, _ int) (int, bool) { ... },
//	})
//	sum, ok := total.Reduce(store)
//
// After an edit, Reduce recomputes along a logarithmic path instead of
// rebuilding, so store-wide aggregates stay cheap under churn.
//
// # Concurrency
//
// The store is single-writer. Queries against up-to-date derived state may
// run concurrently; any mutation, including the lazy maintenance performed
// by index-backed queries and reductions, requires exclusive access.
//
// # Failure Model
//
// Absent keys and empty queries are reported through ok-booleans and empty
// iterators. Contract violations (duplicate item keys, using derived state
// with a different store, touching out of range) panic.
package chunkdb

package chunkdb

// Entry is a view of a single record slot, present or not. It bundles the
// occupied/vacant case analysis of upsert-style access:
//
//	store.Entry("s1", 7).
//	    AndModify(func(r *Reading) { r.Value++ }).
//	    OrInsert(func() Reading { return Reading{Sensor: "s1", Seq: 7, Value: 1} })
type Entry[C, I comparable, E Record[C, I]] struct {
	s  *Store[C, I, E]
	ck C
	ik I
}

// Entry returns the entry for the given keys.
func (s *Store[C, I, E]) Entry(ck C, ik I) Entry[C, I, E] {
	return Entry[C, I, E]{s: s, ck: ck, ik: ik}
}

// Exists reports whether the slot holds a record.
func (e Entry[C, I, E]) Exists() bool {
	_, ok := e.s.Get(e.ck, e.ik)
	return ok
}

// Get returns the record in the slot.
func (e Entry[C, I, E]) Get() (E, bool) {
	return e.s.Get(e.ck, e.ik)
}

// AndModify applies fn when the slot is occupied. fn must not change the
// record's keys.
func (e Entry[C, I, E]) AndModify(fn func(*E)) Entry[C, I, E] {
	e.s.Modify(e.ck, e.ik, fn)
	return e
}

// OrInsert fills a vacant slot with the record create returns. The record's
// keys must match the entry's keys.
func (e Entry[C, I, E]) OrInsert(create func() E) {
	if e.Exists() {
		return
	}
	rec := create()
	if rec.ChunkKey() != e.ck || rec.ItemKey() != e.ik {
		panic("chunkdb: entry insert with mismatched keys")
	}
	e.s.Add(rec)
}

// Remove deletes the record in the slot and returns it. An emptied chunk is
// compacted away on the next Clean.
func (e Entry[C, I, E]) Remove() (E, bool) {
	idx, ok := e.s.index[e.ck]
	if !ok {
		var zero E
		return zero, false
	}
	c := e.s.chunks.At(idx)
	i, ok := c.index[e.ik]
	if !ok {
		var zero E
		return zero, false
	}
	e.s.chunks.Touch(idx)
	e.s.dirty = append(e.s.dirty, idx)
	return c.removeAt(i), true
}

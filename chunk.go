package chunkdb

import (
	"fmt"
	"iter"

	"github.com/hupe1980/chunkdb/internal/mr"
)

// Chunk holds the records sharing one chunk key, in insertion order
// disturbed only by swap-removal. Item positions within a chunk are what
// index sets and per-chunk derived state refer to.
//
// Chunks are handed out by the store for reading; all mutation goes through
// the store so modifications are tracked.
type Chunk[C, I comparable, E Record[C, I]] struct {
	key   C
	items *mr.Vec[E]
	index map[I]int
}

func newChunk[C, I comparable, E Record[C, I]](key C) *Chunk[C, I, E] {
	return &Chunk[C, I, E]{
		key:   key,
		items: mr.NewVec[E](),
		index: make(map[I]int),
	}
}

// Key returns the chunk key.
func (c *Chunk[C, I, E]) Key() C { return c.key }

// Len returns the number of records in the chunk.
func (c *Chunk[C, I, E]) Len() int { return c.items.Len() }

// Get returns the record with the given item key.
func (c *Chunk[C, I, E]) Get(ik I) (E, bool) {
	if i, ok := c.index[ik]; ok {
		return c.items.At(i), true
	}
	var zero E
	return zero, false
}

// At returns the record at position i.
func (c *Chunk[C, I, E]) At(i int) E { return c.items.At(i) }

// All iterates over the chunk's records in position order.
func (c *Chunk[C, I, E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		for _, e := range c.items.All() {
			if !yield(e) {
				return
			}
		}
	}
}

func (c *Chunk[C, I, E]) add(e E) {
	ik := e.ItemKey()
	if _, ok := c.index[ik]; ok {
		panic(fmt.Sprintf("chunkdb: duplicate item key %v in chunk %v", ik, c.key))
	}
	c.items.Push(e)
	c.index[ik] = c.items.Len() - 1
}

func (c *Chunk[C, I, E]) ref(ik I) (*E, bool) {
	i, ok := c.index[ik]
	if !ok {
		return nil, false
	}
	return c.items.Ref(i), true
}

// removeAt swap-removes the record at position i and fixes the index entry
// of the record moved into its place.
func (c *Chunk[C, I, E]) removeAt(i int) E {
	e := c.items.SwapRemove(i)
	delete(c.index, e.ItemKey())
	if i < c.items.Len() {
		c.index[c.items.At(i).ItemKey()] = i
	}
	return e
}

func (c *Chunk[C, I, E]) validate() {
	if len(c.index) != c.items.Len() {
		panic(fmt.Sprintf("chunkdb: chunk %v index holds %d keys for %d records", c.key, len(c.index), c.items.Len()))
	}
	for ik, i := range c.index {
		if i < 0 || i >= c.items.Len() {
			panic(fmt.Sprintf("chunkdb: chunk %v index entry %v points at %d, out of range", c.key, ik, i))
		}
		e := c.items.At(i)
		if e.ItemKey() != ik {
			panic(fmt.Sprintf("chunkdb: chunk %v index entry %v points at a record keyed %v", c.key, ik, e.ItemKey()))
		}
		if e.ChunkKey() != c.key {
			panic(fmt.Sprintf("chunkdb: record %v/%v stored in chunk %v", e.ChunkKey(), ik, c.key))
		}
	}
}

func (c *Chunk[C, I, E]) memoryUsage() MemoryUsage {
	bytes, length, capacity := c.items.Mem()
	return MemoryUsage{Bytes: bytes, Len: length, Cap: capacity}
}

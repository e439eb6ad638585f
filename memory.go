package chunkdb

// MemoryUsage describes how much memory a component retains. Bytes is an
// approximation covering the backing arrays; map overhead is not counted.
// Len and Cap aggregate record slots in use and allocated.
type MemoryUsage struct {
	Bytes int
	Len   int
	Cap   int
}

// Add combines two usage reports.
func (m MemoryUsage) Add(o MemoryUsage) MemoryUsage {
	return MemoryUsage{
		Bytes: m.Bytes + o.Bytes,
		Len:   m.Len + o.Len,
		Cap:   m.Cap + o.Cap,
	}
}

// MemoryUser is implemented by components that can report and reclaim
// memory: the store, secondary indexes and reductions.
type MemoryUser interface {
	MemoryUsage() MemoryUsage
	Shrink()
}

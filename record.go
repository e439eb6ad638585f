package chunkdb

// Record is the contract every stored element fulfills. Records are grouped
// physically by their chunk key; within a chunk the item key is unique.
//
// Both keys are derived from the record itself and must stay stable while
// the record is stored. In-place modification (Modify, Entry.AndModify) may
// change any other field but never the keys.
type Record[C, I comparable] interface {
	ChunkKey() C
	ItemKey() I
}

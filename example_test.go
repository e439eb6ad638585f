package chunkdb_test

import (
	"fmt"

	"github.com/hupe1980/chunkdb"
)

// Event is a minimal record: the day is the chunk key, the event ID the
// item key.
type Event struct {
	Day   string
	ID    int
	Kind  string
	Bytes int
}

func (e Event) ChunkKey() string { return e.Day }
func (e Event) ItemKey() int     { return e.ID }

// Example demonstrates the basic store operations.
func Example() {
	s := chunkdb.NewStore[string, int, Event]()

	s.Add(Event{Day: "2024-05-01", ID: 1, Kind: "upload", Bytes: 100})
	s.Add(Event{Day: "2024-05-01", ID: 2, Kind: "delete", Bytes: 0})
	s.Add(Event{Day: "2024-05-02", ID: 3, Kind: "upload", Bytes: 250})

	uploads := chunkdb.Filter(s.Everything(), func(e Event) bool {
		return e.Kind == "upload"
	})
	fmt.Println("uploads:", s.Count(uploads))

	e, _ := s.Get("2024-05-02", 3)
	fmt.Println("bytes:", e.Bytes)
	// Output:
	// uploads: 2
	// bytes: 250
}

// Example_secondaryIndex demonstrates querying through a secondary index.
func Example_secondaryIndex() {
	s := chunkdb.NewStore[string, int, Event]()
	byKind := chunkdb.NewSecondaryIndex(s, func(e Event) []string {
		return []string{e.Kind}
	})

	s.Add(Event{Day: "2024-05-01", ID: 1, Kind: "upload"})
	s.Add(Event{Day: "2024-05-01", ID: 2, Kind: "delete"})
	s.Add(Event{Day: "2024-05-02", ID: 3, Kind: "upload"})

	fmt.Println("uploads:", s.Count(byKind.Matching("upload")))

	s.Modify("2024-05-01", 1, func(e *Event) { e.Kind = "delete" })
	fmt.Println("after retag:", s.Count(byKind.Matching("upload")))
	// Output:
	// uploads: 2
	// after retag: 1
}

// Example_reduction demonstrates an incrementally maintained aggregate.
func Example_reduction() {
	s := chunkdb.NewStore[string, int, Event]()
	totalBytes := chunkdb.NewReduction(s, 16, chunkdb.ReduceRules[Event, int]{
		Map: func(e Event, old int, _ int) (int, bool) {
			return e.Bytes, e.Bytes != old
		},
		Fold: func(group []int, old int, _ int) (int, bool) {
			sum := 0
			for _, v := range group {
				sum += v
			}
			return sum, sum != old
		},
	})

	for i := range 100 {
		s.Add(Event{Day: "2024-05-01", ID: i, Kind: "upload", Bytes: 10})
	}
	total, _ := totalBytes.Reduce(s)
	fmt.Println("total:", total)

	s.Modify("2024-05-01", 42, func(e *Event) { e.Bytes = 110 })
	total, _ = totalBytes.Reduce(s)
	fmt.Println("after edit:", total)
	// Output:
	// total: 1000
	// after edit: 1100
}

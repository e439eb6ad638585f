package chunkdb

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// Concurrent reads are safe once the store and its derived structures have
// been warmed up by a single writer.
func TestConcurrentReads(t *testing.T) {
	s := NewStore[string, int, Tagged]()
	idx := newTagIndex(s)

	want := 0
	for _, sensor := range []string{"a", "b", "c", "d"} {
		for i := range 250 {
			tags := []string{"even"}
			if i%2 == 1 {
				tags = []string{"odd"}
			}
			s.Add(Tagged{Sensor: sensor, Seq: i, Tags: tags})
			want++
		}
	}
	s.Clean()

	// Warm the index so concurrent readers only take its read lock.
	require.Equal(t, want/2, s.Count(idx.Matching("even")))
	require.Equal(t, want/2, s.Count(idx.Matching("odd")))

	var g errgroup.Group
	for range 8 {
		g.Go(func() error {
			for range 50 {
				if got := s.Count(s.Everything()); got != want {
					return fmt.Errorf("count everything: want %d, got %d", want, got)
				}
				if got := s.Count(idx.Matching("even")); got != want/2 {
					return fmt.Errorf("count even: want %d, got %d", want/2, got)
				}
				n := 0
				for range s.Scan(s.InChunks("a", "c")) {
					n++
				}
				if n != 500 {
					return fmt.Errorf("scan chunks: want 500, got %d", n)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

package chunkdb

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    addCounter      prometheus.Counter
//	    reduceHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordAdd(duration time.Duration) {
//	    p.addCounter.Inc()
//	    // ... record duration, etc.
//	}
type MetricsCollector interface {
	// RecordAdd is called after each record insertion.
	RecordAdd(duration time.Duration)

	// RecordRemove is called after each removal pass. count is the number
	// of records removed.
	RecordRemove(count int, duration time.Duration)

	// RecordScan is called after a query iteration completes or is
	// abandoned. matched is the number of records yielded.
	RecordScan(matched int, duration time.Duration)

	// RecordReduce is called after a reduction pass. recomputed is the
	// number of rule invocations it took.
	RecordReduce(recomputed int, duration time.Duration)

	// RecordGC is called after derived per-chunk state is collected.
	// removedChunks is the number of chunk entries dropped.
	RecordGC(removedChunks int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(time.Duration)         {}
func (NoopMetricsCollector) RecordRemove(int, time.Duration) {}
func (NoopMetricsCollector) RecordScan(int, time.Duration)   {}
func (NoopMetricsCollector) RecordReduce(int, time.Duration) {}
func (NoopMetricsCollector) RecordGC(int, time.Duration)     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddCount         atomic.Int64
	AddTotalNanos    atomic.Int64
	RemoveCount      atomic.Int64
	RemovedRecords   atomic.Int64
	ScanCount        atomic.Int64
	ScanMatched      atomic.Int64
	ScanTotalNanos   atomic.Int64
	ReduceCount      atomic.Int64
	ReduceRecomputed atomic.Int64
	ReduceTotalNanos atomic.Int64
	GCCount          atomic.Int64
	GCRemovedChunks  atomic.Int64
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(duration time.Duration) {
	b.AddCount.Add(1)
	b.AddTotalNanos.Add(duration.Nanoseconds())
}

// RecordRemove implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemove(count int, duration time.Duration) {
	b.RemoveCount.Add(1)
	b.RemovedRecords.Add(int64(count))
}

// RecordScan implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScan(matched int, duration time.Duration) {
	b.ScanCount.Add(1)
	b.ScanMatched.Add(int64(matched))
	b.ScanTotalNanos.Add(duration.Nanoseconds())
}

// RecordReduce implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReduce(recomputed int, duration time.Duration) {
	b.ReduceCount.Add(1)
	b.ReduceRecomputed.Add(int64(recomputed))
	b.ReduceTotalNanos.Add(duration.Nanoseconds())
}

// RecordGC implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGC(removedChunks int, duration time.Duration) {
	b.GCCount.Add(1)
	b.GCRemovedChunks.Add(int64(removedChunks))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddCount:         b.AddCount.Load(),
		AddAvgNanos:      avg(b.AddTotalNanos.Load(), b.AddCount.Load()),
		RemoveCount:      b.RemoveCount.Load(),
		RemovedRecords:   b.RemovedRecords.Load(),
		ScanCount:        b.ScanCount.Load(),
		ScanMatched:      b.ScanMatched.Load(),
		ScanAvgNanos:     avg(b.ScanTotalNanos.Load(), b.ScanCount.Load()),
		ReduceCount:      b.ReduceCount.Load(),
		ReduceRecomputed: b.ReduceRecomputed.Load(),
		ReduceAvgNanos:   avg(b.ReduceTotalNanos.Load(), b.ReduceCount.Load()),
		GCCount:          b.GCCount.Load(),
		GCRemovedChunks:  b.GCRemovedChunks.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddCount         int64
	AddAvgNanos      int64
	RemoveCount      int64
	RemovedRecords   int64
	ScanCount        int64
	ScanMatched      int64
	ScanAvgNanos     int64
	ReduceCount      int64
	ReduceRecomputed int64
	ReduceAvgNanos   int64
	GCCount          int64
	GCRemovedChunks  int64
}

// Package testutil provides testing utilities for chunkdb.
//
// This package is intended for use in tests, benchmarks and examples only.
// It provides a seeded, mutex-guarded random source and small helpers for
// generating deterministic key sets.
//
//	rng := testutil.NewRNG(seed)
//	n := rng.Intn(100)
//	keys := testutil.Keys("sensor", 20)
package testutil

// Package mr implements change-tracked vectors and incremental map/reduce
// over them.
//
// A Vec records where it has been modified in a coarse multi-level checkpoint
// hierarchy. Reduce walks that hierarchy to recompute only the groups whose
// source elements changed since the previous run, skipping unchanged regions
// in large strides. Reducer stacks reductions into layers until a single
// value remains; Summarizer maintains an order-independent summary through
// contribute/uncontribute callbacks instead of layered folds.
package mr

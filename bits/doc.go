// Package bits provides block-aligned index masks for sparse sets over a
// huge index space.
//
// A Bitfield covers one 64-index aligned block. A Bitset is a sorted
// sequence of such blocks with copy-on-write cloning, so set algebra stays
// proportional to the number of populated blocks rather than the span of
// the indexes.
package bits

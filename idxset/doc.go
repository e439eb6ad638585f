// Package idxset provides sorted index sets that can be combined at block
// granularity.
//
// Every Set yields its contents as aligned bit blocks, forward or backward,
// and can clip a foreign block to itself. Intersections flatten their
// operands, drive iteration from the smallest one and clip each of its
// blocks against the rest, so the cost of an intersection follows its most
// selective operand.
package idxset

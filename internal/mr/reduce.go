package mr

// Reduce incrementally maintains dst as the group-wise reduction of src.
//
// dst element g covers the src elements [g*groupSize, (g+1)*groupSize). For
// every group that contains at least one element modified since the previous
// run, op is called with the group's current elements, dst's old value and
// the group index. When op reports a change the new value is written through
// and dst records the modification, so reductions stack.
//
// When src shrank since the previous run, every dst element that lost its
// group is handed to drop (front to back) before dst is resized. drop may be
// nil. A dropped slot cannot produce a replacement value; state owned by it
// has to be surrendered in the callback.
//
// dst remembers src's identity. If dst was previously bound to a different
// source, it is reset to an empty vector under a fresh identity and
// recomputed from scratch, so consumers of dst reset in turn; rebound
// reports that this happened. recomputed is the number of op invocations.
func Reduce[S, T any](dst *Vec[T], src *Vec[S], groupSize int,
	op func(group []S, old T, idx int) (T, bool),
	drop func(old T, idx int),
) (recomputed int, rebound bool) {
	if groupSize < 1 {
		panic("mr: reduce group size must be positive")
	}
	if dst.parentID != src.id {
		if dst.parentID != 0 {
			rebound = true
			dst.reset()
		}
		dst.parentID = src.id
		dst.parentCount = 0
	}

	srcLen := len(src.data)
	newLen := (srcLen + groupSize - 1) / groupSize
	oldLen := len(dst.data)

	if newLen < oldLen {
		for i := newLen; i < oldLen; i++ {
			if drop != nil {
				drop(dst.data[i], i)
			}
			dst.Touch(i)
		}
		clear(dst.data[newLen:])
		dst.data = dst.data[:newLen]
		dst.resizeCounts()
	}
	if newLen > oldLen {
		var zero T
		for i := oldLen; i < newLen; i++ {
			dst.data = append(dst.data, zero)
		}
		dst.resizeCounts()
		for i := oldLen; i < newLen; i++ {
			dst.Touch(i)
		}
	}

	expected := dst.parentCount
	for i := 0; i < srcLen; {
		skipTo := -1
		for level := numLevels - 1; level >= 0; level-- {
			shift := levelShift(level)
			bucket := i >> shift
			if src.counts[level][bucket] <= expected {
				skipTo = (bucket + 1) << shift
				break
			}
		}
		if skipTo >= 0 {
			i = skipTo
			continue
		}
		group := i / groupSize
		lo := group * groupSize
		hi := min(lo+groupSize, srcLen)
		val, changed := op(src.data[lo:hi], dst.data[group], group)
		recomputed++
		if changed {
			dst.data[group] = val
			dst.Touch(group)
		}
		i = hi
	}

	dst.parentCount = src.count
	return recomputed, rebound
}

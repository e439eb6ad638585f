package mr

// ReduceRules describes how a Reducer turns source elements into summary
// values. Map derives the layer-0 value for a single element; Fold combines
// a group of layer values into the value one layer up. Both receive the old
// value and report whether it changed, which gates write-through.
type ReduceRules[E, S any] struct {
	Map  func(elem E, old S, idx int) (S, bool)
	Fold func(group []S, old S, idx int) (S, bool)
}

// Reducer maintains a stack of reduction layers over a parent vector until
// a single value remains. Layer 0 is the element-wise Map of the parent;
// every further layer folds groups of groupSize values from the layer below.
//
// Updates are pull-model: nothing recomputes until Update is called.
type Reducer[E, S any] struct {
	rules     ReduceRules[E, S]
	groupSize int
	layers    []*Vec[S]
}

// NewReducer creates a reducer. groupSize must be at least 2 so the layer
// stack converges.
func NewReducer[E, S any](groupSize int, rules ReduceRules[E, S]) *Reducer[E, S] {
	if groupSize < 2 {
		panic("mr: reducer group size must be at least 2")
	}
	if rules.Map == nil || rules.Fold == nil {
		panic("mr: reducer needs both a map and a fold rule")
	}
	return &Reducer[E, S]{rules: rules, groupSize: groupSize}
}

// Update recomputes all stale layers bottom-up. recomputed is the total
// number of rule invocations across layers; rebound reports that some layer
// had to be rebuilt from scratch after a parent identity change.
func (r *Reducer[E, S]) Update(parent *Vec[E]) (recomputed int, rebound bool) {
	if len(r.layers) == 0 {
		r.layers = append(r.layers, NewVec[S]())
	}
	mapOp := func(group []E, old S, idx int) (S, bool) {
		return r.rules.Map(group[0], old, idx)
	}
	n, rb := Reduce(r.layers[0], parent, 1, mapOp, nil)
	recomputed += n
	rebound = rebound || rb

	k := 0
	for r.layers[k].Len() > 1 {
		if k+1 == len(r.layers) {
			r.layers = append(r.layers, NewVec[S]())
		}
		n, rb := Reduce(r.layers[k+1], r.layers[k], r.groupSize, r.rules.Fold, nil)
		recomputed += n
		rebound = rebound || rb
		k++
	}
	r.layers = r.layers[:k+1]
	return recomputed, rebound
}

// Peek returns the reduced value. ok is false while the parent is empty.
// Peek panics if the top layer holds more than one value, which means
// Update has not run since the parent grew.
func (r *Reducer[E, S]) Peek() (val S, ok bool) {
	if len(r.layers) == 0 {
		return val, false
	}
	top := r.layers[len(r.layers)-1]
	switch top.Len() {
	case 0:
		return val, false
	case 1:
		return top.At(0), true
	default:
		panic("mr: reducer has not converged, call Update first")
	}
}

// Depth returns the current number of layers.
func (r *Reducer[E, S]) Depth() int { return len(r.layers) }

// Mem reports the approximate retained bytes of all layers.
func (r *Reducer[E, S]) Mem() (bytes int) {
	for _, l := range r.layers {
		b, _, _ := l.Mem()
		bytes += b
	}
	return bytes
}

// ShrinkToFit reclaims slack capacity in all layers.
func (r *Reducer[E, S]) ShrinkToFit() {
	for _, l := range r.layers {
		l.ShrinkToFit()
	}
}

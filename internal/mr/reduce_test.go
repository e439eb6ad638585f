package mr

import (
	"math/rand"
	"testing"
)

func sumOp(group []int, old int, _ int) (int, bool) {
	s := 0
	for _, v := range group {
		s += v
	}
	return s, s != old
}

func TestReduce_FullThenIncremental(t *testing.T) {
	src := NewVec[int]()
	for i := range 1000 {
		src.Push(i)
	}

	dst := NewVec[int]()
	n, rebound := Reduce(dst, src, 10, sumOp, nil)
	if rebound {
		t.Fatalf("unexpected rebound on first reduce")
	}
	if n != 100 {
		t.Fatalf("expected 100 recomputed groups, got %d", n)
	}
	if dst.Len() != 100 {
		t.Fatalf("expected 100 groups, got %d", dst.Len())
	}
	for g := range 100 {
		want := 0
		for i := g * 10; i < (g+1)*10; i++ {
			want += i
		}
		if dst.At(g) != want {
			t.Errorf("group %d: expected %d, got %d", g, want, dst.At(g))
		}
	}

	// Nothing changed, nothing recomputes.
	n, _ = Reduce(dst, src, 10, sumOp, nil)
	if n != 0 {
		t.Fatalf("expected idempotent reduce, recomputed %d groups", n)
	}

	// A single edit recomputes a single group.
	src.Set(537, -1)
	n, _ = Reduce(dst, src, 10, sumOp, nil)
	if n != 1 {
		t.Fatalf("expected 1 recomputed group, got %d", n)
	}
	want := 0
	for i := 530; i < 540; i++ {
		if i == 537 {
			want--
		} else {
			want += i
		}
	}
	if dst.At(53) != want {
		t.Errorf("group 53: expected %d, got %d", want, dst.At(53))
	}
}

func TestReduce_Randomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	src := NewVec[int]()
	oracle := make([]int, 0, 5000)
	for range 5000 {
		v := rng.Intn(1000)
		src.Push(v)
		oracle = append(oracle, v)
	}

	dst := NewVec[int]()
	check := func() {
		t.Helper()
		Reduce(dst, src, 16, sumOp, nil)
		groups := (len(oracle) + 15) / 16
		if dst.Len() != groups {
			t.Fatalf("expected %d groups, got %d", groups, dst.Len())
		}
		for g := range groups {
			want := 0
			for i := g * 16; i < min((g+1)*16, len(oracle)); i++ {
				want += oracle[i]
			}
			if dst.At(g) != want {
				t.Fatalf("group %d: expected %d, got %d", g, want, dst.At(g))
			}
		}
	}
	check()

	for round := range 200 {
		switch rng.Intn(3) {
		case 0:
			v := rng.Intn(1000)
			src.Push(v)
			oracle = append(oracle, v)
		case 1:
			if len(oracle) > 0 {
				i := rng.Intn(len(oracle))
				v := rng.Intn(1000)
				src.Set(i, v)
				oracle[i] = v
			}
		case 2:
			if len(oracle) > 0 {
				i := rng.Intn(len(oracle))
				src.SwapRemove(i)
				oracle[i] = oracle[len(oracle)-1]
				oracle = oracle[:len(oracle)-1]
			}
		}
		if round%10 == 9 {
			check()
		}
	}
	check()
}

func TestReduce_PartialRecompute(t *testing.T) {
	src := NewVec[int]()
	for range 100000 {
		src.Push(1)
	}
	dst := NewVec[int]()
	Reduce(dst, src, 100, sumOp, nil)

	src.Set(12345, 2)
	src.Set(67890, 2)
	n, _ := Reduce(dst, src, 100, sumOp, nil)
	if n != 2 {
		t.Fatalf("expected 2 recomputed groups for 2 edits, got %d", n)
	}
	if dst.At(123) != 101 || dst.At(678) != 101 {
		t.Fatalf("edited groups hold %d and %d, expected 101", dst.At(123), dst.At(678))
	}
}

func TestReduce_TruncationDropsInOrder(t *testing.T) {
	src := NewVec[int]()
	for i := range 50 {
		src.Push(i)
	}
	dst := NewVec[int]()
	Reduce(dst, src, 5, sumOp, nil)
	if dst.Len() != 10 {
		t.Fatalf("expected 10 groups, got %d", dst.Len())
	}

	for range 27 {
		src.SwapRemove(src.Len() - 1)
	}

	var dropped []int
	drop := func(old int, idx int) { dropped = append(dropped, idx) }
	Reduce(dst, src, 5, sumOp, drop)

	if dst.Len() != 5 {
		t.Fatalf("expected 5 groups after shrink, got %d", dst.Len())
	}
	if len(dropped) != 5 {
		t.Fatalf("expected 5 dropped groups, got %v", dropped)
	}
	for i, idx := range dropped {
		if idx != 5+i {
			t.Fatalf("expected drops front to back starting at 5, got %v", dropped)
		}
	}
}

func TestReduce_ReboundResets(t *testing.T) {
	a := NewVec[int]()
	a.Push(1)
	a.Push(2)
	b := NewVec[int]()
	b.Push(10)

	dst := NewVec[int]()
	if _, rebound := Reduce(dst, a, 1, sumOp, nil); rebound {
		t.Fatalf("first binding must not count as rebound")
	}
	if dst.At(0) != 1 || dst.At(1) != 2 {
		t.Fatalf("unexpected reduction contents")
	}

	_, rebound := Reduce(dst, b, 1, sumOp, nil)
	if !rebound {
		t.Fatalf("expected rebound when the source changes identity")
	}
	if dst.Len() != 1 || dst.At(0) != 10 {
		t.Fatalf("expected a clean rebuild from the new source")
	}
}

func TestReduce_EmptySource(t *testing.T) {
	src := NewVec[int]()
	dst := NewVec[int]()
	n, _ := Reduce(dst, src, 4, sumOp, nil)
	if n != 0 || dst.Len() != 0 {
		t.Fatalf("expected empty reduction, got len %d", dst.Len())
	}
}

func TestReducer_SingleValue(t *testing.T) {
	rules := ReduceRules[int, int]{
		Map: func(e int, old int, _ int) (int, bool) { return e, e != old },
		Fold: func(group []int, old int, _ int) (int, bool) {
			s := 0
			for _, v := range group {
				s += v
			}
			return s, s != old
		},
	}
	r := NewReducer(4, rules)

	parent := NewVec[int]()
	if _, ok := r.Peek(); ok {
		t.Fatalf("expected no value before any update")
	}
	r.Update(parent)
	if _, ok := r.Peek(); ok {
		t.Fatalf("expected no value for an empty parent")
	}

	total := 0
	for i := 1; i <= 1000; i++ {
		parent.Push(i)
		total += i
	}
	r.Update(parent)
	got, ok := r.Peek()
	if !ok || got != total {
		t.Fatalf("expected %d, got %d (ok=%v)", total, got, ok)
	}

	// Stack must deepen and converge: 1000 -> 250 -> 63 -> 16 -> 4 -> 1.
	if r.Depth() != 6 {
		t.Fatalf("expected 6 layers, got %d", r.Depth())
	}

	parent.Set(499, 0)
	total -= 500
	n, _ := r.Update(parent)
	got, _ = r.Peek()
	if got != total {
		t.Fatalf("expected %d after edit, got %d", total, got)
	}
	// One group per layer, not a full rebuild.
	if n > 6 {
		t.Fatalf("expected at most one recompute per layer, got %d", n)
	}

	// Shrinking back to nothing empties the stack.
	for parent.Len() > 0 {
		parent.SwapRemove(parent.Len() - 1)
	}
	r.Update(parent)
	if _, ok := r.Peek(); ok {
		t.Fatalf("expected no value after the parent drained")
	}
}

func TestReducer_RebindCascadesThroughLayers(t *testing.T) {
	rules := ReduceRules[int, int]{
		Map: func(e int, old int, _ int) (int, bool) { return e, e != old },
		Fold: func(group []int, old int, _ int) (int, bool) {
			s := 0
			for _, v := range group {
				s += v
			}
			return s, s != old
		},
	}
	r := NewReducer(2, rules)

	// Warm the layer stack and drive the change counters high with churn,
	// so a layer that wrongly kept its old parent count after the rebind
	// would skip every freshly stamped group below it.
	a := NewVec[int]()
	for range 10 {
		a.Push(1)
	}
	r.Update(a)
	for i := range 200 {
		a.Set(i%10, 1+i%3)
	}
	r.Update(a)

	b := NewVec[int]()
	for range 10 {
		b.Push(2)
	}
	n, rebound := r.Update(b)
	if !rebound {
		t.Fatalf("expected rebound on a new parent")
	}
	if n == 0 {
		t.Fatalf("expected a full recompute after the rebind")
	}
	got, ok := r.Peek()
	if !ok || got != 20 {
		t.Fatalf("after rebind: want sum 20, got %d (ok=%v)", got, ok)
	}

	// The rebound stack must stay incremental afterwards.
	b.Set(0, 5)
	r.Update(b)
	got, _ = r.Peek()
	if got != 23 {
		t.Fatalf("after edit: want sum 23, got %d", got)
	}
}

func TestReducer_GroupSizeContract(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for group size 1")
		}
	}()
	NewReducer(1, ReduceRules[int, int]{
		Map:  func(e int, old int, _ int) (int, bool) { return e, true },
		Fold: func(group []int, old int, _ int) (int, bool) { return 0, true },
	})
}

package mr

import "testing"

func TestVec_PushAndAt(t *testing.T) {
	v := NewVec[int]()

	if v.Len() != 0 {
		t.Fatalf("expected empty vec, got len %d", v.Len())
	}

	for i := range 100 {
		v.Push(i * 10)
	}

	if v.Len() != 100 {
		t.Fatalf("expected len 100, got %d", v.Len())
	}
	for i := range 100 {
		if v.At(i) != i*10 {
			t.Errorf("element %d: expected %d, got %d", i, i*10, v.At(i))
		}
	}
}

func TestVec_TouchMonotonic(t *testing.T) {
	v := NewVec[int]()

	last := v.ChangeCount()
	for i := range 1000 {
		v.Push(i)
		if c := v.ChangeCount(); c <= last {
			t.Fatalf("push %d: change count %d not greater than %d", i, c, last)
		} else {
			last = c
		}
	}
	for i := 0; i < 1000; i += 7 {
		v.Set(i, -i)
		if c := v.ChangeCount(); c <= last {
			t.Fatalf("set %d: change count %d not greater than %d", i, c, last)
		} else {
			last = c
		}
	}
	for v.Len() > 0 {
		v.SwapRemove(0)
		if c := v.ChangeCount(); c <= last {
			t.Fatalf("swap remove: change count %d not greater than %d", c, last)
		} else {
			last = c
		}
	}
}

func TestVec_TouchStampsAllLevels(t *testing.T) {
	v := NewVec[int]()
	for range 70000 {
		v.Push(0)
	}

	before := v.ChangeCount()
	i := 69999
	v.Touch(i)

	for l := range numLevels {
		bucket := i >> levelShift(l)
		if got := v.counts[l][bucket]; got != before+1 {
			t.Errorf("level %d bucket %d: expected stamp %d, got %d", l, bucket, before+1, got)
		}
	}
	// Bucket 0 shares no fine-grained bucket with index 69999 below the
	// top level, so its stamps stay old there.
	for l := range numLevels - 1 {
		if got := v.counts[l][0]; got > before {
			t.Errorf("level %d bucket 0: unexpected fresh stamp %d", l, got)
		}
	}
}

func TestVec_SwapRemove(t *testing.T) {
	v := NewVec[string]()
	v.Push("a")
	v.Push("b")
	v.Push("c")
	v.Push("d")

	if got := v.SwapRemove(1); got != "b" {
		t.Fatalf("expected b, got %s", got)
	}
	if v.Len() != 3 {
		t.Fatalf("expected len 3, got %d", v.Len())
	}
	if v.At(1) != "d" {
		t.Fatalf("expected last element swapped in, got %s", v.At(1))
	}

	if got := v.SwapRemove(2); got != "c" {
		t.Fatalf("expected c, got %s", got)
	}
}

func TestVec_CountsTrackLength(t *testing.T) {
	v := NewVec[int]()
	for range 5000 {
		v.Push(0)
	}
	for l := range numLevels {
		want := v.Len()>>levelShift(l) + 1
		if len(v.counts[l]) != want {
			t.Errorf("level %d: expected %d buckets, got %d", l, want, len(v.counts[l]))
		}
	}
	for range 4990 {
		v.SwapRemove(0)
	}
	for l := range numLevels {
		want := v.Len()>>levelShift(l) + 1
		if len(v.counts[l]) != want {
			t.Errorf("level %d after shrink: expected %d buckets, got %d", l, want, len(v.counts[l]))
		}
	}
}

func TestVec_RefTouches(t *testing.T) {
	v := NewVec[int]()
	v.Push(1)
	before := v.ChangeCount()
	*v.Ref(0) = 42
	if v.ChangeCount() != before+1 {
		t.Fatalf("expected ref to record a modification")
	}
	if v.At(0) != 42 {
		t.Fatalf("expected 42, got %d", v.At(0))
	}
}

func TestVec_ShrinkToFit(t *testing.T) {
	v := NewVec[int]()
	for i := range 10000 {
		v.Push(i)
	}
	for range 9990 {
		v.SwapRemove(0)
	}
	v.ShrinkToFit()
	_, length, capacity := v.Mem()
	if length != 10 {
		t.Fatalf("expected len 10, got %d", length)
	}
	if capacity > 12 {
		t.Fatalf("expected capacity close to len, got %d", capacity)
	}
}

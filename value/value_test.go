package value

import "testing"

func TestTruthiness(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"nil", Nil, false},
		{"zero int", NewInt64(0), false},
		{"nonzero int", NewInt64(1), true},
		{"empty string", NewString(""), false},
		{"nonempty string", NewString("x"), true},
		{"empty list", EmptyList(), false},
		{"nonempty list", NewList([]Value{NewInt64(1)}), true},
		{"false bool", NewBool(false), false},
		{"true bool", NewBool(true), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Truthy(); got != tt.want {
				t.Errorf("%s.Truthy() = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestNilEquality(t *testing.T) {
	if !Nil.Equal(NilValue{}) {
		t.Errorf("nil == nil should be true")
	}
}

func TestCrossNumericEquality(t *testing.T) {
	i := NewInt64(3)
	f := NewFloat64(3.0)
	if !i.Equal(f) || !f.Equal(i) {
		t.Errorf("Int64(3) and Float64(3.0) should compare equal")
	}
}

func TestListCOWIndependence(t *testing.T) {
	base := NewList([]Value{NewInt64(1), NewInt64(2)})
	mutated := base.Set(0, NewInt64(99))

	if base.Get(0).(IntValue).Val != 1 {
		t.Errorf("mutating a derived list must not affect the original")
	}
	if mutated.Get(0).(IntValue).Val != 99 {
		t.Errorf("Set should apply to the returned list")
	}
}

func TestDictValueEquality(t *testing.T) {
	d := NewEmptyDict()
	d = d.Set(NewString("a"), NewInt64(1))
	d = d.Set(NewInt64(2), NewString("two"))

	v, ok := d.Get(NewString("a"))
	if !ok || !v.Equal(NewInt64(1)) {
		t.Errorf("expected a -> 1")
	}
	v, ok = d.Get(NewInt64(2))
	if !ok || !v.Equal(NewString("two")) {
		t.Errorf("expected 2 -> two")
	}
	if _, ok := d.Get(NewString("missing")); ok {
		t.Errorf("missing key should not be found")
	}
}

func TestRangeIteratorLength(t *testing.T) {
	tests := []struct {
		start, end, step int64
		want             int
	}{
		{0, 10, 1, 10},
		{0, 10, 3, 4}, // ceil(10/3) = 4
		{0, 0, 1, 0},
		{5, 6, 1, 1},
	}
	for _, tt := range tests {
		it := NewRangeIterator(tt.start, tt.end, tt.step)
		count := 0
		for it.HasNext() {
			it.Next()
			count++
		}
		if count != tt.want {
			t.Errorf("range(%d,%d,%d): got %d values, want %d", tt.start, tt.end, tt.step, count, tt.want)
		}
	}
}

func TestAtomicFetchAdd(t *testing.T) {
	a := NewAtomic(10)
	pre := a.FetchAdd(5)
	if pre != 10 {
		t.Errorf("FetchAdd should return pre-op value 10, got %d", pre)
	}
	if a.Load() != 15 {
		t.Errorf("expected counter 15, got %d", a.Load())
	}
}

func TestPromoteFloatWins(t *testing.T) {
	tag, ok := Promote(NewInt32(1), NewFloat64(2.0))
	if !ok || tag != TagFloat64 {
		t.Errorf("expected Float64 promotion, got %v ok=%v", tag, ok)
	}
}

func TestPromoteUnsignedPreferredOnTie(t *testing.T) {
	tag, ok := Promote(NewInt32(1), NewUInt32(2))
	if !ok || tag != TagUInt32 {
		t.Errorf("expected UInt32 promotion on rank tie, got %v ok=%v", tag, ok)
	}
}

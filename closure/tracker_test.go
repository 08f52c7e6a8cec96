package closure

import (
	"testing"

	"embervm/env"
	"embervm/value"
)

func TestSharedVariablePromotedAtTwoCaptures(t *testing.T) {
	tr := NewTracker()
	captured := env.New()

	c1 := NewClosure("inc", 0, 10, captured, []string{"count"})
	c2 := NewClosure("get", 20, 30, captured, []string{"count"})

	tr.Register(c1)
	if _, ok := tr.SharedSlotFor("count"); ok {
		t.Fatalf("should not be shared after only one closure captures it")
	}

	tr.Register(c2)
	if _, ok := tr.SharedSlotFor("count"); !ok {
		t.Fatalf("expected count to be promoted to a shared slot after a second capture")
	}
	if tr.SharedCount() != 1 {
		t.Errorf("expected exactly one shared variable, got %d", tr.SharedCount())
	}
}

func TestDetectCycleFlagsBothClosures(t *testing.T) {
	envA := env.New()
	envB := env.New()

	a := NewClosure("a", 0, 1, envA, []string{"b"})
	b := NewClosure("b", 2, 3, envB, []string{"a"})

	envA.Define("b", b, env.Private)
	envB.Define("a", a, env.Private)

	if !DetectCycle(a, b) {
		t.Fatalf("expected a one-hop cycle to be detected")
	}
	if !a.Circular || !b.Circular {
		t.Errorf("both closures in the cycle should be flagged circular")
	}
}

func TestLiveCountNeverExceedsRegisteredAfterSweep(t *testing.T) {
	tr := NewTracker()
	captured := env.New()

	func() {
		c := NewClosure("transient", 0, 1, captured, nil)
		tr.Register(c)
	}()

	if tr.Live() == 0 {
		t.Fatalf("closure should still be tracked before a GC pass runs")
	}
	// OnInstruction/OnReturn only fire the sweep at their configured
	// cadence; calling collect via 1000 instructions simulates that.
	for i := 0; i < 1000; i++ {
		tr.OnInstruction()
	}
	// The closure may or may not have been collected yet depending on GC
	// timing of the weak reference; Live() must never exceed what was
	// registered.
	if tr.Live() > 1 {
		t.Errorf("tracker should never report more live closures than registered")
	}
}

package env

import (
	"testing"

	"embervm/value"
)

func TestLookupChainPrefersCapturedOverClosureParent(t *testing.T) {
	root := New()
	root.Define("x", value.NewInt64(1), Public)

	closureParent := New()
	closureParent.Define("x", value.NewInt64(2), Public)

	scope := NewClosureScope(closureParent)
	scope.CaptureVariable("x", value.NewInt64(3), Public)

	got, ok := scope.Get("x")
	if !ok || !got.Equal(value.NewInt64(3)) {
		t.Errorf("expected captured binding to win, got %v ok=%v", got, ok)
	}
}

func TestAssignMutatesFirstBindingInChain(t *testing.T) {
	root := New()
	root.Define("counter", value.NewInt64(0), Public)
	child := NewChild(root)

	if !child.Assign("counter", value.NewInt64(5)) {
		t.Fatalf("assign should find binding in lexical parent")
	}
	got, _ := root.Get("counter")
	if !got.Equal(value.NewInt64(5)) {
		t.Errorf("expected root binding mutated to 5, got %v", got)
	}
}

func TestAssignUndefinedFails(t *testing.T) {
	root := New()
	if root.Assign("nope", value.NewInt64(1)) {
		t.Errorf("assigning an undefined variable should fail")
	}
}

func TestDefineLocalOnlyShadows(t *testing.T) {
	root := New()
	root.Define("x", value.NewInt64(1), Public)
	child := NewChild(root)
	child.DefineLocalOnly("x", value.NewInt64(2), Public)

	got, _ := child.Get("x")
	if !got.Equal(value.NewInt64(2)) {
		t.Errorf("expected shadowed value 2, got %v", got)
	}
	rootVal, _ := root.Get("x")
	if !rootVal.Equal(value.NewInt64(1)) {
		t.Errorf("shadowing must not mutate the enclosing scope, got %v", rootVal)
	}
}

func TestConstBindingRejectsAssign(t *testing.T) {
	root := New()
	root.Define("PI", value.NewFloat64(3.14), Const)
	if root.Assign("PI", value.NewFloat64(0)) {
		t.Errorf("assigning to a const binding should fail")
	}
}

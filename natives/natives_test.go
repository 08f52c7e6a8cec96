package natives

import (
	"testing"

	"embervm/bytecode"
	"embervm/env"
	"embervm/interp"
	"embervm/value"
)

func newTestVM() *interp.Interpreter {
	return interp.New(&bytecode.Program{}, env.New())
}

func TestLoadManifestParsesArity(t *testing.T) {
	m, err := LoadManifest("natives.yaml")
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m["length"].Arity != 1 {
		t.Errorf("expected length's declared arity to be 1, got %d", m["length"].Arity)
	}
}

func TestRegisterAllWiresBuiltinsAndValidated(t *testing.T) {
	vm := newTestVM()
	manifest, err := LoadManifest("natives.yaml")
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	RegisterAll(vm, manifest)

	if _, ok := vm.Natives["print"]; !ok {
		t.Errorf("expected print to be registered as a builtin")
	}
	if _, ok := vm.Natives["length"]; !ok {
		t.Errorf("expected length to be registered via the validated path")
	}
}

func TestNativeAbsHandlesIntAndFloat(t *testing.T) {
	got, err := nativeAbs([]value.Value{value.NewInt64(-5)})
	if err != nil {
		t.Fatalf("nativeAbs: %v", err)
	}
	if iv := got.(value.IntValue); iv.Val != 5 {
		t.Errorf("got %v, want 5", got)
	}

	got, err = nativeAbs([]value.Value{value.NewFloat64(-2.5)})
	if err != nil {
		t.Fatalf("nativeAbs: %v", err)
	}
	if fv := got.(value.FloatValue); fv.Val != 2.5 {
		t.Errorf("got %v, want 2.5", got)
	}
}

func TestNativeReverseString(t *testing.T) {
	got, err := nativeReverse([]value.Value{value.NewString("abc")})
	if err != nil {
		t.Fatalf("nativeReverse: %v", err)
	}
	if sv := got.(value.StringValue); sv.Val != "cba" {
		t.Errorf("got %v, want \"cba\"", got)
	}
}

func TestNativeAssertFailsOnFalsy(t *testing.T) {
	if _, err := nativeAssert([]value.Value{value.NewBool(false), value.NewString("boom")}); err == nil {
		t.Errorf("expected an error for a falsy assertion")
	}
	if _, err := nativeAssert([]value.Value{value.NewBool(true)}); err != nil {
		t.Errorf("expected no error for a truthy assertion, got %v", err)
	}
}

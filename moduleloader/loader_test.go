package moduleloader

import (
	"os"
	"path/filepath"
	"testing"

	"embervm/bytecode"
	"embervm/env"
	"embervm/interp"
	"embervm/registry"
	"embervm/value"
)

func writeStubModule(t *testing.T, dir, relPath string) string {
	t.Helper()
	full := filepath.Join(dir, relPath+ModuleExtension)
	if err := os.WriteFile(full, []byte("stub"), 0o644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}
	return full
}

func TestResolvePathConvertsDotsToSlashes(t *testing.T) {
	l := NewFileLoader("/modules", env.New(), nil)
	got := l.ResolvePath("math.trig")
	want := filepath.Join("/modules", "math", "trig"+ModuleExtension)
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoadRunsModuleAndCapturesEnv(t *testing.T) {
	dir := t.TempDir()
	writeStubModule(t, dir, "greet")

	compile := func(path string, src []byte) (CompiledModule, error) {
		prog := &bytecode.Program{
			Constants:    []value.Value{value.NewString("hello")},
			Instructions: []bytecode.Instruction{
				bytecode.OpInt(bytecode.OP_PUSH_CONST, 0),
				bytecode.OpStr(bytecode.OP_STORE_VAR, "greeting"),
				bytecode.Op(bytecode.OP_HALT),
			},
		}
		return CompiledModule{Program: prog, Funcs: registry.NewFunctionRegistry(), Classes: registry.NewClassRegistry()}, nil
	}

	globals := env.New()
	loader := NewFileLoader(dir, globals, compile)

	mod, err := loader.Load("greet")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	modEnv, ok := mod.Env.(*env.Environment)
	if !ok {
		t.Fatalf("expected mod.Env to be *env.Environment, got %T", mod.Env)
	}
	v, ok := modEnv.Get("greeting")
	if !ok {
		t.Fatalf("expected the module's top-level definition to be captured")
	}
	if sv, ok := v.(value.StringValue); !ok || sv.Val != "hello" {
		t.Errorf("got %v, want \"hello\"", v)
	}
}

func TestLoadMissingFileReportsError(t *testing.T) {
	dir := t.TempDir()
	loader := NewFileLoader(dir, env.New(), func(string, []byte) (CompiledModule, error) {
		return CompiledModule{}, nil
	})
	if _, err := loader.Load("does.not.exist"); err == nil {
		t.Errorf("expected an error for a missing module file")
	}
}

var _ interp.ModuleLoader = (*FileLoader)(nil)

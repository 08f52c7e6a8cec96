package interp

import (
	"testing"

	"embervm/bytecode"
	"embervm/env"
	"embervm/value"
)

func run(t *testing.T, prog *bytecode.Program) value.Value {
	t.Helper()
	result, err := New(prog, env.New()).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return result
}

// Division by zero is a recoverable error (spec.md §8 scenario 1): push 10,
// push 0, DIVIDE, CHECK_ERROR, branch on the result, push -1 on the error
// path.
func TestDivisionByZeroRecovers(t *testing.T) {
	prog := &bytecode.Program{
		Constants: []value.Value{value.NewInt64(10), value.NewInt64(0), value.NewInt64(-1)},
		Instructions: []bytecode.Instruction{
			bytecode.OpInt(bytecode.OP_PUSH_CONST, 0), // 0: 10
			bytecode.OpInt(bytecode.OP_PUSH_CONST, 1), // 1: 0
			bytecode.Op(bytecode.OP_DIV),               // 2
			bytecode.Op(bytecode.OP_CHECK_ERROR),        // 3
			bytecode.OpInt(bytecode.OP_JUMP_IF_FALSE, 4), // 4: -> 8 on success
			bytecode.Op(bytecode.OP_POP),                 // 5
			bytecode.OpInt(bytecode.OP_PUSH_CONST, 2),    // 6: -1
			bytecode.OpInt(bytecode.OP_JUMP, 2),          // 7: -> 9
			bytecode.Op(bytecode.OP_UNWRAP_VALUE),        // 8
			bytecode.Op(bytecode.OP_HALT),                // 9
		},
	}

	got := run(t, prog)
	want := value.NewInt64(-1)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

// Fibonacci via recursion returns the right value (spec.md §8 scenario 2).
func TestFibonacciRecursion(t *testing.T) {
	prog := &bytecode.Program{
		Constants: []value.Value{value.NewInt64(2), value.NewInt64(1), value.NewInt64(10)},
		Instructions: []bytecode.Instruction{
			bytecode.OpStr(bytecode.OP_BEGIN_FUNCTION, "fib"), // 0
			bytecode.OpStr(bytecode.OP_DEFINE_PARAM, "n"),     // 1
			bytecode.OpStr(bytecode.OP_LOAD_VAR, "n"),         // 2
			bytecode.OpInt(bytecode.OP_PUSH_CONST, 0),         // 3: 2
			bytecode.Op(bytecode.OP_LT),                       // 4
			bytecode.OpInt(bytecode.OP_JUMP_IF_FALSE, 3),      // 5: -> 8
			bytecode.OpStr(bytecode.OP_LOAD_VAR, "n"),         // 6
			bytecode.Op(bytecode.OP_RETURN),                   // 7
			bytecode.OpStr(bytecode.OP_LOAD_VAR, "n"),         // 8
			bytecode.OpInt(bytecode.OP_PUSH_CONST, 1),         // 9: 1
			bytecode.Op(bytecode.OP_SUB),                      // 10
			bytecode.OpStrInt(bytecode.OP_CALL, "fib", 1),     // 11
			bytecode.OpStr(bytecode.OP_LOAD_VAR, "n"),         // 12
			bytecode.OpInt(bytecode.OP_PUSH_CONST, 0),         // 13: 2
			bytecode.Op(bytecode.OP_SUB),                      // 14
			bytecode.OpStrInt(bytecode.OP_CALL, "fib", 1),     // 15
			bytecode.Op(bytecode.OP_ADD),                      // 16
			bytecode.Op(bytecode.OP_RETURN),                   // 17
			bytecode.Op(bytecode.OP_END_FUNCTION),             // 18
			bytecode.OpInt(bytecode.OP_PUSH_CONST, 2),         // 19: 10
			bytecode.OpStrInt(bytecode.OP_CALL, "fib", 1),     // 20
			bytecode.Op(bytecode.OP_HALT),                     // 21
		},
	}

	got := run(t, prog)
	want := value.NewInt64(55)
	if !got.Equal(want) {
		t.Errorf("fib(10): expected %v, got %v", want, got)
	}
}

// Closure captures by reference-like semantics under sharing (spec.md §8
// scenario 3): make_counter() returns (inc, get) sharing one count; three
// inc() calls followed by get() must observe 3, and the closure tracker
// must report at most one shared variable.
func TestClosureCounterSharesState(t *testing.T) {
	prog := &bytecode.Program{
		Constants: []value.Value{value.NewInt64(0), value.NewInt64(1)},
		Instructions: []bytecode.Instruction{
			bytecode.OpStr(bytecode.OP_BEGIN_FUNCTION, "make_counter"), // 0
			bytecode.OpInt(bytecode.OP_PUSH_CONST, 0),                  // 1: 0
			bytecode.OpStr(bytecode.OP_STORE_VAR, "count"),             // 2
			bytecode.OpStr(bytecode.OP_BEGIN_FUNCTION, "$lambda$inc"),  // 3
			bytecode.OpStr(bytecode.OP_LOAD_VAR, "count"),              // 4
			bytecode.OpInt(bytecode.OP_PUSH_CONST, 1),                  // 5: 1
			bytecode.Op(bytecode.OP_ADD),                               // 6
			bytecode.OpStr(bytecode.OP_STORE_VAR, "count"),             // 7
			bytecode.OpStr(bytecode.OP_LOAD_VAR, "count"),              // 8
			bytecode.Op(bytecode.OP_RETURN),                            // 9
			bytecode.Op(bytecode.OP_END_FUNCTION),                      // 10
			bytecode.OpStr(bytecode.OP_BEGIN_FUNCTION, "$lambda$get"),  // 11
			bytecode.OpStr(bytecode.OP_LOAD_VAR, "count"),              // 12
			bytecode.Op(bytecode.OP_RETURN),                            // 13
			bytecode.Op(bytecode.OP_END_FUNCTION),                      // 14
			bytecode.OpStr(bytecode.OP_PUSH_LAMBDA, "$lambda$inc"),     // 15
			bytecode.OpStr(bytecode.OP_CAPTURE_VAR, "count"),           // 16
			bytecode.OpInt(bytecode.OP_CREATE_CLOSURE, 1),              // 17
			bytecode.OpStr(bytecode.OP_PUSH_LAMBDA, "$lambda$get"),     // 18
			bytecode.OpStr(bytecode.OP_CAPTURE_VAR, "count"),           // 19
			bytecode.OpInt(bytecode.OP_CREATE_CLOSURE, 1),              // 20
			bytecode.OpInt(bytecode.OP_MAKE_TUPLE, 2),                  // 21
			bytecode.Op(bytecode.OP_RETURN),                            // 22
			bytecode.Op(bytecode.OP_END_FUNCTION),                      // 23
			bytecode.OpStrInt(bytecode.OP_CALL, "make_counter", 0),     // 24
			bytecode.OpStr(bytecode.OP_STORE_VAR, "pair"),              // 25

			bytecode.OpStr(bytecode.OP_LOAD_VAR, "pair"), // 26
			bytecode.OpInt(bytecode.OP_PUSH_CONST, 0),    // 27: index 0 (inc)
			bytecode.Op(bytecode.OP_INDEX),               // 28
			bytecode.OpStrInt(bytecode.OP_CALL, "", 0),   // 29
			bytecode.Op(bytecode.OP_POP),                 // 30

			bytecode.OpStr(bytecode.OP_LOAD_VAR, "pair"), // 31
			bytecode.OpInt(bytecode.OP_PUSH_CONST, 0),    // 32
			bytecode.Op(bytecode.OP_INDEX),               // 33
			bytecode.OpStrInt(bytecode.OP_CALL, "", 0),   // 34
			bytecode.Op(bytecode.OP_POP),                 // 35

			bytecode.OpStr(bytecode.OP_LOAD_VAR, "pair"), // 36
			bytecode.OpInt(bytecode.OP_PUSH_CONST, 0),    // 37
			bytecode.Op(bytecode.OP_INDEX),               // 38
			bytecode.OpStrInt(bytecode.OP_CALL, "", 0),   // 39
			bytecode.Op(bytecode.OP_POP),                 // 40

			bytecode.OpStr(bytecode.OP_LOAD_VAR, "pair"), // 41
			bytecode.OpInt(bytecode.OP_PUSH_CONST, 1),    // 42: index 1 (get)
			bytecode.Op(bytecode.OP_INDEX),               // 43
			bytecode.OpStrInt(bytecode.OP_CALL, "", 0),   // 44
			bytecode.Op(bytecode.OP_HALT),                // 45
		},
	}

	vm := New(prog, env.New())
	got, err := vm.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := value.NewInt64(3)
	if !got.Equal(want) {
		t.Errorf("get(): expected %v, got %v", want, got)
	}
	if n := vm.Closures.SharedCount(); n > 1 {
		t.Errorf("expected at most one shared variable for count, got %d", n)
	}
}

// Package interp implements the bytecode interpreter of spec.md §4.1: the
// evaluation stack, call-frame discipline, and opcode dispatch loop tying
// together package value, env, bytecode, registry, closure, and errmach.
// Grounded on the teacher's vm.VM dispatch loop (vm/vm.go's RunTask switch
// over opcodes) generalized from MOO verb execution to a closed bytecode
// enumeration.
package interp

import (
	"fmt"

	"embervm/bytecode"
	"embervm/closure"
	"embervm/env"
	"embervm/errmach"
	"embervm/registry"
	"embervm/value"
)

// NativeFunc is a registered native callable (spec.md §6): validated natives
// carry their own arity/type check before invocation, builtins do not.
type NativeFunc func(args []value.Value) (value.Value, error)

type nativeEntry struct {
	fn        NativeFunc
	validated bool
	arity     int // -1 = unchecked
}

// ModuleLoader resolves IMPORT_* sequences into Module values (spec.md
// §4.4). Defined here rather than taken as a concrete package moduleloader
// type so package interp never needs to import package moduleloader — the
// dependency points the other way, moduleloader imports interp to
// instantiate the child VM an import requires.
type ModuleLoader interface {
	Load(path string) (value.ModuleValue, error)
}

// ParallelRunner executes BEGIN_PARALLEL/BEGIN_CONCURRENT block opcodes
// (spec.md §4.6). Defined as an interface for the same reason as
// ModuleLoader: package concurrency depends on package interp (to spin up
// task VMs, themselves *Interpreter instances), so interp cannot import
// concurrency back — grounded on the teacher's own ForkCreator interface in
// task/task.go, which solves exactly this shape of problem between task.Task
// and package server.
type ParallelRunner interface {
	BeginBlock(kind string, params string) error
	BeginTask(varName string)
	StoreIterable(iterable value.Value) error
	EndTask()
	EndBlock() error
}

// CallTracer observes CALL/RETURN traffic without participating in it —
// grounded on the teacher's trace.Tracer (verb-call/verb-return/exception
// logging), generalized from MOO verb dispatch to this VM's function calls.
// Defined here for the same reason as ModuleLoader/ParallelRunner: package
// trace depends only on package value, so interp importing trace would be
// fine either way, but keeping the interface local means a Tracer can be
// swapped for a test double without pulling package trace into every caller.
type CallTracer interface {
	Call(name string, args []value.Value)
	Return(name string, result value.Value)
	Error(name string, err error)
}

// Interpreter is one VM instance (spec.md §4.1): single-threaded
// cooperative execution, not safe to share across goroutines. Parallelism
// is achieved by instantiating additional *Interpreter instances as task
// VMs (package concurrency), each owning its own stack/frames/ip.
type Interpreter struct {
	Program *bytecode.Program
	Funcs   *registry.FunctionRegistry
	Classes *registry.ClassRegistry
	Closures *closure.Tracker
	Errors  *errmach.Machine
	Globals *env.Environment

	Natives map[string]nativeEntry

	Loader  ModuleLoader
	Runner  ParallelRunner
	Tracer  CallTracer

	stack  []value.Value
	frames []CallFrame
	ip     int

	curEnv *env.Environment

	definitionStack []string // names of BEGIN_FUNCTION currently being skipped at top level
	classStack      []string // class names currently between BEGIN_CLASS/END_CLASS
	returnsSinceGC  int

	lastError value.ErrorValue // for PROPAGATE_ERROR's "or last thrown exception"
	instrCount int64

	moduleCache           map[string]value.ModuleValue
	importSeq             *importSequence
	resolvedModuleFuncs   map[string]value.ModuleFunctionValue // spec.md §4.4's "by-name lookup... if previously resolved"
}

// New builds an Interpreter ready to run prog. globals is the root
// environment new bindings are defined into at the top level.
func New(prog *bytecode.Program, globals *env.Environment) *Interpreter {
	i := &Interpreter{
		Program:  prog,
		Funcs:    registry.NewFunctionRegistry(),
		Classes:  registry.NewClassRegistry(),
		Closures: closure.NewTracker(),
		Errors:   errmach.NewMachine(),
		Globals:  globals,
		Natives:             make(map[string]nativeEntry),
		curEnv:              globals,
		moduleCache:         make(map[string]value.ModuleValue),
		resolvedModuleFuncs: make(map[string]value.ModuleFunctionValue),
	}
	runPrepass(prog, i.Funcs)
	return i
}

// --- value stack -----------------------------------------------------

func (i *Interpreter) push(v value.Value) { i.stack = append(i.stack, v) }

func (i *Interpreter) pop() value.Value {
	if len(i.stack) == 0 {
		return value.Nil
	}
	v := i.stack[len(i.stack)-1]
	i.stack = i.stack[:len(i.stack)-1]
	return v
}

func (i *Interpreter) peek() value.Value {
	if len(i.stack) == 0 {
		return value.Nil
	}
	return i.stack[len(i.stack)-1]
}

// Push and TruncateTo implement errmach.ValueStack so Errors.Propagate can
// unwind this interpreter's stack directly.
func (i *Interpreter) Push(v value.Value) { i.push(v) }

func (i *Interpreter) TruncateTo(base int) {
	if base < 0 {
		base = 0
	}
	if base > len(i.stack) {
		base = len(i.stack)
	}
	i.stack = i.stack[:base]
}

func (i *Interpreter) StackLen() int { return len(i.stack) }

// DefineInCurrentScope lets a ParallelRunner bind a value (e.g. a block's
// output channel, spec.md §4.6's `ch=name` parameter) into the interpreter's
// current scope without exposing curEnv itself outside the package.
func (i *Interpreter) DefineInCurrentScope(name string, v value.Value) {
	i.curEnv.Define(name, v, env.Public)
}

// CurrentEnv exposes the current environment read-only, so a ParallelRunner
// can give a task VM its own child environment of this VM's current scope
// (spec.md §4.6's Task VM).
func (i *Interpreter) CurrentEnv() *env.Environment { return i.curEnv }

// Step appends instr to the program and dispatches it immediately outside
// the normal Run loop, for a REPL's one-line-at-a-time session. It reports
// whatever is left on top of the stack after the instruction runs, or nil
// if the stack is empty. Control-flow opcodes that jump relative to a
// fixed program (JUMP, CALL/RETURN) are not meaningful one at a time and
// are not exercised by the repl command.
func (i *Interpreter) Step(instr bytecode.Instruction) (value.Value, error) {
	i.Program.Instructions = append(i.Program.Instructions, instr)
	i.ip = len(i.Program.Instructions)
	if _, err := i.step(instr); err != nil {
		return nil, err
	}
	if len(i.stack) == 0 {
		return nil, nil
	}
	return i.peek(), nil
}

// RuntimeError is a fatal, unhandled condition terminating the current
// top-level execute (spec.md §7).
type RuntimeError struct {
	Message string
}

func (e *RuntimeError) Error() string { return e.Message }

func fatalf(format string, args ...interface{}) error {
	return &RuntimeError{Message: fmt.Sprintf(format, args...)}
}

// Run executes from the current instruction pointer until HALT, end of
// bytecode, or a fatal error, returning whatever sits on top of the stack
// (or Nil if the stack is empty) as the program's result.
func (i *Interpreter) Run() (value.Value, error) {
	instrs := i.Program.Instructions
	for i.ip < len(instrs) {
		instr := instrs[i.ip]
		i.instrCount++
		i.Closures.OnInstruction()

		if len(i.definitionStack) > 0 {
			if err := i.stepSkippingBody(instr); err != nil {
				return value.Nil, err
			}
			i.ip++
			continue
		}

		halt, err := i.step(instr)
		if err != nil {
			if rerr, ok := err.(*RuntimeError); ok {
				return value.Nil, rerr
			}
			return value.Nil, err
		}
		if halt {
			break
		}
		i.ip++
	}
	if len(i.stack) == 0 {
		return value.Nil, nil
	}
	return i.peek(), nil
}

// stepSkippingBody implements "skipping function bodies during definition"
// (spec.md §4.1): while a BEGIN_FUNCTION name sits on the definition stack,
// only parameter-definition opcodes and the matching END_FUNCTION execute;
// everything else is a no-op.
func (i *Interpreter) stepSkippingBody(instr bytecode.Instruction) error {
	switch instr.Op {
	case bytecode.OP_BEGIN_FUNCTION:
		i.definitionStack = append(i.definitionStack, instr.StringValue)
	case bytecode.OP_END_FUNCTION:
		if n := len(i.definitionStack); n > 0 {
			i.definitionStack = i.definitionStack[:n-1]
		}
	case bytecode.OP_DEFINE_PARAM, bytecode.OP_DEFINE_OPTIONAL_PARAM, bytecode.OP_SET_DEFAULT_VALUE:
		// Harmless no-ops outside a fresh registration; parameter lists were
		// already captured by scanFunctionSignature when this function's
		// BEGIN_FUNCTION was first reached (see execBeginFunction).
	}
	return nil
}

// step dispatches a single instruction. halt reports whether execution
// should stop (OP_HALT).
func (i *Interpreter) step(instr bytecode.Instruction) (halt bool, err error) {
	switch instr.Op {
	case bytecode.OP_NOP:
		return false, nil
	case bytecode.OP_HALT:
		return true, nil

	case bytecode.OP_PUSH_CONST:
		if instr.IntValue < 0 || int(instr.IntValue) >= len(i.Program.Constants) {
			return false, fatalf("PUSH_CONST: constant index %d out of range", instr.IntValue)
		}
		i.push(i.Program.Constants[instr.IntValue])
		return false, nil
	case bytecode.OP_POP:
		i.pop()
		return false, nil
	case bytecode.OP_DUP:
		i.push(i.peek())
		return false, nil

	case bytecode.OP_STORE_VAR:
		return false, i.execStoreVar(instr.StringValue)
	case bytecode.OP_LOAD_VAR:
		return false, i.execLoadVar(instr.StringValue)
	case bytecode.OP_INTERPOLATE_STRING:
		return false, i.execInterpolate(int(instr.IntValue))

	case bytecode.OP_ADD, bytecode.OP_SUB, bytecode.OP_MUL, bytecode.OP_DIV, bytecode.OP_MOD:
		return false, i.execArith(instr.Op)
	case bytecode.OP_NEG:
		return false, i.execNeg()

	case bytecode.OP_EQ, bytecode.OP_NE, bytecode.OP_LT, bytecode.OP_LE, bytecode.OP_GT, bytecode.OP_GE:
		return false, i.execCompare(instr.Op)

	case bytecode.OP_AND, bytecode.OP_OR:
		return false, i.execLogical(instr.Op)
	case bytecode.OP_NOT:
		v := i.pop()
		i.push(value.NewBool(!value.Truthy(v)))
		return false, nil

	case bytecode.OP_JUMP:
		i.ip += int(instr.IntValue) - 1
		return false, nil
	case bytecode.OP_JUMP_IF_FALSE:
		if !value.Truthy(i.pop()) {
			i.ip += int(instr.IntValue) - 1
		}
		return false, nil
	case bytecode.OP_JUMP_IF_TRUE:
		if value.Truthy(i.pop()) {
			i.ip += int(instr.IntValue) - 1
		}
		return false, nil

	case bytecode.OP_BEGIN_FUNCTION:
		return false, i.execBeginFunction(instr)
	case bytecode.OP_END_FUNCTION:
		return false, nil
	case bytecode.OP_DEFINE_PARAM, bytecode.OP_DEFINE_OPTIONAL_PARAM, bytecode.OP_SET_DEFAULT_VALUE:
		return false, nil
	case bytecode.OP_CALL:
		return false, i.execCall(instr)
	case bytecode.OP_RETURN:
		return i.execReturn()

	case bytecode.OP_PUSH_LAMBDA:
		return false, i.execPushLambda(instr.StringValue)
	case bytecode.OP_CAPTURE_VAR:
		return false, i.execCaptureVar(instr.StringValue)
	case bytecode.OP_CREATE_CLOSURE:
		return false, i.execCreateClosure(int(instr.IntValue))

	case bytecode.OP_BEGIN_CLASS:
		return false, i.execBeginClass(instr.StringValue)
	case bytecode.OP_END_CLASS:
		return false, i.execEndClass()
	case bytecode.OP_DEFINE_FIELD:
		return false, i.execDefineField(instr.StringValue)
	case bytecode.OP_SET_SUPERCLASS:
		return false, i.execSetSuperclass(instr.StringValue)
	case bytecode.OP_GET_PROPERTY:
		return false, i.execGetProperty(instr.StringValue)
	case bytecode.OP_SET_PROPERTY:
		return false, i.execSetProperty(instr.StringValue)

	case bytecode.OP_CHECK_ERROR:
		return false, i.execCheckError()
	case bytecode.OP_CONSTRUCT_ERROR:
		return false, i.execConstructError(instr)
	case bytecode.OP_CONSTRUCT_OK:
		return false, i.execConstructOk()
	case bytecode.OP_IS_ERROR:
		return false, i.execIsError()
	case bytecode.OP_IS_SUCCESS:
		return false, i.execIsSuccess()
	case bytecode.OP_UNWRAP_VALUE:
		return false, i.execUnwrapValue()
	case bytecode.OP_PROPAGATE_ERROR:
		return false, i.execPropagateError()

	case bytecode.OP_IMPORT_MODULE, bytecode.OP_IMPORT_ALIAS, bytecode.OP_IMPORT_FILTER_SHOW,
		bytecode.OP_IMPORT_FILTER_HIDE, bytecode.OP_IMPORT_ADD_IDENTIFIER, bytecode.OP_IMPORT_EXECUTE:
		return false, i.execImportOp(instr)

	case bytecode.OP_BEGIN_PARALLEL, bytecode.OP_BEGIN_CONCURRENT:
		return false, i.execBeginBlock(instr)
	case bytecode.OP_END_PARALLEL, bytecode.OP_END_CONCURRENT:
		return false, i.execEndBlock()
	case bytecode.OP_BEGIN_TASK:
		return false, i.execBeginTask(instr.StringValue)
	case bytecode.OP_STORE_ITERABLE:
		return false, i.execStoreIterable()
	case bytecode.OP_END_TASK:
		return false, i.execEndTask()

	case bytecode.OP_MATCH_PATTERN:
		return false, i.execMatchPattern()

	case bytecode.OP_MAKE_LIST:
		return false, i.execMakeList(int(instr.IntValue))
	case bytecode.OP_MAKE_DICT:
		return false, i.execMakeDict(int(instr.IntValue))
	case bytecode.OP_MAKE_TUPLE:
		return false, i.execMakeTuple(int(instr.IntValue))
	case bytecode.OP_INDEX:
		return false, i.execIndex()
	case bytecode.OP_INDEX_SET:
		return false, i.execIndexSet()
	case bytecode.OP_LENGTH:
		return false, i.execLength()

	default:
		return false, fatalf("unhandled opcode %s at %d", instr.Op, i.ip)
	}
}

func (i *Interpreter) execStoreVar(name string) error {
	v := i.pop()
	if existing, ok := i.curEnv.Get(name); ok {
		if atomic, isAtomic := existing.(value.AtomicValue); isAtomic {
			// "if the existing binding is Atomic, the store becomes a
			// fetch_store" (spec.md §4.1).
			if nv, ok := value.AsInt64(v); ok {
				atomic.Store(nv)
				return nil
			}
		}
	}
	if !i.curEnv.Assign(name, v) {
		i.curEnv.Define(name, v, env.Private)
	}
	return nil
}

func (i *Interpreter) execLoadVar(name string) error {
	v, ok := i.curEnv.Get(name)
	if !ok {
		return fatalf("undefined variable %q", name)
	}
	i.push(v)
	return nil
}

func (i *Interpreter) execInterpolate(n int) error {
	if n < 0 || n > len(i.stack) {
		return fatalf("INTERPOLATE_STRING: invalid count %d", n)
	}
	parts := make([]string, n)
	vals := i.stack[len(i.stack)-n:]
	for idx, v := range vals {
		parts[idx] = v.String()
	}
	i.stack = i.stack[:len(i.stack)-n]
	out := ""
	for _, p := range parts {
		out += p
	}
	i.push(value.NewString(out))
	return nil
}

package concurrency

import (
	"sync/atomic"

	"embervm/bytecode"
	"embervm/env"
	"embervm/interp"
	"embervm/value"
)

// TaskVM is a subordinate interpreter instance spawned for one element of a
// parallel/concurrent block's iterable (spec.md §4.6): it shares the
// spawning VM's function/class registries, closure tracker, natives, and
// module loader, but gets its own environment, a child of the spawning
// VM's current environment, and its own error-frame machine, since a
// VM instance's stack/env/ip are never shared across goroutines (spec.md
// §5). Grounded on the teacher's task.Task (task/task.go): an independently
// scheduled unit of work carrying its own state and a cooperative
// cancellation flag, generalized from MOO's suspend/resume/fork protocol to
// a one-shot goroutine-backed computation.
type TaskVM struct {
	vm      *interp.Interpreter
	varName string
	value   value.Value

	body func() (value.Value, error)

	result value.Value
	err    error

	done      chan struct{}
	resultCh  *Channel
	errCh     *Channel
	collector *ErrorCollector
	cancelled int32
	attempt   int
}

// NewTaskVM builds a task VM bound to one iteration of a parallel/concurrent
// block. The instruction encoding this VM executes (spec.md §6) has no
// opcode carrying a per-task bytecode span, so every task's sub-VM runs the
// "simple task" default spec.md §4.6 names explicitly: a tiny three-
// instruction program — PUSH_CONST the loop value, CALL print, HALT — built
// fresh per task and actually executed by sub.Run(), rather than merely
// logged. Tests override body directly to exercise the error/retry/timeout
// paths a real per-task body would trigger.
func NewTaskVM(parent *interp.Interpreter, varName string, v value.Value, resultCh, errCh *Channel, collector *ErrorCollector) *TaskVM {
	childEnv := env.NewChild(parent.CurrentEnv())
	defaultProg := &bytecode.Program{
		Constants: []value.Value{v},
		Instructions: []bytecode.Instruction{
			bytecode.OpInt(bytecode.OP_PUSH_CONST, 0),
			bytecode.OpStrInt(bytecode.OP_CALL, "print", 1),
			bytecode.Op(bytecode.OP_HALT),
		},
	}
	sub := interp.New(defaultProg, childEnv)
	sub.Funcs = parent.Funcs
	sub.Classes = parent.Classes
	sub.Closures = parent.Closures
	sub.Natives = parent.Natives
	sub.Loader = parent.Loader
	sub.Runner = parent.Runner
	sub.Tracer = parent.Tracer
	childEnv.Define(varName, v, env.Private)

	t := &TaskVM{vm: sub, varName: varName, value: v, done: make(chan struct{}), resultCh: resultCh, errCh: errCh, collector: collector}
	t.body = func() (value.Value, error) {
		if _, err := sub.Run(); err != nil {
			return nil, err
		}
		return v, nil
	}
	return t
}

// shouldCancel implements spec.md §5's cooperative cancellation check: the
// task's own flag, checked at the start of execution and before completion.
func (t *TaskVM) shouldCancel() bool { return atomic.LoadInt32(&t.cancelled) != 0 }

// Cancel sets the cooperative-cancellation flag. A task already past its
// last check point still runs to completion; its result is then discarded
// by the block's grace-period handling, not by this flag.
func (t *TaskVM) Cancel() { atomic.StoreInt32(&t.cancelled, 1) }

func (t *TaskVM) Done() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *TaskVM) Err() error { return t.err }

func (t *TaskVM) Result() value.Value { return t.result }

// Reset clears the completion state of a failed task so it can be
// resubmitted for another attempt (spec.md §4.6's Retry strategy) while
// keeping its body — and therefore the computation that actually failed —
// intact. Constructing a fresh TaskVM instead would silently replace a
// real per-task body with NewTaskVM's print-the-loop-variable default.
func (t *TaskVM) Reset() {
	t.done = make(chan struct{})
	t.result = nil
	t.err = nil
	atomic.StoreInt32(&t.cancelled, 0)
}

// Run executes the task body to completion. On success the result is sent
// to the block's result channel (if any) and the task completes; on error
// it's forwarded to both the error collector and the error channel, and the
// task completes with a null result (spec.md §4.6's Task VM section).
func (t *TaskVM) Run() {
	defer close(t.done)
	if t.shouldCancel() {
		return
	}
	result, err := t.body()
	if t.shouldCancel() {
		return
	}
	if err != nil {
		t.err = err
		ev := value.ErrorValue{ErrorType: "TaskError", Message: err.Error()}
		if t.collector != nil {
			t.collector.Add(ev)
		}
		if t.errCh != nil {
			t.errCh.Send(value.Fail(ev))
		}
		return
	}
	t.result = result
	if t.resultCh != nil {
		t.resultCh.Send(result)
	}
}

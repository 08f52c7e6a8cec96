package concurrency

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"embervm/interp"
	"embervm/internal/diag"
	"embervm/value"
)

// DefaultRetryLimit is the implementation-defined cap on Retry-strategy
// resubmission spec.md §4.6 leaves to the implementation ("the spec does
// not mandate a specific count; record it as a configured constant") —
// resolved in SPEC_FULL.md's Open Questions as 3, overridable via
// config.RetryLimit.
const DefaultRetryLimit = 3

type taskContext struct {
	varName string
	value   value.Value
}

// BlockExecutionState is one entry on the per-VM block stack (spec.md
// §4.6's BlockExecutionState): the parsed BEGIN_PARALLEL/BEGIN_CONCURRENT
// parameters plus the task contexts and running task VMs accumulated by
// BEGIN_TASK/STORE_ITERABLE/END_TASK.
type BlockExecutionState struct {
	Kind      string // "parallel" | "concurrent"
	Channel   string
	chanRef   *Channel
	errChan   *Channel
	Mode      string // batch | stream | async
	Cores     int    // 0 = Auto
	OnError   string // Stop | Auto | Retry
	TimeoutMS int
	GraceMS   int
	OnTimeout string // partial | error

	varName  string
	contexts []taskContext
	running  []*TaskVM
	collector *ErrorCollector
}

// Runner implements interp.ParallelRunner (spec.md §4.6), owning one VM's
// block stack plus the shared scheduler/pool/channel-manager it submits
// tasks through. Grounded on the teacher's ForkCreator-shaped split between
// package task and package server (vm.go depends on an interface rather
// than importing task directly) — the same shape interp.ParallelRunner
// already uses to avoid interp importing concurrency.
type Runner struct {
	vm         *interp.Interpreter
	pool       *WorkStealingPool
	sched      *Scheduler
	chans      *ChannelManager
	retryLimit int

	blocks []*BlockExecutionState
}

// NewRunner builds a Runner for vm. retryLimit<=0 resolves to
// DefaultRetryLimit.
func NewRunner(vm *interp.Interpreter, pool *WorkStealingPool, sched *Scheduler, chans *ChannelManager, retryLimit int) *Runner {
	if retryLimit <= 0 {
		retryLimit = DefaultRetryLimit
	}
	return &Runner{vm: vm, pool: pool, sched: sched, chans: chans, retryLimit: retryLimit}
}

func (r *Runner) current() *BlockExecutionState {
	if len(r.blocks) == 0 {
		return nil
	}
	return r.blocks[len(r.blocks)-1]
}

// parseBlockParams parses BEGIN_PARALLEL/BEGIN_CONCURRENT's `key=value,...`
// parameter string (spec.md §4.6/§6).
func parseBlockParams(s string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		out[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return out
}

func (r *Runner) BeginBlock(kind string, params string) error {
	p := parseBlockParams(params)
	st := &BlockExecutionState{
		Kind:      kind,
		Mode:      "batch",
		OnError:   "Auto",
		OnTimeout: "partial",
		collector: NewErrorCollector(),
	}
	if v := p["mode"]; v != "" {
		st.Mode = v
	}
	if v := p["on_error"]; v != "" {
		st.OnError = v
	}
	if v := p["on_timeout"]; v != "" {
		st.OnTimeout = v
	}
	if v := p["cores"]; v != "" && !strings.EqualFold(v, "Auto") {
		if n, err := strconv.Atoi(v); err == nil {
			st.Cores = n
		}
	}
	if v := p["timeout"]; v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			st.TimeoutMS = n
		}
	}
	if v := p["grace"]; v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			st.GraceMS = n
		}
	}
	if name := p["ch"]; name != "" && r.chans != nil {
		st.Channel = name
		st.chanRef = r.chans.Create(name)
		r.vm.DefineInCurrentScope(name, value.NewChannel(st.chanRef))
	}
	st.errChan = NewChannel(fmt.Sprintf("__errors_%d__", len(r.blocks)))

	r.blocks = append(r.blocks, st)
	return nil
}

func (r *Runner) BeginTask(varName string) {
	if st := r.current(); st != nil {
		st.varName = varName
	}
}

// iterableElements enumerates the elements STORE_ITERABLE generates one
// task context per (spec.md §4.6): lists and tuples by element, dicts by
// key.
func iterableElements(v value.Value) ([]value.Value, error) {
	switch val := v.(type) {
	case *value.List:
		return val.Elements(), nil
	case *value.Tuple:
		return val.Elements(), nil
	case *value.Dict:
		out := make([]value.Value, 0, val.Len())
		for _, pair := range val.Pairs() {
			out = append(out, pair[0])
		}
		return out, nil
	default:
		return nil, fmt.Errorf("STORE_ITERABLE: %s is not iterable", v.Type())
	}
}

func (r *Runner) StoreIterable(iterable value.Value) error {
	st := r.current()
	if st == nil {
		return fmt.Errorf("STORE_ITERABLE outside a parallel/concurrent block")
	}
	elems, err := iterableElements(iterable)
	if err != nil {
		return err
	}
	for _, e := range elems {
		st.contexts = append(st.contexts, taskContext{varName: st.varName, value: e})
	}
	return nil
}

// submit hands one task VM's Run to the pool (respecting `cores`), falling
// back to the scheduler's global queue, and finally a bare goroutine if
// neither is configured.
func (r *Runner) submit(st *BlockExecutionState, tv *TaskVM, workerHint int) {
	task := Task{Run: tv.Run}
	switch {
	case r.pool != nil:
		worker := 0
		if st.Cores > 0 {
			worker = workerHint % st.Cores
		}
		r.pool.SubmitToWorker(worker, task)
	case r.sched != nil:
		r.sched.Submit(task)
	default:
		go task.Run()
	}
}

// EndTask submits every accumulated task context to the scheduler, wrapping
// each in a task VM (spec.md §4.6: "END_TASK submits each context to the
// scheduler by wrapping it in a task VM").
func (r *Runner) EndTask() {
	st := r.current()
	if st == nil {
		return
	}
	for idx, ctx := range st.contexts {
		tv := NewTaskVM(r.vm, ctx.varName, ctx.value, st.chanRef, st.errChan, st.collector)
		st.running = append(st.running, tv)
		r.submit(st, tv, idx)
	}
	st.contexts = nil
}

func allDone(tasks []*TaskVM) bool {
	for _, t := range tasks {
		if !t.Done() {
			return false
		}
	}
	return true
}

// waitForTasks polls completion with 1ms sleeps (spec.md §5's
// waitForTasksToComplete), entering a grace-period poll at the same cadence
// once the deadline passes, then retrying failed tasks (OnError=="Retry")
// up to the configured limit, and finally cancelling anything still running.
func (r *Runner) waitForTasks(st *BlockExecutionState) {
	pollUntil := func(deadline time.Time) bool {
		for {
			if allDone(st.running) {
				return true
			}
			if !deadline.IsZero() && time.Now().After(deadline) {
				return false
			}
			time.Sleep(time.Millisecond)
		}
	}

	var deadline time.Time
	if st.TimeoutMS > 0 {
		deadline = time.Now().Add(time.Duration(st.TimeoutMS) * time.Millisecond)
	}
	if !pollUntil(deadline) {
		grace := time.Now().Add(time.Duration(st.GraceMS) * time.Millisecond)
		pollUntil(grace)
	}

	if st.OnError == "Retry" {
		for {
			pollUntil(time.Time{}) // wait out the in-flight round before judging failures
			if !r.retryFailed(st) {
				break
			}
		}
	}

	if !allDone(st.running) {
		if st.OnTimeout == "error" {
			st.collector.Add(value.ErrorValue{ErrorType: "TimeoutError", Message: "parallel block timed out"})
		}
		for _, tv := range st.running {
			if !tv.Done() {
				tv.Cancel()
			}
		}
	}
}

// retryFailed resubmits every failed, not-yet-retried-out task, grounded on
// spec.md §4.6's Retry strategy ("failed tasks are resubmitted up to an
// implementation-defined limit"). Each task is reset and resubmitted in
// place — never replaced by a fresh TaskVM — so the body that actually
// failed runs again rather than NewTaskVM's default body. Returns true if
// any task was resubmitted.
func (r *Runner) retryFailed(st *BlockExecutionState) bool {
	resubmitted := false
	for idx, tv := range st.running {
		if !tv.Done() || tv.Err() == nil {
			continue
		}
		if tv.attempt >= r.retryLimit {
			continue
		}
		tv.attempt++
		tv.Reset()
		r.submit(st, tv, idx)
		resubmitted = true
		diag.Printf("SCHED", "retrying task %s (attempt %d/%d)", tv.varName, tv.attempt, r.retryLimit)
	}
	return resubmitted
}

// EndBlock waits for the current block's tasks (respecting timeout/grace),
// closes its output channel, and reports a Stop-strategy failure.
func (r *Runner) EndBlock() error {
	n := len(r.blocks)
	if n == 0 {
		return fmt.Errorf("END_PARALLEL/END_CONCURRENT without a matching BEGIN")
	}
	st := r.blocks[n-1]
	r.blocks = r.blocks[:n-1]

	r.waitForTasks(st)

	if st.chanRef != nil {
		st.chanRef.Close()
	}
	st.errChan.Close()

	if st.collector.HasErrors() && st.OnError == "Stop" {
		return fmt.Errorf("%s block failed: %v", st.Kind, st.collector.Errors())
	}
	return nil
}

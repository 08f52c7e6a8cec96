package concurrency

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkStealingPoolRunsSubmittedTasks(t *testing.T) {
	pool := NewWorkStealingPool(4, nil)
	defer pool.Shutdown()

	var n int64
	var wg sync.WaitGroup
	wg.Add(20)
	for i := 0; i < 20; i++ {
		pool.SubmitToWorker(i%4, Task{Run: func() {
			atomic.AddInt64(&n, 1)
			wg.Done()
		}})
	}

	doneCh := make(chan struct{})
	go func() { wg.Wait(); close(doneCh) }()
	select {
	case <-doneCh:
	case <-time.After(2 * time.Second):
		t.Fatalf("not all tasks ran within the timeout")
	}
	if atomic.LoadInt64(&n) != 20 {
		t.Errorf("got %d completions, want 20", n)
	}
}

func TestWorkStealingPoolStealsFromBusyWorker(t *testing.T) {
	pool := NewWorkStealingPool(2, nil)
	defer pool.Shutdown()

	var wg sync.WaitGroup
	wg.Add(10)
	// Pile every task onto worker 0; worker 1 should steal from its back.
	for i := 0; i < 10; i++ {
		pool.SubmitToWorker(0, Task{Run: func() {
			time.Sleep(time.Millisecond)
			wg.Done()
		}})
	}

	doneCh := make(chan struct{})
	go func() { wg.Wait(); close(doneCh) }()
	select {
	case <-doneCh:
	case <-time.After(2 * time.Second):
		t.Fatalf("tasks piled on one worker never completed, stealing likely broken")
	}
}

func TestWorkStealingPoolSwallowsPanickingTask(t *testing.T) {
	pool := NewWorkStealingPool(1, nil)
	defer pool.Shutdown()

	var ran int32
	pool.SubmitToWorker(0, Task{Run: func() { panic("boom") }})
	pool.SubmitToWorker(0, Task{Run: func() { atomic.StoreInt32(&ran, 1) }})

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&ran) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if atomic.LoadInt32(&ran) == 0 {
		t.Fatalf("a panicking task should not prevent subsequent tasks from running")
	}
}

func TestSingleWorkerRunsTaskFromSchedulerGlobalQueue(t *testing.T) {
	sched := NewScheduler(8)
	pool := NewWorkStealingPool(1, sched)
	defer pool.Shutdown()

	done := make(chan struct{})
	sched.Submit(Task{Run: func() { close(done) }})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("worker never picked up a task from the scheduler's global queue")
	}
}

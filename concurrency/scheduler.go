package concurrency

// Task is one unit of work the scheduler or a worker's deque carries:
// running it executes a task VM to completion.
type Task struct {
	Run func()
}

// Scheduler is a thin ownership layer over a single global task channel
// (spec.md §4.6's Scheduler): submit sends, getNextTask receives, shutdown
// closes the channel. Workers poll it only when their local queue is empty
// and stealing failed.
type Scheduler struct {
	tasks chan Task
}

func NewScheduler(buffer int) *Scheduler {
	return &Scheduler{tasks: make(chan Task, buffer)}
}

func (s *Scheduler) Submit(t Task) {
	s.tasks <- t
}

// GetNextTask receives without blocking; ok is false if the global queue is
// currently empty (not closed).
func (s *Scheduler) GetNextTask() (Task, bool) {
	select {
	case t, open := <-s.tasks:
		if !open {
			return Task{}, false
		}
		return t, true
	default:
		return Task{}, false
	}
}

// Shutdown closes the task channel; an in-flight Submit after Shutdown
// panics, matching a closed Go channel's own send-after-close behavior.
func (s *Scheduler) Shutdown() {
	close(s.tasks)
}

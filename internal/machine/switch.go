// internal/machine/switch.go

package machine

import (
	"fmt"
	"runtime"
	"sync"

	"mlfq/internal/sched"
)

// thread is the goroutine backing one task. wake carries the baton.
type thread struct {
	wake    chan struct{}
	entry   func()
	started bool
}

// Machine runs every task on its own goroutine and passes a single baton
// between them, so exactly one task executes at any time. Switch is the
// context switch primitive the scheduler calls.
type Machine struct {
	mu      sync.Mutex // protects threads
	threads map[sched.TaskID]*thread

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a machine with no threads.
func New() *Machine {
	return &Machine{
		threads: make(map[sched.TaskID]*thread),
		stop:    make(chan struct{}),
	}
}

// Adopt binds t to the calling goroutine, which is already running.
func (m *Machine) Adopt(t *sched.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads[t.ID] = &thread{wake: make(chan struct{}, 1), started: true}
}

// Fork prepares a thread for t. Its goroutine starts the first time t is
// switched to and runs entry; entry must not return while t is RUNNING
// unless the machine has halted.
func (m *Machine) Fork(t *sched.Task, entry func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads[t.ID] = &thread{wake: make(chan struct{}, 1), entry: entry}
}

// Switch hands the processor from old to next. It returns once another
// Switch hands it back to old. A FINISHED old task never gets it back:
// its goroutine exits here.
func (m *Machine) Switch(old, next *sched.Task) {
	m.mu.Lock()
	nt, ok := m.threads[next.ID]
	ot := m.threads[old.ID]
	start := ok && !nt.started
	if start {
		nt.started = true
	}
	m.mu.Unlock()

	if !ok {
		panic(fmt.Sprintf("machine: no thread for task %d", next.ID))
	}
	if ot == nil {
		panic(fmt.Sprintf("machine: no thread for task %d", old.ID))
	}
	finished := old.Status == sched.Finished

	if start {
		go m.begin(nt)
	}
	nt.wake <- struct{}{}

	if finished {
		runtime.Goexit()
	}
	select {
	case <-ot.wake:
	case <-m.stop:
		runtime.Goexit()
	}
}

func (m *Machine) begin(th *thread) {
	select {
	case <-th.wake:
	case <-m.stop:
		return
	}
	th.entry()
}

// Release drops the thread of a destroyed task.
func (m *Machine) Release(t *sched.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.threads, t.ID)
}

// Live returns the number of threads not yet released.
func (m *Machine) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.threads)
}

// Halt stops the machine; parked threads exit instead of resuming.
func (m *Machine) Halt() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Halted is closed once the machine stops.
func (m *Machine) Halted() <-chan struct{} {
	return m.stop
}

// internal/sched/scheduler.go

package sched

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emirpasic/gods/maps/treemap"
)

// Interrupts is the interrupt controller as seen by the scheduler.
type Interrupts interface {
	Disabled() bool
	YieldOnReturn()
}

// Switcher is the machine-dependent context switch. Switch returns only
// when some later hand-off switches back to old.
type Switcher interface {
	Switch(old, next *Task)
}

// destroySlot holds the task that finished on the last hand-off until it
// is safe to destroy it. It is either emptySlot or pendingDestroy.
type destroySlot interface{ isDestroySlot() }

type emptySlot struct{}

type pendingDestroy struct{ task *Task }

func (emptySlot) isDestroySlot()      {}
func (pendingDestroy) isDestroySlot() {}

// Scheduler implements a three-tier multi-level feedback queue.
//
// It takes no locks: every entry point must be called with interrupts
// disabled, which on a single processor gives mutual exclusion.
type Scheduler struct {
	cfg   Config
	clock Clock
	intr  Interrupts
	sw    Switcher

	ready   *readyStore
	tasks   *treemap.Map // TaskID -> *Task, every live task
	current *Task
	slot    destroySlot

	obs       Observer
	log       *slog.Logger
	onDestroy func(*Task)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithObserver streams scheduler events to o.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.obs = o }
}

// WithLogger sets the logger used for hand-offs and contract violations.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithDestroyHook is called for every task when it is finally destroyed.
func WithDestroyHook(fn func(*Task)) Option {
	return func(s *Scheduler) { s.onDestroy = fn }
}

// New creates a new Scheduler with empty ready tiers.
func New(cfg Config, clock Clock, intr Interrupts, sw Switcher, opts ...Option) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scheduler{
		cfg:   cfg,
		clock: clock,
		intr:  intr,
		sw:    sw,
		ready: newReadyStore(),
		tasks: treemap.NewWith(idCmp),
		slot:  emptySlot{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s, nil
}

// Config returns the policy the scheduler was built with.
func (s *Scheduler) Config() Config { return s.cfg }

// Register adds t to the task table. Ids must not be reused while the
// previous owner is alive.
func (s *Scheduler) Register(t *Task) {
	if _, dup := s.tasks.Get(t.ID); dup {
		s.fatal("Register", t, "id already in use")
	}
	s.tasks.Put(t.ID, t)
}

// Lookup returns the live task with the given id.
func (s *Scheduler) Lookup(id TaskID) (*Task, bool) {
	v, ok := s.tasks.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*Task), true
}

// Tasks lists every live task by ascending id.
func (s *Scheduler) Tasks() []*Task {
	out := make([]*Task, 0, s.tasks.Size())
	for _, v := range s.tasks.Values() {
		out = append(out, v.(*Task))
	}
	return out
}

// Current returns the running task.
func (s *Scheduler) Current() *Task { return s.current }

// Start installs t as the running task before the first hand-off.
func (s *Scheduler) Start(t *Task) {
	s.assertIntOff("Start")
	if s.current != nil {
		s.fatal("Start", t, "task %d is already running", s.current.ID)
	}
	if _, ok := s.tasks.Get(t.ID); !ok {
		s.Register(t)
	}
	s.current = t
	t.Status = Running
	t.StartTick = s.clock.Count()
	t.WaitTime = 0
}

// ReadyToRun marks t READY and puts it on the tier its priority selects.
func (s *Scheduler) ReadyToRun(t *Task) {
	s.assertIntOff("ReadyToRun")
	t.Status = Ready
	s.insert(t)
}

// insert places a READY task on its tier and restarts its wait clock.
func (s *Scheduler) insert(t *Task) {
	if t.Status != Ready {
		s.fatal("Insert", t, "status is %s, want READY", t.Status)
	}
	tier := s.cfg.Bands.TierOf(t.Priority)
	if tier == TierNone {
		s.fatal("Insert", t, "priority %d outside [%d,%d]", t.Priority, MinPriority, s.cfg.Bands.Max)
	}
	t.StartWaitTime = s.clock.Count()
	s.ready.insert(tier, t)
	s.Emit(StatusEvent{Kind: StatusEnqueue, TaskID: t.ID, Tier: tier})
}

// FindNextToRun removes and returns the most urgent READY task: the head
// of L1, else L2, else L3. It returns nil when nothing is runnable.
func (s *Scheduler) FindNextToRun() *Task {
	s.assertIntOff("FindNextToRun")
	for _, tier := range []Tier{L1, L2, L3} {
		if t := s.ready.removeFront(tier); t != nil {
			s.Emit(StatusEvent{Kind: StatusDequeue, TaskID: t.ID, Tier: tier})
			return t
		}
	}
	return nil
}

// Run dispatches the processor to next. The caller has already moved the
// current task out of RUNNING. When finishing is set the current task is
// destroyed once we are no longer running on its stack, that is by the
// next task when it resumes (or begins).
func (s *Scheduler) Run(next *Task, finishing bool) {
	s.assertIntOff("Run")
	old := s.current
	if old == nil {
		s.fatal("Run", next, "no current task")
	}

	if finishing {
		if old.Status != Finished {
			s.fatal("Run", old, "finishing with status %s", old.Status)
		}
		if p, busy := s.slot.(pendingDestroy); busy {
			s.fatal("Run", old, "task %d is still waiting to be destroyed", p.task.ID)
		}
		s.slot = pendingDestroy{task: old}
	}

	if old.Space != nil {
		old.Space.SaveState()
	}

	execTime := old.ExecutedTicks()
	now := s.clock.Count()

	s.current = next
	next.Status = Running
	next.StartTick = now
	next.WaitTime = 0

	s.Emit(StatusEvent{Kind: StatusDispatch, TaskID: next.ID, PrevID: old.ID, RanTicks: execTime})
	s.log.Debug("switching",
		"from", old.Name,
		"to", next.Name,
		"executed", execTime,
		"tick", now,
	)

	s.sw.Switch(old, next)
	// we're back, running old

	s.assertIntOff("Run")
	s.checkToBeDestroyed()

	if old.Space != nil {
		old.Space.RestoreState()
	}
}

// Begin runs the first time a new task gets the processor. The hand-off
// that started it never returns to a Run call, so the cleanup Run would do
// on return happens here.
func (s *Scheduler) Begin() {
	s.assertIntOff("Begin")
	s.checkToBeDestroyed()
}

// checkToBeDestroyed destroys the task that finished on the previous
// hand-off, if any.
func (s *Scheduler) checkToBeDestroyed() {
	p, ok := s.slot.(pendingDestroy)
	if !ok {
		return
	}
	s.slot = emptySlot{}
	s.tasks.Remove(p.task.ID)
	s.Emit(StatusEvent{Kind: StatusFinish, TaskID: p.task.ID, RanTicks: p.task.ExecutedTicks()})
	if s.onDestroy != nil {
		s.onDestroy(p.task)
	}
}

// awaitingDestroy reports the task waiting in the destruction slot.
func (s *Scheduler) awaitingDestroy() (*Task, bool) {
	p, ok := s.slot.(pendingDestroy)
	if !ok {
		return nil, false
	}
	return p.task, true
}

// Emit stamps ev and hands it to the observer.
func (s *Scheduler) Emit(ev StatusEvent) {
	if s.obs == nil {
		return
	}
	ev.Time = time.Now()
	ev.Tick = s.clock.Count()
	s.obs.Observe(ev)
}

// Len returns the number of tasks queued on tier.
func (s *Scheduler) Len(tier Tier) int { return s.ready.size(tier) }

// ReadyCount returns the number of READY tasks over all tiers.
func (s *Scheduler) ReadyCount() int {
	return s.ready.size(L1) + s.ready.size(L2) + s.ready.size(L3)
}

// Snapshot lists queued task ids per tier in dequeue order.
type Snapshot struct {
	L1 []TaskID `yaml:"l1"`
	L2 []TaskID `yaml:"l2"`
	L3 []TaskID `yaml:"l3"`
}

// Snapshot captures the current tier membership.
func (s *Scheduler) Snapshot() Snapshot {
	ids := func(tier Tier) []TaskID {
		members := s.ready.members(tier)
		out := make([]TaskID, 0, len(members))
		for _, t := range members {
			out = append(out, t.ID)
		}
		return out
	}
	return Snapshot{L1: ids(L1), L2: ids(L2), L3: ids(L3)}
}

// Print writes the ready tiers, lowest first.
func (s *Scheduler) Print(w io.Writer) {
	fmt.Fprintln(w, "Ready list contents:")
	for _, tier := range []Tier{L3, L2, L1} {
		names := make([]string, 0, s.ready.size(tier))
		for _, t := range s.ready.members(tier) {
			names = append(names, fmt.Sprintf("%s(%d)", t.Name, t.ID))
		}
		fmt.Fprintf(w, "  %s: [%s]\n", tier, strings.Join(names, ", "))
	}
}

// Close empties every tier, reporting each removal. Queued tasks keep
// their status.
func (s *Scheduler) Close() {
	for _, tier := range []Tier{L1, L2, L3} {
		for _, t := range s.ready.members(tier) {
			s.Emit(StatusEvent{Kind: StatusDequeue, TaskID: t.ID, Tier: tier})
		}
	}
	s.ready.clear()
}

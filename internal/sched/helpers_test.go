package sched

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now int64 }

func (c *fakeClock) Count() int64 { return c.now }

type fakeIntr struct {
	enabled bool
	yields  int
}

func (i *fakeIntr) Disabled() bool { return !i.enabled }
func (i *fakeIntr) YieldOnReturn() { i.yields++ }

type switchCall struct{ old, next TaskID }

// fakeSwitch records hand-offs; hook, when set, runs "on the new task"
// before control comes back to the caller of Run.
type fakeSwitch struct {
	calls []switchCall
	hook  func(old, next *Task)
}

func (f *fakeSwitch) Switch(old, next *Task) {
	f.calls = append(f.calls, switchCall{old.ID, next.ID})
	if f.hook != nil {
		h := f.hook
		f.hook = nil
		h(old, next)
	}
}

type eventLog struct{ events []StatusEvent }

func (l *eventLog) Observe(ev StatusEvent) { l.events = append(l.events, ev) }

func (l *eventLog) kinds() []StatusKind {
	out := make([]StatusKind, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Kind)
	}
	return out
}

type fixture struct {
	s     *Scheduler
	clock *fakeClock
	intr  *fakeIntr
	sw    *fakeSwitch
	log   *eventLog
	dead  []TaskID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, DefaultConfig())
}

func newFixtureWith(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{clock: &fakeClock{}, intr: &fakeIntr{}, sw: &fakeSwitch{}, log: &eventLog{}}
	s, err := New(cfg, f.clock, f.intr, f.sw,
		WithObserver(f.log),
		WithDestroyHook(func(t *Task) { f.dead = append(f.dead, t.ID) }),
	)
	require.NoError(t, err)
	f.s = s
	return f
}

// ready registers a task and queues it.
func (f *fixture) ready(id TaskID, priority int, remaining float64) *Task {
	t := NewTask(id, "", priority)
	t.RemainingBurstTime = remaining
	f.s.Register(t)
	f.s.ReadyToRun(t)
	return t
}

// boot installs a running task with the given priority.
func (f *fixture) boot(id TaskID, priority int) *Task {
	t := NewTask(id, "main", priority)
	f.s.Start(t)
	return t
}

func (f *fixture) drain() []TaskID {
	var out []TaskID
	for t := f.s.FindNextToRun(); t != nil; t = f.s.FindNextToRun() {
		out = append(out, t.ID)
	}
	return out
}

// requireViolation runs fn and returns the *ContractError it panicked with.
func requireViolation(t *testing.T, fn func()) (cerr *ContractError) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a contract violation")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		require.True(t, errors.As(err, &cerr), "panic value %v is not a *ContractError", r)
	}()
	fn()
	return nil
}

package machine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlfq/internal/sched"
)

func TestInterruptHandle(t *testing.T) {
	intr := NewInterrupt()
	assert.True(t, intr.Disabled())
	intr.Enable()
	assert.False(t, intr.Disabled())

	var levelInside Level
	yield := intr.Handle(func() {
		levelInside = intr.Level()
		intr.YieldOnReturn()
	})
	assert.True(t, yield)
	assert.Equal(t, IntOff, levelInside)
	assert.Equal(t, IntOn, intr.Level(), "level restored after the handler")

	assert.False(t, intr.Handle(func() {}), "yield request is consumed")
}

func TestYieldOnReturnOutsideHandlerPanics(t *testing.T) {
	assert.Panics(t, func() { NewInterrupt().YieldOnReturn() })
}

func TestUserStateRoundTrip(t *testing.T) {
	u := &UserState{}
	u.Regs[2] = 42
	u.SaveState()
	u.Regs[2] = 7
	u.RestoreState()
	assert.EqualValues(t, 42, u.Regs[2])
	assert.Equal(t, 1, u.Saves)
	assert.Equal(t, 1, u.Restores)
}

// TestSwitchPingPong bounces the baton between two threads and checks that
// only one of them ever runs at a time.
func TestSwitchPingPong(t *testing.T) {
	m := New()
	a := sched.NewTask(1, "a", 10)
	b := sched.NewTask(2, "b", 10)

	var trail []string
	done := make(chan struct{})

	m.Fork(b, func() {
		for i := 0; i < 3; i++ {
			trail = append(trail, "b")
			m.Switch(b, a)
		}
		b.Status = sched.Finished
		m.Switch(b, a)
	})

	go func() {
		defer close(done)
		m.Adopt(a)
		for i := 0; i < 4; i++ {
			trail = append(trail, "a")
			m.Switch(a, b)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("ping-pong did not complete")
	}
	assert.Equal(t, []string{"a", "b", "a", "b", "a", "b", "a"}, trail)
}

func TestSwitchToSelf(t *testing.T) {
	m := New()
	a := sched.NewTask(1, "a", 10)
	m.Adopt(a)

	returned := make(chan struct{})
	go func() {
		m.Switch(a, a)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("switch to self blocked")
	}
}

func TestHaltReleasesParkedThreads(t *testing.T) {
	m := New()
	a := sched.NewTask(1, "a", 10)
	b := sched.NewTask(2, "b", 10)
	m.Fork(b, func() {
		m.Halt()
		<-m.Halted()
	})

	exited := make(chan struct{})
	go func() {
		defer close(exited) // runs on Goexit too
		m.Adopt(a)
		m.Switch(a, b)
		t.Error("parked thread resumed after halt")
	}()

	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("parked thread did not exit")
	}
	require.Equal(t, 2, m.Live())
	m.Release(b)
	assert.Equal(t, 1, m.Live())
}

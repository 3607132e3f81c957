// internal/machine/interrupt.go

package machine

import "fmt"

// Level is the interrupt enable level.
type Level int

const (
	IntOff Level = iota
	IntOn
)

func (l Level) String() string {
	if l == IntOn {
		return "on"
	}
	return "off"
}

// Mode is what the processor is doing when an interrupt arrives.
type Mode int

const (
	IdleMode Mode = iota
	SystemMode
	UserMode
)

func (m Mode) String() string {
	switch m {
	case IdleMode:
		return "idle"
	case SystemMode:
		return "system"
	case UserMode:
		return "user"
	default:
		return "unknown"
	}
}

// Interrupt simulates the interrupt controller of a single processor.
// The machine boots with interrupts disabled.
type Interrupt struct {
	level     Level
	mode      Mode
	inHandler bool
	yield     bool
}

// NewInterrupt returns a controller with interrupts off in system mode.
func NewInterrupt() *Interrupt {
	return &Interrupt{level: IntOff, mode: SystemMode}
}

// SetLevel changes the interrupt level and returns the previous one.
func (i *Interrupt) SetLevel(l Level) Level {
	old := i.level
	i.level = l
	return old
}

// Enable turns interrupts on.
func (i *Interrupt) Enable() { i.SetLevel(IntOn) }

// Level returns the current interrupt level.
func (i *Interrupt) Level() Level { return i.level }

// Disabled reports whether interrupts are masked.
func (i *Interrupt) Disabled() bool { return i.level == IntOff }

// Mode returns the current processor mode.
func (i *Interrupt) Mode() Mode { return i.mode }

// SetMode records what the processor is doing.
func (i *Interrupt) SetMode(m Mode) { i.mode = m }

// YieldOnReturn asks for the interrupted task to yield once the running
// handler returns. Only valid inside a handler.
func (i *Interrupt) YieldOnReturn() {
	if !i.inHandler {
		panic(fmt.Sprintf("machine: YieldOnReturn outside an interrupt handler (level %s)", i.level))
	}
	i.yield = true
}

// Handle runs fn as an interrupt handler: interrupts are off while it
// runs and the previous level is restored afterwards. It reports whether
// the handler asked the interrupted task to yield.
func (i *Interrupt) Handle(fn func()) (yield bool) {
	old := i.SetLevel(IntOff)
	i.inHandler = true
	fn()
	i.inHandler = false
	i.SetLevel(old)

	yield, i.yield = i.yield, false
	return yield
}

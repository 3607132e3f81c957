// internal/trace/console.go

package trace

import (
	"fmt"
	"io"
	"strings"

	"mlfq/internal/sched"
)

// Line renders the debug trace line of a lettered event, or "" for kinds
// that have no letter.
func Line(ev sched.StatusEvent) string {
	switch ev.Kind {
	case sched.StatusEnqueue:
		return fmt.Sprintf("[A] Tick [%d]: Thread [%d] is inserted into queue L[%d]",
			ev.Tick, ev.TaskID, ev.Tier.Level())
	case sched.StatusDequeue:
		return fmt.Sprintf("[B] Tick [%d]: Thread [%d] is removed from queue L[%d]",
			ev.Tick, ev.TaskID, ev.Tier.Level())
	case sched.StatusPriority:
		return fmt.Sprintf("[C] Tick [%d]: Thread [%d] changes its priority from [%d] to [%d]",
			ev.Tick, ev.TaskID, ev.OldPriority, ev.NewPriority)
	case sched.StatusBurstUpdate:
		return fmt.Sprintf("[D] Tick [%d]: Thread [%d] update approximate burst time, from: [%g], add [%g], to [%g]",
			ev.Tick, ev.TaskID, ev.Estimate, ev.RanTicks, ev.NewEstimate)
	case sched.StatusDispatch:
		return fmt.Sprintf("[E] Tick [%d]: Thread [%d] is now selected for execution, thread [%d] is replaced, and it has executed [%g] ticks",
			ev.Tick, ev.TaskID, ev.PrevID, ev.RanTicks)
	}
	return ""
}

// Status renders any event as a one-line status entry.
func Status(ev sched.StatusEvent) string {
	return fmt.Sprintf("%s = Tick: %07d [%s] => Task: %04d",
		ev.Time.Format("Jan 02 15:04:05.000"),
		ev.Tick,
		center(ev.Kind.String(), 16),
		ev.TaskID,
	)
}

// center pads str on both sides to width.
func center(str string, width int) string {
	if len(str) >= width {
		return str
	}
	spaces := (width - len(str)) / 2
	return strings.Repeat(" ", spaces) + str + strings.Repeat(" ", width-(spaces+len(str)))
}

// Console prints the lettered trace to w. With Verbose set, the events
// without a letter (idle, preempt, finish) get a status line as well.
type Console struct {
	w       io.Writer
	Verbose bool
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Observe(ev sched.StatusEvent) {
	// ticks are too frequent to be worth printing
	if ev.Kind == sched.StatusTick {
		return
	}
	if line := Line(ev); line != "" {
		fmt.Fprintln(c.w, line)
		return
	}
	if c.Verbose {
		fmt.Fprintln(c.w, Status(ev))
	}
}

package sched

import (
	"context"
	"fmt"
	"log/slog"
)

// ContractError describes a broken scheduler invariant. The scheduler
// panics with a *ContractError; there is no way to continue safely.
type ContractError struct {
	Op      string
	TaskID  TaskID
	HasTask bool // TaskID is meaningful
	Msg     string
}

func (e *ContractError) Error() string {
	if !e.HasTask {
		return fmt.Sprintf("sched: %s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("sched: %s: task %d: %s", e.Op, e.TaskID, e.Msg)
}

// fatal logs the violation and aborts.
func (s *Scheduler) fatal(op string, t *Task, format string, args ...any) {
	err := &ContractError{Op: op, Msg: fmt.Sprintf(format, args...)}
	attrs := []slog.Attr{slog.String("op", op)}
	if t != nil {
		err.TaskID, err.HasTask = t.ID, true
		attrs = append(attrs, slog.Uint64("task_id", uint64(t.ID)))
	}
	attrs = append(attrs,
		slog.String("reason", err.Msg),
		slog.Int64("tick", s.clock.Count()),
	)
	s.log.LogAttrs(context.Background(), slog.LevelError, "contract violation", attrs...)
	panic(err)
}

// assertIntOff aborts unless interrupts are masked.
func (s *Scheduler) assertIntOff(op string) {
	if !s.intr.Disabled() {
		s.fatal(op, nil, "interrupts enabled")
	}
}

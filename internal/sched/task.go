package sched

import "fmt"

// TaskID uniquely identifies a task in the scheduler.
type TaskID uint64

// Status is the lifecycle state of a task.
type Status int

const (
	Ready Status = iota
	Running
	Blocked
	Finished
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Blocked:
		return "BLOCKED"
	case Finished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// UserContext is the user-mode machine state of a task (registers and
// address space). The scheduler only saves and restores it around a switch.
type UserContext interface {
	SaveState()
	RestoreState()
}

// Task represents one schedulable task unit.
type Task struct {
	ID       TaskID
	Name     string
	Status   Status
	Priority int // 0 - 149, higher is more urgent

	RemainingBurstTime float64 // L1 ordering key
	BurstTime          float64 // ticks consumed in the most recent run segment
	LastBurstTime      float64 // segment that ended the last completed CPU burst
	CPUBurst           float64 // ticks consumed so far in the current CPU burst
	ApproxBurstTime    float64 // smoothed burst estimate

	WaitTime      int64 // ticks waited since StartWaitTime
	StartWaitTime int64 // tick when the wait clock was last reset
	StartTick     int64 // tick when the task last began running

	Space UserContext // nil for kernel-only tasks
}

// NewTask creates a new task in the READY state.
// NOTE: the priority is not checked here; the scheduler rejects a priority
// outside its bands when the task is queued.
func NewTask(id TaskID, name string, priority int) *Task {
	if name == "" {
		name = fmt.Sprintf("task-%d", id)
	}

	return &Task{
		ID:       id,
		Name:     name,
		Status:   Ready,
		Priority: priority,
	}
}

// ExecutedTicks reports the ticks consumed by the task's last run segment,
// falling back to LastBurstTime when that segment is not measurable (e.g.
// the task blocked right after its burst was closed).
func (t *Task) ExecutedTicks() float64 {
	if t.BurstTime <= burstEpsilon {
		return t.LastBurstTime
	}
	return t.BurstTime
}

func (t *Task) String() string {
	return fmt.Sprintf("%s(%d, prio=%d, %s)", t.Name, t.ID, t.Priority, t.Status)
}

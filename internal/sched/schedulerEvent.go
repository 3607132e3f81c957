// internal/sched/schedulerEvent.go

package sched

import (
	"time"
)

// StatusKind represents the type of scheduler event
type StatusKind int

const (
	StatusIdle        StatusKind = iota
	StatusEnqueue                // [A] task inserted into a tier
	StatusDequeue                // [B] task removed from a tier
	StatusPriority               // [C] aging changed a priority
	StatusBurstUpdate            // [D] burst estimate updated
	StatusDispatch               // [E] hand-off to a new task
	StatusPreempt                // yield-on-return armed
	StatusFinish                 // finished task destroyed
	StatusTick
)

// StatusEvent is emitted on every scheduler action.
type StatusEvent struct {
	Time   time.Time
	Tick   int64
	Kind   StatusKind
	TaskID TaskID
	PrevID TaskID // dispatch: the task being replaced
	Tier   Tier   // enqueue / dequeue

	OldPriority int // priority change
	NewPriority int

	RanTicks float64 // dispatch: ticks executed by PrevID; burst update: actual burst
	Estimate float64 // burst update: old estimate, NewEstimate the updated one

	NewEstimate float64
}

func (sk StatusKind) String() string {
	switch sk {
	case StatusIdle:
		return "Idle"
	case StatusEnqueue:
		return "Enqueued"
	case StatusDequeue:
		return "Dequeued"
	case StatusPriority:
		return "Priority"
	case StatusBurstUpdate:
		return "Burst"
	case StatusDispatch:
		return "Dispatch"
	case StatusPreempt:
		return "Preempt"
	case StatusFinish:
		return "Finish"
	case StatusTick:
		return "Tick"
	default:
		return "Unknown"
	}
}

// Code is the one-letter trace tag of the event, or "" if it has none.
func (sk StatusKind) Code() string {
	switch sk {
	case StatusEnqueue:
		return "A"
	case StatusDequeue:
		return "B"
	case StatusPriority:
		return "C"
	case StatusBurstUpdate:
		return "D"
	case StatusDispatch:
		return "E"
	default:
		return ""
	}
}

// Observer receives scheduler events synchronously. Observers run with
// interrupts disabled and must not block or call back into the scheduler.
type Observer interface {
	Observe(ev StatusEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev StatusEvent)

func (f ObserverFunc) Observe(ev StatusEvent) { f(ev) }

// Observers fans one event out to several observers in order.
type Observers []Observer

func (o Observers) Observe(ev StatusEvent) {
	for _, obs := range o {
		obs.Observe(ev)
	}
}

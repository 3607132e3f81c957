package kernel

import (
	yaml "github.com/goccy/go-yaml"

	"mlfq/internal/sched"
)

// TaskReport summarises one workload task after the run.
type TaskReport struct {
	ID            sched.TaskID `yaml:"id"`
	Name          string       `yaml:"name"`
	Priority      int          `yaml:"priority"`
	FinalPriority int          `yaml:"final_priority"`
	Arrival       int64        `yaml:"arrival"`
	Finish        int64        `yaml:"finish"`
	Done          bool         `yaml:"done"`
	Reaped        bool         `yaml:"reaped"` // gone from the task table
	Demand        int64        `yaml:"demand"` // compute ticks in the program
	CPU           int64        `yaml:"cpu"`
	Slept         int64        `yaml:"slept"`
	Waiting       int64        `yaml:"waiting"`
	Turnaround    int64        `yaml:"turnaround"`
	Dispatches    int          `yaml:"dispatches"`
	Promotions    int          `yaml:"promotions"`
	ContextSaves  int          `yaml:"context_saves,omitempty"`
}

// Report is the outcome of a kernel run.
type Report struct {
	Ticks     int64        `yaml:"ticks"`
	Destroyed int          `yaml:"destroyed"`
	Live      int          `yaml:"live"` // tasks still in the task table at halt
	Tasks     []TaskReport `yaml:"tasks"`
}

// Finished counts the tasks that ran to completion.
func (r *Report) Finished() int {
	n := 0
	for _, t := range r.Tasks {
		if t.Done {
			n++
		}
	}
	return n
}

// Task returns the report of the task with the given name.
func (r *Report) Task(name string) (TaskReport, bool) {
	for _, t := range r.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return TaskReport{}, false
}

// Marshal renders the report as YAML.
func (r *Report) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}

func (k *Kernel) report() *Report {
	rep := &Report{
		Ticks:     k.clock.Count(),
		Destroyed: k.destroyed,
		Live:      len(k.sched.Tasks()),
		Tasks:     make([]TaskReport, 0, len(k.order)),
	}
	for _, p := range k.order {
		_, live := k.sched.Lookup(p.task.ID)
		tr := TaskReport{
			ID:            p.task.ID,
			Name:          p.task.Name,
			Priority:      p.spec.Priority,
			FinalPriority: p.task.Priority,
			Arrival:       p.arrival,
			Done:          p.done,
			Reaped:        !live,
			Demand:        p.spec.Program.CPUTicks(),
			CPU:           p.cpu,
			Slept:         p.slept,
			Dispatches:    p.dispatches,
			Promotions:    p.promotions,
		}
		if p.done {
			tr.Finish = p.finish
			tr.Turnaround = p.finish - p.arrival
			tr.Waiting = tr.Turnaround - p.cpu - p.slept
		}
		if p.user != nil {
			tr.ContextSaves = p.user.Saves
		}
		rep.Tasks = append(rep.Tasks, tr)
	}
	return rep
}

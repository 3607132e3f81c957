package job

import (
	"errors"
	"fmt"
)

// Step is one phase of a task program: either compute for a number of
// ticks or sleep (block) for a number of ticks. Exactly one is set.
type Step struct {
	Compute int64 `yaml:"compute,omitempty"`
	Sleep   int64 `yaml:"sleep,omitempty"`
}

// Validate reports whether s is well formed.
func (s Step) Validate() error {
	switch {
	case s.Compute < 0 || s.Sleep < 0:
		return fmt.Errorf("negative step %+v", s)
	case s.Compute > 0 && s.Sleep > 0:
		return errors.New("step sets both compute and sleep")
	case s.Compute == 0 && s.Sleep == 0:
		return errors.New("empty step")
	}
	return nil
}

// Program is the sequence of steps a task executes before it finishes.
type Program []Step

// CPUTicks is the total compute demand of p.
func (p Program) CPUTicks() int64 {
	var n int64
	for _, s := range p {
		n += s.Compute
	}
	return n
}

// SleepTicks is the total time p spends blocked.
func (p Program) SleepTicks() int64 {
	var n int64
	for _, s := range p {
		n += s.Sleep
	}
	return n
}

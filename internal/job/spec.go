package job

import (
	"errors"
	"fmt"
)

// Spec describes one task of a workload.
type Spec struct {
	Name     string  `yaml:"name"`
	Priority int     `yaml:"priority"`
	Arrival  int64   `yaml:"arrival"`            // tick the task becomes ready
	Estimate float64 `yaml:"estimate,omitempty"` // initial burst estimate
	User     bool    `yaml:"user,omitempty"`     // runs with a user-mode context
	Program  Program `yaml:"program"`
}

// Validate checks s against the priority range [0, maxPriority].
func (s Spec) Validate(maxPriority int) error {
	if s.Name == "" {
		return errors.New("task without a name")
	}
	if s.Priority < 0 || s.Priority > maxPriority {
		return fmt.Errorf("task %q: priority %d outside [0,%d]", s.Name, s.Priority, maxPriority)
	}
	if s.Arrival < 0 {
		return fmt.Errorf("task %q: negative arrival %d", s.Name, s.Arrival)
	}
	if s.Estimate < 0 {
		return fmt.Errorf("task %q: negative estimate %g", s.Name, s.Estimate)
	}
	if len(s.Program) == 0 {
		return fmt.Errorf("task %q: empty program", s.Name)
	}
	for i, step := range s.Program {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("task %q: step %d: %w", s.Name, i, err)
		}
	}
	return nil
}

// ValidateAll checks every spec and rejects duplicate names.
func ValidateAll(specs []Spec, maxPriority int) error {
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if err := s.Validate(maxPriority); err != nil {
			return err
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate task name %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

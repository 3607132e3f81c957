package job

import (
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramTotals(t *testing.T) {
	p := Program{Step{Compute: 300}, Step{Sleep: 50}, Step{Compute: 20}}
	assert.EqualValues(t, 320, p.CPUTicks())
	assert.EqualValues(t, 50, p.SleepTicks())
}

func TestStepValidate(t *testing.T) {
	assert.NoError(t, Step{Compute: 1}.Validate())
	assert.NoError(t, Step{Sleep: 1}.Validate())
	assert.Error(t, Step{}.Validate())
	assert.Error(t, Step{Compute: 1, Sleep: 1}.Validate())
	assert.Error(t, Step{Compute: -3}.Validate())
}

func TestSpecFromYAML(t *testing.T) {
	src := `
name: editor
priority: 40
arrival: 100
estimate: 12.5
user: true
program:
  - compute: 30
  - sleep: 200
  - compute: 10
`
	var s Spec
	require.NoError(t, yaml.Unmarshal([]byte(src), &s))
	assert.Equal(t, "editor", s.Name)
	assert.Equal(t, 40, s.Priority)
	assert.EqualValues(t, 100, s.Arrival)
	assert.Equal(t, 12.5, s.Estimate)
	assert.True(t, s.User)
	assert.Equal(t, Program{Step{Compute: 30}, Step{Sleep: 200}, Step{Compute: 10}}, s.Program)
	assert.NoError(t, s.Validate(149))
}

func TestSpecValidate(t *testing.T) {
	base := Spec{Name: "a", Priority: 10, Program: Program{Step{Compute: 5}}}
	tests := []struct {
		name   string
		mutate func(*Spec)
		want   string
	}{
		{"no name", func(s *Spec) { s.Name = "" }, "without a name"},
		{"priority too high", func(s *Spec) { s.Priority = 150 }, "outside [0,149]"},
		{"negative priority", func(s *Spec) { s.Priority = -1 }, "outside [0,149]"},
		{"negative arrival", func(s *Spec) { s.Arrival = -1 }, "negative arrival"},
		{"empty program", func(s *Spec) { s.Program = nil }, "empty program"},
		{"bad step", func(s *Spec) { s.Program = Program{{}} }, "step 0: empty step"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			s.Program = append(Program(nil), base.Program...)
			tt.mutate(&s)
			err := s.Validate(149)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateAllRejectsDuplicates(t *testing.T) {
	a := Spec{Name: "a", Priority: 10, Program: Program{Step{Compute: 5}}}
	assert.NoError(t, ValidateAll([]Spec{a}, 149))
	err := ValidateAll([]Spec{a, a}, 149)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

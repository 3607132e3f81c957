package kernel

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	yaml "github.com/goccy/go-yaml"

	"mlfq/internal/job"
	"mlfq/internal/sched"
)

// Config mirrors config.yml: the scheduling policy plus the simulated
// machine and the workload it runs.
type Config struct {
	sched.Config `yaml:",inline"`

	TickMS     int     `yaml:"tick_ms"`     // 0 (by default): run as fast as possible
	TimerTicks int64   `yaml:"timer_ticks"` // 100 (by default)
	Alpha      float64 `yaml:"alpha"`       // 0.5 (by default)
	MaxTicks   int64   `yaml:"max_ticks"`   // 0 (by default): no limit

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Tasks []job.Spec `yaml:"tasks"`
}

// DefaultConfig is used for anything the config file leaves out.
func DefaultConfig() Config {
	return Config{
		Config:     sched.DefaultConfig(),
		TimerTicks: 100,
		Alpha:      0.5,
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

// Load reads YAML and overrides defaults; empty path or a missing file
// means defaults only.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the policy, the machine settings and the workload.
func (c Config) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if c.TimerTicks <= 0 {
		return fmt.Errorf("timer_ticks must be positive, got %d", c.TimerTicks)
	}
	if c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("alpha must be in (0,1], got %g", c.Alpha)
	}
	if c.TickMS < 0 || c.MaxTicks < 0 {
		return errors.New("tick_ms and max_ticks must not be negative")
	}
	return job.ValidateAll(c.Tasks, c.Bands.Max)
}

// Marshal renders the effective configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

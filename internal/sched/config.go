package sched

import "fmt"

// Priority bands and aging policy. The values are the defaults of Config
// and can be overridden per scheduler.
const (
	MinPriority   = 0
	L3MaxPriority = 49
	L2MaxPriority = 99
	MaxPriority   = 149

	DefaultWaitThreshold int64 = 1500 // ticks a READY task waits before aging
	DefaultAgingStep           = 10   // priority bump per aging step

	burstEpsilon = 0.00001
)

// Tier names one of the three ready queues.
type Tier int

const (
	TierNone Tier = iota
	L1            // [L2Max+1, Max], shortest remaining time first
	L2            // [L3Max+1, L2Max], priority order
	L3            // [MinPriority, L3Max], FIFO
)

// Level is the queue number used in traces ("L[1]").
func (t Tier) Level() int { return int(t) }

func (t Tier) String() string {
	switch t {
	case L1:
		return "L1"
	case L2:
		return "L2"
	case L3:
		return "L3"
	default:
		return "none"
	}
}

// Bands holds the inclusive upper priority bound of each tier.
type Bands struct {
	L3Max int `yaml:"l3_max"` // 49 (by default)
	L2Max int `yaml:"l2_max"` // 99 (by default)
	Max   int `yaml:"max"`    // 149 (by default)
}

// DefaultBands returns [0,49] / [50,99] / [100,149].
func DefaultBands() Bands {
	return Bands{L3Max: L3MaxPriority, L2Max: L2MaxPriority, Max: MaxPriority}
}

// Contains reports whether p is a legal priority.
func (b Bands) Contains(p int) bool {
	return p >= MinPriority && p <= b.Max
}

// TierOf returns the tier whose band contains p, or TierNone.
func (b Bands) TierOf(p int) Tier {
	switch {
	case p < MinPriority || p > b.Max:
		return TierNone
	case p <= b.L3Max:
		return L3
	case p <= b.L2Max:
		return L2
	default:
		return L1
	}
}

// Validate checks the bands are non-empty and ordered.
func (b Bands) Validate() error {
	if b.L3Max < MinPriority || b.L2Max <= b.L3Max || b.Max <= b.L2Max {
		return fmt.Errorf("invalid priority bands: want %d <= l3_max < l2_max < max, got %d/%d/%d",
			MinPriority, b.L3Max, b.L2Max, b.Max)
	}
	return nil
}

// Config holds the scheduling policy.
type Config struct {
	WaitThreshold int64 `yaml:"wait_threshold"` // 1500 (by default)
	AgingStep     int   `yaml:"aging_step"`     // 10 (by default)
	Bands         Bands `yaml:"bands"`
}

// DefaultConfig returns the stock MLFQ policy.
func DefaultConfig() Config {
	return Config{
		WaitThreshold: DefaultWaitThreshold,
		AgingStep:     DefaultAgingStep,
		Bands:         DefaultBands(),
	}
}

// Validate reports the first policy value that cannot be used.
func (c Config) Validate() error {
	if c.WaitThreshold <= 0 {
		return fmt.Errorf("wait_threshold must be positive, got %d", c.WaitThreshold)
	}
	if c.AgingStep <= 0 {
		return fmt.Errorf("aging_step must be positive, got %d", c.AgingStep)
	}
	return c.Bands.Validate()
}

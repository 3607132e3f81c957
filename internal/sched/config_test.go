package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.EqualValues(t, 1500, cfg.WaitThreshold)
	assert.Equal(t, 10, cfg.AgingStep)
	assert.Equal(t, Bands{L3Max: 49, L2Max: 99, Max: 149}, cfg.Bands)
}

func TestBandsTierOf(t *testing.T) {
	b := DefaultBands()
	tests := []struct {
		prio int
		want Tier
	}{
		{-1, TierNone},
		{0, L3},
		{49, L3},
		{50, L2},
		{99, L2},
		{100, L1},
		{149, L1},
		{150, TierNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.TierOf(tt.prio), "priority %d", tt.prio)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero threshold", func(c *Config) { c.WaitThreshold = 0 }},
		{"negative step", func(c *Config) { c.AgingStep = -1 }},
		{"overlapping bands", func(c *Config) { c.Bands.L2Max = c.Bands.L3Max }},
		{"empty L1", func(c *Config) { c.Bands.Max = c.Bands.L2Max }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "L1", L1.String())
	assert.Equal(t, 3, L3.Level())
	assert.Equal(t, "none", TierNone.String())
}

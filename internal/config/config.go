// Package config loads the role and tunable timing constants that spec
// §6 marks "informative" and says "implementations should expose ... as
// configuration", plus every named period/timeout from §4.2–§4.5.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RadioParams are the LoRa PHY settings; they are pass-through
// configuration for a board-specific driver and are not interpreted by
// this module (spec §6 "Radio parameters (informative)").
type RadioParams struct {
	FrequencyMHz float64 `yaml:"frequency_mhz"`
	BandwidthKHz float64 `yaml:"bandwidth_khz"`
	SpreadFactor int     `yaml:"spread_factor"`
	CodingRate   string  `yaml:"coding_rate"`
	SyncWord     byte    `yaml:"sync_word"`
}

// Timing collects every named constant in spec §4.2–§4.5. Zero values
// loaded from YAML are replaced by the matching Default() value so a
// deployment can override a subset without repeating the rest.
type Timing struct {
	BeaconPeriod     time.Duration `yaml:"beacon_period"`
	QueryPeriod      time.Duration `yaml:"query_period"`
	QueryTimeout     time.Duration `yaml:"query_timeout"`
	MaxMisses        int           `yaml:"max_misses"`
	ChildTimeout     time.Duration `yaml:"child_timeout"`
	JoinAckGap       time.Duration `yaml:"join_ack_gap"`
	LostParentMs     time.Duration `yaml:"lost_parent_ms"`
	JoinRetryMs      time.Duration `yaml:"join_retry_ms"`
	JoinAckTimeoutMs time.Duration `yaml:"join_ack_timeout_ms"`
	MaxChildren      int           `yaml:"max_children"`
	CandidateMaxAge  time.Duration `yaml:"candidate_max_age"`
	ChildSilentMs    time.Duration `yaml:"child_silent_ms"`
	DutyCycleWindow  time.Duration `yaml:"duty_cycle_window"`
	StatusDumpPeriod time.Duration `yaml:"status_dump_period"`
}

// DefaultTiming returns the constants exactly as named in spec.md.
func DefaultTiming() Timing {
	return Timing{
		BeaconPeriod:     60 * time.Second,
		QueryPeriod:      50 * time.Second,
		QueryTimeout:     15 * time.Second,
		MaxMisses:        5,
		ChildTimeout:     180 * time.Second,
		JoinAckGap:       2 * time.Second,
		LostParentMs:     300 * time.Second,
		JoinRetryMs:      5 * time.Second,
		JoinAckTimeoutMs: 10 * time.Second,
		MaxChildren:      10,
		CandidateMaxAge:  90 * time.Second,
		ChildSilentMs:    180 * time.Second,
		DutyCycleWindow:  time.Hour,
		StatusDumpPeriod: 5 * time.Second,
	}
}

// Config is the full on-disk deployment configuration.
type Config struct {
	Role      string      `yaml:"role"` // "gateway" or "node"
	IDPath    string      `yaml:"id_path"`
	Radio     RadioParams `yaml:"radio"`
	Timing    Timing      `yaml:"timing"`
}

// DefaultRadioParams mirrors spec §6's informative radio parameters.
func DefaultRadioParams() RadioParams {
	return RadioParams{
		FrequencyMHz: 868,
		BandwidthKHz: 125,
		SpreadFactor: 12,
		CodingRate:   "4/5",
		SyncWord:     0x12,
	}
}

// Default returns a Config with every field set to the spec's defaults.
func Default() Config {
	return Config{
		Role:   "node",
		IDPath: "node.id",
		Radio:  DefaultRadioParams(),
		Timing: DefaultTiming(),
	}
}

// Load reads a YAML config file at path, filling any zero-valued field
// with the corresponding default.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	applyTimingDefaults(&cfg.Timing)
	if cfg.Radio == (RadioParams{}) {
		cfg.Radio = DefaultRadioParams()
	}
	return cfg, nil
}

func applyTimingDefaults(t *Timing) {
	d := DefaultTiming()
	if t.BeaconPeriod == 0 {
		t.BeaconPeriod = d.BeaconPeriod
	}
	if t.QueryPeriod == 0 {
		t.QueryPeriod = d.QueryPeriod
	}
	if t.QueryTimeout == 0 {
		t.QueryTimeout = d.QueryTimeout
	}
	if t.MaxMisses == 0 {
		t.MaxMisses = d.MaxMisses
	}
	if t.ChildTimeout == 0 {
		t.ChildTimeout = d.ChildTimeout
	}
	if t.JoinAckGap == 0 {
		t.JoinAckGap = d.JoinAckGap
	}
	if t.LostParentMs == 0 {
		t.LostParentMs = d.LostParentMs
	}
	if t.JoinRetryMs == 0 {
		t.JoinRetryMs = d.JoinRetryMs
	}
	if t.JoinAckTimeoutMs == 0 {
		t.JoinAckTimeoutMs = d.JoinAckTimeoutMs
	}
	if t.MaxChildren == 0 {
		t.MaxChildren = d.MaxChildren
	}
	if t.CandidateMaxAge == 0 {
		t.CandidateMaxAge = d.CandidateMaxAge
	}
	if t.ChildSilentMs == 0 {
		t.ChildSilentMs = d.ChildSilentMs
	}
	if t.DutyCycleWindow == 0 {
		t.DutyCycleWindow = d.DutyCycleWindow
	}
	if t.StatusDumpPeriod == 0 {
		t.StatusDumpPeriod = d.StatusDumpPeriod
	}
}

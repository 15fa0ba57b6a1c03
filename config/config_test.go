// Copyright (c) 2024 BVK Chaitanya

package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func marketMaking() Config {
	c := Config{
		Pair:                 "CET-USDT",
		LevelDistance:        decimal.RequireFromString("0.5"),
		LevelCount:           5,
		OrderSize:            decimal.NewFromInt(100),
		MaxRebalanceDistance: decimal.NewFromInt(2),
	}
	c.SetDefaults()
	return c
}

func TestDefaults(t *testing.T) {
	c := marketMaking()
	if err := c.Check(); err != nil {
		t.Fatal(err)
	}
	if c.Mode != MarketMaking {
		t.Fatalf("want %s, got %s", MarketMaking, c.Mode)
	}
	if c.MinRebalanceAge != 2*time.Minute {
		t.Fatalf("want 2m, got %s", c.MinRebalanceAge)
	}
	if c.CancelOnStop {
		t.Fatalf("cancel on stop must be off by default")
	}
}

func TestCheckInvalid(t *testing.T) {
	cases := map[string]func(*Config){
		"empty pair":        func(c *Config) { c.Pair = "" },
		"zero distance":     func(c *Config) { c.LevelDistance = decimal.Zero },
		"negative count":    func(c *Config) { c.LevelCount = -1 },
		"count above max":   func(c *Config) { c.LevelCount = c.MaxLevels + 1 },
		"zero size":         func(c *Config) { c.OrderSize = decimal.Zero },
		"too deep":          func(c *Config) { c.LevelDistance = decimal.NewFromInt(20) },
		"unknown mode":      func(c *Config) { c.Mode = "scalping" },
		"zero rebalance":    func(c *Config) { c.MaxRebalanceDistance = decimal.Zero },
		"negative interval": func(c *Config) { c.CycleInterval = -time.Second },
		"volume bad variant": func(c *Config) {
			c.Mode = Volume
			c.Variant = "YOLO"
		},
	}
	for name, modify := range cases {
		c := marketMaking()
		modify(&c)
		err := c.Check()
		if !errors.Is(err, ErrConfigInvalid) {
			t.Fatalf("%s: want ErrConfigInvalid, got %v", name, err)
		}
		if !errors.Is(err, os.ErrInvalid) {
			t.Fatalf("%s: want os.ErrInvalid match", name)
		}
	}
}

func TestPartialApply(t *testing.T) {
	c := marketMaking()

	count := 8
	age := 5 * time.Minute
	p := &Partial{LevelCount: &count, MinRebalanceAge: &age}
	nc, err := p.Apply(c)
	if err != nil {
		t.Fatal(err)
	}
	if nc.LevelCount != 8 || nc.MinRebalanceAge != age {
		t.Fatalf("update was not applied: %+v", nc)
	}
	if c.LevelCount != 5 {
		t.Fatalf("input config was modified")
	}

	bad := decimal.NewFromInt(-1)
	if _, err := (&Partial{OrderSize: &bad}).Apply(c); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("want ErrConfigInvalid, got %v", err)
	}
	if !(&Partial{}).IsEmpty() || p.IsEmpty() {
		t.Fatalf("IsEmpty is wrong")
	}
}

func TestDecodePartial(t *testing.T) {
	p, err := DecodePartial(strings.NewReader("level-count: 7\nvariant: balanced\nmin-rebalance-age: 2m\norder-size: 12.5\n"))
	if err != nil {
		t.Fatal(err)
	}
	if p.LevelCount == nil || *p.LevelCount != 7 {
		t.Fatalf("want level count 7, got %v", p.LevelCount)
	}
	if p.MinRebalanceAge == nil || *p.MinRebalanceAge != 2*time.Minute {
		t.Fatalf("want 2m, got %v", p.MinRebalanceAge)
	}
	if p.OrderSize == nil || !p.OrderSize.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("want 12.5, got %v", p.OrderSize)
	}
	if p.MaxLevels != nil {
		t.Fatalf("want unset max levels, got %d", *p.MaxLevels)
	}
	if _, err := DecodePartial(strings.NewReader("pair: X\n")); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("want ErrConfigInvalid for pair change, got %v", err)
	}
	if p, err := DecodePartial(strings.NewReader("")); err != nil || !p.IsEmpty() {
		t.Fatalf("want empty update, got %v", err)
	}
}

const sampleYAML = `
pairs:
  - pair: CET-USDT
    level-distance: 0.5
    level-count: 4
    order-size: "250"
    max-rebalance-distance: 2
    min-rebalance-age: 3m
    cycle-interval: 15s
  - pair: BTC-USDT
    mode: volume
    variant: HIGH_VOLUME_BURST
    burst-min-volume: 100
    burst-max-volume: 200
    burst-min-executions: 5
    burst-max-executions: 10
    burst-max-trade-size: 30
    burst-price-spread-units: 0.5
`

func TestDecode(t *testing.T) {
	cs, err := Decode(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	if len(cs) != 2 {
		t.Fatalf("want 2 pairs, got %d", len(cs))
	}
	mm := cs[0]
	if !mm.LevelDistance.Equal(decimal.RequireFromString("0.5")) || mm.LevelCount != 4 {
		t.Fatalf("unexpected ladder config %+v", mm)
	}
	if !mm.OrderSize.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("want 250, got %s", mm.OrderSize)
	}
	if mm.MinRebalanceAge != 3*time.Minute || mm.CycleInterval != 15*time.Second {
		t.Fatalf("unexpected durations %s %s", mm.MinRebalanceAge, mm.CycleInterval)
	}
	vol := cs[1]
	if !vol.IsVolume() || vol.BurstMaxExecutions != 10 {
		t.Fatalf("unexpected volume config %+v", vol)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, cs); err != nil {
		t.Fatal(err)
	}
	again, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 2 || !again[0].OrderSize.Equal(cs[0].OrderSize) || again[0].MinRebalanceAge != cs[0].MinRebalanceAge || again[1].Variant != cs[1].Variant {
		t.Fatalf("encoded config doesn't decode back to the same value")
	}
}

func TestDecodeRejects(t *testing.T) {
	if _, err := Decode(strings.NewReader("pairs:\n  - pair: X\n    bogus: 1\n")); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("want ErrConfigInvalid for unknown field, got %v", err)
	}
	dup := "pairs:\n  - {pair: X, level-distance: 1, order-size: 1, max-rebalance-distance: 1}\n  - {pair: X, level-distance: 1, order-size: 1, max-rebalance-distance: 1}\n"
	if _, err := Decode(strings.NewReader(dup)); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("want ErrConfigInvalid for duplicate pair, got %v", err)
	}
}

func TestEnvOverride(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte(EnvMonitoringMode+"=true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	os.Unsetenv(EnvMonitoringMode)
	t.Cleanup(func() { os.Unsetenv(EnvMonitoringMode) })

	if err := LoadEnv(filepath.Join(dir, "missing.env"), envPath); err != nil {
		t.Fatal(err)
	}
	cs, err := Decode(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range cs {
		if !c.MonitoringMode {
			t.Fatalf("want monitoring mode forced for %s", c.Pair)
		}
	}
}

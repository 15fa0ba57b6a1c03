// Copyright (c) 2025 BVK Chaitanya

package pair

import (
	"errors"
	"os"
	"testing"

	"github.com/bvk/ladderbot/config"
	"github.com/shopspring/decimal"
)

func TestParseUpdate(t *testing.T) {
	p, err := parseUpdate([]string{"level-count=6", "level-distance=0.25", "monitoring-mode=true"})
	if err != nil {
		t.Fatal(err)
	}
	if p.LevelCount == nil || *p.LevelCount != 6 {
		t.Fatalf("want 6, got %v", p.LevelCount)
	}
	if p.LevelDistance == nil || !p.LevelDistance.Equal(decimal.RequireFromString("0.25")) {
		t.Fatalf("want 0.25, got %v", p.LevelDistance)
	}
	if p.MonitoringMode == nil || !*p.MonitoringMode {
		t.Fatalf("want monitoring mode on, got %v", p.MonitoringMode)
	}

	if _, err := parseUpdate([]string{"level-count"}); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid, got %v", err)
	}
	if _, err := parseUpdate([]string{"unknown=1"}); !errors.Is(err, config.ErrConfigInvalid) {
		t.Fatalf("want ErrConfigInvalid, got %v", err)
	}
}

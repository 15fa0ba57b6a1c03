// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/visvasity/cli"
)

func TestLadder(t *testing.T) {
	var sb strings.Builder
	ctx := cli.WithStdout(context.Background(), &sb)

	c := &Ladder{mid: "100", levelDistance: "1", levelCount: 2}
	if err := c.run(ctx, nil); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	for _, want := range []string{"99.00000000", "101.00000000", "98.00000000", "102.00000000"} {
		if !strings.Contains(out, want) {
			t.Fatalf("want %s in the output, got %q", want, out)
		}
	}

	c = &Ladder{mid: "100", levelDistance: "1", levelCount: 5, maxLevels: 3}
	if err := c.run(ctx, nil); err == nil {
		t.Fatalf("want error when level count exceeds max levels, got nil")
	}
}

const simulateYAML = `
pairs:
  - pair: CET-USDT
    level-distance: 0.5
    level-count: 3
    order-size: 10
    max-rebalance-distance: 2
`

func TestSimulate(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "pairs.yaml")
	if err := os.WriteFile(fpath, []byte(simulateYAML), 0600); err != nil {
		t.Fatal(err)
	}

	var sb strings.Builder
	ctx := cli.WithStdout(context.Background(), &sb)

	c := &Simulate{configPath: fpath, cycles: 5, mid: "100", volatility: 1, seed: 7}
	if err := c.run(ctx, []string{"CET-USDT"}); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	if !strings.Contains(out, "filled orders:") {
		t.Fatalf("want a summary in the output, got %q", out)
	}
	// Header, five cycles and the summary.
	if n := strings.Count(out, "\n"); n < 8 {
		t.Fatalf("want at least 8 lines, got %d: %q", n, out)
	}

	if err := c.run(ctx, []string{"BTC-USDT"}); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist for unknown pair, got %v", err)
	}
}

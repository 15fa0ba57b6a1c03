// Copyright (c) 2023 BVK Chaitanya

package db

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bvk/ladderbot/engine"
	"github.com/bvk/ladderbot/gobs"
	"github.com/bvk/ladderbot/kvutil"
	"github.com/bvkgo/kv/kvmemdb"
	"github.com/visvasity/cli"
)

func TestValueForKey(t *testing.T) {
	if v, err := valueForKey(engine.StateKey("BTCUSDT")); err != nil {
		t.Fatal(err)
	} else if _, ok := v.(*gobs.EngineState); !ok {
		t.Fatalf("want *gobs.EngineState, got %T", v)
	}
	if _, err := valueForKey("/unknown/key"); err == nil {
		t.Fatalf("want error for unknown key, got nil")
	}
}

func TestGetFromBackup(t *testing.T) {
	ctx := context.Background()

	src := kvmemdb.New()
	state := &gobs.EngineState{Config: gobs.PairConfig{Pair: "BTCUSDT"}, Running: true, CycleCount: 42}
	if err := kvutil.SetDB(ctx, src, engine.StateKey("BTCUSDT"), state); err != nil {
		t.Fatal(err)
	}

	backupPath := filepath.Join(t.TempDir(), "backup.gob")
	fp, err := os.Create(backupPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := kvutil.Backup(ctx, src, fp); err != nil {
		t.Fatal(err)
	}
	if err := fp.Close(); err != nil {
		t.Fatal(err)
	}

	c := new(Get)
	_, fset, _ := c.Command()
	if err := fset.Parse([]string{"-from-backup", backupPath}); err != nil {
		t.Fatal(err)
	}

	var sb strings.Builder
	if err := c.run(cli.WithStdout(ctx, &sb), []string{engine.StateKey("BTCUSDT")}); err != nil {
		t.Fatal(err)
	}
	if out := sb.String(); !strings.Contains(out, `"CycleCount": 42`) || !strings.Contains(out, `"BTCUSDT"`) {
		t.Fatalf("want engine state in the output, got %q", out)
	}

	l := new(List)
	_, lset, _ := l.Command()
	if err := lset.Parse([]string{"-from-backup", backupPath, "-key-regexp", "BTC"}); err != nil {
		t.Fatal(err)
	}
	sb.Reset()
	if err := l.run(cli.WithStdout(ctx, &sb), nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(sb.String()) != engine.StateKey("BTCUSDT") {
		t.Fatalf("want %s, got %q", engine.StateKey("BTCUSDT"), sb.String())
	}
}

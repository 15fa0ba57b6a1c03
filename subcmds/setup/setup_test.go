// Copyright (c) 2025 BVK Chaitanya

package setup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bvk/ladderbot/server"
	"github.com/visvasity/cli"
)

func TestAPIKey(t *testing.T) {
	dir := t.TempDir()

	var sb strings.Builder
	ctx := cli.WithStdout(context.Background(), &sb)
	if err := (&APIKey{dataDir: dir}).run(ctx, nil); err != nil {
		t.Fatal(err)
	}

	fpath := filepath.Join(dir, "secrets.json")
	fi, err := os.Stat(fpath)
	if err != nil {
		t.Fatal(err)
	}
	if mode := fi.Mode().Perm(); mode != 0600 {
		t.Fatalf("want 0600, got %v", mode)
	}
	secrets, err := server.SecretsFromFile(fpath)
	if err != nil {
		t.Fatal(err)
	}
	if len(secrets.APIKey) != 64 {
		t.Fatalf("want 64 hex chars, got %d", len(secrets.APIKey))
	}

	// Existing secrets are kept when another key is updated.
	if err := (&CoinEx{dataDir: dir, key: "k", secret: "s", skipTesting: true}).run(ctx, nil); err != nil {
		t.Fatal(err)
	}
	again, err := server.SecretsFromFile(fpath)
	if err != nil {
		t.Fatal(err)
	}
	if again.APIKey != secrets.APIKey || again.CoinEx == nil || again.CoinEx.Key != "k" {
		t.Fatalf("want api key and coinex keys, got %+v", again)
	}
}

func TestAPIKeyTooShort(t *testing.T) {
	dir := t.TempDir()
	ctx := cli.WithStdout(context.Background(), new(strings.Builder))
	if err := (&APIKey{dataDir: dir, key: "short"}).run(ctx, nil); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "secrets.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want no secrets file, got %v", err)
	}
}

func TestCoinExFlagsRequired(t *testing.T) {
	ctx := context.Background()
	if err := (&CoinEx{dataDir: t.TempDir(), skipTesting: true}).run(ctx, nil); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid, got %v", err)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" alice, ,bob,")
	if len(got) != 2 || got[0] != "alice" || got[1] != "bob" {
		t.Fatalf("want [alice bob], got %v", got)
	}
	if got := splitList(""); got != nil {
		t.Fatalf("want nil, got %v", got)
	}
}

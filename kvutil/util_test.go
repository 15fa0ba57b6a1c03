// Copyright (c) 2023 BVK Chaitanya

package kvutil

import (
	"context"
	"errors"
	"os"
	"path"
	"testing"

	"github.com/bvkgo/kv"
	"github.com/bvkgo/kv/kvmemdb"
)

type item struct {
	Name  string
	Count int
}

func TestSetGetAscend(t *testing.T) {
	ctx := context.Background()
	db := kvmemdb.New()

	for i, name := range []string{"a", "b", "c"} {
		if err := SetDB(ctx, db, path.Join("/items", name), &item{Name: name, Count: i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := SetDB(ctx, db, "/other/x", &item{Name: "x"}); err != nil {
		t.Fatal(err)
	}

	v, err := GetDB[item](ctx, db, "/items/b")
	if err != nil {
		t.Fatal(err)
	}
	if v.Name != "b" || v.Count != 1 {
		t.Fatalf("want b/1, got %+v", v)
	}

	var names []string
	begin, end := PathRange("/items")
	err = AscendDB(ctx, db, begin, end, func(_ context.Context, _ kv.Reader, key string, v *item) error {
		names = append(names, v.Name)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 3 || names[0] != "a" || names[2] != "c" {
		t.Fatalf("want [a b c], got %v", names)
	}

	if err := DeleteDB(ctx, db, "/items/b"); err != nil {
		t.Fatal(err)
	}
	if _, err := GetDB[item](ctx, db, "/items/b"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist, got %v", err)
	}
}

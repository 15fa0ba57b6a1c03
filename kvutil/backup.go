// Copyright (c) 2023 BVK Chaitanya

package kvutil

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/bvk/ladderbot/gobs"
	"github.com/bvkgo/kv"
)

// Backup writes all key-value pairs in the database as a stream of
// gob-encoded gobs.KeyValue items. It returns the number of items written.
func Backup(ctx context.Context, db kv.Database, w io.Writer) (int, error) {
	encoder := gob.NewEncoder(w)
	count := 0
	backup := func(ctx context.Context, r kv.Reader) error {
		it, err := r.Scan(ctx)
		if err != nil {
			return fmt.Errorf("could not create scanning iterator: %w", err)
		}
		defer kv.Close(it)

		for k, v, err := it.Fetch(ctx, false); err == nil; k, v, err = it.Fetch(ctx, true) {
			value, err := io.ReadAll(v)
			if err != nil {
				return fmt.Errorf("could not read value at key %q: %w", k, err)
			}
			if err := encoder.Encode(&gobs.KeyValue{Key: k, Value: value}); err != nil {
				return fmt.Errorf("could not encode key/value item: %w", err)
			}
			count++
		}
		if _, _, err := it.Fetch(ctx, false); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("iterator fetch has failed: %w", err)
		}
		return nil
	}
	if err := kv.WithReader(ctx, db, backup); err != nil {
		return 0, fmt.Errorf("could not run backup on the snapshot: %w", err)
	}
	return count, nil
}

// Restore replaces the database contents with the items from a backup
// stream. It returns the number of items restored.
func Restore(ctx context.Context, db kv.Database, r io.Reader) (int, error) {
	decoder := gob.NewDecoder(r)
	count := 0
	restore := func(ctx context.Context, w kv.ReadWriter) error {
		it, err := w.Scan(ctx)
		if err != nil {
			return fmt.Errorf("could not create scanning iterator: %w", err)
		}
		defer kv.Close(it)

		var keys []string
		for k, _, err := it.Fetch(ctx, false); err == nil; k, _, err = it.Fetch(ctx, true) {
			keys = append(keys, k)
		}
		if _, _, err := it.Fetch(ctx, false); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("iterator fetch has failed: %w", err)
		}
		for _, k := range keys {
			if err := w.Delete(ctx, k); err != nil {
				return fmt.Errorf("could not delete key %q: %w", k, err)
			}
		}

		var item gobs.KeyValue
		for err = decoder.Decode(&item); err == nil; err = decoder.Decode(&item) {
			if err := w.Set(ctx, item.Key, bytes.NewReader(item.Value)); err != nil {
				return fmt.Errorf("could not restore at key %q: %w", item.Key, err)
			}
			item = gobs.KeyValue{}
			count++
		}
		if !errors.Is(err, io.EOF) {
			return fmt.Errorf("could not decode item from backup file: %w", err)
		}
		return nil
	}
	if err := kv.WithReadWriter(ctx, db, restore); err != nil {
		return 0, fmt.Errorf("could not run restore with a transaction: %w", err)
	}
	return count, nil
}

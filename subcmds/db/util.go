// Copyright (c) 2023 BVK Chaitanya

package db

import (
	"fmt"
	"strings"

	"github.com/bvk/ladderbot/engine"
	"github.com/bvk/ladderbot/gobs"
)

// valueForKey returns a new value of the gob type stored under the key.
func valueForKey(key string) (any, error) {
	switch {
	case strings.HasPrefix(key, engine.Keyspace+"/"):
		return new(gobs.EngineState), nil
	case strings.HasPrefix(key, "/ladderbot/telegram/"):
		return new(gobs.TelegramState), nil
	}
	return nil, fmt.Errorf("unknown value type for key %q", key)
}

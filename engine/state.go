// Copyright (c) 2024 BVK Chaitanya

package engine

import (
	"context"
	"maps"
	"path"
	"slices"
	"strings"

	"github.com/bvk/ladderbot/gobs"
	"github.com/bvk/ladderbot/kvutil"
	"github.com/bvkgo/kv"
)

// Keyspace is the database directory holding per-pair engine states.
const Keyspace = "/ladderbot/pairs"

func StateKey(pair string) string {
	return path.Join(Keyspace, pair, "state")
}

// Load returns the saved state for the pair. Returns an error wrapping
// os.ErrNotExist if the pair has no saved state.
func Load(ctx context.Context, db kv.Database, pair string) (*gobs.EngineState, error) {
	return kvutil.GetDB[gobs.EngineState](ctx, db, StateKey(pair))
}

// LoadAll returns all saved engine states keyed by the pair name.
func LoadAll(ctx context.Context, db kv.Database) (map[string]*gobs.EngineState, error) {
	states := make(map[string]*gobs.EngineState)
	begin, end := kvutil.PathRange(Keyspace)
	collect := func(_ context.Context, _ kv.Reader, key string, v *gobs.EngineState) error {
		if !strings.HasSuffix(key, "/state") {
			return nil
		}
		states[v.Config.Pair] = v
		return nil
	}
	if err := kvutil.AscendDB(ctx, db, begin, end, collect); err != nil {
		return nil, err
	}
	return states, nil
}

func (e *Engine) save(ctx context.Context, running bool) error {
	if e.opts.DB == nil {
		return nil
	}
	state := &gobs.EngineState{
		Config:            gobs.PairConfig(*e.cfg.Load()),
		Running:           running,
		TrackedOrders:     e.set.Snapshot(),
		UnconfirmedOrders: e.unconfirmedSnapshot(),
		Strategy:          e.strategySnapshot(),
		IDOffset:          e.ids.Offset(),
		CycleCount:        e.cycleCount,
	}
	return kvutil.SetDB(ctx, e.opts.DB, StateKey(e.pair), state)
}

func (e *Engine) unconfirmedSnapshot() []*gobs.TrackedOrder {
	var vs []*gobs.TrackedOrder
	for _, k := range slices.Sorted(maps.Keys(e.unconfirmed)) {
		v := gobs.TrackedOrder(*e.unconfirmed[k])
		vs = append(vs, &v)
	}
	return vs
}

// Copyright (c) 2023 BVK Chaitanya

package orders

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/bvk/ladderbot/exchange"
	"github.com/bvk/ladderbot/gobs"
)

// Key identifies a ladder rung.
type Key struct {
	Side  exchange.Side
	Level int
}

func (k Key) String() string {
	return fmt.Sprintf("%s[%d]", k.Side, k.Level)
}

// Set holds tracked orders with at most one order per ladder rung. Set is not
// thread-safe; it is owned by a single engine cycle.
type Set struct {
	byID  map[string]*TrackedOrder
	byKey map[Key]*TrackedOrder
}

func NewSet() *Set {
	return &Set{
		byID:  make(map[string]*TrackedOrder),
		byKey: make(map[Key]*TrackedOrder),
	}
}

// Restore builds a set from saved orders. Orders that fail validation or
// collide on a rung are dropped and reported in the returned error.
func Restore(saved []*gobs.TrackedOrder) (*Set, error) {
	s := NewSet()
	var errs []string
	for _, v := range saved {
		if err := s.Add((*TrackedOrder)(v)); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) != 0 {
		return s, fmt.Errorf("dropped %d saved orders: %s", len(errs), strings.Join(errs, "; "))
	}
	return s, nil
}

func (s *Set) Len() int {
	return len(s.byID)
}

// Add inserts a new order. Returns os.ErrExist if the order id or its rung is
// already tracked.
func (s *Set) Add(v *TrackedOrder) error {
	if err := v.Check(); err != nil {
		return err
	}
	if _, ok := s.byID[v.ID]; ok {
		return fmt.Errorf("order %q is already tracked: %w", v.ID, os.ErrExist)
	}
	if old, ok := s.byKey[v.Key()]; ok {
		return fmt.Errorf("rung %s is occupied by order %q: %w", v.Key(), old.ID, os.ErrExist)
	}
	s.byID[v.ID] = v
	s.byKey[v.Key()] = v
	return nil
}

// Remove deletes an order by id. Returns nil if the order was not tracked.
func (s *Set) Remove(id string) *TrackedOrder {
	v, ok := s.byID[id]
	if !ok {
		return nil
	}
	delete(s.byID, id)
	delete(s.byKey, v.Key())
	return v
}

func (s *Set) Get(id string) (*TrackedOrder, bool) {
	v, ok := s.byID[id]
	return v, ok
}

func (s *Set) At(side exchange.Side, level int) (*TrackedOrder, bool) {
	v, ok := s.byKey[Key{Side: side, Level: level}]
	return v, ok
}

// IDs returns tracked order ids in sorted order.
func (s *Set) IDs() []string {
	ids := make([]string, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Orders returns the tracked orders sorted by side and level.
func (s *Set) Orders() []*TrackedOrder {
	vs := make([]*TrackedOrder, 0, len(s.byID))
	for _, v := range s.byID {
		vs = append(vs, v)
	}
	slices.SortFunc(vs, func(a, b *TrackedOrder) int {
		if c := strings.Compare(a.Side, b.Side); c != 0 {
			return c
		}
		return a.LevelIndex - b.LevelIndex
	})
	return vs
}

// Snapshot returns copies of the tracked orders in the persisted form.
func (s *Set) Snapshot() []*gobs.TrackedOrder {
	vs := s.Orders()
	out := make([]*gobs.TrackedOrder, 0, len(vs))
	for _, v := range vs {
		x := gobs.TrackedOrder(*v)
		out = append(out, &x)
	}
	return out
}

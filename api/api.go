// Copyright (c) 2025 BVK Chaitanya

package api

import (
	"fmt"
	"os"
	"time"

	"github.com/bvk/ladderbot/config"
	"github.com/bvk/ladderbot/engine"
)

const (
	PairStartPath        = "/ladderbot/pair/start"
	PairStopPath         = "/ladderbot/pair/stop"
	PairUpdateConfigPath = "/ladderbot/pair/update-config"
	PairStatusPath       = "/ladderbot/pair/status"
	PairListPath         = "/ladderbot/pair/list"

	ServerStatusPath = "/ladderbot/server/status"
)

func checkPair(pair string) error {
	if len(pair) == 0 {
		return fmt.Errorf("pair name cannot be empty: %w", os.ErrInvalid)
	}
	return nil
}

type PairStartRequest struct {
	Config *config.Config
}

func (r *PairStartRequest) Check() error {
	if r.Config == nil {
		return fmt.Errorf("config cannot be nil: %w", os.ErrInvalid)
	}
	return checkPair(r.Config.Pair)
}

type PairStartResponse struct {
	Status *engine.Status
}

type PairStopRequest struct {
	Pair string
}

func (r *PairStopRequest) Check() error {
	return checkPair(r.Pair)
}

type PairStopResponse struct {
	Status *engine.Status
}

type PairUpdateConfigRequest struct {
	Pair string

	Partial *config.Partial
}

func (r *PairUpdateConfigRequest) Check() error {
	if r.Partial == nil {
		return fmt.Errorf("config update cannot be nil: %w", os.ErrInvalid)
	}
	return checkPair(r.Pair)
}

type PairUpdateConfigResponse struct {
	Config *config.Config

	// Pending is true if the update takes effect at the next cycle of a
	// running engine.
	Pending bool
}

type PairStatusRequest struct {
	Pair string
}

func (r *PairStatusRequest) Check() error {
	return checkPair(r.Pair)
}

type PairStatusResponse struct {
	Status *engine.Status
}

type PairListRequest struct {
}

type PairListResponseItem struct {
	Pair    string
	Mode    string
	Variant string

	IsRunning bool

	TrackedOrders int

	CycleCount   int64
	FailedCycles int64
}

type PairListResponse struct {
	Pairs []*PairListResponseItem
}

type ServerStatusRequest struct {
}

type ServerStatusResponse struct {
	Pid int

	StartTime time.Time
	Uptime    time.Duration

	NumGoroutines int

	// Process resource usage. Zero when unavailable.
	RSSBytes   uint64
	CPUPercent float64

	NumPairs   int
	NumRunning int
}

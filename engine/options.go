// Copyright (c) 2024 BVK Chaitanya

package engine

import (
	"math/rand/v2"
	"time"

	"github.com/bvkgo/kv"
)

type Options struct {
	// DB persists the engine state after every cycle when non-nil.
	DB kv.Database

	// Executor executes volume mode trades. Defaults to marketable limit
	// orders through the gateway.
	Executor TradeExecutor

	// Simulator executes volume mode trades in monitoring mode. Defaults to an
	// executor that only logs the trade.
	Simulator TradeExecutor

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// Rand is the random source for the strategy decisions.
	Rand *rand.Rand

	// MaxFailures is the number of recent failure messages kept in the status.
	MaxFailures int
}

func (v *Options) setDefaults() {
	if v.Now == nil {
		v.Now = time.Now
	}
	if v.Rand == nil {
		v.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if v.Simulator == nil {
		v.Simulator = logExecutor{}
	}
	if v.MaxFailures == 0 {
		v.MaxFailures = 20
	}
}

func (v *Options) Check() error {
	return nil
}

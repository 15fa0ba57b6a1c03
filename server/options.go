// Copyright (c) 2023 BVK Chaitanya

package server

import (
	"fmt"
	"os"
	"time"

	"github.com/bvk/ladderbot/config"
	"github.com/bvk/ladderbot/exchange"
)

type Options struct {
	// NoResume when true, engines that were running at the last shutdown are
	// not restarted automatically.
	NoResume bool

	// Pairs are started by Start with the given configs.
	Pairs []*config.Config

	// Gateway overrides the exchange gateway created from the secrets.
	Gateway exchange.Gateway

	// AlertAfterFailures is the number of consecutive failed cycles of a pair
	// that trigger an alert.
	AlertAfterFailures int

	// AlertFreezeDuration is the minimum time between two alerts for a pair.
	AlertFreezeDuration time.Duration
}

func (v *Options) setDefaults() {
	if v.AlertAfterFailures == 0 {
		v.AlertAfterFailures = 3
	}
	if v.AlertFreezeDuration == 0 {
		v.AlertFreezeDuration = 30 * time.Minute
	}
}

func (v *Options) Check() error {
	if v.AlertAfterFailures < 0 {
		return fmt.Errorf("alert failure count cannot be negative: %w", os.ErrInvalid)
	}
	if v.AlertFreezeDuration < 0 {
		return fmt.Errorf("alert freeze duration cannot be negative: %w", os.ErrInvalid)
	}
	return nil
}

// Copyright (c) 2023 BVK Chaitanya

package httputil

import (
	"fmt"
	"os"
	"time"
)

type Options struct {
	// ReadyTimeout bounds the wait for a new listener to answer its first
	// request.
	ReadyTimeout time.Duration

	// ReadyRetryInterval is the pause between the readiness checks.
	ReadyRetryInterval time.Duration

	// ReadHeaderTimeout limits the time clients get to send request headers.
	ReadHeaderTimeout time.Duration
}

func (v *Options) setDefaults() {
	if v.ReadyTimeout == 0 {
		v.ReadyTimeout = 10 * time.Second
	}
	if v.ReadyRetryInterval == 0 {
		v.ReadyRetryInterval = 100 * time.Millisecond
	}
	if v.ReadHeaderTimeout == 0 {
		v.ReadHeaderTimeout = 10 * time.Second
	}
}

func (v *Options) Check() error {
	if v.ReadyTimeout < 0 || v.ReadyRetryInterval < 0 || v.ReadHeaderTimeout < 0 {
		return fmt.Errorf("http server timeouts cannot be negative: %w", os.ErrInvalid)
	}
	if v.ReadyRetryInterval > v.ReadyTimeout {
		return fmt.Errorf("ready retry interval %s exceeds the ready timeout %s: %w", v.ReadyRetryInterval, v.ReadyTimeout, os.ErrInvalid)
	}
	return nil
}

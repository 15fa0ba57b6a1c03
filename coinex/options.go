// Copyright (c) 2025 BVK Chaitanya

package coinex

import (
	"time"
)

type Options struct {
	// URLs for the REST and WebSocket service endpoints. Defaults to the
	// production endpoints.
	RestURL      string
	WebsocketURL string

	// Timeout to use for the HTTP requests.
	HttpClientTimeout time.Duration

	// MaxQuoteAge is the max age of a websocket quote. Older quotes are
	// refreshed over the REST api.
	MaxQuoteAge time.Duration

	// WebsocketPingInterval holds ping-pong interval for the websockets.
	WebsocketPingInterval time.Duration
}

func (v *Options) setDefaults() {
	if v.HttpClientTimeout == 0 {
		v.HttpClientTimeout = 5 * time.Second
	}
	if v.MaxQuoteAge == 0 {
		v.MaxQuoteAge = 10 * time.Second
	}
	if v.WebsocketPingInterval == 0 {
		v.WebsocketPingInterval = 30 * time.Second
	}
}

// Check validates the options.
func (v *Options) Check() error {
	return nil
}

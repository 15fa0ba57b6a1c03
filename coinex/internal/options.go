// Copyright (c) 2025 BVK Chaitanya

package internal

import (
	"net/url"
	"time"
)

var (
	RestURL = url.URL{
		Scheme: "https",
		Host:   "api.coinex.com",
		Path:   "/v2",
	}

	WebsocketURL = url.URL{
		Scheme: "wss",
		Host:   "socket.coinex.com",
		Path:   "/v2/spot",
	}
)

type Options struct {
	// URLs for the REST and WebSocket service endpoints.
	RestURL      string
	WebsocketURL string

	// Timeout to use for the HTTP requests.
	HttpClientTimeout time.Duration

	// RequestsPerSecond and RequestBurst configure the client side rate
	// limiter for REST requests.
	RequestsPerSecond float64
	RequestBurst      int

	// MaxRetries bounds the retries on 429 and 502 responses.
	MaxRetries int

	// WebsocketPingInterval holds ping-pong interval for the websockets.
	WebsocketPingInterval time.Duration
}

func (v *Options) setDefaults() {
	if v.RestURL == "" {
		v.RestURL = RestURL.String()
	}
	if v.WebsocketURL == "" {
		v.WebsocketURL = WebsocketURL.String()
	}
	if v.HttpClientTimeout == 0 {
		v.HttpClientTimeout = 5 * time.Second
	}
	if v.RequestsPerSecond == 0 {
		v.RequestsPerSecond = 10
	}
	if v.RequestBurst == 0 {
		v.RequestBurst = 5
	}
	if v.MaxRetries == 0 {
		v.MaxRetries = 3
	}
	if v.WebsocketPingInterval == 0 {
		v.WebsocketPingInterval = 30 * time.Second
	}
}

// Check validates the options.
func (v *Options) Check() error {
	if _, err := url.Parse(v.RestURL); err != nil {
		return err
	}
	if _, err := url.Parse(v.WebsocketURL); err != nil {
		return err
	}
	return nil
}

// Copyright (c) 2023 BVK Chaitanya

package exchange

import (
	"errors"
	"fmt"
	"os"
)

var (
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrNotFound is returned when an order is unknown to the exchange. It
	// matches os.ErrNotExist with errors.Is.
	ErrNotFound = fmt.Errorf("order not found: %w", os.ErrNotExist)

	// ErrRejected is returned when the exchange definitely did not accept an
	// order. Other placement errors, like timeouts, leave the outcome unknown.
	ErrRejected = errors.New("order rejected")
)

// IsNotFound returns true if the error indicates that an order doesn't exist
// on the exchange.
func IsNotFound(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// IsRejected returns true if the error proves that an order was never
// accepted by the exchange.
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}

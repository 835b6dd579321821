//go:build !linux

package gpio

import (
	"errors"
	"time"
)

// RealOutput is not available on non-Linux platforms.
type RealOutput struct{}

// NewRealOutput returns an error on non-Linux platforms.
func NewRealOutput(pin int) (*RealOutput, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Set is not implemented on non-Linux platforms.
func (o *RealOutput) Set(on bool) error {
	return errors.New("gpio: not supported")
}

// Pulse is not implemented on non-Linux platforms.
func (o *RealOutput) Pulse(d time.Duration) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (o *RealOutput) Close() error {
	return nil
}

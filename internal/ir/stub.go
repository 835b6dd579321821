//go:build !linux

package ir

import "errors"

// EventSource is unavailable off-Linux; builds on other platforms get a
// stub so development hosts still compile.
type EventSource struct{}

func NewEventSource(pin int) (*EventSource, error) {
	return nil, errors.New("ir receiver requires linux gpio character device support")
}

func (s *EventSource) Frames() <-chan Frame { return nil }

func (s *EventSource) Close() error { return nil }

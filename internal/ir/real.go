//go:build linux

package ir

import (
	"fmt"
	"log"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// EventSource reads falling edges from an IR receiver on a GPIO line and
// decodes them into frames. The VS1838B receiver idles high and pulls the
// line low on carrier bursts, so every burst start is a falling edge.
type EventSource struct {
	line   *gpiocdev.Line
	frames chan Frame

	// decode state, touched only from the gpiocdev event goroutine
	dec  Decoder
	last time.Duration
}

// NewEventSource requests the IR pin with edge detection and starts
// decoding. Frames are delivered on Frames().
func NewEventSource(pin int) (*EventSource, error) {
	s := &EventSource{
		frames: make(chan Frame, 8),
	}

	line, err := gpiocdev.RequestLine("gpiochip0", pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(s.onEdge))
	if err != nil {
		return nil, fmt.Errorf("request ir pin %d: %w", pin, err)
	}
	s.line = line
	return s, nil
}

func (s *EventSource) onEdge(evt gpiocdev.LineEvent) {
	gap := evt.Timestamp - s.last
	s.last = evt.Timestamp

	frame, ok := s.dec.Edge(gap)
	if !ok {
		return
	}
	select {
	case s.frames <- frame:
	default:
		// A stalled consumer must not block the kernel event goroutine.
		log.Printf("ir: frame dropped, consumer not keeping up")
	}
}

func (s *EventSource) Frames() <-chan Frame {
	return s.frames
}

// Close releases the GPIO line and closes the frame channel.
func (s *EventSource) Close() error {
	err := s.line.Close()
	close(s.frames)
	if err != nil {
		return fmt.Errorf("close ir pin: %w", err)
	}
	return nil
}

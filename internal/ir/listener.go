package ir

import (
	"fmt"
	"log"

	"github.com/mverac/saleswatch/internal/state"
)

// Listener consumes decoded frames, records the pressed button in shared
// state and applies mode switches for the digit buttons. Repeat frames are
// suppressed: holding a button down acts once.
type Listener struct {
	source  Source
	tracker *state.Tracker
}

func NewListener(source Source, tracker *state.Tracker) *Listener {
	return &Listener{source: source, tracker: tracker}
}

// Run drains the frame channel until the source closes it. Call it on its
// own goroutine.
func (l *Listener) Run() {
	for frame := range l.source.Frames() {
		l.handle(frame)
	}
}

func (l *Listener) handle(frame Frame) {
	if frame.Repeat {
		return
	}

	label, known := ButtonLabel(frame.Command)
	if !known {
		label = fmt.Sprintf("0x%02X", frame.Command)
	}
	l.tracker.SetIR(label)
	log.Printf("ir: button %s", label)

	if mode, ok := ModeForButton(label); ok {
		l.tracker.SetAlertMode(mode)
		log.Printf("ir: alert mode -> %s", mode)
	}
}

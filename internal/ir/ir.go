// Package ir decodes NEC infrared remote frames into button presses and
// applies alert-mode switches to shared state. The decoder is pure and
// testable without hardware; only the event source touches the GPIO line.
package ir

import (
	"github.com/mverac/saleswatch/internal/state"
)

// Frame is one decoded NEC transmission.
type Frame struct {
	Address uint8
	Command uint8
	// Repeat marks an NEC repeat frame: the button is still held down.
	Repeat bool
}

// Source delivers decoded frames. The real implementation wraps an
// event-driven GPIO line; tests feed frames directly.
type Source interface {
	Frames() <-chan Frame
	Close() error
}

// buttons maps NEC command bytes to labels for the 21-key remote shipped
// with the device.
var buttons = map[uint8]string{
	0x45: "POWER",
	0x46: "MODE",
	0x47: "MUTE",
	0x44: "PLAY",
	0x40: "PREV",
	0x43: "NEXT",
	0x07: "EQ",
	0x15: "MINUS",
	0x09: "PLUS",
	0x16: "0",
	0x19: "100+",
	0x0D: "200+",
	0x0C: "1",
	0x18: "2",
	0x5E: "3",
	0x08: "4",
	0x1C: "5",
	0x5A: "6",
	0x42: "7",
	0x52: "8",
	0x4A: "9",
}

// ButtonLabel returns the label for an NEC command byte.
func ButtonLabel(cmd uint8) (string, bool) {
	label, ok := buttons[cmd]
	return label, ok
}

// ModeForButton maps digit buttons to alert modes: 1 normal, 2 LED-only,
// 3 silent. Other buttons do not switch modes.
func ModeForButton(label string) (state.AlertMode, bool) {
	switch label {
	case "1":
		return state.ModeNormal, true
	case "2":
		return state.ModeLEDOnly, true
	case "3":
		return state.ModeSilent, true
	}
	return 0, false
}

package ir

import "time"

// NEC timing, measured as the spacing between successive falling edges of
// the demodulated receiver output. The protocol encodes each bit in that
// spacing: 9ms leader burst + 4.5ms gap opens a frame, 9ms + 2.25ms marks
// a repeat, then 32 bits follow LSB-first (address, ~address, command,
// ~command).
const (
	leaderSpacing = 13500 * time.Microsecond
	repeatSpacing = 11250 * time.Microsecond
	bitZero       = 1125 * time.Microsecond
	bitOne        = 2250 * time.Microsecond

	leaderTolerance = 1200 * time.Microsecond
	repeatTolerance = 800 * time.Microsecond
	bitTolerance    = 400 * time.Microsecond
)

// Decoder reassembles NEC frames from falling-edge spacings. Feed it the
// interval between successive falling edges; a completed, validated frame
// is returned with ok=true. Not safe for concurrent use.
type Decoder struct {
	collecting bool
	bits       uint
	value      uint32
}

// Edge consumes one falling-edge spacing. It returns a frame when the
// spacing completes a valid transmission.
func (d *Decoder) Edge(gap time.Duration) (Frame, bool) {
	switch {
	case within(gap, leaderSpacing, leaderTolerance):
		d.collecting = true
		d.bits = 0
		d.value = 0
		return Frame{}, false

	case within(gap, repeatSpacing, repeatTolerance):
		d.collecting = false
		return Frame{Repeat: true}, true
	}

	if !d.collecting {
		return Frame{}, false
	}

	switch {
	case within(gap, bitZero, bitTolerance):
		// bit stays 0
	case within(gap, bitOne, bitTolerance):
		d.value |= 1 << d.bits
	default:
		// Spacing outside every window: noise, abandon the frame.
		d.collecting = false
		return Frame{}, false
	}

	d.bits++
	if d.bits < 32 {
		return Frame{}, false
	}

	d.collecting = false
	return validate(d.value)
}

// validate checks the command against its inverse byte. The address inverse
// is deliberately not checked: extended NEC uses both address bytes.
func validate(v uint32) (Frame, bool) {
	cmd := uint8(v >> 16)
	inv := uint8(v >> 24)
	if cmd != ^inv {
		return Frame{}, false
	}
	return Frame{
		Address: uint8(v),
		Command: cmd,
	}, true
}

func within(gap, center, tolerance time.Duration) bool {
	return gap >= center-tolerance && gap <= center+tolerance
}

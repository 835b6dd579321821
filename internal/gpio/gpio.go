// Package gpio drives GPIO output lines with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "time"

// Output drives a single GPIO output line.
type Output interface {
	// Set drives the line high (true) or low (false).
	Set(on bool) error

	// Pulse drives the line high for d, then low. Blocks for the
	// duration.
	Pulse(d time.Duration) error

	// Close releases GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering), matching the reference wiring.
const (
	DefaultPinVibration = 13 // vibration motor driver
	DefaultPinLED       = 15 // alert LED
	DefaultPinIR        = 4  // demodulated IR receiver output
)

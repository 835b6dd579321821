//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealOutput drives a GPIO line on actual hardware using the Linux GPIO
// character device.
type RealOutput struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealOutput requests the given pin as an output, initially low.
func NewRealOutput(pin int) (*RealOutput, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}

	return &RealOutput{chip: chip, line: line}, nil
}

// Set drives the line high (true) or low (false).
func (o *RealOutput) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := o.line.SetValue(v); err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

// Pulse drives the line high for d, then low.
func (o *RealOutput) Pulse(d time.Duration) error {
	if err := o.Set(true); err != nil {
		return err
	}
	time.Sleep(d)
	return o.Set(false)
}

// Close drives the line low and releases GPIO resources. Reconfigures the
// pin back to input with pull-down (matching Pi boot defaults) so external
// driver transistors see a clean state across restarts.
func (o *RealOutput) Close() error {
	var errs []error

	if o.line != nil {
		if err := o.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("lower pin: %w", err))
		}
		if err := o.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin: %w", err))
		}
		if err := o.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin: %w", err))
		}
	}
	if o.chip != nil {
		if err := o.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

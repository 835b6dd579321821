package gpio

import "time"

// FakeOutput is a test double that records drive operations.
type FakeOutput struct {
	// States records every Set call in order. Pulse contributes a
	// true/false pair.
	States []bool

	// Pulses records the duration of each Pulse call. The fake does not
	// sleep.
	Pulses []time.Duration

	// SetError, if set, will be returned by Set and Pulse.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeOutput creates a FakeOutput for testing.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// Set records the requested state.
func (f *FakeOutput) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.States = append(f.States, on)
	return nil
}

// Pulse records the pulse without sleeping.
func (f *FakeOutput) Pulse(d time.Duration) error {
	if err := f.Set(true); err != nil {
		return err
	}
	f.Pulses = append(f.Pulses, d)
	return f.Set(false)
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded operations.
func (f *FakeOutput) Reset() {
	f.States = nil
	f.Pulses = nil
	f.Closed = false
	f.SetError = nil
}

package mqtt

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	// Alerts contains all alert events that were published.
	Alerts []AlertEvent

	// AlertPayloads contains the JSON payloads for alert events.
	AlertPayloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishAlertError, if set, will be returned by PublishAlert.
	PublishAlertError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishAlert records the alert event.
func (f *FakePublisher) PublishAlert(event AlertEvent) error {
	if f.PublishAlertError != nil {
		return f.PublishAlertError
	}

	f.Alerts = append(f.Alerts, event)

	payload, err := FormatAlertPayload(event)
	if err != nil {
		return err
	}
	f.AlertPayloads = append(f.AlertPayloads, payload)

	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded events.
func (f *FakePublisher) Reset() {
	f.Alerts = nil
	f.AlertPayloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishAlertError = nil
	f.PublishSystemError = nil
	f.Connected = false
}

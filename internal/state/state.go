// Package state provides the thread-safe shared state record for the
// saleswatch daemon. The sale poller is the only writer of sale/product
// fields; the HTTP status server and the notification dispatcher read
// concurrently through value-type snapshots.
package state

import (
	"sync"
	"time"
)

// AlertMode selects the physical alert behavior for dispatched events.
type AlertMode int

const (
	ModeNormal  AlertMode = 0 // vibration + LED
	ModeLEDOnly AlertMode = 1 // LED only, no vibration
	ModeSilent  AlertMode = 2 // no physical alert
)

// String returns the display label for the mode.
func (m AlertMode) String() string {
	switch m {
	case ModeNormal:
		return "NORMAL"
	case ModeLEDOnly:
		return "LED_ONLY"
	case ModeSilent:
		return "SILENT"
	}
	return "UNKNOWN"
}

// NetworkInfo contains network state as reported by pi-helper env vars.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs   int64
	HTTPAddr string
	Broker   string
	APIBase  string
}

// SaleState is the reconciled view of the most recent sale and its product,
// rebuilt wholesale by the poller each successful cycle.
type SaleState struct {
	SaleID  int64
	RawJSON string
	OK      bool

	ProductName  string
	ProductCode  string // numeric code as text; "unknown" when resolution failed
	ProductID    int64  // -1 when no line item or reference not parseable
	ProductStock int
	ProductSold  int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Sale      SaleState
	LastError string

	Mode   AlertMode
	LastIR string
	IRSeq  uint64

	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
// The initial product id is -1 (nothing observed yet).
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Sale:      SaleState{ProductID: -1},
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// SetSale publishes a fully-reconciled sale record. It replaces every
// sale/product field in one critical section so readers never observe a
// torn mix of two cycles, and clears the last error (success path).
func (t *Tracker) SetSale(s SaleState) {
	t.mu.Lock()
	t.snap.Sale = s
	t.snap.LastError = ""
	t.mu.Unlock()
}

// RecordError stores the latest failure message. Only the most recent
// error is retained.
func (t *Tracker) RecordError(msg string) {
	t.mu.Lock()
	t.snap.LastError = msg
	t.mu.Unlock()
}

// ClearError clears the last error without touching sale fields. Used by
// success paths that leave state otherwise unchanged (e.g. empty results).
func (t *Tracker) ClearError() {
	t.mu.Lock()
	t.snap.LastError = ""
	t.mu.Unlock()
}

// SetAlertMode switches the alert mode.
func (t *Tracker) SetAlertMode(m AlertMode) {
	t.mu.Lock()
	t.snap.Mode = m
	t.mu.Unlock()
}

// AlertMode returns the current alert mode.
func (t *Tracker) AlertMode() AlertMode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap.Mode
}

// SetIR records a decoded remote button press and bumps the sequence
// counter so the UI can detect repeated presses of the same button.
func (t *Tracker) SetIR(label string) {
	t.mu.Lock()
	t.snap.LastIR = label
	t.snap.IRSeq++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

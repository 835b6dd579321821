// Package notify dispatches edge-triggered sale events to the physical and
// remote alert backends. The poller only sees the Notifier capability; mode
// gating and alert patterns live here, never in the core.
package notify

import (
	"log"
	"time"

	"github.com/mverac/saleswatch/internal/api"
	"github.com/mverac/saleswatch/internal/mqtt"
	"github.com/mverac/saleswatch/internal/state"
)

var _ api.Notifier = (*Dispatcher)(nil)

// Pulser drives a single output line in timed pulses. Implemented by
// gpio.FakeOutput and gpio.RealOutput.
type Pulser interface {
	Pulse(d time.Duration) error
}

// Dispatcher turns zero-argument events into alert patterns on the vibration
// motor and LED, gated by the current alert mode, and always forwards the
// event to the MQTT viewer channel.
//
// Pulse patterns follow the reference device: one long pulse for a new sale,
// two short pulses for a stock-out, three pulses for an invalid product.
type Dispatcher struct {
	tracker *state.Tracker
	motor   Pulser
	led     Pulser
	events  mqtt.Publisher

	// sleep is injectable so tests do not wait out inter-pulse gaps.
	sleep func(time.Duration)
}

// NewDispatcher wires a Dispatcher. motor, led and events may each be nil to
// disable that backend.
func NewDispatcher(tracker *state.Tracker, motor, led Pulser, events mqtt.Publisher) *Dispatcher {
	return &Dispatcher{
		tracker: tracker,
		motor:   motor,
		led:     led,
		events:  events,
		sleep:   time.Sleep,
	}
}

// NewSale signals that a sale with an unseen id was observed.
func (d *Dispatcher) NewSale() {
	log.Printf("alert: new sale")
	d.dispatch(mqtt.AlertNewSale, pattern{count: 1, width: 300 * time.Millisecond, gap: 0})
}

// StockZero signals the onset of a stock-out on the resolved product.
func (d *Dispatcher) StockZero() {
	log.Printf("alert: stock zero")
	d.dispatch(mqtt.AlertStockZero, pattern{count: 2, width: 200 * time.Millisecond, gap: 150 * time.Millisecond})
}

// ProductInvalid signals the onset of a failed product resolution.
func (d *Dispatcher) ProductInvalid() {
	log.Printf("alert: product invalid")
	d.dispatch(mqtt.AlertProductInvalid, pattern{count: 3, width: 300 * time.Millisecond, gap: 200 * time.Millisecond})
}

type pattern struct {
	count int
	width time.Duration
	gap   time.Duration
}

func (d *Dispatcher) dispatch(kind mqtt.AlertType, pat pattern) {
	mode := d.tracker.AlertMode()

	// The viewer channel is mode-independent: the paired page applies its
	// own audio gate.
	if d.events != nil {
		if err := d.events.PublishAlert(mqtt.NewAlert(kind, int(mode))); err != nil {
			log.Printf("alert publish error: %v", err)
		}
	}

	if mode != state.ModeSilent {
		d.run(d.led, pat)
	}
	if mode == state.ModeNormal {
		d.run(d.motor, pat)
	}
}

func (d *Dispatcher) run(out Pulser, pat pattern) {
	if out == nil {
		return
	}
	for i := 0; i < pat.count; i++ {
		if i > 0 {
			d.sleep(pat.gap)
		}
		if err := out.Pulse(pat.width); err != nil {
			log.Printf("pulse error: %v", err)
			return
		}
	}
}

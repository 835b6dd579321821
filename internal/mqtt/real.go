package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// alertBufferCap bounds how many alerts are held for replay while the
// broker is unreachable.
const alertBufferCap = 64

// RealPublisher publishes to an actual MQTT broker. It connects in the
// background with retry; alerts raised while disconnected are buffered and
// replayed on (re)connect.
type RealPublisher struct {
	client paho.Client

	mu  sync.Mutex
	buf *ringBuffer
}

// NewRealPublisher creates a publisher for the given broker. The initial
// connection happens in the background; a down broker does not block
// startup.
func NewRealPublisher(broker string) *RealPublisher {
	p := &RealPublisher{buf: newRingBuffer(alertBufferCap)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("saleswatch").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) {
			p.replay()
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

// PublishAlert sends an alert event, or buffers it when disconnected.
func (p *RealPublisher) PublishAlert(event AlertEvent) error {
	payload, err := FormatAlertPayload(event)
	if err != nil {
		return fmt.Errorf("format alert payload: %w", err)
	}

	if !p.client.IsConnected() {
		p.mu.Lock()
		p.buf.push(bufferedMsg{topic: TopicAlerts, payload: payload, qos: 1})
		p.mu.Unlock()
		return nil
	}

	return p.send(TopicAlerts, 1, false, payload)
}

// PublishSystem sends a system lifecycle event to the broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once): lifecycle events matter to the viewer feed.
	return p.send(TopicSystem, 1, event.Retained, payload)
}

// IsConnected reports the broker connection state.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// replay flushes alerts buffered during a disconnect.
func (p *RealPublisher) replay() {
	p.mu.Lock()
	msgs := p.buf.drainAll()
	p.mu.Unlock()

	if len(msgs) == 0 {
		return
	}
	log.Printf("mqtt: connected, replaying %d buffered alerts", len(msgs))
	for _, m := range msgs {
		if err := p.send(m.topic, m.qos, m.retained, m.payload); err != nil {
			log.Printf("mqtt: replay error: %v", err)
		}
	}
}

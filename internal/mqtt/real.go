package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sadeepas/Smart-Water-Monitor-AND-Automatic-Pump-Controller/internal/logic"
)

// pendingCapacity bounds the number of messages held while disconnected.
const pendingCapacity = 64

// RealPublisher publishes to an actual MQTT broker.
//
// While the broker is unreachable, pump events and system events are held
// in a bounded buffer and replayed on reconnect. Status reports are not
// buffered: the next tick supersedes them.
type RealPublisher struct {
	client paho.Client

	mu      sync.Mutex // guards pending; replay runs on paho's goroutine
	pending *ringBuffer
}

// NewRealPublisher creates a publisher connected to the given broker.
// If onConfig is non-nil, the publisher subscribes to TopicConfig and
// invokes it with each received payload.
func NewRealPublisher(broker string, onConfig func([]byte)) (*RealPublisher, error) {
	p := &RealPublisher{
		pending: newRingBuffer(pendingCapacity),
	}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("tank-controller").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(TopicSystem, will, 1, false)

	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Printf("mqtt: connection lost: %v", err)
	})

	// Runs on every (re)connect, on paho's goroutine.
	opts.SetOnConnectHandler(func(client paho.Client) {
		if onConfig != nil {
			token := client.Subscribe(TopicConfig, 1, func(_ paho.Client, msg paho.Message) {
				onConfig(msg.Payload())
			})
			logTokenFailure("subscribe "+TopicConfig, token)
		}
		p.replayPending(client)
	})

	client := paho.NewClient(opts)
	token := client.Connect()
	if token.WaitTimeout(10*time.Second) && token.Error() != nil {
		return nil, fmt.Errorf("connect to broker: %w", token.Error())
	}
	// A timeout is not fatal: connect retry keeps working in the
	// background, and pending messages replay once the broker appears.

	p.client = client
	return p, nil
}

// PublishEvent sends a pump transition event to the MQTT broker.
// Events are buffered for replay if the broker is unreachable.
func (p *RealPublisher) PublishEvent(event logic.Event) error {
	payload, err := FormatEventPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	return p.publishOrBuffer(TopicEvents, 0, false, payload)
}

// PublishStatus sends a periodic status report to the MQTT broker.
// Reports are dropped while disconnected; a stale report has no value
// once the next tick has produced a fresh one.
func (p *RealPublisher) PublishStatus(report []byte) error {
	if !p.client.IsConnected() {
		return nil
	}

	// Retained so new subscribers see the latest report immediately.
	token := p.client.Publish(TopicStatus, 0, true, report)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish status timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish status: %w", err)
	}

	return nil
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	return p.publishOrBuffer(TopicSystem, 1, event.Retained, payload)
}

func (p *RealPublisher) publishOrBuffer(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		p.pending.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		n := p.pending.len()
		p.mu.Unlock()
		log.Printf("mqtt: disconnected, buffered message for %s (%d pending)", topic, n)
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	return nil
}

// logTokenFailure logs a token that timed out or failed. A timeout gets a
// line too: a config subscription that silently never completed leaves the
// controller deaf to patches with nothing in the log to show for it.
func logTokenFailure(op string, token paho.Token) {
	if !token.WaitTimeout(5 * time.Second) {
		log.Printf("mqtt: %s: timeout", op)
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("mqtt: %s: %v", op, err)
	}
}

func (p *RealPublisher) replayPending(client paho.Client) {
	p.mu.Lock()
	dropped := p.pending.droppedCount()
	msgs := p.pending.drainAll()
	p.mu.Unlock()

	if len(msgs) == 0 {
		return
	}
	if dropped > 0 {
		log.Printf("mqtt: replaying %d buffered messages (%d dropped while offline)", len(msgs), dropped)
	} else {
		log.Printf("mqtt: replaying %d buffered messages", len(msgs))
	}

	for _, m := range msgs {
		token := client.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5 * time.Second) {
			log.Printf("mqtt: replay publish timeout on %s", m.topic)
			continue
		}
		if err := token.Error(); err != nil {
			log.Printf("mqtt: replay publish %s: %v", m.topic, err)
		}
	}
}

// IsConnected reports whether the broker connection is currently up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

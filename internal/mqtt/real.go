package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/sweeney/boil-monitor/internal/logic"
)

// BufferSize is how many messages are held while the broker is unreachable.
const BufferSize = 64

const publishTimeout = 5 * time.Second

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are buffered and replayed once it comes back.
type RealPublisher struct {
	client paho.Client
	log    logrus.FieldLogger

	mu     sync.Mutex
	outbox *outbox
}

// NewRealPublisher starts connecting to broker in the background and
// returns immediately. The broker holds a retained LWT on TopicSystem.
func NewRealPublisher(broker, clientID string, log logrus.FieldLogger) *RealPublisher {
	p := newPublisher(nil, log)

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(WillPayload(time.Now())), 1, true).
		SetOnConnectHandler(func(c paho.Client) {
			log.WithField("broker", broker).Info("mqtt connected")
			p.flush()
		}).
		SetConnectionLostHandler(func(c paho.Client, err error) {
			log.WithError(err).Warn("mqtt connection lost")
		})

	p.client = paho.NewClient(opts)
	// With ConnectRetry the token completes only on success; don't wait.
	p.client.Connect()
	return p
}

func newPublisher(client paho.Client, log logrus.FieldLogger) *RealPublisher {
	return &RealPublisher{
		client: client,
		log:    log,
		outbox: newOutbox(BufferSize),
	}
}

// Publish sends a boil event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 1: a boil alert is worth a duplicate
	return p.send(outboundMsg{topic: Topic, payload: payload, qos: 1})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.send(outboundMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

// IsConnected reports whether the client currently has a live connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second quiesce
	return nil
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outbox.size()
}

func (p *RealPublisher) send(msg outboundMsg) error {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		if p.outbox.add(msg) {
			p.log.WithField("capacity", BufferSize).Warn("mqtt buffer full, dropping oldest")
		}
		p.mu.Unlock()
		p.log.WithField("topic", msg.topic).Debug("mqtt offline, message buffered")
		return nil
	}
	p.mu.Unlock()
	return p.publish(msg)
}

func (p *RealPublisher) publish(msg outboundMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", msg.topic, err)
	}
	return nil
}

// flush replays buffered messages in order. Called on every (re)connect.
func (p *RealPublisher) flush() {
	p.mu.Lock()
	msgs, dropped := p.outbox.take()
	p.mu.Unlock()

	if len(msgs) == 0 {
		return
	}
	p.log.WithFields(logrus.Fields{"count": len(msgs), "dropped": dropped}).Info("mqtt replaying buffered messages")
	for _, msg := range msgs {
		if err := p.publish(msg); err != nil {
			p.log.WithError(err).Warn("mqtt replay failed")
		}
	}
}

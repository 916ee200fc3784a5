package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/travel-reservation/internal/queue"
)

// ErrProducerClosed is returned by Publish after Close.
var ErrProducerClosed = errors.New("kafka producer closed")

// KafkaPublisher hands envelopes to a buffered inbox drained by a single
// writer goroutine.  Messages are keyed by booking id so every event of a
// booking lands on the same partition.
type KafkaPublisher struct {
	w     *kafka.Writer
	inbox chan kafka.Message
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewKafkaPublisher starts the writer loop.  buf bounds the inbox; Publish
// blocks while it is full.
func NewKafkaPublisher(brokers []string, topic string, buf int) *KafkaPublisher {
	if topic == "" {
		topic = DefaultQueue
	}
	if buf <= 0 {
		buf = 256
	}
	p := &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
		},
		inbox: make(chan kafka.Message, buf),
		done:  make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *KafkaPublisher) loop() {
	defer close(p.done)
	for m := range p.inbox {
		if err := p.w.WriteMessages(context.Background(), m); err != nil {
			logrus.WithError(err).WithField("key", string(m.Key)).Warn("kafka write failed")
		}
	}
	if err := p.w.Close(); err != nil {
		logrus.WithError(err).Warn("kafka writer close failed")
	}
}

// Publish queues ev for delivery.
func (p *KafkaPublisher) Publish(ctx context.Context, ev queue.Envelope) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ev.EventType, err)
	}
	key, err := bookingKey(ev)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   key,
		Value: body,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.EventType)},
			{Key: "correlation_id", Value: []byte(ev.CorrelationID)},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}
	select {
	case p.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes the inbox and waits for the writer to finish.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
	p.mu.Unlock()
	<-p.done
	return nil
}

func bookingKey(ev queue.Envelope) ([]byte, error) {
	var ref struct {
		BookingID string `json:"booking_id"`
	}
	if err := json.Unmarshal(ev.Payload, &ref); err != nil {
		return nil, fmt.Errorf("read booking id from %s: %w", ev.EventType, err)
	}
	return []byte(ref.BookingID), nil
}

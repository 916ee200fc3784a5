package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/travel-reservation/internal/queue"
)

// Broker names accepted by New.
const (
	BrokerRabbitMQ = "rabbitmq"
	BrokerKafka    = "kafka"
	BrokerNone     = "none"
)

// Publisher is a closable event sink.
type Publisher interface {
	Publish(ctx context.Context, ev queue.Envelope) error
	Close() error
}

// Options selects and configures the broker.
type Options struct {
	Broker      string
	RabbitMQURL string
	Queue       string
	KafkaBroker []string
	KafkaTopic  string
}

// New returns the publisher for opts.Broker.
func New(opts Options) (Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Broker)) {
	case BrokerRabbitMQ:
		return NewRabbitMQPublisher(opts.RabbitMQURL, opts.Queue), nil
	case BrokerKafka:
		if len(opts.KafkaBroker) == 0 {
			return nil, fmt.Errorf("kafka broker list is empty")
		}
		return NewKafkaPublisher(opts.KafkaBroker, opts.KafkaTopic, 0), nil
	case BrokerNone, "":
		return Discard{}, nil
	default:
		return nil, fmt.Errorf("unknown events broker %q", opts.Broker)
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, queue.Envelope) error { return nil }
func (Discard) Close() error                                  { return nil }

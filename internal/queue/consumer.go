package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// DefaultLogPath is where the consumer appends one line per booking event.
var DefaultLogPath = filepath.Join("logs", "booking.log")

// BookingLog appends human-readable event lines to a file.
type BookingLog struct {
	path string
	mu   sync.Mutex
}

// NewBookingLog returns a log writing to path, or DefaultLogPath when empty.
func NewBookingLog(path string) *BookingLog {
	if path == "" {
		path = DefaultLogPath
	}
	return &BookingLog{path: path}
}

// Handle decodes one message body and appends its line.
func (l *BookingLog) Handle(body []byte) error {
	var ev Envelope
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}
	line, err := formatLine(ev)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatLine(ev Envelope) (string, error) {
	ts := ev.OccurredAt.UTC().Format(time.RFC3339)
	switch ev.EventType {
	case EventBookingConfirmed, EventBookingPending:
		p, err := DecodePayload[BookingPayload](ev.Payload)
		if err != nil {
			return "", err
		}
		verb := "confirmed"
		if ev.EventType == EventBookingPending {
			verb = "pending"
		}
		return fmt.Sprintf("[%s] Booking %s | booking_id=%s | user_id=%d | %s=%d | unit=%q | from=%s | to=%s | party=%d | total=%d %s\n",
			ts, verb, p.BookingID, p.UserID, p.ResourceType, p.ResourceID, p.Unit, p.StartDate, p.EndDate,
			p.PartySize, p.Total, p.Currency), nil
	case EventBookingCancelled:
		p, err := DecodePayload[BookingCancelledPayload](ev.Payload)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("[%s] Booking cancelled | booking_id=%s | user_id=%d | %s=%d | unit=%q | charge=%d | refund=%d %s | reason=%q\n",
			ts, p.BookingID, p.UserID, p.ResourceType, p.ResourceID, p.Unit, p.Charge, p.Refund, p.Currency, p.Reason), nil
	default:
		return "", fmt.Errorf("unknown event type %q", ev.EventType)
	}
}

// Consumer reads booking events from RabbitMQ and records them in a
// BookingLog.
type Consumer struct {
	URL   string
	Queue string
	Log   *BookingLog
}

// Run consumes until ctx is cancelled, reconnecting with exponential
// backoff when the broker goes away.  Malformed messages are rejected
// without requeue so they cannot loop.
func (c *Consumer) Run(ctx context.Context) error {
	if c.Log == nil {
		c.Log = NewBookingLog("")
	}
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			logrus.WithError(err).Warnf("booking-consumer: dial failed; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return nil
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		logrus.WithError(err).Warn("booking-consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logrus.WithError(err).Warn("booking-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Log.Handle(d.Body); err != nil {
				logrus.WithError(err).WithField("message_id", d.MessageId).Error("booking-consumer: handle message failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

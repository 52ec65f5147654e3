// Package queue publishes engine events to RabbitMQ. Publishing is best
// effort: failures are logged and never reach the operation that produced
// the event.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-reservations/events"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

const publishTimeout = 3 * time.Second

// Publisher sends every event as a persistent JSON message to one durable
// queue through the default exchange. The connection is opened on first use
// and reopened after a failure.
type Publisher struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url, queue string) *Publisher {
	return &Publisher{url: url, queue: queue}
}

func (p *Publisher) Queue() string { return p.queue }

// Notify implements events.Notifier.
func (p *Publisher) Notify(ctx context.Context, msg events.Message) {
	if err := p.Publish(ctx, msg); err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{"event": msg.Event, "queue": p.queue}).
			WithError(err).Warn("rabbitmq: publish failed")
	}
}

// Publish sends msg and reports any failure.
func (p *Publisher) Publish(ctx context.Context, msg events.Message) error {
	pub, err := newPublishing(msg)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	// The request ctx may already be done by the time events fire.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := ch.PublishWithContext(pctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		p.reset()
		return err
	}
	return nil
}

func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	if p.url == "" {
		return nil, errors.New("rabbitmq: no url configured")
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Dial:      amqp.DefaultDial(publishTimeout),
	})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	p.conn, p.ch = conn, ch
	utils.InfoLogger.WithField("queue", p.queue).Info("rabbitmq: connected")
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

func newPublishing(msg events.Message) (amqp.Publishing, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         msg.Event,
		Timestamp:    msg.OccurredAt,
		Body:         body,
	}, nil
}

package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/MrJamesThe3rd/comanda/internal/notify"
)

// Envelope is the JSON body of every published message.
type Envelope struct {
	Topic       notify.Topic `json:"topic"`
	Payload     any          `json:"payload"`
	PublishedAt time.Time    `json:"published_at"`
}

type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type connection interface {
	channel() (channel, error)
	IsClosed() bool
	Close() error
}

type amqpConnection struct {
	*amqp.Connection
}

func (c amqpConnection) channel() (channel, error) {
	ch, err := c.Channel()
	if err != nil {
		return nil, err
	}

	return ch, nil
}

func dial(url string) (connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	return amqpConnection{conn}, nil
}

// Publisher publishes events to a durable topic exchange, using the topic as
// routing key so clients can bind to "order.*", "table.*" and so on.
type Publisher struct {
	url      string
	exchange string
	timeout  time.Duration
	dial     func(url string) (connection, error)

	mu   sync.Mutex
	conn connection
	ch   channel
}

func New(url, exchange string, timeout time.Duration) (*Publisher, error) {
	p := &Publisher{
		url:      url,
		exchange: exchange,
		timeout:  timeout,
		dial:     dial,
	}

	if err := p.ensure(); err != nil {
		return nil, err
	}

	return p, nil
}

// ensure reopens whatever part of the link is down. A closed channel on a
// live connection only gets a new channel; a dead connection is closed
// before a new one is dialled.
func (p *Publisher) ensure() error {
	if p.conn != nil && !p.conn.IsClosed() {
		if p.ch != nil && !p.ch.IsClosed() {
			return nil
		}

		slog.Warn("rabbitmq channel closed, reopening")

		return p.openChannel()
	}

	if p.conn != nil {
		slog.Warn("rabbitmq connection lost, reconnecting")
		p.conn.Close()
	}

	p.conn, p.ch = nil, nil

	conn, err := p.dial(p.url)
	if err != nil {
		return fmt.Errorf("dialing rabbitmq: %w", err)
	}

	p.conn = conn

	return p.openChannel()
}

func (p *Publisher) openChannel() error {
	ch, err := p.conn.channel()
	if err != nil {
		return fmt.Errorf("opening channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		ch.Close()

		return fmt.Errorf("declaring exchange %s: %w", p.exchange, err)
	}

	p.ch = ch

	return nil
}

func (p *Publisher) Publish(ctx context.Context, topic notify.Topic, payload any) error {
	body, err := json.Marshal(Envelope{
		Topic:       topic,
		Payload:     payload,
		PublishedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", topic, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensure(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(ctx,
		p.exchange,    // exchange
		string(topic), // routing key
		false,         // mandatory
		false,         // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Timestamp:    time.Now(),
			Body:         body,
		})
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil && !p.ch.IsClosed() {
		if err := p.ch.Close(); err != nil {
			return fmt.Errorf("closing rabbitmq channel: %w", err)
		}
	}

	if p.conn != nil && !p.conn.IsClosed() {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("closing rabbitmq connection: %w", err)
		}
	}

	return nil
}

var _ notify.Publisher = (*Publisher)(nil)

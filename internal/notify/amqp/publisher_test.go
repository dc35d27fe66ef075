package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/comanda/internal/notify"
)

type fakeChannel struct {
	closed    bool
	published []amqp.Publishing
	keys      []string
}

func (c *fakeChannel) ExchangeDeclare(string, string, bool, bool, bool, bool, amqp.Table) error {
	return nil
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)

	return nil
}

func (c *fakeChannel) IsClosed() bool { return c.closed }

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

type fakeConnection struct {
	closed   bool
	closes   int
	channels []*fakeChannel
}

func (c *fakeConnection) channel() (channel, error) {
	ch := &fakeChannel{}
	c.channels = append(c.channels, ch)

	return ch, nil
}

func (c *fakeConnection) IsClosed() bool { return c.closed }

func (c *fakeConnection) Close() error {
	c.closes++
	c.closed = true

	return nil
}

type fakeBroker struct {
	conns []*fakeConnection
	err   error
}

func (b *fakeBroker) dial(string) (connection, error) {
	if b.err != nil {
		return nil, b.err
	}

	conn := &fakeConnection{}
	b.conns = append(b.conns, conn)

	return conn, nil
}

func newTestPublisher(t *testing.T) (*Publisher, *fakeBroker) {
	t.Helper()

	broker := &fakeBroker{}
	p := &Publisher{url: "amqp://test", exchange: "comanda.events", timeout: time.Second, dial: broker.dial}
	require.NoError(t, p.ensure())

	return p, broker
}

func TestPublish_Envelope(t *testing.T) {
	p, broker := newTestPublisher(t)

	require.NoError(t, p.Publish(context.Background(), notify.TopicTableCall, map[string]int{"number": 7}))

	ch := broker.conns[0].channels[0]
	require.Len(t, ch.published, 1)
	assert.Equal(t, "table.call", ch.keys[0])
	assert.Equal(t, "application/json", ch.published[0].ContentType)

	var env struct {
		Topic   string         `json:"topic"`
		Payload map[string]int `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &env))
	assert.Equal(t, "table.call", env.Topic)
	assert.Equal(t, 7, env.Payload["number"])
}

func TestPublish_ClosedChannelReusesConnection(t *testing.T) {
	p, broker := newTestPublisher(t)

	broker.conns[0].channels[0].closed = true

	require.NoError(t, p.Publish(context.Background(), notify.TopicOrderCreated, nil))

	require.Len(t, broker.conns, 1, "no second connection dialled")
	assert.Equal(t, 0, broker.conns[0].closes)
	require.Len(t, broker.conns[0].channels, 2)
	assert.Len(t, broker.conns[0].channels[1].published, 1)
}

func TestPublish_DeadConnectionIsReplaced(t *testing.T) {
	p, broker := newTestPublisher(t)

	broker.conns[0].closed = true

	require.NoError(t, p.Publish(context.Background(), notify.TopicOrderCreated, nil))

	require.Len(t, broker.conns, 2)
	assert.Equal(t, 1, broker.conns[0].closes, "stale connection released")
	assert.Len(t, broker.conns[1].channels[0].published, 1)
}

func TestPublish_BrokerDown(t *testing.T) {
	p, broker := newTestPublisher(t)

	broker.conns[0].closed = true
	broker.err = errors.New("connection refused")

	err := p.Publish(context.Background(), notify.TopicOrderCreated, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dialing rabbitmq")
}

package messaging

import (
	"context"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPDialer connects to AMQP 0-9-1 brokers (amqp:// and amqps://).
type AMQPDialer struct {
	Heartbeat   time.Duration
	DialTimeout time.Duration
}

func (d AMQPDialer) Dial(ctx context.Context, url string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	heartbeat, timeout := d.Heartbeat, d.DialTimeout
	if heartbeat == 0 {
		heartbeat = 10 * time.Second
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: heartbeat,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return nil, errors.Wrap(err, "amqp dial")
	}
	return newAMQPSession(conn), nil
}

type amqpSession struct {
	conn   *amqp.Connection
	closed chan error
}

func newAMQPSession(conn *amqp.Connection) *amqpSession {
	notify := conn.NotifyClose(make(chan *amqp.Error, 1))
	closed := make(chan error, 1)
	go func() {
		defer close(closed)
		// A graceful close closes notify without sending.
		if amqpErr, ok := <-notify; ok && amqpErr != nil {
			closed <- amqpErr
		}
	}()
	return &amqpSession{conn: conn, closed: closed}
}

func (s *amqpSession) Channel() (Channel, error) {
	ch, err := s.conn.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "amqp channel")
	}
	return &amqpChannel{ch: ch}, nil
}

func (s *amqpSession) NotifyClose() <-chan error { return s.closed }

func (s *amqpSession) Close() error {
	if s.conn.IsClosed() {
		return nil
	}
	return s.conn.Close()
}

type amqpChannel struct {
	ch *amqp.Channel
}

func (c *amqpChannel) DeclareExchange(name, kind string) error {
	err := c.ch.ExchangeDeclare(name, kind, true, false, false, false, nil)
	return errors.Wrapf(err, "declare exchange %s", name)
}

func (c *amqpChannel) Publish(ctx context.Context, exchange, routingKey string, msg Message) error {
	publishing := amqp.Publishing{
		ContentType: msg.ContentType,
		Timestamp:   msg.Timestamp,
		Body:        msg.Body,
	}
	if msg.Persistent {
		publishing.DeliveryMode = amqp.Persistent
	}
	err := c.ch.PublishWithContext(ctx, exchange, routingKey, false, false, publishing)
	return errors.Wrapf(err, "publish %s", routingKey)
}

func (c *amqpChannel) Close() error {
	if c.ch.IsClosed() {
		return nil
	}
	return c.ch.Close()
}

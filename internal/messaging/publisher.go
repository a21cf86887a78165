package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var ErrNotInitialized = errors.New("messaging: publisher not initialized")

const (
	ExchangeFanout = "fanout"
	ExchangeTopic  = "topic"
	ExchangeDirect = "direct"
)

// Publisher sends JSON events to one exchange. Publish fails fast while the
// connection is down; it never retries or buffers.
type Publisher struct {
	conn     *Connection
	exchange string
	kind     string

	mu         sync.Mutex
	channel    Channel
	generation uint64
	registered bool
	closed     bool
}

func NewPublisher(conn *Connection, exchange, kind string) (*Publisher, error) {
	switch kind {
	case ExchangeFanout, ExchangeTopic, ExchangeDirect:
	default:
		return nil, errors.Errorf("unsupported exchange kind %q", kind)
	}
	if exchange == "" {
		return nil, errors.New("exchange name is required")
	}
	return &Publisher{conn: conn, exchange: exchange, kind: kind}, nil
}

func (p *Publisher) Exchange() string { return p.exchange }

// Initialize opens a channel, declares the exchange and arranges for both to
// be redone after every reconnection.
func (p *Publisher) Initialize(ctx context.Context) error {
	if err := p.open(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.registered {
		p.registered = true
		p.conn.OnReconnect(func(context.Context) error { return p.open() })
	}
	return nil
}

func (p *Publisher) open() error {
	ch, generation, err := p.conn.openChannel()
	if err != nil {
		return err
	}
	if err := ch.DeclareExchange(p.exchange, p.kind); err != nil {
		_ = ch.Close()
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || generation < p.generation {
		return ch.Close()
	}
	stale := p.channel
	p.channel = ch
	p.generation = generation
	if stale != nil {
		_ = stale.Close()
	}
	return nil
}

func (p *Publisher) Publish(ctx context.Context, event any, routingKey string) error {
	p.mu.Lock()
	ch, generation := p.channel, p.generation
	p.mu.Unlock()

	// A channel from a replaced session stays unusable until the reconnect
	// callback reopens it.
	live, connected := p.conn.live()
	if ch == nil || !connected || live != generation {
		return ErrNotInitialized
	}

	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "encode event")
	}
	return ch.Publish(ctx, p.exchange, routingKey, Message{
		Body:        body,
		ContentType: "application/json",
		Timestamp:   time.Now().UTC(),
		Persistent:  true,
	})
}

// Close releases this publisher's channel; the connection stays open.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	ch := p.channel
	p.channel = nil
	if ch == nil {
		return nil
	}
	return ch.Close()
}

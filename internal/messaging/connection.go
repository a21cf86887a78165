package messaging

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var (
	// ErrChannelUnavailable is returned by Channel while no session is live.
	ErrChannelUnavailable = errors.New("messaging: channel unavailable, connection not established")
	ErrConnectionClosed   = errors.New("messaging: connection closed")
)

// ConnectionError reports a failed connection attempt. The URL is redacted.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("messaging: connect to %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Message is a broker-neutral publishing.
type Message struct {
	Body        []byte
	ContentType string
	Timestamp   time.Time
	Persistent  bool
}

// Dialer opens sessions against one kind of broker.
type Dialer interface {
	Dial(ctx context.Context, url string) (Session, error)
}

// Session is one live broker connection.
type Session interface {
	Channel() (Channel, error)
	// NotifyClose delivers the cause of an unexpected closure and is closed
	// once the session is gone.
	NotifyClose() <-chan error
	Close() error
}

// Channel publishes on a Session.
type Channel interface {
	DeclareExchange(name, kind string) error
	Publish(ctx context.Context, exchange, routingKey string, msg Message) error
	Close() error
}

// ReconnectFunc runs after every successful reconnection.
type ReconnectFunc func(ctx context.Context) error

// Connection owns one broker session and replaces it in the background when
// it drops.
type Connection struct {
	url     string
	dialer  Dialer
	backoff Backoff
	logger  zerolog.Logger
	observe func(State)
	wait    func(ctx context.Context, d time.Duration) error

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	session  Session
	state    State
	attempts int

	// generation counts attached sessions; channels opened on an older one are stale.
	generation uint64

	callbacksMu sync.Mutex
	callbacks   []ReconnectFunc

	closing atomic.Bool
}

type Option func(*Connection)

func WithBackoff(b Backoff) Option {
	return func(c *Connection) { c.backoff = b }
}

// WithStateObserver is called on every state change.
func WithStateObserver(fn func(State)) Option {
	return func(c *Connection) { c.observe = fn }
}

func withWait(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Connection) { c.wait = fn }
}

func NewConnection(rawURL string, dialer Dialer, logger zerolog.Logger, opts ...Option) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		url:     rawURL,
		dialer:  dialer,
		backoff: DefaultBackoff(),
		logger:  logger.With().Str("component", "broker").Str("url", redact(rawURL)).Logger(),
		wait:    sleep,
		ctx:     ctx,
		cancel:  cancel,
		state:   StateDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect makes a single attempt. Its failure is returned to the caller and
// does not start background retries.
func (c *Connection) Connect(ctx context.Context) error {
	if c.closing.Load() {
		return ErrConnectionClosed
	}
	c.setState(StateConnecting)

	session, err := c.dialer.Dial(ctx, c.url)
	if err != nil {
		c.setState(StateDisconnected)
		return &ConnectionError{URL: redact(c.url), Err: err}
	}
	if !c.attach(session) {
		return ErrConnectionClosed
	}
	c.logger.Info().Msg("broker connection established")
	return nil
}

// Channel opens a channel on the live session.
func (c *Connection) Channel() (Channel, error) {
	ch, _, err := c.openChannel()
	return ch, err
}

// openChannel also returns the generation of the session the channel belongs to.
func (c *Connection) openChannel() (Channel, uint64, error) {
	c.mu.RLock()
	session, state, generation := c.session, c.state, c.generation
	c.mu.RUnlock()

	if state != StateConnected || session == nil {
		return nil, 0, ErrChannelUnavailable
	}
	ch, err := session.Channel()
	if err != nil {
		return nil, 0, errors.Wrap(err, "open channel")
	}
	return ch, generation, nil
}

// live reports the generation of the current session, if connected.
func (c *Connection) live() (uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation, c.state == StateConnected && c.session != nil
}

// OnReconnect registers fn. Callbacks run in registration order.
func (c *Connection) OnReconnect(fn ReconnectFunc) {
	c.callbacksMu.Lock()
	defer c.callbacksMu.Unlock()
	c.callbacks = append(c.callbacks, fn)
}

func (c *Connection) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Connection) IsConnected() bool {
	return c.State() == StateConnected
}

// Close stops any reconnection in progress and closes the session.
func (c *Connection) Close() error {
	if c.closing.Swap(true) {
		return nil
	}
	c.cancel()

	c.mu.Lock()
	session := c.session
	c.session = nil
	c.mu.Unlock()
	c.setState(StateClosed)

	if session == nil {
		return nil
	}
	return errors.Wrap(session.Close(), "close broker session")
}

// attach installs session unless Close has begun, in which case the session
// is closed and false is returned.
func (c *Connection) attach(session Session) bool {
	c.mu.Lock()
	if c.closing.Load() {
		c.mu.Unlock()
		_ = session.Close()
		return false
	}
	c.session = session
	c.attempts = 0
	c.generation++
	c.mu.Unlock()
	c.setState(StateConnected)

	go c.watch(session)
	return true
}

func (c *Connection) watch(session Session) {
	cause := <-session.NotifyClose()
	if c.closing.Load() {
		return
	}

	c.mu.Lock()
	if c.session != session {
		c.mu.Unlock()
		return
	}
	c.session = nil
	c.mu.Unlock()
	c.setState(StateReconnecting)

	c.logger.Warn().Err(cause).Msg("broker connection lost, reconnecting")
	c.reconnect()
}

func (c *Connection) reconnect() {
	for {
		if c.closing.Load() {
			return
		}

		c.mu.Lock()
		c.attempts++
		attempt := c.attempts
		c.mu.Unlock()

		if c.backoff.Exhausted(attempt) {
			c.setState(StateDisconnected)
			c.logger.Error().Int("attempts", attempt-1).Msg("giving up on broker reconnection")
			return
		}

		delay := c.backoff.Delay(attempt)
		c.logger.Info().Int("attempt", attempt).Dur("delay", delay).Msg("scheduling broker reconnection")
		if err := c.wait(c.ctx, delay); err != nil {
			return
		}
		if c.closing.Load() {
			return
		}

		session, err := c.dialer.Dial(c.ctx, c.url)
		if err != nil {
			c.logger.Warn().Err(err).Int("attempt", attempt).Msg("broker reconnection failed")
			continue
		}
		if !c.attach(session) {
			return
		}
		c.logger.Info().Int("attempt", attempt).Msg("broker connection re-established")
		c.runCallbacks()
		return
	}
}

func (c *Connection) runCallbacks() {
	c.callbacksMu.Lock()
	callbacks := make([]ReconnectFunc, len(c.callbacks))
	copy(callbacks, c.callbacks)
	c.callbacksMu.Unlock()

	for i, fn := range callbacks {
		if err := fn(c.ctx); err != nil {
			c.logger.Error().Err(err).Int("callback", i).Msg("reconnect callback failed")
		}
	}
}

func (c *Connection) setState(s State) {
	c.mu.Lock()
	// Closed is final.
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = s
	c.mu.Unlock()

	if c.observe != nil {
		c.observe(s)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-url"
	}
	return u.Redacted()
}

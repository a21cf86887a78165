package messaging

import (
	"context"
	"errors"
	"sync"
	"time"
)

type published struct {
	exchange   string
	routingKey string
	msg        Message
}

type fakeChannel struct {
	mu         sync.Mutex
	declared   []string
	published  []published
	publishErr error
	closed     bool
}

func (c *fakeChannel) DeclareExchange(name, kind string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.declared = append(c.declared, name+":"+kind)
	return nil
}

func (c *fakeChannel) Publish(_ context.Context, exchange, routingKey string, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return c.publishErr
	}
	c.published = append(c.published, published{exchange: exchange, routingKey: routingKey, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fakeSession struct {
	mu       sync.Mutex
	notify   chan error
	channels []*fakeChannel
	once     sync.Once
	closed   bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{notify: make(chan error, 1)}
}

func (s *fakeSession) Channel() (Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := &fakeChannel{}
	s.channels = append(s.channels, ch)
	return ch, nil
}

func (s *fakeSession) NotifyClose() <-chan error { return s.notify }

func (s *fakeSession) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.once.Do(func() { close(s.notify) })
	return nil
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// drop simulates the broker going away.
func (s *fakeSession) drop(cause error) {
	s.once.Do(func() {
		s.notify <- cause
		close(s.notify)
	})
}

func (s *fakeSession) lastChannel() *fakeChannel {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.channels) == 0 {
		return nil
	}
	return s.channels[len(s.channels)-1]
}

type fakeDialer struct {
	mu       sync.Mutex
	sessions []*fakeSession
	failNext int
	dials    int
	// afterDial runs once a session is created, before it is returned.
	afterDial func()
}

func (d *fakeDialer) Dial(_ context.Context, _ string) (Session, error) {
	d.mu.Lock()
	d.dials++
	if d.failNext > 0 {
		d.failNext--
		d.mu.Unlock()
		return nil, errors.New("connection refused")
	}
	s := newFakeSession()
	d.sessions = append(d.sessions, s)
	hook := d.afterDial
	d.mu.Unlock()

	if hook != nil {
		hook()
	}
	return s, nil
}

func (d *fakeDialer) setAfterDial(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.afterDial = fn
}

func (d *fakeDialer) failTimes(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failNext = n
}

func (d *fakeDialer) session(i int) *fakeSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.sessions) {
		return nil
	}
	return d.sessions[i]
}

func (d *fakeDialer) sessionCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

// waitRecorder replaces the real sleep and records requested delays.
type waitRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (w *waitRecorder) wait(ctx context.Context, d time.Duration) error {
	w.mu.Lock()
	w.delays = append(w.delays, d)
	w.mu.Unlock()
	return ctx.Err()
}

func (w *waitRecorder) recorded() []time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]time.Duration(nil), w.delays...)
}

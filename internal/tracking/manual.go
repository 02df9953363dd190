package tracking

import (
	"context"
	"sync"

	"github.com/ayusman/carnival/internal/detector"
)

// Manual is a Source driven by hand from tests.
type Manual struct {
	fanout

	mu      sync.Mutex
	openErr error
	opens   int
	closed  bool
}

// NewManual creates a Manual source.
func NewManual() *Manual {
	return &Manual{}
}

// SetOpenError makes Open fail with err.
func (m *Manual) SetOpenError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErr = err
}

func (m *Manual) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opens++
	return m.openErr
}

func (m *Manual) Subscribe(fn func(detector.Frame)) func() {
	return m.subscribe(fn)
}

func (m *Manual) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.clear()
	return nil
}

// Emit delivers frame to every subscriber synchronously.
func (m *Manual) Emit(frame detector.Frame) {
	m.publish(frame)
}

// Subscribers returns the number of live subscriptions.
func (m *Manual) Subscribers() int {
	return m.count()
}

// Opens returns how many times Open was called.
func (m *Manual) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

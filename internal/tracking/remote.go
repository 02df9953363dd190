package tracking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/carnival/internal/capture"
	"github.com/ayusman/carnival/internal/detector"
	"github.com/rs/zerolog"
)

// Remote is a Source fed by a browser that runs the landmark models
// itself and pushes results over the session websocket.
type Remote struct {
	fanout

	log zerolog.Logger
	now func() time.Time

	mu       sync.Mutex
	clients  int
	denied   string
	changed  chan struct{}
	received int
}

// NewRemote creates a Remote with no clients attached.
func NewRemote(log zerolog.Logger) *Remote {
	return &Remote{
		log:     log.With().Str("component", "remote-source").Logger(),
		now:     time.Now,
		changed: make(chan struct{}),
	}
}

// notify wakes every Open waiting on a state change. Callers hold r.mu.
func (r *Remote) notify() {
	close(r.changed)
	r.changed = make(chan struct{})
}

// Open blocks until a client is attached and has not reported a camera
// denial, or ctx is done.
func (r *Remote) Open(ctx context.Context) error {
	for {
		r.mu.Lock()
		if r.denied != "" {
			reason := r.denied
			r.mu.Unlock()
			return fmt.Errorf("%w: %s", capture.ErrPermissionDenied, reason)
		}
		if r.clients > 0 {
			r.mu.Unlock()
			return nil
		}
		wait := r.changed
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for a browser session: %w", ctx.Err())
		case <-wait:
		}
	}
}

func (r *Remote) Subscribe(fn func(detector.Frame)) func() {
	return r.subscribe(fn)
}

// Close drops every subscriber.
func (r *Remote) Close() error {
	r.clear()
	return nil
}

// Attach records a connected browser session.
func (r *Remote) Attach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients++
	r.denied = ""
	r.notify()
}

// Detach records a disconnected browser session.
func (r *Remote) Detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clients > 0 {
		r.clients--
	}
	r.notify()
}

// Deny records that the browser could not get camera access.
func (r *Remote) Deny(reason string) {
	if reason == "" {
		reason = "camera access refused"
	}
	r.mu.Lock()
	r.denied = reason
	r.notify()
	r.mu.Unlock()
	r.log.Warn().Str("reason", reason).Msg("browser camera denied")
}

// Push delivers a frame received from the browser. Frames without a
// timestamp are stamped on arrival.
func (r *Remote) Push(frame detector.Frame) {
	if frame.At.IsZero() {
		frame.At = r.now()
	}
	r.mu.Lock()
	r.received++
	r.mu.Unlock()
	r.publish(frame)
}

// Clients returns the number of attached sessions.
func (r *Remote) Clients() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clients
}

// Received returns the number of frames pushed so far.
func (r *Remote) Received() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.received
}

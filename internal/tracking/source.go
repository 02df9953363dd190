// Package tracking delivers landmark frames to the interaction loop.
//
// A Source emits detector.Frame values until closed. Frames are replaced
// wholesale: subscribers receive a value they own and never see a frame
// being modified.
package tracking

import (
	"context"
	"sync"

	"github.com/ayusman/carnival/internal/detector"
)

// Source is the landmark source collaborator.
type Source interface {
	// Open acquires the camera and model. It is idempotent; failures wrap
	// capture.ErrPermissionDenied or detector.ErrModelLoad.
	Open(ctx context.Context) error
	// Subscribe registers fn for every frame. The returned function
	// unsubscribes; once it returns fn is not running and will not run
	// again. fn must be cheap and must not call the unsubscribe function.
	Subscribe(fn func(detector.Frame)) (unsubscribe func())
	Close() error
}

// fanout delivers frames to subscribers.
type fanout struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(detector.Frame)
}

func (f *fanout) subscribe(fn func(detector.Frame)) func() {
	f.mu.Lock()
	if f.subs == nil {
		f.subs = make(map[int]func(detector.Frame))
	}
	id := f.next
	f.next++
	f.subs[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// publish holds the read lock while delivering so that unsubscribe waits
// for an in-flight delivery to finish.
func (f *fanout) publish(frame detector.Frame) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, fn := range f.subs {
		fn(frame)
	}
}

func (f *fanout) count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

func (f *fanout) clear() {
	f.mu.Lock()
	f.subs = nil
	f.mu.Unlock()
}

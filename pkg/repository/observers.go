package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/amirasaad/fxconvert/pkg/domain"
)

// Observers fans out rate snapshots to subscribers. Each subscriber holds at
// most one pending snapshot; a newer snapshot replaces an unread one so a slow
// reader never blocks the writer.
type Observers struct {
	mu   sync.Mutex
	subs map[chan []domain.Rate]struct{}
}

// NewObservers creates an empty fan-out.
func NewObservers() *Observers {
	return &Observers{subs: make(map[chan []domain.Rate]struct{})}
}

// Subscribe registers a subscriber primed with initial. The channel is closed
// once ctx is done.
func (o *Observers) Subscribe(ctx context.Context, initial []domain.Rate) <-chan []domain.Rate {
	ch := make(chan []domain.Rate, 1)
	ch <- slices.Clone(initial)

	o.mu.Lock()
	o.subs[ch] = struct{}{}
	o.mu.Unlock()

	go func() {
		<-ctx.Done()
		o.mu.Lock()
		delete(o.subs, ch)
		close(ch)
		o.mu.Unlock()
	}()
	return ch
}

// Publish delivers snapshot to every subscriber.
func (o *Observers) Publish(snapshot []domain.Rate) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for ch := range o.subs {
		select {
		case <-ch:
		default:
		}
		ch <- slices.Clone(snapshot)
	}
}

// Len returns the number of active subscribers.
func (o *Observers) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}

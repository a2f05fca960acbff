package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
)

// Loader reads the full contents of one collection, ordered by id.
type Loader func(ctx context.Context, c Collection) ([]Document, error)

// Watcher turns change notifications from a remote store into snapshot
// deliveries. Reloads run one at a time on a single goroutine, so a snapshot
// delivered later always reflects a read made later. Notifications that
// arrive while a reload is running coalesce into one follow-up reload.
type Watcher struct {
	load Loader
	hub  *hub

	mu      sync.Mutex
	pending map[Collection]struct{}
	wake    chan struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

func NewWatcher(load Loader) *Watcher {
	return &Watcher{
		load:    load,
		hub:     newHub(),
		pending: make(map[Collection]struct{}),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Start runs the reload loop until ctx ends or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	go w.run(ctx)
}

// Stop ends the reload loop and closes every subscription.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
	w.hub.closeAll()
}

// Subscribe registers a subscriber and schedules a reload so it receives the
// current contents.
func (w *Watcher) Subscribe(ctx context.Context, c Collection) (<-chan Snapshot, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	f := w.hub.add(ctx, c)
	w.Notify(c)
	return f.ch, nil
}

// Notify marks c as changed.
func (w *Watcher) Notify(c Collection) {
	w.mu.Lock()
	w.pending[c] = struct{}{}
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// NotifyAll marks every collection as changed, used after the change feed
// reconnects and notifications may have been lost.
func (w *Watcher) NotifyAll() {
	for _, c := range Collections {
		w.Notify(c)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.wake:
		}

		w.mu.Lock()
		changed := w.pending
		w.pending = make(map[Collection]struct{})
		w.mu.Unlock()

		for _, c := range Collections {
			if _, ok := changed[c]; !ok || !w.hub.watched(c) {
				continue
			}
			w.reload(ctx, c)
		}
	}
}

func (w *Watcher) reload(ctx context.Context, c Collection) {
	var docs []Document
	err := retry.Do(
		func() error {
			var err error
			docs, err = w.load(ctx, c)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(250*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if ctx.Err() == nil {
			log.Error().Err(err).Str("collection", string(c)).Msg("Failed to reload collection")
		}
		return
	}
	w.hub.publish(Snapshot{Collection: c, Documents: docs})
}

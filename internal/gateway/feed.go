package gateway

import (
	"context"
	"sync"
)

// feed is a single subscriber's mailbox. It holds at most one undelivered
// snapshot; offering a newer one replaces it.
type feed struct {
	mu     sync.Mutex
	ch     chan Snapshot
	closed bool
}

func newFeed() *feed {
	return &feed{ch: make(chan Snapshot, 1)}
}

func (f *feed) offer(s Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	// Only this method sends, so after the drain the buffer has room.
	select {
	case <-f.ch:
	default:
	}
	f.ch <- s
}

func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.ch)
	}
}

// hub fans snapshots out to the feeds registered per collection.
type hub struct {
	mu   sync.Mutex
	subs map[Collection]map[*feed]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[Collection]map[*feed]struct{})}
}

// add registers a feed for c and closes it when ctx ends.
func (h *hub) add(ctx context.Context, c Collection) *feed {
	f := newFeed()

	h.mu.Lock()
	if h.subs[c] == nil {
		h.subs[c] = make(map[*feed]struct{})
	}
	h.subs[c][f] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs[c], f)
		h.mu.Unlock()
		f.close()
	}()
	return f
}

func (h *hub) publish(s Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for f := range h.subs[s.Collection] {
		f.offer(s)
	}
}

func (h *hub) watched(c Collection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[c]) > 0
}

// closeAll closes every feed, used when a backend shuts down.
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c, feeds := range h.subs {
		for f := range feeds {
			f.close()
		}
		delete(h.subs, c)
	}
}

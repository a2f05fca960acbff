package content

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Nixie-Tech-LLC/signton/internal/model"
)

var ErrNotFound = errors.New("not found")

// Cache holds the latest AppState for request handlers. Readers that want
// to follow updates wait on Changed.
type Cache struct {
	mu      sync.RWMutex
	state   model.AppState
	ready   bool
	changed chan struct{}
}

func NewCache() *Cache {
	return &Cache{changed: make(chan struct{})}
}

// Run stores every state from states until the channel closes or ctx ends.
func (c *Cache) Run(ctx context.Context, states <-chan model.AppState) {
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-states:
			if !ok {
				return
			}
			c.Set(state)
		}
	}
}

func (c *Cache) Set(state model.AppState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
	c.ready = true
	close(c.changed)
	c.changed = make(chan struct{})
}

func (c *Cache) State() model.AppState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Ready reports whether a first complete state has arrived.
func (c *Cache) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Changed returns a channel that is closed on the next Set.
func (c *Cache) Changed() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.changed
}

func (c *Cache) Device(id string) (model.ScreenDevice, error) {
	d, ok := c.State().Device(id)
	if !ok {
		return model.ScreenDevice{}, fmt.Errorf("device %s: %w", id, ErrNotFound)
	}
	return d, nil
}

func (c *Cache) Playlist(id string) (model.Playlist, error) {
	p, ok := c.State().Playlist(id)
	if !ok {
		return model.Playlist{}, fmt.Errorf("playlist %s: %w", id, ErrNotFound)
	}
	return p, nil
}

func (c *Cache) Media(id string) (model.MediaItem, error) {
	m, ok := c.State().Media(id)
	if !ok {
		return model.MediaItem{}, fmt.Errorf("media %s: %w", id, ErrNotFound)
	}
	return m, nil
}

package gateway

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory is an in-process gateway. It backs tests and single-process demo
// deployments where the admin API and a player share one address space.
type Memory struct {
	mu   sync.Mutex
	docs map[Collection]map[string]json.RawMessage
	hub  *hub
}

func NewMemory() *Memory {
	m := &Memory{
		docs: make(map[Collection]map[string]json.RawMessage),
		hub:  newHub(),
	}
	for _, c := range Collections {
		m.docs[c] = make(map[string]json.RawMessage)
	}
	return m
}

func (m *Memory) Subscribe(ctx context.Context, c Collection) (<-chan Snapshot, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f := m.hub.add(ctx, c)
	f.offer(m.snapshotLocked(c))
	return f.ch, nil
}

func (m *Memory) Put(ctx context.Context, c Collection, id string, record any) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := Encode(record)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[c][id] = data
	m.hub.publish(m.snapshotLocked(c))
	return nil
}

func (m *Memory) Patch(ctx context.Context, c Collection, id string, fields any) error {
	if err := c.Validate(); err != nil {
		return err
	}
	patch, err := Encode(fields)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	merged, err := Merge(m.docs[c][id], patch)
	if err != nil {
		return err
	}
	m.docs[c][id] = merged
	m.hub.publish(m.snapshotLocked(c))
	return nil
}

func (m *Memory) Delete(ctx context.Context, c Collection, id string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[c][id]; !ok {
		return nil
	}
	delete(m.docs[c], id)
	m.hub.publish(m.snapshotLocked(c))
	return nil
}

// Close ends every open subscription.
func (m *Memory) Close() error {
	m.hub.closeAll()
	return nil
}

func (m *Memory) snapshotLocked(c Collection) Snapshot {
	docs := make([]Document, 0, len(m.docs[c]))
	for id, data := range m.docs[c] {
		docs = append(docs, Document{ID: id, Data: data})
	}
	SortDocuments(docs)
	return Snapshot{Collection: c, Documents: docs}
}

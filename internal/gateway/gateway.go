// Package gateway is the document store boundary shared by the admin API and
// the players. Three collections of JSON documents are kept, each keyed by a
// string id with the id itself stripped from the stored payload. Readers
// subscribe to full-collection snapshots; writers put, merge-patch or delete
// single documents.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

type Collection string

const (
	MediaLibrary Collection = "mediaLibrary"
	Playlists    Collection = "playlists"
	Devices      Collection = "devices"
)

// Collections lists every collection a backend must serve.
var Collections = []Collection{MediaLibrary, Playlists, Devices}

var ErrUnknownCollection = errors.New("unknown collection")

func (c Collection) Validate() error {
	switch c {
	case MediaLibrary, Playlists, Devices:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownCollection, string(c))
}

// Document is one stored record. Data is a JSON object without the id.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Snapshot is the complete contents of a collection at one instant,
// ordered by document id.
type Snapshot struct {
	Collection Collection
	Documents  []Document
}

// Gateway is implemented by every storage backend.
type Gateway interface {
	// Subscribe delivers the current snapshot immediately and a fresh one
	// after every change. Undelivered snapshots are replaced by newer ones.
	// The channel is closed once ctx is done.
	Subscribe(ctx context.Context, c Collection) (<-chan Snapshot, error)
	// Put overwrites the whole document.
	Put(ctx context.Context, c Collection, id string, record any) error
	// Patch merges the top-level fields of fields into the document,
	// creating it when absent.
	Patch(ctx context.Context, c Collection, id string, fields any) error
	// Delete removes the document. Removing a missing document succeeds.
	Delete(ctx context.Context, c Collection, id string) error
}

// Encode marshals v and checks that it is a JSON object.
func Encode(v any) (json.RawMessage, error) {
	if raw, ok := v.(json.RawMessage); ok {
		if _, err := decodeObject(raw); err != nil {
			return nil, err
		}
		return raw, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if _, err := decodeObject(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Merge overlays the top-level fields of patch onto base. A nil or empty base
// is treated as an empty object.
func Merge(base, patch json.RawMessage) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if len(base) > 0 {
		var err error
		if fields, err = decodeObject(base); err != nil {
			return nil, err
		}
	}
	overlay, err := decodeObject(patch)
	if err != nil {
		return nil, err
	}
	for k, v := range overlay {
		fields[k] = v
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode merged document: %w", err)
	}
	return out, nil
}

func decodeObject(b json.RawMessage) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("document is not a JSON object: %w", err)
	}
	if fields == nil {
		return nil, errors.New("document is not a JSON object: null")
	}
	return fields, nil
}

// SortDocuments orders docs by id, the enumeration order every backend
// reports.
func SortDocuments(docs []Document) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
}

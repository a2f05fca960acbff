package postgres

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/signton/internal/gateway"
)

func openTestGateway(t *testing.T) (*Gateway, context.Context) {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping postgres gateway tests")
	}
	ctx, cancel := context.WithCancel(context.Background())
	g, err := Open(ctx, url, "../../../migrations")
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = g.db.Exec(`DELETE FROM documents`)
		g.Close()
		cancel()
	})
	_, err = g.db.Exec(`DELETE FROM documents`)
	require.NoError(t, err)
	return g, ctx
}

func waitFor(t *testing.T, ch <-chan gateway.Snapshot, cond func(gateway.Snapshot) bool) gateway.Snapshot {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case s := <-ch:
			if cond(s) {
				return s
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
			return gateway.Snapshot{}
		}
	}
}

func TestGateway_PutPatchDelete(t *testing.T) {
	g, ctx := openTestGateway(t)

	ch, err := g.Subscribe(ctx, gateway.Devices)
	require.NoError(t, err)
	waitFor(t, ch, func(s gateway.Snapshot) bool { return len(s.Documents) == 0 })

	require.NoError(t, g.Put(ctx, gateway.Devices, "tv-1", map[string]any{"name": "Lobby", "status": "offline", "assignedPlaylistId": "p1"}))
	require.NoError(t, g.Patch(ctx, gateway.Devices, "tv-1", map[string]any{"status": "online", "assignedPlaylistId": nil}))

	s := waitFor(t, ch, func(s gateway.Snapshot) bool {
		return len(s.Documents) == 1 && status(s.Documents[0]) == "online"
	})
	assert.JSONEq(t, `{"name":"Lobby","status":"online","assignedPlaylistId":null}`, string(s.Documents[0].Data))

	require.NoError(t, g.Delete(ctx, gateway.Devices, "tv-1"))
	require.NoError(t, g.Delete(ctx, gateway.Devices, "tv-1"))
	waitFor(t, ch, func(s gateway.Snapshot) bool { return len(s.Documents) == 0 })
}

func TestGateway_PatchCreatesMissingDocument(t *testing.T) {
	g, ctx := openTestGateway(t)

	require.NoError(t, g.Patch(ctx, gateway.Devices, "tv-2", map[string]any{"status": "online", "lastPing": 42}))
	docs, err := g.load(ctx, gateway.Devices)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.JSONEq(t, `{"status":"online","lastPing":42}`, string(docs[0].Data))
}

func TestGateway_SnapshotsOrderedByID(t *testing.T) {
	g, ctx := openTestGateway(t)
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, g.Put(ctx, gateway.Playlists, id, map[string]any{"name": id}))
	}
	docs, err := g.load(ctx, gateway.Playlists)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{docs[0].ID, docs[1].ID, docs[2].ID})
}

func status(d gateway.Document) string {
	var body struct {
		Status string `json:"status"`
	}
	_ = json.Unmarshal(d.Data, &body)
	return body.Status
}

package liveness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/signton/internal/content"
	"github.com/Nixie-Tech-LLC/signton/internal/gateway"
	"github.com/Nixie-Tech-LLC/signton/internal/model"
)

func latest(t *testing.T, states <-chan model.AppState, cond func(model.AppState) bool) model.AppState {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-states:
			if cond(s) {
				return s
			}
		case <-deadline:
			t.Fatal("timed out waiting for state")
			return model.AppState{}
		}
	}
}

func TestHeartbeat_CreatesThenPatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := content.NewStore(gateway.NewMemory())
	states, err := store.Watch(ctx)
	require.NoError(t, err)

	hb := &Heartbeat{DeviceID: "tv-1", Name: "New Screen", Location: "Unassigned", Store: store}
	start := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)

	state := latest(t, states, func(model.AppState) bool { return true })
	created, err := hb.Beat(ctx, state.Devices, start)
	require.NoError(t, err)
	assert.True(t, created)

	state = latest(t, states, func(s model.AppState) bool { return len(s.Devices) == 1 })
	d := state.Devices[0]
	assert.Equal(t, "tv-1", d.ID)
	assert.Equal(t, model.StatusOnline, d.Status)
	assert.Nil(t, d.AssignedPlaylistID)
	assert.Equal(t, start.UnixMilli(), d.LastPing)
	assert.Equal(t, "New Screen", d.Name)

	rename := "Lobby East"
	require.NoError(t, store.UpdateDevice(ctx, "tv-1", &rename, nil))
	playlist := "p1"
	require.NoError(t, store.AssignPlaylist(ctx, "tv-1", &playlist))
	state = latest(t, states, func(s model.AppState) bool {
		return len(s.Devices) == 1 && s.Devices[0].AssignedPlaylistID != nil && s.Devices[0].Name == rename
	})

	second := start.Add(30 * time.Second)
	created, err = hb.Beat(ctx, state.Devices, second)
	require.NoError(t, err)
	assert.False(t, created)

	state = latest(t, states, func(s model.AppState) bool {
		return len(s.Devices) == 1 && s.Devices[0].LastPing == second.UnixMilli()
	})
	d = state.Devices[0]
	assert.Equal(t, rename, d.Name)
	assert.Equal(t, "Unassigned", d.Location)
	require.NotNil(t, d.AssignedPlaylistID)
	assert.Equal(t, "p1", *d.AssignedPlaylistID)
	assert.Equal(t, model.StatusOnline, d.Status)
}

type recorder struct {
	fields []map[string]any
	err    error
}

func (r *recorder) PatchDevice(_ context.Context, _ string, fields map[string]any) error {
	r.fields = append(r.fields, fields)
	return r.err
}

func TestHeartbeat_PresentTouchesOnlyStatusAndPing(t *testing.T) {
	r := &recorder{}
	hb := &Heartbeat{DeviceID: "tv-1", Name: "ignored", Store: r}

	_, err := hb.Beat(context.Background(), []model.ScreenDevice{{ID: "tv-1", Name: "Kept"}}, time.UnixMilli(5000))
	require.NoError(t, err)
	require.Len(t, r.fields, 1)
	assert.Equal(t, map[string]any{"status": model.StatusOnline, "lastPing": int64(5000)}, r.fields[0])
}

func TestHeartbeat_ReturnsWriteError(t *testing.T) {
	r := &recorder{err: assert.AnError}
	hb := &Heartbeat{DeviceID: "tv-1", Store: r}
	_, err := hb.Beat(context.Background(), nil, time.Now())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestClassify(t *testing.T) {
	now := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	fresh := model.ScreenDevice{Status: model.StatusOnline, LastPing: now.Add(-30 * time.Second).UnixMilli()}
	stale := model.ScreenDevice{Status: model.StatusOnline, LastPing: now.Add(-3 * time.Minute).UnixMilli()}
	offline := model.ScreenDevice{Status: model.StatusOffline, LastPing: now.UnixMilli()}

	assert.Equal(t, model.StatusOnline, Classify(fresh, now, DefaultStaleAfter))
	assert.Equal(t, model.StatusOffline, Classify(stale, now, DefaultStaleAfter))
	assert.Equal(t, model.StatusOnline, Classify(stale, now, 0))
	assert.Equal(t, model.StatusOffline, Classify(offline, now, DefaultStaleAfter))
}

func TestSortByStatus_StableOnlineFirst(t *testing.T) {
	devices := []model.ScreenDevice{
		{ID: "a", Status: model.StatusOffline},
		{ID: "b", Status: model.StatusOnline},
		{ID: "c", Status: model.StatusOffline},
		{ID: "d", Status: model.StatusOnline},
	}
	SortByStatus(devices)

	order := make([]string, len(devices))
	for i, d := range devices {
		order[i] = d.ID
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, order)
	assert.Equal(t, Summary{Online: 2, Total: 4}, Summarize(devices))
}

package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/signton/internal/config"
	"github.com/Nixie-Tech-LLC/signton/internal/gateway"
	"github.com/Nixie-Tech-LLC/signton/internal/gateway/sqlite"
)

func TestOpen_SelectsBackend(t *testing.T) {
	ctx := context.Background()

	g, err := Open(ctx, &config.Config{StoreBackend: config.BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &gateway.Memory{}, g)
	require.NoError(t, g.Close())

	g, err = Open(ctx, &config.Config{
		StoreBackend: config.BackendSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "signage.db"),
	})
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Gateway{}, g)
	require.NoError(t, g.Close())
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{StoreBackend: "etcd"})
	assert.Error(t, err)
}

// Package postgres stores gateway documents as jsonb rows and turns
// LISTEN/NOTIFY events into snapshot deliveries.
package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signton/internal/gateway"
)

// changeChannel must match the channel the documents trigger notifies on.
const changeChannel = "signage_changes"

type Gateway struct {
	db       *sqlx.DB
	listener *pq.Listener
	watcher  *gateway.Watcher
}

// Connect opens a PostgreSQL connection, retrying while the server comes up.
func Connect(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	var db *sqlx.DB
	err := retry.Do(
		func() error {
			var err error
			db, err = sqlx.ConnectContext(ctx, "postgres", databaseURL)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(10),
		retry.Delay(2*time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Error().Err(err).Uint("attempt", n+1).Msg("failed to connect to database, retrying")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	log.Info().Msg("connected to database")
	return db, nil
}

// RunMigrations executes every "*.up.sql" file in migrationsPath in name
// order. "*.down.sql" files are ignored.
func RunMigrations(db *sqlx.DB, migrationsPath string) error {
	files, err := filepath.Glob(filepath.Join(migrationsPath, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to glob migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("could not read migration %q: %w", file, err)
		}
		if len(sqlBytes) == 0 {
			continue
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			return fmt.Errorf("error executing migration %q: %w", file, err)
		}
		log.Debug().Str("file", filepath.Base(file)).Msg("applied migration")
	}
	return nil
}

// Open connects, migrates and starts listening for document changes.
func Open(ctx context.Context, databaseURL, migrationsPath string) (*Gateway, error) {
	db, err := Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(db, migrationsPath); err != nil {
		db.Close()
		return nil, err
	}

	g := &Gateway{db: db}
	g.watcher = gateway.NewWatcher(g.load)

	g.listener = pq.NewListener(databaseURL, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
			log.Warn().Err(err).Msg("document change listener lost its connection")
		case pq.ListenerEventReconnected:
			log.Info().Msg("document change listener reconnected")
		}
	})
	if err := g.listener.Listen(changeChannel); err != nil {
		g.listener.Close()
		db.Close()
		return nil, fmt.Errorf("listen %s: %w", changeChannel, err)
	}

	g.watcher.Start(ctx)
	go g.forward(ctx)
	return g, nil
}

// forward relays notifications to the watcher. A nil notification means the
// connection was re-established and events may have been missed.
func (g *Gateway) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-g.listener.Notify:
			if !ok {
				return
			}
			if n == nil {
				g.watcher.NotifyAll()
				continue
			}
			c := gateway.Collection(n.Extra)
			if c.Validate() != nil {
				continue
			}
			g.watcher.Notify(c)
		}
	}
}

type documentRow struct {
	ID   string `db:"id"`
	Body []byte `db:"body"`
}

func (g *Gateway) load(ctx context.Context, c gateway.Collection) ([]gateway.Document, error) {
	var rows []documentRow
	if err := g.db.SelectContext(ctx, &rows,
		`SELECT id, body FROM documents WHERE collection = $1 ORDER BY id COLLATE "C"`, string(c)); err != nil {
		return nil, fmt.Errorf("select %s: %w", c, err)
	}
	docs := make([]gateway.Document, len(rows))
	for i, r := range rows {
		docs[i] = gateway.Document{ID: r.ID, Data: r.Body}
	}
	return docs, nil
}

func (g *Gateway) Subscribe(ctx context.Context, c gateway.Collection) (<-chan gateway.Snapshot, error) {
	return g.watcher.Subscribe(ctx, c)
}

func (g *Gateway) Put(ctx context.Context, c gateway.Collection, id string, record any) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := gateway.Encode(record)
	if err != nil {
		return err
	}
	_, err = g.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, body)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id)
		DO UPDATE SET body = EXCLUDED.body, updated_at = now()`,
		string(c), id, string(data))
	return err
}

// Patch merges with jsonb concatenation, which replaces top-level keys and
// keeps explicit nulls.
func (g *Gateway) Patch(ctx context.Context, c gateway.Collection, id string, fields any) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := gateway.Encode(fields)
	if err != nil {
		return err
	}
	_, err = g.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, body)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id)
		DO UPDATE SET body = documents.body || EXCLUDED.body, updated_at = now()`,
		string(c), id, string(data))
	return err
}

func (g *Gateway) Delete(ctx context.Context, c gateway.Collection, id string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := g.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, string(c), id)
	return err
}

func (g *Gateway) Close() error {
	g.watcher.Stop()
	if err := g.listener.Close(); err != nil {
		log.Warn().Err(err).Msg("closing document change listener")
	}
	return g.db.Close()
}

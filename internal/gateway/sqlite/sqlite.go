// Package sqlite is a single-file gateway backend for a box that runs both
// the admin API and a player. Processes sharing the file see each other's
// writes through a per-collection revision counter that is polled.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signton/internal/gateway"
)

// DefaultPollInterval is how often other processes' writes are looked for.
const DefaultPollInterval = 500 * time.Millisecond

type Gateway struct {
	db      *sqlx.DB
	watcher *gateway.Watcher
	poll    time.Duration
	cancel  context.CancelFunc
}

// Open creates the database file if needed, migrates it and starts watching
// for changes. poll <= 0 uses DefaultPollInterval.
func Open(ctx context.Context, dbPath string, poll time.Duration) (*Gateway, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_txlock=immediate&_journal_mode=WAL", dbPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if poll <= 0 {
		poll = DefaultPollInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	g := &Gateway{db: db, poll: poll, cancel: cancel}
	g.watcher = gateway.NewWatcher(g.load)
	g.watcher.Start(ctx)
	go g.follow(ctx)
	return g, nil
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	const schema = `
        CREATE TABLE IF NOT EXISTS documents (
            collection TEXT NOT NULL,
            id         TEXT NOT NULL,
            body       TEXT NOT NULL,
            PRIMARY KEY (collection, id)
        );
        CREATE TABLE IF NOT EXISTS revisions (
            collection TEXT PRIMARY KEY,
            rev        INTEGER NOT NULL DEFAULT 0
        );
    `
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrating sqlite schema: %w", err)
	}
	return nil
}

// follow notifies the watcher whenever a collection's revision moves,
// whichever process wrote it.
func (g *Gateway) follow(ctx context.Context) {
	ticker := time.NewTicker(g.poll)
	defer ticker.Stop()

	seen := map[string]int64{}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var rows []struct {
			Collection string `db:"collection"`
			Rev        int64  `db:"rev"`
		}
		if err := g.db.SelectContext(ctx, &rows, `SELECT collection, rev FROM revisions`); err != nil {
			if ctx.Err() == nil {
				log.Warn().Err(err).Msg("polling sqlite revisions")
			}
			continue
		}
		for _, r := range rows {
			if prev, ok := seen[r.Collection]; ok && prev == r.Rev {
				continue
			}
			seen[r.Collection] = r.Rev
			if c := gateway.Collection(r.Collection); c.Validate() == nil {
				g.watcher.Notify(c)
			}
		}
	}
}

func (g *Gateway) load(ctx context.Context, c gateway.Collection) ([]gateway.Document, error) {
	var rows []struct {
		ID   string `db:"id"`
		Body string `db:"body"`
	}
	if err := g.db.SelectContext(ctx, &rows,
		`SELECT id, body FROM documents WHERE collection = ? ORDER BY id`, string(c)); err != nil {
		return nil, fmt.Errorf("selecting %s: %w", c, err)
	}
	docs := make([]gateway.Document, len(rows))
	for i, r := range rows {
		docs[i] = gateway.Document{ID: r.ID, Data: []byte(r.Body)}
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
	return g.write(ctx, c, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)
            ON CONFLICT(collection, id) DO UPDATE SET body = excluded.body`,
			string(c), id, string(data))
		return err
	})
}

func (g *Gateway) Patch(ctx context.Context, c gateway.Collection, id string, fields any) error {
	if err := c.Validate(); err != nil {
		return err
	}
	patch, err := gateway.Encode(fields)
	if err != nil {
		return err
	}
	return g.write(ctx, c, func(tx *sqlx.Tx) error {
		var current string
		err := tx.GetContext(ctx, &current,
			`SELECT body FROM documents WHERE collection = ? AND id = ?`, string(c), id)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		merged, err := gateway.Merge([]byte(current), patch)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
            INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)
            ON CONFLICT(collection, id) DO UPDATE SET body = excluded.body`,
			string(c), id, string(merged))
		return err
	})
}

func (g *Gateway) Delete(ctx context.Context, c gateway.Collection, id string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return g.write(ctx, c, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, string(c), id)
		return err
	})
}

// write runs fn and bumps the collection revision in one transaction.
func (g *Gateway) write(ctx context.Context, c gateway.Collection, fn func(*sqlx.Tx) error) (err error) {
	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				err = fmt.Errorf("rolling back transaction: %v (original error: %w)", rollbackErr, err)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
        INSERT INTO revisions (collection, rev) VALUES (?, 1)
        ON CONFLICT(collection) DO UPDATE SET rev = rev + 1`, string(c)); err != nil {
		return fmt.Errorf("bumping revision: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	g.watcher.Notify(c)
	return nil
}

func (g *Gateway) Close() error {
	g.cancel()
	g.watcher.Stop()
	return g.db.Close()
}

// Package redis keeps each gateway collection in a Redis hash and publishes
// the collection name on every write so other processes reload it.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signton/internal/gateway"
)

const (
	keyPrefix     = "signage:"
	changeChannel = "signage:changed"
	// resyncEvery bounds how long a change lost during a pub/sub reconnect
	// can go unnoticed.
	resyncEvery = time.Minute
	maxTxTries  = 10
)

type Options struct {
	Address  string
	Username string
	Password string
	DB       int
}

type Gateway struct {
	rdb     *redis.Client
	pubsub  *redis.PubSub
	watcher *gateway.Watcher
}

func key(c gateway.Collection) string {
	return keyPrefix + string(c)
}

// Open connects, retrying while the server comes up, and starts following
// the change channel.
func Open(ctx context.Context, opts Options) (*Gateway, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})
	err := retry.Do(
		func() error { return rdb.Ping(ctx).Err() },
		retry.Context(ctx),
		retry.Attempts(10),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Error().Err(err).Uint("attempt", n+1).Str("addr", opts.Address).Msg("failed to reach redis, retrying")
		}),
	)
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("could not connect to redis: %w", err)
	}
	log.Info().Str("addr", opts.Address).Msg("connected to redis")

	g := &Gateway{rdb: rdb}
	g.watcher = gateway.NewWatcher(g.load)

	g.pubsub = rdb.Subscribe(ctx, changeChannel)
	if _, err := g.pubsub.Receive(ctx); err != nil {
		g.pubsub.Close()
		rdb.Close()
		return nil, fmt.Errorf("subscribe %s: %w", changeChannel, err)
	}

	g.watcher.Start(ctx)
	go g.forward(ctx)
	return g, nil
}

func (g *Gateway) forward(ctx context.Context) {
	messages := g.pubsub.Channel()
	resync := time.NewTicker(resyncEvery)
	defer resync.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-resync.C:
			g.watcher.NotifyAll()
		case msg, ok := <-messages:
			if !ok {
				return
			}
			c := gateway.Collection(msg.Payload)
			if c.Validate() != nil {
				log.Warn().Str("payload", msg.Payload).Msg("ignoring change for unknown collection")
				continue
			}
			g.watcher.Notify(c)
		}
	}
}

func (g *Gateway) load(ctx context.Context, c gateway.Collection) ([]gateway.Document, error) {
	all, err := g.rdb.HGetAll(ctx, key(c)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key(c), err)
	}
	docs := make([]gateway.Document, 0, len(all))
	for id, body := range all {
		docs = append(docs, gateway.Document{ID: id, Data: []byte(body)})
	}
	gateway.SortDocuments(docs)
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
	_, err = g.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key(c), id, []byte(data))
		pipe.Publish(ctx, changeChannel, string(c))
		return nil
	})
	return err
}

// Patch reads, merges and writes under WATCH. A concurrent write to the same
// collection aborts the transaction and the merge is redone on fresh data.
func (g *Gateway) Patch(ctx context.Context, c gateway.Collection, id string, fields any) error {
	if err := c.Validate(); err != nil {
		return err
	}
	patch, err := gateway.Encode(fields)
	if err != nil {
		return err
	}

	merge := func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key(c), id).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		merged, err := gateway.Merge(current, patch)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key(c), id, []byte(merged))
			pipe.Publish(ctx, changeChannel, string(c))
			return nil
		})
		return err
	}

	for i := 0; i < maxTxTries; i++ {
		err = g.rdb.Watch(ctx, merge, key(c))
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("patch %s/%s: too much contention: %w", c, id, err)
}

func (g *Gateway) Delete(ctx context.Context, c gateway.Collection, id string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := g.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, key(c), id)
		pipe.Publish(ctx, changeChannel, string(c))
		return nil
	})
	return err
}

func (g *Gateway) Close() error {
	g.watcher.Stop()
	if err := g.pubsub.Close(); err != nil {
		log.Warn().Err(err).Msg("closing redis change subscription")
	}
	return g.rdb.Close()
}

// Package backend selects and connects the storage, idempotency and event
// adapters named in the configuration.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/biblioteca/maestros-api/internal/core/ports"
	"github.com/biblioteca/maestros-api/internal/infrastructure/db/memory"
	mongodb "github.com/biblioteca/maestros-api/internal/infrastructure/db/mongo"
	"github.com/biblioteca/maestros-api/internal/infrastructure/db/postgres"
	redisdb "github.com/biblioteca/maestros-api/internal/infrastructure/db/redis"
	"github.com/biblioteca/maestros-api/internal/infrastructure/events"
	"github.com/biblioteca/maestros-api/internal/infrastructure/events/amqp"
	"github.com/biblioteca/maestros-api/internal/infrastructure/events/kafka"
	"github.com/biblioteca/maestros-api/internal/pkg/config"
)

// Checker reports whether a dependency is reachable.
type Checker = func(ctx context.Context) error

// Backends holds the connected adapters. Close releases them in reverse
// order of creation.
type Backends struct {
	Store       ports.EntityStore
	Idempotency ports.IdempotencyStore
	Publisher   ports.EventPublisher
	Checks      map[string]Checker

	closers []func() error
}

// Close releases every connection and returns the joined errors.
func (b *Backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// Build connects every backend selected in cfg. On failure the adapters
// already opened are closed before returning.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *Backends, err error) {
	b := &Backends{Checks: map[string]Checker{}}
	defer func() {
		if err != nil {
			_ = b.Close()
		}
	}()

	if err = b.buildStore(ctx, cfg, log); err != nil {
		return nil, err
	}
	if err = b.buildIdempotency(ctx, cfg, log); err != nil {
		return nil, err
	}
	if err = b.buildPublisher(cfg, log); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backends) buildStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		b.Store = memory.NewStore()

	case config.StorePostgres:
		if cfg.Postgres.Migrate {
			if err := postgres.Migrate(cfg.Postgres.DSN, log); err != nil {
				return err
			}
		}
		db, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN})
		if err != nil {
			return err
		}
		b.closers = append(b.closers, db.Close)
		b.Store = postgres.NewStore(db)

	case config.StoreMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "maestros-api",
		})
		if err != nil {
			return err
		}
		b.closers = append(b.closers, func() error {
			return client.Disconnect(context.Background())
		})
		store := mongodb.NewStore(client, db)
		if err := store.EnsureIndexes(ctx); err != nil {
			return err
		}
		b.Store = store

	default:
		return fmt.Errorf("unsupported store backend: %s", cfg.StoreBackend)
	}

	b.Checks["store"] = b.Store.Ping
	log.Info().Str("backend", cfg.StoreBackend).Msg("entity store ready")
	return nil
}

func (b *Backends) buildIdempotency(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	rc := redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB}
	if !rc.Enabled() {
		b.Idempotency = memory.NewIdempotencyStore(cfg.Redis.IdempotencyTTL)
		log.Info().Msg("idempotency keys kept in process")
		return nil
	}

	client, err := redisdb.Connect(ctx, rc)
	if err != nil {
		return err
	}
	b.closers = append(b.closers, client.Close)
	b.Idempotency = redisdb.NewIdempotencyStore(client, cfg.Redis.IdempotencyTTL)
	b.Checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	log.Info().Str("addr", rc.Addr).Msg("idempotency keys kept in redis")
	return nil
}

func (b *Backends) buildPublisher(cfg *config.Config, log zerolog.Logger) error {
	switch cfg.EventsBackend {
	case config.EventsLog:
		b.Publisher = events.NewLogPublisher(log)

	case config.EventsKafka:
		b.Publisher = kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)

	case config.EventsAMQP:
		p, err := amqp.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return err
		}
		b.Publisher = p

	default:
		return fmt.Errorf("unsupported events backend: %s", cfg.EventsBackend)
	}

	b.closers = append(b.closers, b.Publisher.Close)
	log.Info().Str("backend", cfg.EventsBackend).Msg("event publisher ready")
	return nil
}

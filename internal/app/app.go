// Package app wires a task store, its ordered list and the optional cache,
// event and metric backends from a Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/seb7887/listkit/backoff"
	"github.com/seb7887/listkit/eventbus"
	"github.com/seb7887/listkit/internal/task"
	"github.com/seb7887/listkit/ordering"
	"github.com/seb7887/listkit/sietch"
)

var (
	ErrUnknownDriver    = errors.New("unknown database driver")
	ErrUnknownDirection = errors.New("unknown direction")
	ErrEmptyTitle       = errors.New("title cannot be empty")
)

type tableCreator interface {
	CreateTable(ctx context.Context, def *sietch.TableDef) error
}

type App struct {
	Config   *Config
	Logger   *slog.Logger
	Store    task.Store
	List     *task.List
	Registry *prometheus.Registry

	creator tableCreator
	retry   backoff.Backoff
	closers []func() error
}

// Open connects the configured backends. Close releases them.
func Open(ctx context.Context, cfg *Config, logger *slog.Logger) (*App, error) {
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
		retry: &backoff.ExponentialBackoff{
			Initial: cfg.Retry.Initial,
			Max:     cfg.Retry.Max,
			Jitter:  true,
		},
	}
	a.Registry.MustRegister(collectors.NewGoCollector())

	if err := a.open(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) open(ctx context.Context) error {
	cfg := a.Config
	queryLogger := sietch.NewSlogLogger(a.Logger)

	switch strings.ToLower(cfg.Database.Driver) {
	case "sqlite":
		db, err := sietch.OpenSQLite(ctx, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		store, err := sietch.NewSQLConnector[task.Task](db, cfg.List.Table, task.GetID)
		if err != nil {
			return err
		}
		store.SetLogger(queryLogger)
		a.Store, a.creator = store, store
	case "cockroach", "postgres":
		pool, err := sietch.NewCockroachDBConnPool(ctx, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("connect cockroach: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		store, err := sietch.NewCockroachDBConnector[task.Task, string](pool, cfg.List.Table, task.GetID)
		if err != nil {
			return err
		}
		store.SetLogger(queryLogger)
		a.Store, a.creator = store, store
	case "memory":
		a.Store = sietch.NewInMemoryConnector[task.Task](task.GetID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Database.Driver)
	}

	if cfg.Cache.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		a.closers = append(a.closers, client.Close)
		cache := sietch.NewRedisConnector[task.Task, string](client, cfg.Cache.TTL, task.GetID, func(id string) string {
			return cfg.List.Table + ":" + id
		})
		a.Store = sietch.NewCachedRepository[task.Task, string](a.Store, cache, task.GetID)
	}

	policy, ok := ordering.ParseIncrementPolicy(cfg.List.IncrementPolicy)
	if !ok {
		return fmt.Errorf("unknown increment policy %q", cfg.List.IncrementPolicy)
	}
	opts := []ordering.Option{
		ordering.WithLogger(a.Logger),
		ordering.WithMetrics(ordering.NewMetrics(a.Registry)),
		ordering.WithIncrementPolicy(policy),
	}

	if cfg.Events.NatsURL != "" {
		bus, err := eventbus.NewNatsBus[ordering.Event](cfg.Events.NatsURL)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		a.closers = append(a.closers, bus.Close)
		opts = append(opts, ordering.WithPublisher(bus, cfg.Events.Topic))
	}

	if cfg.List.SerializerWorkers > 0 {
		s := ordering.NewSerializer(cfg.List.SerializerWorkers, 64)
		a.closers = append(a.closers, func() error { s.Close(); return nil })
		opts = append(opts, ordering.WithSerializer(s))
	}

	list, err := ordering.New[task.Task, string](a.Store, task.Accessors(), opts...)
	if err != nil {
		return err
	}
	list.Attach(a.Store)
	a.List = list
	return nil
}

// Close releases backends in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Init creates the task table. The memory driver needs none.
func (a *App) Init(ctx context.Context) error {
	if a.creator == nil {
		return nil
	}
	def, err := task.TableDef(a.Config.List.Table)
	if err != nil {
		return err
	}
	return a.creator.CreateTable(ctx, def)
}

// Retry runs fn again when the store aborted it with a serialization
// conflict.
func (a *App) Retry(ctx context.Context, fn func(ctx context.Context) error) error {
	return backoff.Retry(ctx, a.Config.Retry.Attempts, a.retry, sietch.IsSerializationFailure, fn)
}

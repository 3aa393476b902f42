package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrEthical07/taskauth/internal/accounts"
	"github.com/MrEthical07/taskauth/internal/config"
	"github.com/MrEthical07/taskauth/internal/logging"
	"github.com/MrEthical07/taskauth/internal/migrations"
	"github.com/MrEthical07/taskauth/internal/tasks"
	"github.com/MrEthical07/taskauth/revocation"
	"github.com/MrEthical07/taskauth/revocation/memstore"
	"github.com/MrEthical07/taskauth/revocation/pgstore"
	"github.com/MrEthical07/taskauth/revocation/redisstore"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

// stores holds the backends selected by configuration.
type stores struct {
	db     *sql.DB
	redis  redis.UniversalClient
	users  accounts.Repository
	tasks  tasks.Repository
	ledger revocation.Store
}

func openStores(ctx context.Context, cfg *config.Config, log logging.Logger) (*stores, error) {
	st := &stores{}

	needsPG := cfg.Store.Records == config.BackendPostgres || cfg.Store.Ledger == config.BackendPostgres
	if needsPG {
		db, err := sql.Open("pgx", cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		st.db = db
		if err := db.PingContext(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		if cfg.Postgres.Migrate {
			if err := migrations.Up(ctx, db); err != nil {
				st.Close()
				return nil, err
			}
			log.Info(ctx, "migrations applied")
		}
	}

	if cfg.Redis.Addr != "" {
		st.redis = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.Redis.Addr},
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := st.redis.Ping(ctx).Err(); err != nil {
			st.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
	}

	switch cfg.Store.Records {
	case config.BackendPostgres:
		st.users = accounts.NewPostgresRepository(st.db)
		st.tasks = tasks.NewPostgresRepository(st.db)
	default:
		st.users = accounts.NewMemoryRepository()
		st.tasks = tasks.NewMemoryRepository()
	}

	switch cfg.Store.Ledger {
	case config.BackendPostgres:
		st.ledger = pgstore.New(st.db)
	case config.BackendRedis:
		st.ledger = redisstore.New(st.redis, redisstore.WithPrefix(cfg.Redis.Prefix+":revoked"))
	default:
		st.ledger = memstore.New()
	}

	return st, nil
}

// Ping checks every configured backend.
func (s *stores) Ping(ctx context.Context) error {
	var errs []error
	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *stores) Close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

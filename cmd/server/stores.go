package main

import (
	"context"
	"fmt"
	"sync"

	"bondgate/internal/audit"
	"bondgate/internal/bond"
	"bondgate/internal/investor"
	"bondgate/internal/issuer"
	"bondgate/internal/platform/config"
	"bondgate/internal/platform/postgres"
	platformredis "bondgate/internal/platform/redis"
	"bondgate/internal/transfer"
)

// storeStack bundles every persistence dependency behind one build
// step: Postgres-backed when DATABASE_URL is set, in-memory otherwise.
type storeStack struct {
	Issuers   issuer.Store
	Bonds     bond.Store
	Investors investor.Store

	BondTx     bond.StoreTx
	TransferTx transfer.StoreTx

	Idempotency transfer.IdempotencyStore
	AuditSinks  []audit.Store

	Health func(ctx context.Context) error
	Close  func()
}

func buildStores(ctx context.Context, cfg config.Config) (*storeStack, error) {
	if cfg.DatabaseURL == "" {
		return buildMemoryStores(), nil
	}
	return buildPostgresStores(ctx, cfg)
}

func buildMemoryStores() *storeStack {
	issuers := issuer.NewInMemoryStore()
	bonds := bond.NewInMemoryStore()
	deposits := bond.NewInMemoryDepositStore()
	investors := investor.NewInMemoryStore()

	// One mutex serializes registration and transfers so the snapshot
	// rollback in either tx never races the other.
	mu := &sync.Mutex{}

	return &storeStack{
		Issuers:     issuers,
		Bonds:       bonds,
		Investors:   investors,
		BondTx:      bond.NewInMemoryTx(mu, bonds, deposits, issuers),
		TransferTx:  transfer.NewInMemoryTx(mu, bonds, deposits, investors),
		Idempotency: transfer.NewInMemoryIdempotencyStore(),
		AuditSinks:  []audit.Store{audit.NewInMemoryStore()},
		Health:      func(context.Context) error { return nil },
		Close:       func() {},
	}
}

func buildPostgresStores(ctx context.Context, cfg config.Config) (*storeStack, error) {
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	auditDB, err := audit.OpenPostgres(cfg.DatabaseURL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open audit store: %w", err)
	}

	stack := &storeStack{
		Issuers:    issuer.NewPostgresStore(pool),
		Bonds:      bond.NewPostgresStore(pool),
		Investors:  investor.NewPostgresStore(pool),
		BondTx:     bond.NewPostgresTx(pool),
		TransferTx: transfer.NewPostgresTx(pool),
		AuditSinks: []audit.Store{audit.NewPostgresStore(auditDB)},
		Health: func(ctx context.Context) error {
			return pool.Ping(ctx)
		},
		Close: func() {
			pool.Close()
			_ = auditDB.Close()
		},
	}

	if cfg.RedisURL != "" {
		redisClient, err := platformredis.New(ctx, cfg.RedisURL)
		if err != nil {
			stack.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		stack.Idempotency = transfer.NewRedisIdempotencyStore(redisClient)
		poolHealth := stack.Health
		stack.Health = func(ctx context.Context) error {
			if err := poolHealth(ctx); err != nil {
				return err
			}
			return redisClient.Health(ctx)
		}
		closePool := stack.Close
		stack.Close = func() {
			closePool()
			_ = redisClient.Close()
		}
	} else {
		stack.Idempotency = transfer.NewInMemoryIdempotencyStore()
	}

	return stack, nil
}

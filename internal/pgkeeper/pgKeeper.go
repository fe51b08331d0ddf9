// Package pgkeeper persists the cart ledger in PostgreSQL. It is selected
// when a database DSN is configured, for deployments that already run a
// shared database instead of a per-device file.
package pgkeeper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/golang-migrate/migrate"
	"github.com/golang-migrate/migrate/database/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/drstein77/storefront/internal/models"
)

// cartNamespace keys the single persisted record; only cart lines are ever
// stored, never catalog or category state.
const cartNamespace = "cart-storage"

type Log interface {
	Info(string, ...zap.Field)
	Error(string, ...zap.Field)
}

type PGKeeper struct {
	pool *pgxpool.Pool
	log  Log
}

// NewPGKeeper connects to the database and runs pending migrations. Returns
// nil on any setup failure so the caller can fall back to another keeper.
func NewPGKeeper(dsn func() string, log Log) *PGKeeper {
	addr := dsn()
	if addr == "" {
		log.Info("database dsn is empty")
		return nil
	}

	config, err := pgxpool.ParseConfig(addr)
	if err != nil {
		log.Error("unable to parse database DSN", zap.Error(err))
		return nil
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		log.Error("unable to connect to database", zap.Error(err))
		return nil
	}

	connConfig, err := pgx.ParseConfig(addr)
	if err != nil {
		log.Error("unable to parse connection string", zap.Error(err))
		return nil
	}
	// Register the driver with the name pgx
	sqlDB := stdlib.OpenDB(*connConfig)

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		log.Error("error getting migration driver", zap.Error(err))
		return nil
	}

	dir, err := os.Getwd()
	if err != nil {
		log.Error("error getting current directory", zap.Error(err))
	}

	mp := dir + "/migrations"
	var path string
	if _, err := os.Stat(mp); err != nil {
		path = "../../"
	} else {
		path = dir + "/"
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%smigrations", path),
		"postgres",
		driver)
	if err != nil {
		log.Error("error creating migration instance", zap.Error(err))
		return nil
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		log.Error("error while performing migration", zap.Error(err))
		return nil
	}

	log.Info("connected to cart database")

	return &PGKeeper{pool: pool, log: log}
}

// LoadCart restores the persisted cart lines. Missing row or corrupt payload
// both recover into an empty ledger.
func (kp *PGKeeper) LoadCart(ctx context.Context) ([]models.CartLine, error) {
	if kp.pool == nil {
		return nil, fmt.Errorf("database connection pool is nil")
	}

	var payload []byte
	err := kp.pool.QueryRow(ctx,
		"SELECT lines FROM cart_storage WHERE namespace = $1", cartNamespace,
	).Scan(&payload)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var lines []models.CartLine
	if err := json.Unmarshal(payload, &lines); err != nil {
		kp.log.Error("persisted cart is corrupt, starting empty", zap.Error(err))
		return nil, nil
	}
	return lines, nil
}

// SaveCart replaces the persisted record with the given lines.
func (kp *PGKeeper) SaveCart(ctx context.Context, lines []models.CartLine) error {
	if kp.pool == nil {
		return fmt.Errorf("database connection pool is nil")
	}

	if lines == nil {
		lines = []models.CartLine{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}

	_, err = kp.pool.Exec(ctx, `
        INSERT INTO cart_storage (namespace, lines, updated_at)
        VALUES ($1, $2, now())
        ON CONFLICT (namespace) DO UPDATE
        SET lines = excluded.lines, updated_at = excluded.updated_at
    `, cartNamespace, data)
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (kp *PGKeeper) Ping(ctx context.Context) bool {
	if kp.pool == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	return kp.pool.Ping(ctx) == nil
}

func (kp *PGKeeper) Close() bool {
	if kp.pool == nil {
		kp.log.Info("attempted to close a nil database connection pool")
		return false
	}
	kp.pool.Close()
	kp.log.Info("database connection pool closed")
	return true
}

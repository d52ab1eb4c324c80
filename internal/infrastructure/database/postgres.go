package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"autoblog-backend/internal/config"
)

// PostgresDB wraps the pgx connection pool used by the identity provider.
type PostgresDB struct {
	Pool   *pgxpool.Pool
	Config config.DatabaseConfig
}

func NewPostgresDB(cfg config.DatabaseConfig) *PostgresDB {
	return &PostgresDB{Config: cfg}
}

func (db *PostgresDB) buildConnectionString() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		db.Config.User,
		db.Config.Password,
		db.Config.Host,
		db.Config.Port,
		db.Config.Database,
		db.Config.SSLMode,
	)
}

// Connect establishes the pool with a small retry loop and exponential
// backoff, then verifies the connection with a ping.
func (db *PostgresDB) Connect(ctx context.Context) error {
	poolConfig, err := pgxpool.ParseConfig(db.buildConnectionString())
	if err != nil {
		return fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(db.Config.MaxConns)
	poolConfig.MinConns = int32(db.Config.MinConns)
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	const maxRetries = 3
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
		cancel()

		if err == nil {
			if pingErr := pool.Ping(ctx); pingErr != nil {
				pool.Close()
				lastErr = pingErr
			} else {
				db.Pool = pool
				log.Info().Int("attempt", attempt).Msg("Database connected")
				return nil
			}
		} else {
			lastErr = err
		}

		if attempt < maxRetries {
			delay := time.Second * time.Duration(1<<uint(attempt-1))
			log.Warn().Err(lastErr).Dur("retry_in", delay).Msg("Database connection failed")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, lastErr)
}

func (db *PostgresDB) HealthCheck(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return db.Pool.Ping(ctx)
}

func (db *PostgresDB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

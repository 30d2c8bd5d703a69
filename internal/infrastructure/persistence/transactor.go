package persistence

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/memberhub/backend/internal/domain/shared"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PostgreSQL error codes that mean "the same transaction may succeed if retried"
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

type txKey struct{}

// conn returns the transaction bound to ctx, or db when there is none
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// TransactorConfig controls isolation and retry behaviour
type TransactorConfig struct {
	Serializable bool
	MaxRetries   int
	Backoff      time.Duration
}

// Transactor implements shared.TxManager on top of GORM
type Transactor struct {
	db      *gorm.DB
	cfg     TransactorConfig
	logger  *zap.Logger
	sleepFn func(ctx context.Context, d time.Duration) error
}

// NewTransactor creates a new Transactor
func NewTransactor(db *gorm.DB, cfg TransactorConfig, logger *zap.Logger) *Transactor {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Transactor{
		db:      db,
		cfg:     cfg,
		logger:  logger,
		sleepFn: sleepCtx,
	}
}

// Execute runs fn in a transaction. Retryable failures (serialization
// conflicts, deadlocks, lock timeouts, dropped connections) restart fn up to
// MaxRetries times; when retries are exhausted the caller receives
// shared.ErrServiceUnavailable. Any other error rolls back and is returned
// unchanged. A call nested inside another Execute joins the outer transaction.
func (t *Transactor) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	var opts []*sql.TxOptions
	if t.cfg.Serializable {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelSerializable})
	}

	for attempt := 0; ; attempt++ {
		err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(context.WithValue(ctx, txKey{}, tx))
		}, opts...)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		if attempt >= t.cfg.MaxRetries {
			t.logger.Warn("transaction retries exhausted",
				zap.Int("attempts", attempt+1),
				zap.Error(err),
			)
			return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
		}
		t.logger.Debug("retrying transaction", zap.Int("attempt", attempt+1), zap.Error(err))
		if serr := t.sleepFn(ctx, t.cfg.Backoff*time.Duration(attempt+1)); serr != nil {
			return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, serr)
		}
	}
}

// IsRetryable reports whether err is a transient database failure
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return true
		}
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	return pgconn.SafeToRetry(err) || pgconn.Timeout(err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// translate maps GORM sentinel errors onto domain errors
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	}
	return err
}

package persistence

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/memberhub/backend/internal/domain/member"
	"github.com/memberhub/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"bad connection", driver.ErrBadConn, true},
		{"domain error", shared.ErrInsufficientBalance, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func newTestTransactor(db *gorm.DB, retries int) *Transactor {
	tx := NewTransactor(db, TransactorConfig{MaxRetries: retries, Backoff: time.Millisecond}, nopLogger())
	tx.sleepFn = func(context.Context, time.Duration) error { return nil }
	return tx
}

func TestTransactor_CommitsAndRollsBack(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormAccountRepository(db)
	a := createAccount(t, repo, member.TierGeneral, "a", nil, nil)
	tx := newTestTransactor(db, 3)

	err := tx.Execute(ctx, func(ctx context.Context) error {
		a.PointsBalance = 10
		return repo.UpdateBalances(ctx, a)
	})
	require.NoError(t, err)

	err = tx.Execute(ctx, func(ctx context.Context) error {
		a.PointsBalance = 99
		if err := repo.UpdateBalances(ctx, a); err != nil {
			return err
		}
		return shared.ErrInsufficientBalance
	})
	assert.True(t, errors.Is(err, shared.ErrInsufficientBalance))

	found, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), found.PointsBalance, "second transaction rolled back")
}

func TestTransactor_RetriesThenSucceeds(t *testing.T) {
	tx := newTestTransactor(newTestDB(t), 3)
	attempts := 0

	err := tx.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestTransactor_ExhaustedRetriesAreServiceUnavailable(t *testing.T) {
	tx := newTestTransactor(newTestDB(t), 2)
	attempts := 0

	err := tx.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return &pgconn.PgError{Code: "40P01"}
	})

	assert.True(t, errors.Is(err, shared.ErrServiceUnavailable))
	assert.Equal(t, 3, attempts, "one attempt plus two retries")
}

func TestTransactor_NestedJoinsOuter(t *testing.T) {
	tx := newTestTransactor(newTestDB(t), 0)
	var outer, inner *gorm.DB

	err := tx.Execute(context.Background(), func(ctx context.Context) error {
		outer, _ = ctx.Value(txKey{}).(*gorm.DB)
		return tx.Execute(ctx, func(ctx context.Context) error {
			inner, _ = ctx.Value(txKey{}).(*gorm.DB)
			return nil
		})
	})

	require.NoError(t, err)
	require.NotNil(t, outer)
	assert.Same(t, outer, inner)
}

func TestTransactor_SerializableBeginsWithIsolationLevel(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	tx := NewTransactor(db, TransactorConfig{Serializable: true}, nopLogger())
	require.NoError(t, tx.Execute(context.Background(), func(ctx context.Context) error { return nil }))
	assert.NoError(t, mock.ExpectationsWereMet())
}

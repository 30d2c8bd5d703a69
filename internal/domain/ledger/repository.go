package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/shared"
)

// TransactionRepository is the append-only store of ledger transactions
type TransactionRepository interface {
	// Create inserts tx. A duplicate idempotency key yields shared.ErrAlreadyExists.
	Create(ctx context.Context, tx *Transaction) error

	// FindByIdempotencyKey returns the transaction recorded under key
	FindByIdempotencyKey(ctx context.Context, key string) (*Transaction, error)

	// FindByAccount lists transactions touching accountID, newest first
	FindByAccount(ctx context.Context, accountID uuid.UUID, filter TransactionFilter) ([]Transaction, int64, error)
}

// DailyRewardRepository persists daily claim state
type DailyRewardRepository interface {
	// FindByAccountID returns shared.ErrNotFound when the account never claimed
	FindByAccountID(ctx context.Context, accountID uuid.UUID) (*DailyRewardState, error)

	// Insert stores the first claim. A concurrent first claim yields shared.ErrAlreadyExists.
	Insert(ctx context.Context, state *DailyRewardState) error

	// CompareAndSwap updates state only if the stored last claim date still equals
	// expected. It reports whether the row was updated.
	CompareAndSwap(ctx context.Context, state *DailyRewardState, expected CalendarDate) (bool, error)
}

// RewardConfigRepository persists per-agency referral reward tables
type RewardConfigRepository interface {
	// FindByAgency returns shared.ErrNotFound when the agency has no config
	FindByAgency(ctx context.Context, agencyID uuid.UUID) (*RewardConfig, error)

	// Replace overwrites the stored table for the agency
	Replace(ctx context.Context, cfg *RewardConfig) error
}

// RewardEventRepository is the append-only store of referral payout attempts
type RewardEventRepository interface {
	Append(ctx context.Context, event *RewardEvent) error
	FindByAgency(ctx context.Context, agencyID uuid.UUID, filter shared.Filter) ([]RewardEvent, int64, error)
}

package member

import (
	"bytes"
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/shared"
)

// AccountQuery selects a page of accounts in hierarchy order (tier rank, then creation time)
type AccountQuery struct {
	// IDs restricts the result to these accounts when non-nil. An empty, non-nil slice matches nothing.
	IDs            []uuid.UUID
	ExcludeIDs     []uuid.UUID
	ExcludeBlocked bool
	shared.Filter
}

// AccountRepository defines persistence for accounts
type AccountRepository interface {
	AccountLookup
	ChildLookup

	// Create inserts a new account
	Create(ctx context.Context, account *Account) error

	// Update persists changes to an existing account
	Update(ctx context.Context, account *Account) error

	// FindByUsername finds an account by its login name
	FindByUsername(ctx context.Context, username string) (*Account, error)

	// FindByInviteCode finds the agency or organization that issued code
	FindByInviteCode(ctx context.Context, code string) (*Account, error)

	// ExistsByUsername checks if a username is taken
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// FindPage returns accounts matching query in hierarchy order plus the total count
	FindPage(ctx context.Context, query AccountQuery) ([]Account, int64, error)

	// FindForUpdate loads and row-locks the given accounts in ascending id order.
	// Must be called inside a transaction. Returns ErrNotFound if any id is missing.
	FindForUpdate(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*Account, error)

	// UpdateBalances writes the points and credits balances of account
	UpdateBalances(ctx context.Context, account *Account) error

	// UpdateBlocked writes the blocked flag of account
	UpdateBlocked(ctx context.Context, account *Account) error
}

// BlockRecordRepository is the append-only store of block audit entries
type BlockRecordRepository interface {
	Append(ctx context.Context, record *BlockRecord) error

	// Query returns records newest first plus the total count
	Query(ctx context.Context, filter BlockRecordFilter) ([]BlockRecord, int64, error)
}

// LockOrder returns ids deduplicated and sorted ascending, the order in which
// account rows must be locked so that concurrent transfers cannot deadlock.
func LockOrder(ids ...uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

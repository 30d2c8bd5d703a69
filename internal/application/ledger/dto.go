package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/ledger"
	"github.com/memberhub/backend/internal/domain/member"
)

// TransferInput contains the input for an account-to-account transfer
type TransferInput struct {
	FromID         uuid.UUID
	ToID           uuid.UUID
	Currency       ledger.Currency
	Amount         int64
	Description    string
	IdempotencyKey string
}

// TransactionResponse is the public view of a ledger transaction
type TransactionResponse struct {
	ID             uuid.UUID              `json:"id"`
	FromAccountID  *uuid.UUID             `json:"from_account_id,omitempty"`
	ToAccountID    *uuid.UUID             `json:"to_account_id,omitempty"`
	Currency       ledger.Currency        `json:"currency"`
	Amount         int64                  `json:"amount"`
	CreditedAmount int64                  `json:"credited_amount"`
	Kind           ledger.TransactionKind `json:"kind"`
	Description    string                 `json:"description,omitempty"`
	Reference      string                 `json:"reference,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// ToTransactionResponse converts a domain transaction
func ToTransactionResponse(tx *ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:             tx.ID,
		FromAccountID:  tx.FromAccountID,
		ToAccountID:    tx.ToAccountID,
		Currency:       tx.Currency,
		Amount:         tx.Amount,
		CreditedAmount: tx.CreditedAmount,
		Kind:           tx.Kind,
		Description:    tx.Description,
		Reference:      tx.Reference,
		CreatedAt:      tx.CreatedAt,
	}
}

// ToTransactionResponses converts a slice of domain transactions
func ToTransactionResponses(txs []ledger.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txs))
	for i := range txs {
		out[i] = ToTransactionResponse(&txs[i])
	}
	return out
}

// BalanceResponse holds both balances of an account
type BalanceResponse struct {
	AccountID uuid.UUID `json:"account_id"`
	Points    int64     `json:"points"`
	Credits   int64     `json:"credits"`
}

// DailyClaimResult is returned by a successful daily claim
type DailyClaimResult struct {
	Streak      int                 `json:"streak"`
	Reward      int64               `json:"reward"`
	Transaction TransactionResponse `json:"transaction"`
}

// DailyRewardStateResponse is the public view of an account's claim state
type DailyRewardStateResponse struct {
	LastClaimDate string `json:"last_claim_date,omitempty"`
	Streak        int    `json:"streak"`
	ClaimedToday  bool   `json:"claimed_today"`
}

// RewardConfigResponse is the public view of an agency's reward table
type RewardConfigResponse struct {
	AgencyID     uuid.UUID             `json:"agency_id"`
	RewardByTier map[member.Tier]int64 `json:"reward_by_tier"`
	UpdatedAt    *time.Time            `json:"updated_at,omitempty"`
}

// RewardEventResponse is the public view of one payout attempt
type RewardEventResponse struct {
	ID            uuid.UUID                `json:"id"`
	AgencyID      uuid.UUID                `json:"agency_id"`
	NewAccountID  uuid.UUID                `json:"new_account_id"`
	SignupTier    member.Tier              `json:"signup_tier"`
	Amount        int64                    `json:"amount"`
	Status        ledger.RewardEventStatus `json:"status"`
	FailureReason string                   `json:"failure_reason,omitempty"`
	TransactionID *uuid.UUID               `json:"transaction_id,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
}

// ToRewardEventResponses converts a slice of domain reward events
func ToRewardEventResponses(events []ledger.RewardEvent) []RewardEventResponse {
	out := make([]RewardEventResponse, len(events))
	for i, e := range events {
		out[i] = RewardEventResponse{
			ID:            e.ID,
			AgencyID:      e.AgencyID,
			NewAccountID:  e.NewAccountID,
			SignupTier:    e.SignupTier,
			Amount:        e.Amount,
			Status:        e.Status,
			FailureReason: e.FailureReason,
			TransactionID: e.TransactionID,
			CreatedAt:     e.CreatedAt,
		}
	}
	return out
}

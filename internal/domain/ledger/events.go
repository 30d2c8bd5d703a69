package ledger

import (
	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/shared"
)

// AggregateTypeLedger is the aggregate type of ledger events
const AggregateTypeLedger = "Ledger"

// Ledger event types
const (
	EventTypeTransferCompleted  = "TransferCompleted"
	EventTypeDailyRewardClaimed = "DailyRewardClaimed"
	EventTypeReferralRewarded   = "ReferralRewarded"
)

// TransferCompletedEvent is published after any committed balance movement
type TransferCompletedEvent struct {
	shared.BaseDomainEvent
	TransactionID uuid.UUID       `json:"transaction_id"`
	Kind          TransactionKind `json:"kind"`
	Currency      Currency        `json:"currency"`
	Amount        int64           `json:"amount"`
}

// NewTransferCompletedEvent creates a new TransferCompletedEvent
func NewTransferCompletedEvent(tx *Transaction, actorID uuid.UUID) *TransferCompletedEvent {
	return &TransferCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransferCompleted, AggregateTypeLedger, tx.ID, actorID),
		TransactionID:   tx.ID,
		Kind:            tx.Kind,
		Currency:        tx.Currency,
		Amount:          tx.Amount,
	}
}

// ReferralRewardedEvent is published for every signup payout attempt
type ReferralRewardedEvent struct {
	shared.BaseDomainEvent
	AgencyID uuid.UUID         `json:"agency_id"`
	Amount   int64             `json:"amount"`
	Status   RewardEventStatus `json:"status"`
}

// NewReferralRewardedEvent creates a new ReferralRewardedEvent
func NewReferralRewardedEvent(e *RewardEvent) *ReferralRewardedEvent {
	return &ReferralRewardedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReferralRewarded, AggregateTypeLedger, e.NewAccountID, e.AgencyID),
		AgencyID:        e.AgencyID,
		Amount:          e.Amount,
		Status:          e.Status,
	}
}

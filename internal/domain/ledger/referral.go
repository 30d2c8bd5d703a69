package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/member"
	"github.com/memberhub/backend/internal/domain/shared"
)

// RewardConfig holds the points an agency pays to each new signup, per tier
type RewardConfig struct {
	AgencyID     uuid.UUID
	RewardByTier map[member.Tier]int64
	UpdatedAt    time.Time
}

// NewRewardConfig validates and builds a reward table. Every amount must be
// non-negative and every key a known tier.
func NewRewardConfig(agencyID uuid.UUID, rewardByTier map[member.Tier]int64) (*RewardConfig, error) {
	table := make(map[member.Tier]int64, len(rewardByTier))
	for tier, amount := range rewardByTier {
		if !tier.IsValid() {
			return nil, shared.InvalidArgument("Unknown tier in reward config: " + string(tier))
		}
		if amount < 0 {
			return nil, shared.InvalidArgument("Reward amounts must be zero or greater")
		}
		table[tier] = amount
	}
	return &RewardConfig{
		AgencyID:     agencyID,
		RewardByTier: table,
		UpdatedAt:    time.Now().UTC(),
	}, nil
}

// AmountFor returns the reward for a signup of tier, 0 when unset
func (c *RewardConfig) AmountFor(tier member.Tier) int64 {
	if c == nil {
		return 0
	}
	return c.RewardByTier[tier]
}

// RewardEventStatus is the outcome of one payout attempt
type RewardEventStatus string

const (
	RewardStatusPaid    RewardEventStatus = "paid"
	RewardStatusSkipped RewardEventStatus = "skipped"
)

// RewardEvent documents one signup payout attempt. Append-only.
type RewardEvent struct {
	ID            uuid.UUID
	AgencyID      uuid.UUID
	NewAccountID  uuid.UUID
	SignupTier    member.Tier
	Amount        int64
	Status        RewardEventStatus
	FailureReason string
	TransactionID *uuid.UUID
	CreatedAt     time.Time
}

// NewPaidRewardEvent records a completed payout
func NewPaidRewardEvent(agencyID, newAccountID uuid.UUID, tier member.Tier, amount int64, txID uuid.UUID) *RewardEvent {
	return &RewardEvent{
		ID:            uuid.New(),
		AgencyID:      agencyID,
		NewAccountID:  newAccountID,
		SignupTier:    tier,
		Amount:        amount,
		Status:        RewardStatusPaid,
		TransactionID: &txID,
		CreatedAt:     time.Now().UTC(),
	}
}

// NewSkippedRewardEvent records a payout that could not be made
func NewSkippedRewardEvent(agencyID, newAccountID uuid.UUID, tier member.Tier, amount int64, reason string) *RewardEvent {
	return &RewardEvent{
		ID:            uuid.New(),
		AgencyID:      agencyID,
		NewAccountID:  newAccountID,
		SignupTier:    tier,
		Amount:        amount,
		Status:        RewardStatusSkipped,
		FailureReason: reason,
		CreatedAt:     time.Now().UTC(),
	}
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/ledger"
	"github.com/memberhub/backend/internal/domain/member"
)

// TransactionModel is the persistence model for ledger transactions
type TransactionModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	FromAccountID  *uuid.UUID `gorm:"type:uuid;index"`
	ToAccountID    *uuid.UUID `gorm:"type:uuid;index"`
	Currency       string     `gorm:"type:varchar(10);not null"`
	Amount         int64      `gorm:"not null;check:chk_ledger_transactions_amount_positive,amount > 0"`
	CreditedAmount int64      `gorm:"not null"`
	Kind           string     `gorm:"type:varchar(20);not null;index"`
	Description    string     `gorm:"type:varchar(255);not null;default:''"`
	Reference      *string    `gorm:"type:varchar(100)"`
	IdempotencyKey *string    `gorm:"type:varchar(150);uniqueIndex"`
	CreatedAt      time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "ledger_transactions"
}

// ToDomain converts the model to a domain Transaction
func (m *TransactionModel) ToDomain() *ledger.Transaction {
	return &ledger.Transaction{
		ID:             m.ID,
		FromAccountID:  m.FromAccountID,
		ToAccountID:    m.ToAccountID,
		Currency:       ledger.Currency(m.Currency),
		Amount:         m.Amount,
		CreditedAmount: m.CreditedAmount,
		Kind:           ledger.TransactionKind(m.Kind),
		Description:    m.Description,
		Reference:      derefString(m.Reference),
		IdempotencyKey: derefString(m.IdempotencyKey),
		CreatedAt:      m.CreatedAt,
	}
}

// TransactionModelFromDomain creates a persistence model from a domain Transaction
func TransactionModelFromDomain(t *ledger.Transaction) *TransactionModel {
	return &TransactionModel{
		ID:             t.ID,
		FromAccountID:  t.FromAccountID,
		ToAccountID:    t.ToAccountID,
		Currency:       string(t.Currency),
		Amount:         t.Amount,
		CreditedAmount: t.CreditedAmount,
		Kind:           string(t.Kind),
		Description:    t.Description,
		Reference:      nullableString(t.Reference),
		IdempotencyKey: nullableString(t.IdempotencyKey),
		CreatedAt:      t.CreatedAt,
	}
}

// DailyRewardStateModel holds one row per account that has ever claimed.
// The primary key on account_id makes the first claim race-safe.
type DailyRewardStateModel struct {
	AccountID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	LastClaimDate string    `gorm:"type:varchar(10);not null"`
	Streak        int       `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DailyRewardStateModel) TableName() string {
	return "daily_reward_states"
}

// ToDomain converts the model to a domain DailyRewardState
func (m *DailyRewardStateModel) ToDomain() *ledger.DailyRewardState {
	return &ledger.DailyRewardState{
		AccountID:     m.AccountID,
		LastClaimDate: ledger.CalendarDate(m.LastClaimDate),
		Streak:        m.Streak,
		UpdatedAt:     m.UpdatedAt,
	}
}

// DailyRewardStateModelFromDomain creates a persistence model from domain state
func DailyRewardStateModelFromDomain(s *ledger.DailyRewardState) *DailyRewardStateModel {
	return &DailyRewardStateModel{
		AccountID:     s.AccountID,
		LastClaimDate: string(s.LastClaimDate),
		Streak:        s.Streak,
		UpdatedAt:     s.UpdatedAt,
	}
}

// ReferralRewardModel is one row of an agency's reward table
type ReferralRewardModel struct {
	AgencyID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Tier      string    `gorm:"type:varchar(20);primaryKey"`
	Amount    int64     `gorm:"not null;check:chk_referral_rewards_amount_non_negative,amount >= 0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReferralRewardModel) TableName() string {
	return "referral_rewards"
}

// ReferralRewardModelsFromDomain flattens a reward table into rows
func ReferralRewardModelsFromDomain(cfg *ledger.RewardConfig) []ReferralRewardModel {
	rows := make([]ReferralRewardModel, 0, len(cfg.RewardByTier))
	for _, tier := range member.AllTiers() {
		amount, ok := cfg.RewardByTier[tier]
		if !ok {
			continue
		}
		rows = append(rows, ReferralRewardModel{
			AgencyID:  cfg.AgencyID,
			Tier:      string(tier),
			Amount:    amount,
			UpdatedAt: cfg.UpdatedAt,
		})
	}
	return rows
}

// RewardConfigFromModels rebuilds a reward table from its rows
func RewardConfigFromModels(agencyID uuid.UUID, rows []ReferralRewardModel) *ledger.RewardConfig {
	cfg := &ledger.RewardConfig{
		AgencyID:     agencyID,
		RewardByTier: make(map[member.Tier]int64, len(rows)),
	}
	for _, row := range rows {
		cfg.RewardByTier[member.Tier(row.Tier)] = row.Amount
		if row.UpdatedAt.After(cfg.UpdatedAt) {
			cfg.UpdatedAt = row.UpdatedAt
		}
	}
	return cfg
}

// ReferralRewardEventModel is the persistence model for payout attempts
type ReferralRewardEventModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	AgencyID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	NewAccountID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	SignupTier    string     `gorm:"type:varchar(20);not null"`
	Amount        int64      `gorm:"not null"`
	Status        string     `gorm:"type:varchar(10);not null"`
	FailureReason string     `gorm:"type:varchar(100);not null;default:''"`
	TransactionID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt     time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ReferralRewardEventModel) TableName() string {
	return "referral_reward_events"
}

// ToDomain converts the model to a domain RewardEvent
func (m *ReferralRewardEventModel) ToDomain() ledger.RewardEvent {
	return ledger.RewardEvent{
		ID:            m.ID,
		AgencyID:      m.AgencyID,
		NewAccountID:  m.NewAccountID,
		SignupTier:    member.Tier(m.SignupTier),
		Amount:        m.Amount,
		Status:        ledger.RewardEventStatus(m.Status),
		FailureReason: m.FailureReason,
		TransactionID: m.TransactionID,
		CreatedAt:     m.CreatedAt,
	}
}

// ReferralRewardEventModelFromDomain creates a persistence model from a domain RewardEvent
func ReferralRewardEventModelFromDomain(e *ledger.RewardEvent) *ReferralRewardEventModel {
	return &ReferralRewardEventModel{
		ID:            e.ID,
		AgencyID:      e.AgencyID,
		NewAccountID:  e.NewAccountID,
		SignupTier:    string(e.SignupTier),
		Amount:        e.Amount,
		Status:        string(e.Status),
		FailureReason: e.FailureReason,
		TransactionID: e.TransactionID,
		CreatedAt:     e.CreatedAt,
	}
}

// All returns every model, in dependency order, for AutoMigrate in tests
func All() []any {
	return []any{
		&AccountModel{},
		&BlockRecordModel{},
		&TransactionModel{},
		&DailyRewardStateModel{},
		&ReferralRewardModel{},
		&ReferralRewardEventModel{},
	}
}

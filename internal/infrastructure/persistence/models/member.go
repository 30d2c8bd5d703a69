package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/member"
)

// AccountModel is the persistence model for member accounts.
// TierRank is denormalised from Tier so listings can sort by hierarchy order in SQL.
type AccountModel struct {
	AggregateModel
	Username             string     `gorm:"type:varchar(50);not null;uniqueIndex"`
	PasswordHash         string     `gorm:"type:varchar(255);not null"`
	DisplayName          string     `gorm:"type:varchar(100);not null;default:''"`
	Tier                 string     `gorm:"type:varchar(20);not null"`
	TierRank             int        `gorm:"not null;index:idx_accounts_hierarchy_order,priority:1"`
	ParentAgencyID       *uuid.UUID `gorm:"type:uuid;index"`
	ParentOrganizationID *uuid.UUID `gorm:"type:uuid;index"`
	InviteCode           *string    `gorm:"type:varchar(16);uniqueIndex"`
	IsBlocked            bool       `gorm:"not null;default:false"`
	PointsBalance        int64      `gorm:"not null;default:0;check:chk_accounts_points_non_negative,points_balance >= 0"`
	CreditsBalance       int64      `gorm:"not null;default:0;check:chk_accounts_credits_non_negative,credits_balance >= 0"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the model to a domain Account
func (m *AccountModel) ToDomain() *member.Account {
	return &member.Account{
		BaseAggregateRoot:    m.ToDomainAggregateRoot(),
		Username:             m.Username,
		PasswordHash:         m.PasswordHash,
		DisplayName:          m.DisplayName,
		Tier:                 member.Tier(m.Tier),
		ParentAgencyID:       m.ParentAgencyID,
		ParentOrganizationID: m.ParentOrganizationID,
		InviteCode:           derefString(m.InviteCode),
		IsBlocked:            m.IsBlocked,
		PointsBalance:        m.PointsBalance,
		CreditsBalance:       m.CreditsBalance,
	}
}

// AccountModelFromDomain creates a persistence model from a domain Account
func AccountModelFromDomain(a *member.Account) *AccountModel {
	m := &AccountModel{
		Username:             a.Username,
		PasswordHash:         a.PasswordHash,
		DisplayName:          a.DisplayName,
		Tier:                 string(a.Tier),
		TierRank:             a.Tier.Rank(),
		ParentAgencyID:       a.ParentAgencyID,
		ParentOrganizationID: a.ParentOrganizationID,
		InviteCode:           nullableString(a.InviteCode),
		IsBlocked:            a.IsBlocked,
		PointsBalance:        a.PointsBalance,
		CreditsBalance:       a.CreditsBalance,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}

// BlockRecordModel is the persistence model for the block audit log
type BlockRecordModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	TargetAccountID uuid.UUID `gorm:"type:uuid;not null;index"`
	ActorAccountID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Action          string    `gorm:"type:varchar(10);not null"`
	Reason          string    `gorm:"type:varchar(500);not null"`
	CreatedAt       time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (BlockRecordModel) TableName() string {
	return "block_records"
}

// ToDomain converts the model to a domain BlockRecord
func (m *BlockRecordModel) ToDomain() member.BlockRecord {
	return member.BlockRecord{
		ID:              m.ID,
		TargetAccountID: m.TargetAccountID,
		ActorAccountID:  m.ActorAccountID,
		Action:          member.BlockAction(m.Action),
		Reason:          m.Reason,
		CreatedAt:       m.CreatedAt,
	}
}

// BlockRecordModelFromDomain creates a persistence model from a domain BlockRecord
func BlockRecordModelFromDomain(r *member.BlockRecord) *BlockRecordModel {
	return &BlockRecordModel{
		ID:              r.ID,
		TargetAccountID: r.TargetAccountID,
		ActorAccountID:  r.ActorAccountID,
		Action:          string(r.Action),
		Reason:          r.Reason,
		CreatedAt:       r.CreatedAt,
	}
}

package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/ledger"
	"github.com/memberhub/backend/internal/domain/shared"
	"github.com/memberhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRewardConfigRepository implements ledger.RewardConfigRepository
type GormRewardConfigRepository struct {
	db *gorm.DB
}

// NewGormRewardConfigRepository creates a new GormRewardConfigRepository
func NewGormRewardConfigRepository(db *gorm.DB) *GormRewardConfigRepository {
	return &GormRewardConfigRepository{db: db}
}

// FindByAgency loads the reward table of an agency
func (r *GormRewardConfigRepository) FindByAgency(ctx context.Context, agencyID uuid.UUID) (*ledger.RewardConfig, error) {
	var rows []models.ReferralRewardModel
	if err := conn(ctx, r.db).Where("agency_id = ?", agencyID).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, shared.ErrNotFound
	}
	return models.RewardConfigFromModels(agencyID, rows), nil
}

// Replace swaps the stored table for cfg. Callers run it inside a transaction.
func (r *GormRewardConfigRepository) Replace(ctx context.Context, cfg *ledger.RewardConfig) error {
	db := conn(ctx, r.db)
	if err := db.Where("agency_id = ?", cfg.AgencyID).Delete(&models.ReferralRewardModel{}).Error; err != nil {
		return err
	}
	rows := models.ReferralRewardModelsFromDomain(cfg)
	if len(rows) == 0 {
		return nil
	}
	return translate(db.Create(&rows).Error)
}

// GormRewardEventRepository implements ledger.RewardEventRepository
type GormRewardEventRepository struct {
	db *gorm.DB
}

// NewGormRewardEventRepository creates a new GormRewardEventRepository
func NewGormRewardEventRepository(db *gorm.DB) *GormRewardEventRepository {
	return &GormRewardEventRepository{db: db}
}

// Append inserts a payout attempt
func (r *GormRewardEventRepository) Append(ctx context.Context, event *ledger.RewardEvent) error {
	return translate(conn(ctx, r.db).Create(models.ReferralRewardEventModelFromDomain(event)).Error)
}

// FindByAgency lists an agency's payout attempts, newest first
func (r *GormRewardEventRepository) FindByAgency(ctx context.Context, agencyID uuid.UUID, filter shared.Filter) ([]ledger.RewardEvent, int64, error) {
	page := filter.Normalize()
	query := conn(ctx, r.db).Model(&models.ReferralRewardEventModel{}).Where("agency_id = ?", agencyID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ReferralRewardEventModel
	if err := query.Order("created_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	events := make([]ledger.RewardEvent, len(rows))
	for i := range rows {
		events[i] = rows[i].ToDomain()
	}
	return events, total, nil
}

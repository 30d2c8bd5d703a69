package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/ledger"
	"github.com/memberhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormDailyRewardRepository implements ledger.DailyRewardRepository
type GormDailyRewardRepository struct {
	db *gorm.DB
}

// NewGormDailyRewardRepository creates a new GormDailyRewardRepository
func NewGormDailyRewardRepository(db *gorm.DB) *GormDailyRewardRepository {
	return &GormDailyRewardRepository{db: db}
}

// FindByAccountID returns the claim state of an account
func (r *GormDailyRewardRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID) (*ledger.DailyRewardState, error) {
	var model models.DailyRewardStateModel
	if err := conn(ctx, r.db).First(&model, "account_id = ?", accountID).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// Insert stores a first claim. The primary key rejects a concurrent duplicate.
func (r *GormDailyRewardRepository) Insert(ctx context.Context, state *ledger.DailyRewardState) error {
	return translate(conn(ctx, r.db).Create(models.DailyRewardStateModelFromDomain(state)).Error)
}

// CompareAndSwap writes state only while the stored last claim date still equals expected
func (r *GormDailyRewardRepository) CompareAndSwap(ctx context.Context, state *ledger.DailyRewardState, expected ledger.CalendarDate) (bool, error) {
	result := conn(ctx, r.db).Model(&models.DailyRewardStateModel{}).
		Where("account_id = ? AND last_claim_date = ?", state.AccountID, string(expected)).
		Updates(map[string]any{
			"last_claim_date": string(state.LastClaimDate),
			"streak":          state.Streak,
			"updated_at":      state.UpdatedAt,
		})
	if result.Error != nil {
		return false, translate(result.Error)
	}
	return result.RowsAffected == 1, nil
}

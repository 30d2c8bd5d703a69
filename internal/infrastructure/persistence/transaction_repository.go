package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/ledger"
	"github.com/memberhub/backend/internal/domain/shared"
	"github.com/memberhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTransactionRepository implements ledger.TransactionRepository
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Create inserts tx
func (r *GormTransactionRepository) Create(ctx context.Context, tx *ledger.Transaction) error {
	return translate(conn(ctx, r.db).Create(models.TransactionModelFromDomain(tx)).Error)
}

// FindByIdempotencyKey returns the transaction recorded under key
func (r *GormTransactionRepository) FindByIdempotencyKey(ctx context.Context, key string) (*ledger.Transaction, error) {
	if key == "" {
		return nil, shared.ErrNotFound
	}
	var model models.TransactionModel
	if err := conn(ctx, r.db).Where("idempotency_key = ?", key).First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindByAccount lists transactions where accountID is sender or receiver, newest first
func (r *GormTransactionRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, f ledger.TransactionFilter) ([]ledger.Transaction, int64, error) {
	page := f.Filter.Normalize()

	query := conn(ctx, r.db).Model(&models.TransactionModel{}).
		Where("(from_account_id = ? OR to_account_id = ?)", accountID, accountID)
	if f.Currency != nil {
		query = query.Where("currency = ?", string(*f.Currency))
	}
	if f.Kind != nil {
		query = query.Where("kind = ?", string(*f.Kind))
	}
	if f.DateFrom != nil {
		query = query.Where("created_at >= ?", f.DateFrom.UTC())
	}
	if f.DateTo != nil {
		query = query.Where("created_at <= ?", f.DateTo.UTC())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.TransactionModel
	if err := query.Order("created_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	txs := make([]ledger.Transaction, len(rows))
	for i := range rows {
		txs[i] = *rows[i].ToDomain()
	}
	return txs, total, nil
}

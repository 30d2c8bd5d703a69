package persistence

import (
	"context"

	"github.com/memberhub/backend/internal/domain/member"
	"github.com/memberhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormBlockRecordRepository implements member.BlockRecordRepository.
// It only ever inserts and reads.
type GormBlockRecordRepository struct {
	db *gorm.DB
}

// NewGormBlockRecordRepository creates a new GormBlockRecordRepository
func NewGormBlockRecordRepository(db *gorm.DB) *GormBlockRecordRepository {
	return &GormBlockRecordRepository{db: db}
}

// Append inserts a block record
func (r *GormBlockRecordRepository) Append(ctx context.Context, record *member.BlockRecord) error {
	return translate(conn(ctx, r.db).Create(models.BlockRecordModelFromDomain(record)).Error)
}

// Query returns matching records, newest first
func (r *GormBlockRecordRepository) Query(ctx context.Context, f member.BlockRecordFilter) ([]member.BlockRecord, int64, error) {
	page := f.Filter.Normalize()
	if f.TargetIn != nil && len(f.TargetIn) == 0 {
		return []member.BlockRecord{}, 0, nil
	}

	query := conn(ctx, r.db).Model(&models.BlockRecordModel{})
	if f.ActorID != nil {
		query = query.Where("actor_account_id = ?", *f.ActorID)
	}
	if f.TargetID != nil {
		query = query.Where("target_account_id = ?", *f.TargetID)
	}
	if f.TargetIn != nil {
		query = query.Where("target_account_id IN ?", f.TargetIn)
	}
	if f.DateFrom != nil {
		query = query.Where("created_at >= ?", f.DateFrom.UTC())
	}
	if f.DateTo != nil {
		query = query.Where("created_at <= ?", f.DateTo.UTC())
	}
	if f.Action != nil {
		query = query.Where("action = ?", string(*f.Action))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.BlockRecordModel
	if err := query.Order("created_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	records := make([]member.BlockRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].ToDomain()
	}
	return records, total, nil
}

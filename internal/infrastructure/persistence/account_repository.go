package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/member"
	"github.com/memberhub/backend/internal/domain/shared"
	"github.com/memberhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAccountRepository implements member.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// Create inserts a new account
func (r *GormAccountRepository) Create(ctx context.Context, account *member.Account) error {
	return translate(conn(ctx, r.db).Create(models.AccountModelFromDomain(account)).Error)
}

// Update persists profile and hierarchy fields of an existing account.
// Balances and the blocked flag have dedicated writers.
func (r *GormAccountRepository) Update(ctx context.Context, account *member.Account) error {
	result := conn(ctx, r.db).Model(&models.AccountModel{}).
		Where("id = ?", account.ID).
		Updates(map[string]any{
			"display_name":           account.DisplayName,
			"password_hash":          account.PasswordHash,
			"parent_agency_id":       account.ParentAgencyID,
			"parent_organization_id": account.ParentOrganizationID,
			"updated_at":             account.UpdatedAt,
			"version":                gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds an account by ID
func (r *GormAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*member.Account, error) {
	var model models.AccountModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindByUsername finds an account by its login name
func (r *GormAccountRepository) FindByUsername(ctx context.Context, username string) (*member.Account, error) {
	var model models.AccountModel
	if err := conn(ctx, r.db).
		Where("username = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindByInviteCode finds the account that issued code
func (r *GormAccountRepository) FindByInviteCode(ctx context.Context, code string) (*member.Account, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.ErrNotFound
	}
	var model models.AccountModel
	if err := conn(ctx, r.db).Where("invite_code = ?", code).First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// ExistsByUsername checks if a username is taken
func (r *GormAccountRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.AccountModel{}).
		Where("username = ?", strings.ToLower(strings.TrimSpace(username))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindChildren returns accounts linked to directIDs through either parent
// link, or to primaryParentIDs through their primary parent (the organization
// link when set, otherwise the agency link).
func (r *GormAccountRepository) FindChildren(ctx context.Context, directIDs, primaryParentIDs []uuid.UUID) ([]member.Account, error) {
	if len(directIDs) == 0 && len(primaryParentIDs) == 0 {
		return nil, nil
	}

	var conds []string
	var args []any
	if len(directIDs) > 0 {
		conds = append(conds, "parent_agency_id IN ?", "parent_organization_id IN ?")
		args = append(args, directIDs, directIDs)
	}
	if len(primaryParentIDs) > 0 {
		conds = append(conds, "parent_organization_id IN ?", "(parent_organization_id IS NULL AND parent_agency_id IN ?)")
		args = append(args, primaryParentIDs, primaryParentIDs)
	}

	var rows []models.AccountModel
	if err := conn(ctx, r.db).Where(strings.Join(conds, " OR "), args...).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toAccounts(rows), nil
}

// FindPage returns accounts in hierarchy order: tier rank, creation time, id
func (r *GormAccountRepository) FindPage(ctx context.Context, q member.AccountQuery) ([]member.Account, int64, error) {
	filter := q.Filter.Normalize()
	if q.IDs != nil && len(q.IDs) == 0 {
		return []member.Account{}, 0, nil
	}

	query := conn(ctx, r.db).Model(&models.AccountModel{})
	if q.IDs != nil {
		query = query.Where("id IN ?", q.IDs)
	}
	if len(q.ExcludeIDs) > 0 {
		query = query.Where("id NOT IN ?", q.ExcludeIDs)
	}
	if q.ExcludeBlocked {
		query = query.Where("is_blocked = ?", false)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(username) LIKE ? OR LOWER(display_name) LIKE ?)", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.AccountModel
	if err := query.
		Order("tier_rank ASC").Order("created_at ASC").Order("id ASC").
		Offset(filter.Offset()).Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toAccounts(rows), total, nil
}

// FindForUpdate locks the requested rows one at a time in ascending id order
func (r *GormAccountRepository) FindForUpdate(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*member.Account, error) {
	locked := make(map[uuid.UUID]*member.Account, len(ids))
	db := conn(ctx, r.db)
	for _, id := range member.LockOrder(ids...) {
		var model models.AccountModel
		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "id = ?", id).Error; err != nil {
			return nil, translate(err)
		}
		locked[id] = model.ToDomain()
	}
	return locked, nil
}

// UpdateBalances writes both balances of account
func (r *GormAccountRepository) UpdateBalances(ctx context.Context, account *member.Account) error {
	return r.updateColumns(ctx, account.ID, map[string]any{
		"points_balance":  account.PointsBalance,
		"credits_balance": account.CreditsBalance,
		"updated_at":      account.UpdatedAt,
	})
}

// UpdateBlocked writes the blocked flag of account
func (r *GormAccountRepository) UpdateBlocked(ctx context.Context, account *member.Account) error {
	return r.updateColumns(ctx, account.ID, map[string]any{
		"is_blocked": account.IsBlocked,
		"updated_at": account.UpdatedAt,
	})
}

func (r *GormAccountRepository) updateColumns(ctx context.Context, id uuid.UUID, columns map[string]any) error {
	columns["version"] = gorm.Expr("version + 1")
	result := conn(ctx, r.db).Model(&models.AccountModel{}).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toAccounts(rows []models.AccountModel) []member.Account {
	accounts := make([]member.Account, len(rows))
	for i := range rows {
		accounts[i] = *rows[i].ToDomain()
	}
	return accounts
}

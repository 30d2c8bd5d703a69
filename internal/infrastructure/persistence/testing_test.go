package persistence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/member"
	"github.com/memberhub/backend/internal/domain/shared"
	"github.com/memberhub/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database with the full schema.
// A single connection keeps every query on the same in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// seq spaces out creation times so hierarchy ordering is deterministic
var seq = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func createAccount(t *testing.T, repo *GormAccountRepository, tier member.Tier, username string, agency, org *member.Account) *member.Account {
	t.Helper()
	seq = seq.Add(time.Minute)
	a := &member.Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          username,
		PasswordHash:      "$2a$12$placeholderplaceholderplaceholderplaceholderplacehol",
		Tier:              tier,
	}
	a.CreatedAt, a.UpdatedAt = seq, seq
	if tier.IssuesInviteCodes() {
		a.InviteCode = member.NewInviteCode()
	}
	if agency != nil {
		a.ParentAgencyID = idPtr(agency.ID)
	}
	if org != nil {
		a.ParentOrganizationID = idPtr(org.ID)
	}
	require.NoError(t, repo.Create(t.Context(), a))
	return a
}

func idPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}

package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/member"
	"github.com/memberhub/backend/internal/domain/shared"
	"github.com/memberhub/backend/internal/infrastructure/persistence"
	"github.com/memberhub/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

type fixture struct {
	db        *gorm.DB
	accounts  *persistence.GormAccountRepository
	publisher *MockEventPublisher
	ledger    *LedgerService
	referrals *ReferralService
	created   time.Time
}

func newFixture(t *testing.T) *fixture {
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

	log := zap.NewNop()
	f := &fixture{
		db:        db,
		accounts:  persistence.NewGormAccountRepository(db),
		publisher: &MockEventPublisher{},
		created:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	txManager := persistence.NewTransactor(db, persistence.TransactorConfig{}, log)
	f.ledger = NewLedgerService(
		f.accounts,
		persistence.NewGormTransactionRepository(db),
		persistence.NewGormDailyRewardRepository(db),
		txManager,
		f.publisher,
		log,
	)
	f.referrals = NewReferralService(
		f.accounts,
		persistence.NewGormRewardConfigRepository(db),
		persistence.NewGormRewardEventRepository(db),
		f.ledger,
		txManager,
		f.publisher,
		log,
	)
	return f
}

// add stores an account holding the given balances
func (f *fixture) add(t *testing.T, tier member.Tier, username string, points, credits int64) *member.Account {
	t.Helper()
	f.created = f.created.Add(time.Minute)
	a := &member.Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          username,
		PasswordHash:      "$2a$04$placeholderplaceholderplaceholderplaceholderplacehol",
		Tier:              tier,
		PointsBalance:     points,
		CreditsBalance:    credits,
	}
	a.CreatedAt, a.UpdatedAt = f.created, f.created
	if tier.IssuesInviteCodes() {
		a.InviteCode = member.NewInviteCode()
	}
	require.NoError(t, f.accounts.Create(context.Background(), a))
	return a
}

func (f *fixture) block(t *testing.T, id uuid.UUID) {
	t.Helper()
	require.NoError(t, f.db.Model(&models.AccountModel{}).Where("id = ?", id).Update("is_blocked", true).Error)
}

func (f *fixture) balances(t *testing.T, id uuid.UUID) (points, credits int64) {
	t.Helper()
	a, err := f.accounts.FindByID(context.Background(), id)
	require.NoError(t, err)
	return a.PointsBalance, a.CreditsBalance
}

func (f *fixture) transactionCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.TransactionModel{}).Count(&n).Error)
	return n
}

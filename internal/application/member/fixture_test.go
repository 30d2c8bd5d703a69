package member

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/member"
	"github.com/memberhub/backend/internal/domain/shared"
	"github.com/memberhub/backend/internal/infrastructure/auth"
	"github.com/memberhub/backend/internal/infrastructure/config"
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

// publishedTypes returns the event types passed to Publish, in call order
func (m *MockEventPublisher) publishedTypes() []string {
	var types []string
	for _, call := range m.Calls {
		if call.Method != "Publish" {
			continue
		}
		for _, e := range call.Arguments.Get(1).([]shared.DomainEvent) {
			types = append(types, e.EventType())
		}
	}
	return types
}

const testPassword = "correct-horse-1"

// tree is a small two-branch hierarchy:
//
//	root (administrator)
//	agencyA ── orgA ── adminA, generalA
//	agencyB ── orgB ── generalB
type tree struct {
	root, agencyA, orgA, adminA, generalA, agencyB, orgB, generalB *member.Account
}

type fixture struct {
	db         *gorm.DB
	accounts   *persistence.GormAccountRepository
	records    *persistence.GormBlockRecordRepository
	publisher  *MockEventPublisher
	directory  *DirectoryService
	blocks     *BlockService
	history    *BlockHistoryService
	registrar  *RegistrationService
	authn      *AuthService
	jwtService *auth.JWTService
	tree       tree
	clock      time.Time
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
		records:   persistence.NewGormBlockRecordRepository(db),
		publisher: &MockEventPublisher{},
		clock:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	f.jwtService = auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-test-secret-test-secret",
		AccessTokenExpiration: time.Hour,
		Issuer:                "memberhub-test",
	})
	txManager := persistence.NewTransactor(db, persistence.TransactorConfig{}, log)
	f.directory = NewDirectoryService(f.accounts, log)
	f.blocks = NewBlockService(f.accounts, f.records, txManager, f.publisher, log)
	f.history = NewBlockHistoryService(f.records, f.accounts, f.directory)
	f.registrar = NewRegistrationService(f.accounts, f.directory, f.publisher, log)
	f.authn = NewAuthService(f.accounts, f.jwtService, log)

	tr := &f.tree
	tr.root = f.add(t, member.TierAdministrator, "root", nil, nil)
	tr.agencyA = f.add(t, member.TierAgency, "agency_a", nil, nil)
	tr.orgA = f.add(t, member.TierOrganization, "org_a", tr.agencyA, nil)
	tr.adminA = f.add(t, member.TierAdmin, "admin_a", tr.agencyA, tr.orgA)
	tr.generalA = f.add(t, member.TierGeneral, "general_a", tr.agencyA, tr.orgA)
	tr.agencyB = f.add(t, member.TierAgency, "agency_b", nil, nil)
	tr.orgB = f.add(t, member.TierOrganization, "org_b", tr.agencyB, nil)
	tr.generalB = f.add(t, member.TierGeneral, "general_b", tr.agencyB, tr.orgB)
	return f
}

// add stores an account with a cheap placeholder hash and strictly
// increasing creation times
func (f *fixture) add(t *testing.T, tier member.Tier, username string, agency, org *member.Account) *member.Account {
	t.Helper()
	f.clock = f.clock.Add(time.Minute)
	a := &member.Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          username,
		DisplayName:       username,
		PasswordHash:      "$2a$04$placeholderplaceholderplaceholderplaceholderplacehol",
		Tier:              tier,
	}
	a.CreatedAt, a.UpdatedAt = f.clock, f.clock
	if tier.IssuesInviteCodes() {
		a.InviteCode = member.NewInviteCode()
	}
	if agency != nil {
		id := agency.ID
		a.ParentAgencyID = &id
	}
	if org != nil {
		id := org.ID
		a.ParentOrganizationID = &id
	}
	require.NoError(t, f.accounts.Create(context.Background(), a))
	return a
}

// withPassword replaces the stored hash so the account can log in with testPassword
func (f *fixture) withPassword(t *testing.T, a *member.Account) {
	t.Helper()
	hashed, err := member.NewAccount(a.Tier, "pw_holder", testPassword)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.AccountModel{}).
		Where("id = ?", a.ID).
		Update("password_hash", hashed.PasswordHash).Error)
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *member.Account {
	t.Helper()
	a, err := f.accounts.FindByID(context.Background(), id)
	require.NoError(t, err)
	return a
}

func (f *fixture) recordCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.BlockRecordModel{}).Count(&n).Error)
	return n
}

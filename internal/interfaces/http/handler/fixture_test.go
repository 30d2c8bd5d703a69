package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	ledgerapp "github.com/memberhub/backend/internal/application/ledger"
	memberapp "github.com/memberhub/backend/internal/application/member"
	"github.com/memberhub/backend/internal/domain/member"
	"github.com/memberhub/backend/internal/domain/shared"
	"github.com/memberhub/backend/internal/infrastructure/auth"
	"github.com/memberhub/backend/internal/infrastructure/config"
	"github.com/memberhub/backend/internal/infrastructure/event"
	"github.com/memberhub/backend/internal/infrastructure/persistence"
	"github.com/memberhub/backend/internal/infrastructure/persistence/models"
	"github.com/memberhub/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testPassword      = "correct-horse-1"
	testAccountHeader = "X-Test-Account"
)

// apiFixture serves the handlers over a real sqlite-backed stack. Requests
// authenticate by naming their account in testAccountHeader.
type apiFixture struct {
	db       *gorm.DB
	accounts *persistence.GormAccountRepository
	engine   *gin.Engine
	hash     string
	clock    time.Time

	root, agencyA, orgA, generalA, agencyB, generalB *member.Account
}

func newAPIFixture(t *testing.T) *apiFixture {
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

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	log := zap.NewNop()
	f := &apiFixture{
		db:       db,
		accounts: persistence.NewGormAccountRepository(db),
		hash:     string(hash),
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	bus := event.NewInMemoryEventBus(log)
	txManager := persistence.NewTransactor(db, persistence.TransactorConfig{}, log)
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-test-secret-test-secret",
		AccessTokenExpiration: time.Hour,
		Issuer:                "memberhub-test",
	})

	directory := memberapp.NewDirectoryService(f.accounts, log)
	blocks := memberapp.NewBlockService(f.accounts, persistence.NewGormBlockRecordRepository(db), txManager, bus, log)
	history := memberapp.NewBlockHistoryService(persistence.NewGormBlockRecordRepository(db), f.accounts, directory)
	registration := memberapp.NewRegistrationService(f.accounts, directory, bus, log)
	authn := memberapp.NewAuthService(f.accounts, jwtService, log)

	ledgerService := ledgerapp.NewLedgerService(
		f.accounts,
		persistence.NewGormTransactionRepository(db),
		persistence.NewGormDailyRewardRepository(db),
		txManager,
		bus,
		log,
	)
	referrals := ledgerapp.NewReferralService(
		f.accounts,
		persistence.NewGormRewardConfigRepository(db),
		persistence.NewGormRewardEventRepository(db),
		ledgerService,
		txManager,
		bus,
		log,
	)
	bus.Subscribe(referrals)

	authHandler := NewAuthHandler(authn, registration, directory)
	blockHandler := NewBlockHandler(blocks, history)
	ledgerHandler := NewLedgerHandler(ledgerService, config.LedgerConfig{CreditToPointsRate: 10, DailyRewardPoints: 5})
	hierarchyHandler := NewHierarchyHandler(directory)
	referralHandler := NewReferralHandler(referrals)

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		if id := c.GetHeader(testAccountHeader); id != "" {
			c.Set(middleware.JWTAccountIDKey, id)
		}
		c.Next()
	})
	engine.POST("/auth/login", authHandler.Login)
	engine.POST("/auth/register", authHandler.Register)
	engine.GET("/auth/me", authHandler.Me)
	engine.POST("/block", blockHandler.Block)
	engine.POST("/block/unblock", blockHandler.Unblock)
	engine.GET("/block/history", blockHandler.History)
	engine.POST("/bulk/block", blockHandler.BulkBlock)
	engine.POST("/bulk/unblock", blockHandler.BulkUnblock)
	engine.POST("/transfer/points", ledgerHandler.TransferPoints)
	engine.POST("/transfer/credits", ledgerHandler.TransferCredits)
	engine.POST("/points/exchange", ledgerHandler.Exchange)
	engine.POST("/points/purchase", ledgerHandler.Purchase)
	engine.GET("/points/daily-reward", ledgerHandler.DailyRewardState)
	engine.POST("/points/daily-reward/claim", ledgerHandler.ClaimDailyReward)
	engine.GET("/points/balance", ledgerHandler.Balance)
	engine.GET("/points/transactions", ledgerHandler.Transactions)
	engine.GET("/hierarchy/members", hierarchyHandler.Members)
	engine.GET("/hierarchy/transfer-candidates", hierarchyHandler.TransferCandidates)
	engine.PUT("/referral/config", referralHandler.PutConfig)
	engine.GET("/referral/config", referralHandler.GetConfig)
	engine.GET("/referral/events", referralHandler.Events)
	f.engine = engine

	f.root = f.add(t, member.TierAdministrator, "root", nil, nil)
	f.agencyA = f.add(t, member.TierAgency, "agency_a", nil, nil)
	f.orgA = f.add(t, member.TierOrganization, "org_a", f.agencyA, nil)
	f.generalA = f.add(t, member.TierGeneral, "general_a", f.agencyA, f.orgA)
	f.agencyB = f.add(t, member.TierAgency, "agency_b", nil, nil)
	f.generalB = f.add(t, member.TierGeneral, "general_b", f.agencyB, nil)
	return f
}

// add stores an account that logs in with testPassword
func (f *apiFixture) add(t *testing.T, tier member.Tier, username string, agency, org *member.Account) *member.Account {
	t.Helper()
	f.clock = f.clock.Add(time.Minute)
	a := &member.Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          username,
		DisplayName:       username,
		PasswordHash:      f.hash,
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

func (f *apiFixture) fund(t *testing.T, a *member.Account, points, credits int64) {
	t.Helper()
	require.NoError(t, f.db.Model(&models.AccountModel{}).
		Where("id = ?", a.ID).
		Updates(map[string]any{"points_balance": points, "credits_balance": credits}).Error)
}

func (f *apiFixture) reload(t *testing.T, id uuid.UUID) *member.Account {
	t.Helper()
	a, err := f.accounts.FindByID(context.Background(), id)
	require.NoError(t, err)
	return a
}

// do sends body as JSON on behalf of actor, which may be nil
func (f *apiFixture) do(t *testing.T, method, target string, actor *member.Account, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set(testAccountHeader, actor.ID.String())
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

// envelope decodes the response and re-decodes its data into out
func envelope(t *testing.T, w *httptest.ResponseRecorder, out any) (code string) {
	t.Helper()
	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw), w.Body.String())
	if raw.Error != nil {
		return raw.Error.Code
	}
	if out != nil {
		require.NoError(t, json.Unmarshal(raw.Data, out))
	}
	return ""
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Message
}

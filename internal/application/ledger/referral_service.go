package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/ledger"
	"github.com/memberhub/backend/internal/domain/member"
	"github.com/memberhub/backend/internal/domain/shared"
	"github.com/memberhub/backend/internal/infrastructure/logger"
	"github.com/memberhub/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReferralService pays agencies' signup rewards and manages their reward tables.
// It subscribes to AccountSignedUp; a payout that cannot be made is recorded
// as skipped and never fails the signup.
type ReferralService struct {
	accounts        member.AccountRepository
	configs         ledger.RewardConfigRepository
	events          ledger.RewardEventRepository
	ledger          *LedgerService
	txManager       shared.TxManager
	publisher       shared.EventPublisher
	logger          *zap.Logger
	businessMetrics *telemetry.BusinessMetrics
}

// NewReferralService creates a new ReferralService
func NewReferralService(
	accounts member.AccountRepository,
	configs ledger.RewardConfigRepository,
	events ledger.RewardEventRepository,
	ledgerService *LedgerService,
	txManager shared.TxManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *ReferralService {
	return &ReferralService{
		accounts:  accounts,
		configs:   configs,
		events:    events,
		ledger:    ledgerService,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
	}
}

// SetBusinessMetrics enables payout counters
func (s *ReferralService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// EventTypes implements shared.EventHandler
func (s *ReferralService) EventTypes() []string {
	return []string{member.EventTypeAccountSignedUp}
}

// Handle implements shared.EventHandler
func (s *ReferralService) Handle(ctx context.Context, event shared.DomainEvent) error {
	signup, ok := event.(*member.AccountSignedUpEvent)
	if !ok {
		return fmt.Errorf("referral: unexpected event type %T", event)
	}
	_, err := s.ProcessSignup(ctx, signup.ReferringAgencyID, signup.NewAccountID(), signup.Tier)
	return err
}

// ProcessSignup pays the configured reward for a signup of tier. A zero
// amount pays and records nothing. Ledger refusals are recorded as skipped
// events; only failures to write the event itself are returned.
func (s *ReferralService) ProcessSignup(ctx context.Context, agencyID, newAccountID uuid.UUID, tier member.Tier) (*ledger.RewardEvent, error) {
	cfg, err := s.configs.FindByAgency(ctx, agencyID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	amount := cfg.AmountFor(tier)
	log := logger.Enrich(ctx, s.logger).With(
		zap.String("agency_id", agencyID.String()),
		zap.String("new_account_id", newAccountID.String()),
		zap.String("tier", string(tier)),
		zap.Int64("amount", amount),
	)
	if amount <= 0 {
		log.Debug("No referral reward configured")
		return nil, nil
	}

	var record *ledger.RewardEvent
	tx, payErr := s.ledger.PayReferralReward(ctx, agencyID, newAccountID, amount)
	if payErr != nil {
		code := shared.CodeOf(payErr)
		if code == "" {
			code = "INTERNAL_ERROR"
		}
		record = ledger.NewSkippedRewardEvent(agencyID, newAccountID, tier, amount, code)
		log.Warn("Referral reward skipped", zap.String("reason", code), zap.Error(payErr))
	} else {
		record = ledger.NewPaidRewardEvent(agencyID, newAccountID, tier, amount, tx.ID)
		log.Info("Referral reward paid", zap.String("transaction_id", tx.ID.String()))
	}

	if err := s.events.Append(ctx, record); err != nil {
		return nil, err
	}
	if s.businessMetrics != nil {
		s.businessMetrics.RecordReferralPayout(ctx, string(record.Status))
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, ledger.NewReferralRewardedEvent(record)); err != nil {
			log.Error("Failed to publish referral event", zap.Error(err))
		}
	}
	return record, nil
}

// SetRewardConfig replaces the reward table of an agency
func (s *ReferralService) SetRewardConfig(ctx context.Context, agencyID uuid.UUID, rewardByTier map[member.Tier]int64) (*RewardConfigResponse, error) {
	agency, err := s.accounts.FindByID(ctx, agencyID)
	if err != nil {
		return nil, err
	}
	if agency.Tier != member.TierAgency {
		return nil, shared.ErrUnauthorized
	}
	cfg, err := ledger.NewRewardConfig(agencyID, rewardByTier)
	if err != nil {
		return nil, err
	}
	if err := s.txManager.Execute(ctx, func(ctx context.Context) error {
		return s.configs.Replace(ctx, cfg)
	}); err != nil {
		return nil, err
	}
	logger.Enrich(ctx, s.logger).Info("Referral reward config replaced",
		zap.String("agency_id", agencyID.String()),
		zap.Int("tiers", len(cfg.RewardByTier)),
	)
	return toRewardConfigResponse(cfg), nil
}

// GetRewardConfig returns the agency's table, empty when none was set
func (s *ReferralService) GetRewardConfig(ctx context.Context, agencyID uuid.UUID) (*RewardConfigResponse, error) {
	cfg, err := s.configs.FindByAgency(ctx, agencyID)
	if errors.Is(err, shared.ErrNotFound) {
		return &RewardConfigResponse{AgencyID: agencyID, RewardByTier: map[member.Tier]int64{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return toRewardConfigResponse(cfg), nil
}

// ListRewardEvents lists the agency's payout attempts, newest first
func (s *ReferralService) ListRewardEvents(ctx context.Context, agencyID uuid.UUID, filter shared.Filter) (*shared.Paginated[RewardEventResponse], error) {
	filter = filter.Normalize()
	events, total, err := s.events.FindByAgency(ctx, agencyID, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToRewardEventResponses(events), total, filter.Page, filter.PageSize)
	return &page, nil
}

func toRewardConfigResponse(cfg *ledger.RewardConfig) *RewardConfigResponse {
	updated := cfg.UpdatedAt
	return &RewardConfigResponse{
		AgencyID:     cfg.AgencyID,
		RewardByTier: cfg.RewardByTier,
		UpdatedAt:    &updated,
	}
}

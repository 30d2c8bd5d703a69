package member

import (
	"context"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/member"
	"github.com/memberhub/backend/internal/domain/shared"
	"github.com/memberhub/backend/internal/infrastructure/logger"
	"github.com/memberhub/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// BlockService blocks and unblocks accounts on behalf of higher-ranked members
type BlockService struct {
	accounts        member.AccountRepository
	records         member.BlockRecordRepository
	txManager       shared.TxManager
	publisher       shared.EventPublisher
	logger          *zap.Logger
	businessMetrics *telemetry.BusinessMetrics
}

// NewBlockService creates a new BlockService
func NewBlockService(
	accounts member.AccountRepository,
	records member.BlockRecordRepository,
	txManager shared.TxManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *BlockService {
	return &BlockService{
		accounts:  accounts,
		records:   records,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
	}
}

// SetBusinessMetrics enables block counters
func (s *BlockService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// CanBlock reports whether actorID may block or unblock targetID
func (s *BlockService) CanBlock(ctx context.Context, actorID, targetID uuid.UUID) (bool, error) {
	actor, err := s.accounts.FindByID(ctx, actorID)
	if err != nil {
		return false, err
	}
	target, err := s.accounts.FindByID(ctx, targetID)
	if err != nil {
		return false, err
	}
	return member.CanBlock(ctx, s.accounts, actor, target)
}

// Block marks targetID blocked. Blocking an already blocked account succeeds
// and is still recorded in the audit log.
func (s *BlockService) Block(ctx context.Context, actorID, targetID uuid.UUID, reason string) error {
	return s.apply(ctx, member.BlockActionBlock, actorID, targetID, reason)
}

// Unblock clears the blocked flag of targetID under the same rules as Block
func (s *BlockService) Unblock(ctx context.Context, actorID, targetID uuid.UUID, reason string) error {
	return s.apply(ctx, member.BlockActionUnblock, actorID, targetID, reason)
}

// BulkBlock blocks each target independently and reports per-target results
// in input order
func (s *BlockService) BulkBlock(ctx context.Context, actorID uuid.UUID, targetIDs []uuid.UUID, reason string) ([]BulkResult, error) {
	return s.bulk(ctx, member.BlockActionBlock, actorID, targetIDs, reason)
}

// BulkUnblock is the bulk form of Unblock
func (s *BlockService) BulkUnblock(ctx context.Context, actorID uuid.UUID, targetIDs []uuid.UUID, reason string) ([]BulkResult, error) {
	return s.bulk(ctx, member.BlockActionUnblock, actorID, targetIDs, reason)
}

func (s *BlockService) bulk(ctx context.Context, action member.BlockAction, actorID uuid.UUID, targetIDs []uuid.UUID, reason string) ([]BulkResult, error) {
	if len(targetIDs) == 0 {
		return nil, shared.InvalidArgument("At least one account id is required")
	}

	results := make([]BulkResult, 0, len(targetIDs))
	for _, targetID := range targetIDs {
		if err := s.apply(ctx, action, actorID, targetID, reason); err != nil {
			results = append(results, BulkResult{
				TargetID: targetID,
				Status:   BulkStatusFailure,
				Code:     codeOrInternal(err),
				Message:  messageOf(err),
			})
			continue
		}
		results = append(results, BulkResult{TargetID: targetID, Status: BulkStatusSuccess})
	}
	return results, nil
}

func (s *BlockService) apply(ctx context.Context, action member.BlockAction, actorID, targetID uuid.UUID, reason string) error {
	reason, err := member.ValidateReason(reason)
	if err != nil {
		return err
	}

	var events []shared.DomainEvent
	changed := false
	err = s.txManager.Execute(ctx, func(ctx context.Context) error {
		events, changed = nil, false

		actor, err := s.accounts.FindByID(ctx, actorID)
		if err != nil {
			return err
		}
		locked, err := s.accounts.FindForUpdate(ctx, targetID)
		if err != nil {
			return err
		}
		target := locked[targetID]

		allowed, err := member.CanBlock(ctx, s.accounts, actor, target)
		if err != nil {
			return err
		}
		if !allowed {
			return shared.ErrUnauthorized
		}

		if action == member.BlockActionBlock {
			changed = target.Block(actorID, reason)
		} else {
			changed = target.Unblock(actorID, reason)
		}
		if changed {
			if err := s.accounts.UpdateBlocked(ctx, target); err != nil {
				return err
			}
		}

		record, err := member.NewBlockRecord(actorID, targetID, action, reason)
		if err != nil {
			return err
		}
		if err := s.records.Append(ctx, record); err != nil {
			return err
		}
		events = target.GetDomainEvents()
		return nil
	})

	log := logger.Enrich(ctx, s.logger).With(
		zap.String("action", string(action)),
		zap.String("actor_id", actorID.String()),
		zap.String("target_id", targetID.String()),
	)
	if err != nil {
		log.Warn("Block request rejected", zap.String("code", shared.CodeOf(err)), zap.Error(err))
		return err
	}

	log.Info("Block request applied", zap.Bool("changed", changed))
	if s.businessMetrics != nil {
		s.businessMetrics.RecordBlockAction(ctx, string(action), changed)
	}
	if len(events) > 0 {
		if err := s.publisher.Publish(ctx, events...); err != nil {
			log.Error("Failed to publish block events", zap.Error(err))
		}
	}
	return nil
}

func codeOrInternal(err error) string {
	if code := shared.CodeOf(err); code != "" {
		return code
	}
	return "INTERNAL_ERROR"
}

func messageOf(err error) string {
	if shared.CodeOf(err) != "" {
		return err.Error()
	}
	return "An internal error occurred"
}

package member

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/shared"
)

// BlockAction is the kind of change a BlockRecord documents
type BlockAction string

const (
	BlockActionBlock   BlockAction = "block"
	BlockActionUnblock BlockAction = "unblock"
)

// IsValid checks the action value
func (a BlockAction) IsValid() bool {
	return a == BlockActionBlock || a == BlockActionUnblock
}

// MaxReasonLength caps the free-text reason attached to a block record
const MaxReasonLength = 500

// BlockRecord is one entry of the append-only block audit log
type BlockRecord struct {
	ID              uuid.UUID
	TargetAccountID uuid.UUID
	ActorAccountID  uuid.UUID
	Action          BlockAction
	Reason          string
	CreatedAt       time.Time
}

// ValidateReason rejects blank and oversized reasons
func ValidateReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", shared.InvalidArgument("A reason is required")
	}
	if len([]rune(reason)) > MaxReasonLength {
		return "", shared.InvalidArgument("Reason cannot exceed 500 characters")
	}
	return reason, nil
}

// NewBlockRecord creates an audit entry for a block or unblock request
func NewBlockRecord(actorID, targetID uuid.UUID, action BlockAction, reason string) (*BlockRecord, error) {
	if !action.IsValid() {
		return nil, shared.InvalidArgument("Unknown block action")
	}
	reason, err := ValidateReason(reason)
	if err != nil {
		return nil, err
	}
	return &BlockRecord{
		ID:              uuid.New(),
		TargetAccountID: targetID,
		ActorAccountID:  actorID,
		Action:          action,
		Reason:          reason,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// BlockRecordFilter narrows a block history query. Nil fields match everything.
type BlockRecordFilter struct {
	ActorID  *uuid.UUID
	TargetID *uuid.UUID
	// TargetIn restricts results to these targets when non-nil
	TargetIn []uuid.UUID
	DateFrom *time.Time
	DateTo   *time.Time
	Action   *BlockAction
	shared.Filter
}

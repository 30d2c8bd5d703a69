package member

import (
	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/shared"
)

// AggregateTypeAccount is the aggregate type of account events
const AggregateTypeAccount = "Account"

// Account event types
const (
	EventTypeAccountBlocked   = "AccountBlocked"
	EventTypeAccountUnblocked = "AccountUnblocked"
	EventTypeAccountSignedUp  = "AccountSignedUp"
)

// AccountBlockedEvent is published after an account was blocked
type AccountBlockedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
	Reason   string `json:"reason"`
}

// NewAccountBlockedEvent creates a new AccountBlockedEvent
func NewAccountBlockedEvent(a *Account, actorID uuid.UUID, reason string) *AccountBlockedEvent {
	return &AccountBlockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountBlocked, AggregateTypeAccount, a.ID, actorID),
		Username:        a.Username,
		Reason:          reason,
	}
}

// AccountUnblockedEvent is published after an account was unblocked
type AccountUnblockedEvent struct {
	shared.BaseDomainEvent
	Username string `json:"username"`
	Reason   string `json:"reason"`
}

// NewAccountUnblockedEvent creates a new AccountUnblockedEvent
func NewAccountUnblockedEvent(a *Account, actorID uuid.UUID, reason string) *AccountUnblockedEvent {
	return &AccountUnblockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountUnblocked, AggregateTypeAccount, a.ID, actorID),
		Username:        a.Username,
		Reason:          reason,
	}
}

// AccountSignedUpEvent is published when a new account registers through an agency's network.
// The referral engine pays the agency-funded signup reward off this event.
type AccountSignedUpEvent struct {
	shared.BaseDomainEvent
	Tier              Tier      `json:"tier"`
	ReferringAgencyID uuid.UUID `json:"referring_agency_id"`
}

// NewAccountSignedUpEvent creates a new AccountSignedUpEvent
func NewAccountSignedUpEvent(a *Account, referringAgencyID uuid.UUID) *AccountSignedUpEvent {
	return &AccountSignedUpEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeAccountSignedUp, AggregateTypeAccount, a.ID, a.ID),
		Tier:              a.Tier,
		ReferringAgencyID: referringAgencyID,
	}
}

// NewAccountID is the id of the account that signed up
func (e *AccountSignedUpEvent) NewAccountID() uuid.UUID {
	return e.AggregateID()
}

package member

import (
	"context"
	"fmt"

	"github.com/memberhub/backend/internal/domain/member"
	"github.com/memberhub/backend/internal/domain/shared"
	"github.com/memberhub/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// SessionRevocationHandler ends the sessions of an account as soon as it is blocked
type SessionRevocationHandler struct {
	blacklist auth.TokenBlacklist
	jwt       *auth.JWTService
	logger    *zap.Logger
}

// NewSessionRevocationHandler creates a new SessionRevocationHandler
func NewSessionRevocationHandler(blacklist auth.TokenBlacklist, jwtService *auth.JWTService, logger *zap.Logger) *SessionRevocationHandler {
	return &SessionRevocationHandler{
		blacklist: blacklist,
		jwt:       jwtService,
		logger:    logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *SessionRevocationHandler) EventTypes() []string {
	return []string{member.EventTypeAccountBlocked}
}

// Handle invalidates every token issued to the blocked account
func (h *SessionRevocationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	blocked, ok := event.(*member.AccountBlockedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			member.EventTypeAccountBlocked, event.EventType())
	}

	accountID := blocked.AggregateID().String()
	if err := h.blacklist.InvalidateAccountTokens(ctx, accountID, h.jwt.Expiration()); err != nil {
		return fmt.Errorf("invalidate tokens of %s: %w", accountID, err)
	}

	h.logger.Info("Sessions revoked for blocked account",
		zap.String("account_id", accountID),
		zap.String("actor_id", event.ActorID().String()))
	return nil
}

var _ shared.EventHandler = (*SessionRevocationHandler)(nil)

package member

import (
	"context"
	"errors"
	"strings"

	"github.com/memberhub/backend/internal/domain/member"
	"github.com/memberhub/backend/internal/domain/shared"
	"github.com/memberhub/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthService opens sessions
type AuthService struct {
	accounts   member.AccountRepository
	jwtService *auth.JWTService
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(accounts member.AccountRepository, jwtService *auth.JWTService, logger *zap.Logger) *AuthService {
	return &AuthService{
		accounts:   accounts,
		jwtService: jwtService,
		logger:     logger,
	}
}

// Login verifies credentials and issues an access token. Blocked accounts are
// refused with BLOCKED_ACCOUNT once their password checks out.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	s.logger.Info("Login attempt", zap.String("username", username))

	account, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Account not found during login", zap.String("username", username))
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}

	if !account.VerifyPassword(password) {
		s.logger.Warn("Invalid password attempt", zap.String("username", username))
		return nil, shared.ErrInvalidCredentials
	}

	if !account.CanLogin() {
		s.logger.Warn("Login attempt for blocked account",
			zap.String("username", username),
			zap.String("account_id", account.ID.String()))
		return nil, shared.ErrBlockedAccount
	}

	token, err := s.jwtService.Generate(account)
	if err != nil {
		s.logger.Error("Failed to generate access token", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication token")
	}

	s.logger.Info("Account logged in",
		zap.String("username", username),
		zap.String("account_id", account.ID.String()))

	return &LoginResult{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
		TokenType:   token.TokenType,
		Account:     ToAccountResponse(account),
	}, nil
}

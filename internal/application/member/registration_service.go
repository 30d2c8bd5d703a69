package member

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/member"
	"github.com/memberhub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RegistrationService signs up new members under the account that invited them
type RegistrationService struct {
	accounts  member.AccountRepository
	directory *DirectoryService
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewRegistrationService creates a new RegistrationService
func NewRegistrationService(accounts member.AccountRepository, directory *DirectoryService, publisher shared.EventPublisher, logger *zap.Logger) *RegistrationService {
	return &RegistrationService{
		accounts:  accounts,
		directory: directory,
		publisher: publisher,
		logger:    logger,
	}
}

// Register creates an account from a signup request.
//
// With an invite code the account is placed under the inviter: an agency
// becomes the parent agency, an organization becomes the parent organization
// and passes on its own parent agency. The requested tier must rank below the
// inviter. Without a code only general members may sign up. Referral payouts
// happen in event handlers and never fail the signup.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (*AccountResponse, error) {
	if !input.Tier.IsValid() {
		return nil, shared.InvalidArgument("Unknown tier")
	}

	create := CreateAccountInput{
		Username:    input.Username,
		Password:    input.Password,
		DisplayName: input.DisplayName,
		Tier:        input.Tier,
	}

	var referringAgencyID *uuid.UUID
	code := strings.ToUpper(strings.TrimSpace(input.InviteCode))
	if code == "" {
		if input.Tier != member.TierGeneral {
			return nil, shared.InvalidArgument("An invite code is required to sign up as " + string(input.Tier))
		}
	} else {
		inviter, err := s.accounts.FindByInviteCode(ctx, code)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Invite code not found")
		}
		if err != nil {
			return nil, err
		}
		if inviter.IsBlocked {
			return nil, shared.NewDomainError(shared.CodeBlockedAccount, "The inviting account is blocked")
		}
		if !inviter.Tier.Outranks(input.Tier) {
			return nil, shared.ErrUnauthorized
		}

		switch inviter.Tier {
		case member.TierAgency:
			create.ParentAgencyID = &inviter.ID
		case member.TierOrganization:
			create.ParentOrganizationID = &inviter.ID
			create.ParentAgencyID = inviter.ParentAgencyID
		}
		referringAgencyID = create.ParentAgencyID
	}

	account, err := s.directory.Create(ctx, create)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account registered",
		zap.String("account_id", account.ID.String()),
		zap.String("tier", string(account.Tier)),
		zap.Bool("referred", referringAgencyID != nil))

	if referringAgencyID != nil {
		event := member.NewAccountSignedUpEvent(account, *referringAgencyID)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("Failed to publish signup event",
				zap.String("account_id", account.ID.String()), zap.Error(err))
		}
	}

	resp := ToAccountResponse(account)
	return &resp, nil
}

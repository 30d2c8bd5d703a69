package member

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/member"
	"github.com/memberhub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DirectoryService answers questions about accounts and the hierarchy
type DirectoryService struct {
	accounts member.AccountRepository
	logger   *zap.Logger
}

// NewDirectoryService creates a new DirectoryService
func NewDirectoryService(accounts member.AccountRepository, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{
		accounts: accounts,
		logger:   logger,
	}
}

// Get returns an account by id
func (s *DirectoryService) Get(ctx context.Context, id uuid.UUID) (*AccountResponse, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToAccountResponse(account)
	return &resp, nil
}

// Create validates the parent links and stores a new account
func (s *DirectoryService) Create(ctx context.Context, input CreateAccountInput) (*member.Account, error) {
	account, err := member.NewAccount(input.Tier, input.Username, input.Password)
	if err != nil {
		return nil, err
	}
	if err := account.SetDisplayName(input.DisplayName); err != nil {
		return nil, err
	}

	if err := s.checkParent(ctx, input.ParentAgencyID, member.TierAgency); err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, input.ParentOrganizationID, member.TierOrganization); err != nil {
		return nil, err
	}
	if err := account.AttachParents(input.ParentAgencyID, input.ParentOrganizationID); err != nil {
		return nil, err
	}

	exists, err := s.accounts.ExistsByUsername(ctx, account.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Username is already taken")
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Username is already taken")
		}
		return nil, err
	}

	s.logger.Info("Account created",
		zap.String("account_id", account.ID.String()),
		zap.String("tier", string(account.Tier)))
	return account, nil
}

func (s *DirectoryService) checkParent(ctx context.Context, id *uuid.UUID, want member.Tier) error {
	if id == nil {
		return nil
	}
	parent, err := s.accounts.FindByID(ctx, *id)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.InvalidArgument("Parent " + string(want) + " does not exist")
	}
	if err != nil {
		return err
	}
	if parent.Tier != want {
		return shared.InvalidArgument("Parent " + string(want) + " link must reference an account of tier " + string(want))
	}
	return nil
}

// IsDescendantOf reports whether targetID sits below ancestorID. Storage
// failures are logged and answered with false.
func (s *DirectoryService) IsDescendantOf(ctx context.Context, ancestorID, targetID uuid.UUID) bool {
	target, err := s.accounts.FindByID(ctx, targetID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Error("Failed to load account for hierarchy check",
				zap.String("account_id", targetID.String()), zap.Error(err))
		}
		return false
	}
	ok, err := member.IsDescendantOf(ctx, s.accounts, ancestorID, target)
	if err != nil {
		s.logger.Error("Hierarchy walk failed",
			zap.String("ancestor_id", ancestorID.String()),
			zap.String("target_id", targetID.String()),
			zap.Error(err))
		return false
	}
	return ok
}

// VisibleIDs returns the accounts actor may see, or nil when actor sees everyone
func (s *DirectoryService) VisibleIDs(ctx context.Context, actor *member.Account) ([]uuid.UUID, error) {
	if actor.Tier == member.TierAdministrator {
		return nil, nil
	}
	return member.CollectDescendantIDs(ctx, s.accounts, actor.ID)
}

// ListVisibleMembers pages through the accounts visible to actorID in
// hierarchy order (tier rank, then creation time)
func (s *DirectoryService) ListVisibleMembers(ctx context.Context, actorID uuid.UUID, filter shared.Filter) (*shared.Paginated[AccountResponse], error) {
	return s.page(ctx, actorID, member.AccountQuery{Filter: filter})
}

// SearchTransferCandidates lists the visible, unblocked accounts other than
// the actor, optionally filtered by a username or display name fragment
func (s *DirectoryService) SearchTransferCandidates(ctx context.Context, actorID uuid.UUID, filter shared.Filter) (*shared.Paginated[AccountResponse], error) {
	return s.page(ctx, actorID, member.AccountQuery{
		ExcludeIDs:     []uuid.UUID{actorID},
		ExcludeBlocked: true,
		Filter:         filter,
	})
}

func (s *DirectoryService) page(ctx context.Context, actorID uuid.UUID, query member.AccountQuery) (*shared.Paginated[AccountResponse], error) {
	actor, err := s.accounts.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	ids, err := s.VisibleIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	query.IDs = ids
	query.Filter = query.Filter.Normalize()

	accounts, total, err := s.accounts.FindPage(ctx, query)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(ToAccountResponses(accounts), total, query.Page, query.PageSize)
	return &result, nil
}

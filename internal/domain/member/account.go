package member

import (
	"crypto/rand"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// inviteAlphabet omits characters that are easy to confuse when read aloud
const inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const inviteCodeLength = 8

// Account is a member of the hierarchy and the holder of both balances.
// Balances change only through the ledger; the blocked flag only through BlockService.
type Account struct {
	shared.BaseAggregateRoot
	Username             string
	PasswordHash         string
	DisplayName          string
	Tier                 Tier
	ParentAgencyID       *uuid.UUID
	ParentOrganizationID *uuid.UUID
	InviteCode           string
	IsBlocked            bool
	PointsBalance        int64
	CreditsBalance       int64
}

// NewAccount creates an unblocked account with zero balances
func NewAccount(tier Tier, username, password string) (*Account, error) {
	if !tier.IsValid() {
		return nil, shared.InvalidArgument("Unknown tier")
	}
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	a := &Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          strings.ToLower(strings.TrimSpace(username)),
		PasswordHash:      string(hash),
		Tier:              tier,
	}
	if tier.IssuesInviteCodes() {
		a.InviteCode = NewInviteCode()
	}
	return a, nil
}

// SetDisplayName sets the name shown in member listings
func (a *Account) SetDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > 100 {
		return shared.InvalidArgument("Display name cannot exceed 100 characters")
	}
	a.DisplayName = name
	a.touch()
	return nil
}

// AttachParents links the account under an agency and/or organization.
// The caller verifies the tiers of the referenced accounts.
func (a *Account) AttachParents(agencyID, organizationID *uuid.UUID) error {
	if a.Tier == TierAdministrator && (agencyID != nil || organizationID != nil) {
		return shared.InvalidArgument("An administrator cannot have parents")
	}
	if (agencyID != nil && *agencyID == a.ID) || (organizationID != nil && *organizationID == a.ID) {
		return shared.InvalidArgument("An account cannot be its own parent")
	}
	a.ParentAgencyID = agencyID
	a.ParentOrganizationID = organizationID
	a.touch()
	return nil
}

// PrimaryParentID is the next hop when walking up the hierarchy:
// the organization link when present, otherwise the agency link.
func (a *Account) PrimaryParentID() *uuid.UUID {
	if a.ParentOrganizationID != nil {
		return a.ParentOrganizationID
	}
	return a.ParentAgencyID
}

// HasDirectParent reports whether either parent link equals id
func (a *Account) HasDirectParent(id uuid.UUID) bool {
	return (a.ParentAgencyID != nil && *a.ParentAgencyID == id) ||
		(a.ParentOrganizationID != nil && *a.ParentOrganizationID == id)
}

// VerifyPassword checks password against the stored hash
func (a *Account) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

// CanLogin reports whether the account may open a session
func (a *Account) CanLogin() bool {
	return !a.IsBlocked
}

// Block marks the account blocked. It returns false when it already was.
func (a *Account) Block(actorID uuid.UUID, reason string) bool {
	if a.IsBlocked {
		return false
	}
	a.IsBlocked = true
	a.touch()
	a.AddDomainEvent(NewAccountBlockedEvent(a, actorID, reason))
	return true
}

// Unblock clears the blocked flag. It returns false when the account was not blocked.
func (a *Account) Unblock(actorID uuid.UUID, reason string) bool {
	if !a.IsBlocked {
		return false
	}
	a.IsBlocked = false
	a.touch()
	a.AddDomainEvent(NewAccountUnblockedEvent(a, actorID, reason))
	return true
}

// AdjustPoints adds delta (which may be negative) to the points balance
func (a *Account) AdjustPoints(delta int64) error {
	next, err := adjust(a.PointsBalance, delta)
	if err != nil {
		return err
	}
	a.PointsBalance = next
	a.touch()
	return nil
}

// AdjustCredits adds delta (which may be negative) to the credits balance
func (a *Account) AdjustCredits(delta int64) error {
	next, err := adjust(a.CreditsBalance, delta)
	if err != nil {
		return err
	}
	a.CreditsBalance = next
	a.touch()
	return nil
}

func adjust(balance, delta int64) (int64, error) {
	if delta > 0 && balance > math.MaxInt64-delta {
		return 0, shared.InvalidArgument("Balance would overflow")
	}
	next := balance + delta
	if next < 0 {
		return 0, shared.ErrInsufficientBalance
	}
	return next, nil
}

func (a *Account) touch() {
	a.UpdatedAt = time.Now().UTC()
}

// NewInviteCode generates a random invite code
func NewInviteCode() string {
	buf := make([]byte, inviteCodeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	for i, b := range buf {
		buf[i] = inviteAlphabet[int(b)%len(inviteAlphabet)]
	}
	return string(buf)
}

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return shared.InvalidArgument("Username cannot be empty")
	}
	if len(username) < 3 {
		return shared.InvalidArgument("Username must be at least 3 characters")
	}
	if len(username) > 50 {
		return shared.InvalidArgument("Username cannot exceed 50 characters")
	}
	for _, r := range username {
		if !(r == '_' || r == '-' || r == '.' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return shared.InvalidArgument("Username may only contain letters, digits, '.', '_' and '-'")
		}
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.InvalidArgument("Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.InvalidArgument("Password cannot exceed 72 bytes")
	}
	return nil
}

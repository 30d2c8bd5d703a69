package member

import (
	"time"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/member"
)

// AccountResponse is the public view of an account
type AccountResponse struct {
	ID                   uuid.UUID   `json:"id"`
	Username             string      `json:"username"`
	DisplayName          string      `json:"display_name"`
	Tier                 member.Tier `json:"tier"`
	ParentAgencyID       *uuid.UUID  `json:"parent_agency_id,omitempty"`
	ParentOrganizationID *uuid.UUID  `json:"parent_organization_id,omitempty"`
	InviteCode           string      `json:"invite_code,omitempty"`
	IsBlocked            bool        `json:"is_blocked"`
	PointsBalance        int64       `json:"points_balance"`
	CreditsBalance       int64       `json:"credits_balance"`
	CreatedAt            time.Time   `json:"created_at"`
}

// ToAccountResponse converts a domain account
func ToAccountResponse(a *member.Account) AccountResponse {
	return AccountResponse{
		ID:                   a.ID,
		Username:             a.Username,
		DisplayName:          a.DisplayName,
		Tier:                 a.Tier,
		ParentAgencyID:       a.ParentAgencyID,
		ParentOrganizationID: a.ParentOrganizationID,
		InviteCode:           a.InviteCode,
		IsBlocked:            a.IsBlocked,
		PointsBalance:        a.PointsBalance,
		CreditsBalance:       a.CreditsBalance,
		CreatedAt:            a.CreatedAt,
	}
}

// ToAccountResponses converts a slice of domain accounts
func ToAccountResponses(accounts []member.Account) []AccountResponse {
	out := make([]AccountResponse, len(accounts))
	for i := range accounts {
		out[i] = ToAccountResponse(&accounts[i])
	}
	return out
}

// CreateAccountInput contains the input for creating an account directly
type CreateAccountInput struct {
	Username             string
	Password             string
	DisplayName          string
	Tier                 member.Tier
	ParentAgencyID       *uuid.UUID
	ParentOrganizationID *uuid.UUID
}

// RegisterInput contains the input for self-service signup
type RegisterInput struct {
	Username    string
	Password    string
	DisplayName string
	Tier        member.Tier
	InviteCode  string
}

// LoginResult contains the token issued on login
type LoginResult struct {
	AccessToken string          `json:"access_token"`
	ExpiresAt   time.Time       `json:"expires_at"`
	TokenType   string          `json:"token_type"`
	Account     AccountResponse `json:"account"`
}

// BulkStatus is the outcome of one item of a bulk call
type BulkStatus string

const (
	BulkStatusSuccess BulkStatus = "success"
	BulkStatusFailure BulkStatus = "failure"
)

// BulkResult reports the outcome for one target of a bulk block/unblock
type BulkResult struct {
	TargetID uuid.UUID  `json:"user_id"`
	Status   BulkStatus `json:"status"`
	Code     string     `json:"code,omitempty"`
	Message  string     `json:"message,omitempty"`
}

// BlockRecordResponse is the public view of a block audit entry
type BlockRecordResponse struct {
	ID              uuid.UUID          `json:"id"`
	TargetAccountID uuid.UUID          `json:"target_account_id"`
	ActorAccountID  uuid.UUID          `json:"actor_account_id"`
	Action          member.BlockAction `json:"action"`
	Reason          string             `json:"reason"`
	CreatedAt       time.Time          `json:"created_at"`
}

// ToBlockRecordResponses converts block records
func ToBlockRecordResponses(records []member.BlockRecord) []BlockRecordResponse {
	out := make([]BlockRecordResponse, len(records))
	for i, r := range records {
		out[i] = BlockRecordResponse{
			ID:              r.ID,
			TargetAccountID: r.TargetAccountID,
			ActorAccountID:  r.ActorAccountID,
			Action:          r.Action,
			Reason:          r.Reason,
			CreatedAt:       r.CreatedAt,
		}
	}
	return out
}

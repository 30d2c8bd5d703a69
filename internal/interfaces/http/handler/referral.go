package handler

import (
	"github.com/gin-gonic/gin"
	ledgerapp "github.com/memberhub/backend/internal/application/ledger"
	"github.com/memberhub/backend/internal/domain/member"
	"github.com/memberhub/backend/internal/interfaces/http/dto"
)

// RewardConfigRequest is the body of PUT /referral/config
type RewardConfigRequest struct {
	RewardByTier map[string]int64 `json:"rewardByTier" binding:"required"`
}

// ReferralHandler manages the caller agency's referral rewards
type ReferralHandler struct {
	BaseHandler
	referrals *ledgerapp.ReferralService
}

// NewReferralHandler creates a new referral handler
func NewReferralHandler(referrals *ledgerapp.ReferralService) *ReferralHandler {
	return &ReferralHandler{referrals: referrals}
}

// PutConfig replaces the reward table. Only agencies may call it.
func (h *ReferralHandler) PutConfig(c *gin.Context) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	var req RewardConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	rewards := make(map[member.Tier]int64, len(req.RewardByTier))
	for name, amount := range req.RewardByTier {
		tier, err := member.ParseTier(name)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		rewards[tier] = amount
	}

	cfg, err := h.referrals.SetRewardConfig(c.Request.Context(), actorID, rewards)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cfg)
}

// GetConfig returns the caller's reward table
func (h *ReferralHandler) GetConfig(c *gin.Context) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	cfg, err := h.referrals.GetRewardConfig(c.Request.Context(), actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cfg)
}

// Events lists the caller's payout attempts, newest first
func (h *ReferralHandler) Events(c *gin.Context) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	var req dto.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.referrals.ListRewardEvents(c.Request.Context(), actorID, req.Filter())
	HandlePage(&h.BaseHandler, c, page, err)
}

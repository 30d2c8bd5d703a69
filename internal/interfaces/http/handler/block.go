package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	memberapp "github.com/memberhub/backend/internal/application/member"
	"github.com/memberhub/backend/internal/domain/member"
	"github.com/memberhub/backend/internal/domain/shared"
	"github.com/memberhub/backend/internal/interfaces/http/dto"
)

// BlockRequest is the body of POST /block and /block/unblock. An empty
// reason is rejected by the service with its own message.
type BlockRequest struct {
	UserID string `json:"userId" binding:"required,uuid"`
	Reason string `json:"reason" binding:"max=500"`
}

// BulkBlockRequest is the body of POST /bulk/block and /bulk/unblock
type BulkBlockRequest struct {
	UserIDs []string `json:"userIds" binding:"required,min=1,max=100,dive,uuid"`
	Reason  string   `json:"reason" binding:"max=500"`
}

// BlockHistoryRequest holds the query of GET /block/history. Dates are
// either YYYY-MM-DD or RFC 3339; a bare dateTo covers the whole day.
type BlockHistoryRequest struct {
	ActorID  string `form:"actorId" binding:"omitempty,uuid"`
	TargetID string `form:"targetId" binding:"omitempty,uuid"`
	DateFrom string `form:"dateFrom"`
	DateTo   string `form:"dateTo"`
	Status   string `form:"status" binding:"omitempty,oneof=block unblock"`
	dto.PageRequest
}

// BlockHandler handles block/unblock and its audit trail
type BlockHandler struct {
	BaseHandler
	blocks  *memberapp.BlockService
	history *memberapp.BlockHistoryService
}

// NewBlockHandler creates a new block handler
func NewBlockHandler(blocks *memberapp.BlockService, history *memberapp.BlockHistoryService) *BlockHandler {
	return &BlockHandler{blocks: blocks, history: history}
}

// Block blocks one account
func (h *BlockHandler) Block(c *gin.Context) {
	h.single(c, h.blocks.Block)
}

// Unblock unblocks one account
func (h *BlockHandler) Unblock(c *gin.Context) {
	h.single(c, h.blocks.Unblock)
}

// BulkBlock blocks each listed account independently
func (h *BlockHandler) BulkBlock(c *gin.Context) {
	h.bulk(c, h.blocks.BulkBlock)
}

// BulkUnblock unblocks each listed account independently
func (h *BlockHandler) BulkUnblock(c *gin.Context) {
	h.bulk(c, h.blocks.BulkUnblock)
}

type singleAction func(ctx context.Context, actorID, targetID uuid.UUID, reason string) error

type bulkAction func(ctx context.Context, actorID uuid.UUID, targetIDs []uuid.UUID, reason string) ([]memberapp.BulkResult, error)

func (h *BlockHandler) single(c *gin.Context, action singleAction) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if err := action(c.Request.Context(), actorID, uuid.MustParse(req.UserID), req.Reason); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{})
}

func (h *BlockHandler) bulk(c *gin.Context, action bulkAction) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	var req BulkBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	targets := make([]uuid.UUID, len(req.UserIDs))
	for i, id := range req.UserIDs {
		targets[i] = uuid.MustParse(id)
	}
	results, err := action(c.Request.Context(), actorID, targets, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"results": results})
}

// History lists block records newest first, limited to targets the caller can see
func (h *BlockHandler) History(c *gin.Context) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	var req BlockHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	filter, err := req.filter()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, err := h.history.QueryAsViewer(c.Request.Context(), actorID, filter)
	HandlePage(&h.BaseHandler, c, page, err)
}

func (r BlockHistoryRequest) filter() (member.BlockRecordFilter, error) {
	f := member.BlockRecordFilter{Filter: r.PageRequest.Filter()}
	if r.ActorID != "" {
		id := uuid.MustParse(r.ActorID)
		f.ActorID = &id
	}
	if r.TargetID != "" {
		id := uuid.MustParse(r.TargetID)
		f.TargetID = &id
	}
	if r.Status != "" {
		action := member.BlockAction(r.Status)
		f.Action = &action
	}

	var err error
	if f.DateFrom, err = parseBound(r.DateFrom, false); err != nil {
		return f, shared.InvalidArgument("Invalid dateFrom")
	}
	if f.DateTo, err = parseBound(r.DateTo, true); err != nil {
		return f, shared.InvalidArgument("Invalid dateTo")
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return f, shared.InvalidArgument("dateFrom must not be after dateTo")
	}
	return f, nil
}

// parseBound parses a date filter. A date-only upper bound extends to the
// last instant of that UTC day.
func parseBound(s string, upper bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

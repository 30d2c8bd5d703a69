package handler

import (
	"github.com/gin-gonic/gin"
	memberapp "github.com/memberhub/backend/internal/application/member"
	"github.com/memberhub/backend/internal/interfaces/http/dto"
)

// CandidateSearchRequest holds the query of GET /hierarchy/transfer-candidates
type CandidateSearchRequest struct {
	Query string `form:"q" binding:"max=64"`
	dto.PageRequest
}

// HierarchyHandler exposes the members visible to the caller
type HierarchyHandler struct {
	BaseHandler
	directory *memberapp.DirectoryService
}

// NewHierarchyHandler creates a new hierarchy handler
func NewHierarchyHandler(directory *memberapp.DirectoryService) *HierarchyHandler {
	return &HierarchyHandler{directory: directory}
}

// Members lists visible members ordered by tier then signup time
func (h *HierarchyHandler) Members(c *gin.Context) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	var req dto.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.directory.ListVisibleMembers(c.Request.Context(), actorID, req.Filter())
	HandlePage(&h.BaseHandler, c, page, err)
}

// TransferCandidates lists visible, non-blocked members matching q
func (h *HierarchyHandler) TransferCandidates(c *gin.Context) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	var req CandidateSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	filter := req.PageRequest.Filter()
	filter.Search = req.Query
	page, err := h.directory.SearchTransferCandidates(c.Request.Context(), actorID, filter)
	HandlePage(&h.BaseHandler, c, page, err)
}

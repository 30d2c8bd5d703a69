package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	ledgerapp "github.com/memberhub/backend/internal/application/ledger"
	"github.com/memberhub/backend/internal/domain/ledger"
	"github.com/memberhub/backend/internal/domain/shared"
	"github.com/memberhub/backend/internal/infrastructure/config"
	"github.com/memberhub/backend/internal/interfaces/http/dto"
)

// IdempotencyKeyHeader lets clients retry a transfer without moving funds twice
const IdempotencyKeyHeader = "Idempotency-Key"

// TransferRequest is the body of POST /transfer/points and /transfer/credits
type TransferRequest struct {
	ReceiverID  string `json:"receiverId" binding:"required,uuid"`
	Amount      int64  `json:"amount"`
	Description string `json:"description" binding:"max=255"`
}

// ExchangeRequest is the body of POST /points/exchange
type ExchangeRequest struct {
	Credits int64 `json:"credits"`
}

// PurchaseRequest is the body of POST /points/purchase. Amount and
// PaymentMethod describe the confirmed payment; only PaymentRef is recorded.
type PurchaseRequest struct {
	Points        int64  `json:"points"`
	Amount        int64  `json:"amount" binding:"gte=0"`
	PaymentMethod string `json:"paymentMethod" binding:"max=32"`
	PaymentRef    string `json:"paymentRef" binding:"max=128"`
}

// TransactionListRequest holds the query of GET /points/transactions
type TransactionListRequest struct {
	Currency string `form:"currency"`
	Kind     string `form:"kind"`
	DateFrom string `form:"dateFrom"`
	DateTo   string `form:"dateTo"`
	dto.PageRequest
}

// LedgerHandler handles transfers and the points endpoints
type LedgerHandler struct {
	BaseHandler
	ledger *ledgerapp.LedgerService
	cfg    config.LedgerConfig
}

// NewLedgerHandler creates a new ledger handler. The exchange rate and the
// daily reward come from cfg.
func NewLedgerHandler(ledgerService *ledgerapp.LedgerService, cfg config.LedgerConfig) *LedgerHandler {
	return &LedgerHandler{ledger: ledgerService, cfg: cfg}
}

// TransferPoints moves points to another account
func (h *LedgerHandler) TransferPoints(c *gin.Context) {
	h.transfer(c, ledger.CurrencyPoints)
}

// TransferCredits moves credits to another account
func (h *LedgerHandler) TransferCredits(c *gin.Context) {
	h.transfer(c, ledger.CurrencyCredits)
}

func (h *LedgerHandler) transfer(c *gin.Context, currency ledger.Currency) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	tx, err := h.ledger.Transfer(c.Request.Context(), ledgerapp.TransferInput{
		FromID:         actorID,
		ToID:           uuid.MustParse(req.ReceiverID),
		Currency:       currency,
		Amount:         req.Amount,
		Description:    req.Description,
		IdempotencyKey: strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// Exchange converts credits into points at the configured rate
func (h *LedgerHandler) Exchange(c *gin.Context) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	var req ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	tx, err := h.ledger.ExchangeCreditsToPoints(c.Request.Context(), actorID, req.Credits, h.cfg.CreditToPointsRate)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// Purchase credits points for a confirmed payment. Replaying a paymentRef
// returns the original transaction.
func (h *LedgerHandler) Purchase(c *gin.Context) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	tx, err := h.ledger.PurchasePoints(c.Request.Context(), actorID, req.Points, req.PaymentRef)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tx)
}

// ClaimDailyReward grants the configured daily reward
func (h *LedgerHandler) ClaimDailyReward(c *gin.Context) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	result, err := h.ledger.ClaimDailyReward(c.Request.Context(), actorID, h.cfg.DailyRewardPoints)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// DailyRewardState reports the caller's streak and whether today is claimed
func (h *LedgerHandler) DailyRewardState(c *gin.Context) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	state, err := h.ledger.GetDailyRewardState(c.Request.Context(), actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, state)
}

// Balance returns both balances of the caller
func (h *LedgerHandler) Balance(c *gin.Context) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	balance, err := h.ledger.GetBalance(c.Request.Context(), actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balance)
}

// Transactions lists the caller's ledger entries, newest first
func (h *LedgerHandler) Transactions(c *gin.Context) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	var req TransactionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	filter := ledger.TransactionFilter{Filter: req.PageRequest.Filter()}
	if req.Currency != "" {
		currency := ledger.Currency(req.Currency)
		filter.Currency = &currency
	}
	if req.Kind != "" {
		kind := ledger.TransactionKind(req.Kind)
		filter.Kind = &kind
	}
	var err error
	if filter.DateFrom, err = parseBound(req.DateFrom, false); err != nil {
		h.HandleError(c, shared.InvalidArgument("Invalid dateFrom"))
		return
	}
	if filter.DateTo, err = parseBound(req.DateTo, true); err != nil {
		h.HandleError(c, shared.InvalidArgument("Invalid dateTo"))
		return
	}

	page, err := h.ledger.ListTransactions(c.Request.Context(), actorID, filter)
	HandlePage(&h.BaseHandler, c, page, err)
}

package router

import (
	"github.com/gin-gonic/gin"
	"github.com/memberhub/backend/internal/interfaces/http/handler"
)

// Handlers bundles the handlers served under the API prefix
type Handlers struct {
	Auth      *handler.AuthHandler
	Blocks    *handler.BlockHandler
	Ledger    *handler.LedgerHandler
	Hierarchy *handler.HierarchyHandler
	Referral  *handler.ReferralHandler
	Health    *handler.HealthHandler
}

// PublicPaths lists the API routes served without a token
func PublicPaths(basePath string) []string {
	return []string{
		basePath + "/auth/login",
		basePath + "/auth/register",
		basePath + "/health",
	}
}

// Groups builds the API route groups. authLimit, when non-nil, guards the
// credential endpoints.
func Groups(h Handlers, authLimit gin.HandlerFunc) []RouteRegistrar {
	auth := NewDomainGroup("auth", "/auth")
	if authLimit != nil {
		auth.POST("/login", authLimit, h.Auth.Login)
		auth.POST("/register", authLimit, h.Auth.Register)
	} else {
		auth.POST("/login", h.Auth.Login)
		auth.POST("/register", h.Auth.Register)
	}
	auth.GET("/me", h.Auth.Me)

	block := NewDomainGroup("block", "/block").
		POST("", h.Blocks.Block).
		POST("/unblock", h.Blocks.Unblock).
		GET("/history", h.Blocks.History)

	bulk := NewDomainGroup("bulk", "/bulk").
		POST("/block", h.Blocks.BulkBlock).
		POST("/unblock", h.Blocks.BulkUnblock)

	transfer := NewDomainGroup("transfer", "/transfer").
		POST("/points", h.Ledger.TransferPoints).
		POST("/credits", h.Ledger.TransferCredits)

	points := NewDomainGroup("points", "/points").
		POST("/exchange", h.Ledger.Exchange).
		POST("/purchase", h.Ledger.Purchase).
		GET("/daily-reward", h.Ledger.DailyRewardState).
		POST("/daily-reward/claim", h.Ledger.ClaimDailyReward).
		GET("/balance", h.Ledger.Balance).
		GET("/transactions", h.Ledger.Transactions)

	hierarchy := NewDomainGroup("hierarchy", "/hierarchy").
		GET("/members", h.Hierarchy.Members).
		GET("/transfer-candidates", h.Hierarchy.TransferCandidates)

	referral := NewDomainGroup("referral", "/referral").
		PUT("/config", h.Referral.PutConfig).
		GET("/config", h.Referral.GetConfig).
		GET("/events", h.Referral.Events)

	health := NewDomainGroup("health", "/health").
		GET("", h.Health.Check)

	return []RouteRegistrar{auth, block, bulk, transfer, points, hierarchy, referral, health}
}

package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/infrastructure/auth"
	"github.com/memberhub/backend/internal/infrastructure/logger"
	"github.com/memberhub/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey    = "jwt_claims"
	JWTAccountIDKey = "account_id"
	AuthHeaderKey   = "Authorization"
	BearerPrefix    = "Bearer "
)

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// TokenBlacklist is optional. When set, revoked tokens and tokens of
	// blocked accounts are refused.
	TokenBlacklist auth.TokenBlacklist
	// SkipPaths are exact paths served without a token
	SkipPaths []string
	Logger    *zap.Logger
}

// JWTAuth creates JWT authentication middleware
func JWTAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		header := c.GetHeader(AuthHeaderKey)
		token, found := strings.CutPrefix(header, BearerPrefix)
		if header == "" || !found || token == "" {
			abortUnauthorized(c, log, dto.ErrCodeAuthRequired, "Authentication required", nil)
			return
		}

		claims, err := cfg.JWTService.Validate(token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, log, dto.ErrCodeTokenExpired, "Token has expired", err)
				return
			}
			abortUnauthorized(c, log, dto.ErrCodeTokenInvalid, "Invalid token", err)
			return
		}

		if cfg.TokenBlacklist != nil {
			ctx := c.Request.Context()

			// Lookup failures fail open
			revoked, err := cfg.TokenBlacklist.IsBlacklisted(ctx, claims.ID)
			if err != nil {
				log.Error("Failed to check token blacklist", zap.String("jti", claims.ID), zap.Error(err))
			} else if revoked {
				abortUnauthorized(c, log, dto.ErrCodeTokenRevoked, "Token has been revoked", auth.ErrTokenBlacklisted)
				return
			}

			invalidated, err := cfg.TokenBlacklist.IsAccountTokenInvalidated(ctx, claims.AccountID, claims.IssuedAtTime())
			if err != nil {
				log.Error("Failed to check account token invalidation", zap.String("account_id", claims.AccountID), zap.Error(err))
			} else if invalidated {
				abortUnauthorized(c, log, dto.ErrCodeTokenRevoked, "Session has been revoked", auth.ErrTokenBlacklisted)
				return
			}
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTAccountIDKey, claims.AccountID)

		ctx := logger.WithAccountID(c.Request.Context(), claims.AccountID)
		ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(zap.String("account_id", claims.AccountID)))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, code, message string, err error) {
	log.Debug("JWT authentication failed",
		zap.String("code", code),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetAccountID returns the authenticated account ID, or "" for anonymous requests
func GetAccountID(c *gin.Context) string {
	return c.GetString(JWTAccountIDKey)
}

// GetAccountUUID returns the authenticated account ID parsed as a UUID
func GetAccountUUID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(GetAccountID(c))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

package handler

import (
	"github.com/gin-gonic/gin"
	memberapp "github.com/memberhub/backend/internal/application/member"
	"github.com/memberhub/backend/internal/domain/member"
)

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Password string `json:"password" binding:"required,max=128"`
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=64"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
	DisplayName string `json:"display_name" binding:"max=128"`
	Tier        string `json:"tier" binding:"required,tier"`
	InviteCode  string `json:"invite_code" binding:"max=32"`
}

// AuthHandler handles login, signup and the current session
type AuthHandler struct {
	BaseHandler
	auth         *memberapp.AuthService
	registration *memberapp.RegistrationService
	directory    *memberapp.DirectoryService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *memberapp.AuthService, registration *memberapp.RegistrationService, directory *memberapp.DirectoryService) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		registration: registration,
		directory:    directory,
	}
}

// Login exchanges credentials for an access token. Blocked accounts get
// 403 BLOCKED_ACCOUNT even with the right password.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Register creates an account, optionally under the inviter named by invite_code
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	account, err := h.registration.Register(c.Request.Context(), memberapp.RegisterInput{
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Tier:        member.Tier(req.Tier),
		InviteCode:  req.InviteCode,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// Me returns the authenticated account
func (h *AuthHandler) Me(c *gin.Context) {
	actorID, ok := h.actorID(c)
	if !ok {
		return
	}
	account, err := h.directory.Get(c.Request.Context(), actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/shared"
	"github.com/memberhub/backend/internal/interfaces/http/dto"
	"github.com/memberhub/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// setAccountContext simulates a request that passed the JWT middleware
func setAccountContext(c *gin.Context, accountID uuid.UUID) {
	c.Set(middleware.JWTAccountIDKey, accountID.String())
}

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandlerSuccess(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")

	h.Success(c, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.Equal(t, map[string]any{"key": "value"}, resp.Data)
}

func TestBaseHandlerCreated(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodPost, "/")

	h.Created(c, map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
}

func TestBaseHandlerError(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")
	c.Set(middleware.RequestIDKey, "req-42")

	h.Error(c, http.StatusTeapot, "SOME_CODE", "short and stout")

	assert.Equal(t, http.StatusTeapot, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "SOME_CODE", resp.Error.Code)
	assert.Equal(t, "short and stout", resp.Error.Message)
	assert.Equal(t, "req-42", resp.Error.RequestID)
}

func TestBaseHandlerActorID(t *testing.T) {
	h := &BaseHandler{}

	t.Run("authenticated", func(t *testing.T) {
		id := uuid.New()
		c, w := newTestContext(http.MethodGet, "/")
		setAccountContext(c, id)

		got, ok := h.actorID(c)
		assert.True(t, ok)
		assert.Equal(t, id, got)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("anonymous", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")

		_, ok := h.actorID(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeAuthRequired, decodeResponse(t, w).Error.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")
		c.Set(middleware.JWTAccountIDKey, "not-a-uuid")

		_, ok := h.actorID(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "invalid argument",
			err:         shared.InvalidArgument("Amount must be positive"),
			wantStatus:  http.StatusBadRequest,
			wantCode:    shared.CodeInvalidArgument,
			wantMessage: "Amount must be positive",
		},
		{
			name:        "unauthorized keeps the generic message",
			err:         shared.NewDomainError(shared.CodeUnauthorized, "target is outside your branch"),
			wantStatus:  http.StatusForbidden,
			wantCode:    shared.CodeUnauthorized,
			wantMessage: "not authorized",
		},
		{
			name:        "blocked account",
			err:         shared.ErrBlockedAccount,
			wantStatus:  http.StatusForbidden,
			wantCode:    shared.CodeBlockedAccount,
			wantMessage: shared.ErrBlockedAccount.Message,
		},
		{
			name:       "insufficient balance",
			err:        shared.ErrInsufficientBalance,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   shared.CodeInsufficientBalance,
		},
		{
			name:       "already claimed",
			err:        shared.ErrAlreadyClaimedToday,
			wantStatus: http.StatusConflict,
			wantCode:   shared.CodeAlreadyClaimedToday,
		},
		{
			name:       "wrapped domain error",
			err:        fmt.Errorf("loading account: %w", shared.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   shared.CodeNotFound,
		},
		{
			name:       "service unavailable",
			err:        shared.ErrServiceUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   shared.CodeServiceUnavailable,
		},
		{
			name:        "unknown error is hidden",
			err:         fmt.Errorf("connection reset by peer"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    dto.ErrCodeInternal,
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(http.MethodGet, "/")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, resp.Error.Message)
			}
		})
	}
}

func TestBaseHandlerHandleErrorNil(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")

	h.HandleError(c, nil)

	assert.Empty(t, w.Body.String())
}

func TestBaseHandlerBindError(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodPost, "/")

	var req BlockRequest
	err := c.ShouldBindJSON(&req)
	require.Error(t, err)
	h.BindError(c, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
}

func TestHandlePage(t *testing.T) {
	h := &BaseHandler{}

	t.Run("page", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")
		page := shared.NewPaginated([]string{"a", "b"}, 5, 1, 2)

		HandlePage(h, c, &page, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(5), resp.Meta.Total)
		assert.Equal(t, 3, resp.Meta.TotalPages)
		assert.Equal(t, []any{"a", "b"}, resp.Data)
	})

	t.Run("error", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")

		HandlePage[string](h, c, nil, shared.ErrUnauthorized)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

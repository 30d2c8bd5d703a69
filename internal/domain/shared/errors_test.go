package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	custom := NewDomainError(CodeInsufficientBalance, "only 10 points left")
	wrapped := fmt.Errorf("transfer: %w", custom)

	assert.True(t, errors.Is(wrapped, ErrInsufficientBalance))
	assert.False(t, errors.Is(wrapped, ErrBlockedAccount))
	assert.Equal(t, "only 10 points left", custom.Error())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(fmt.Errorf("x: %w", ErrNotFound)))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
	assert.Equal(t, "", CodeOf(nil))
}

func TestFilter_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		in       Filter
		page     int
		pageSize int
	}{
		{"zero values", Filter{}, 1, DefaultPageSize},
		{"too large", Filter{Page: 3, PageSize: 1000}, 3, MaxPageSize},
		{"valid", Filter{Page: 2, PageSize: 10}, 2, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			assert.Equal(t, tt.page, got.Page)
			assert.Equal(t, tt.pageSize, got.PageSize)
		})
	}
	assert.Equal(t, 20, Filter{Page: 3, PageSize: 10}.Offset())
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 21, 1, 10)
	assert.Equal(t, 3, p.TotalPages)

	empty := NewPaginated[int](nil, 0, 1, 10)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
}

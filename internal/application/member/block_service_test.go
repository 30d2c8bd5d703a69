package member

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/member"
	"github.com/memberhub/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockService_BlockPreventsLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.withPassword(t, f.tree.generalA)

	_, err := f.authn.Login(ctx, "general_a", testPassword)
	require.NoError(t, err)

	require.NoError(t, f.blocks.Block(ctx, f.tree.root.ID, f.tree.generalA.ID, "spam"))

	assert.True(t, f.reload(t, f.tree.generalA.ID).IsBlocked)
	assert.Equal(t, int64(1), f.recordCount(t))
	assert.Equal(t, []string{member.EventTypeAccountBlocked}, f.publisher.publishedTypes())

	_, err = f.authn.Login(ctx, "general_a", testPassword)
	assert.True(t, errors.Is(err, shared.ErrBlockedAccount))
}

func TestBlockService_CrossBranchRejected(t *testing.T) {
	f := newFixture(t)

	err := f.blocks.Block(context.Background(), f.tree.orgA.ID, f.tree.generalB.ID, "x")

	require.Error(t, err)
	assert.Equal(t, shared.CodeUnauthorized, shared.CodeOf(err))
	assert.Equal(t, "not authorized", err.Error())
	assert.False(t, f.reload(t, f.tree.generalB.ID).IsBlocked)
	assert.Zero(t, f.recordCount(t))
	f.publisher.AssertNotCalled(t, "Publish")
}

func TestBlockService_Authorization(t *testing.T) {
	f := newFixture(t)
	tr := f.tree

	tests := []struct {
		name    string
		actor   *member.Account
		target  *member.Account
		allowed bool
	}{
		{"administrator blocks anyone below", tr.root, tr.generalB, true},
		{"agency blocks own organization", tr.agencyA, tr.orgA, true},
		{"agency blocks member through organization", tr.agencyA, tr.generalA, true},
		{"organization blocks own general", tr.orgA, tr.generalA, true},
		{"peer agencies", tr.agencyA, tr.agencyB, false},
		{"admin outranks but is not an ancestor", tr.adminA, tr.generalA, false},
		{"lower tier cannot block upward", tr.generalA, tr.orgA, false},
		{"nobody blocks the administrator", tr.agencyA, tr.root, false},
		{"self", tr.orgA, tr.orgA, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := f.blocks.CanBlock(context.Background(), tt.actor.ID, tt.target.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, ok)
		})
	}
}

func TestBlockService_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("blank reason", func(t *testing.T) {
		err := f.blocks.Block(ctx, f.tree.root.ID, f.tree.generalA.ID, "   ")
		assert.Equal(t, shared.CodeInvalidArgument, shared.CodeOf(err))
	})

	t.Run("unknown target", func(t *testing.T) {
		err := f.blocks.Block(ctx, f.tree.root.ID, uuid.New(), "reason")
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("unknown actor", func(t *testing.T) {
		err := f.blocks.Block(ctx, uuid.New(), f.tree.generalA.ID, "reason")
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	assert.Zero(t, f.recordCount(t))
}

func TestBlockService_RepeatedBlockIsAudited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.blocks.Block(ctx, f.tree.orgA.ID, f.tree.generalA.ID, "first"))
	require.NoError(t, f.blocks.Block(ctx, f.tree.orgA.ID, f.tree.generalA.ID, "second"))

	assert.True(t, f.reload(t, f.tree.generalA.ID).IsBlocked)
	assert.Equal(t, int64(2), f.recordCount(t))
	assert.Equal(t, []string{member.EventTypeAccountBlocked}, f.publisher.publishedTypes())
}

func TestBlockService_Unblock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.blocks.Block(ctx, f.tree.agencyA.ID, f.tree.adminA.ID, "hold"))
	require.NoError(t, f.blocks.Unblock(ctx, f.tree.agencyA.ID, f.tree.adminA.ID, "released"))

	assert.False(t, f.reload(t, f.tree.adminA.ID).IsBlocked)
	assert.Equal(t, []string{member.EventTypeAccountBlocked, member.EventTypeAccountUnblocked}, f.publisher.publishedTypes())

	err := f.blocks.Unblock(ctx, f.tree.agencyB.ID, f.tree.adminA.ID, "not mine")
	assert.True(t, errors.Is(err, shared.ErrUnauthorized))
}

func TestBlockService_BulkBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	missing := uuid.New()

	results, err := f.blocks.BulkBlock(ctx, f.tree.orgA.ID,
		[]uuid.UUID{f.tree.generalA.ID, f.tree.generalB.ID, missing, f.tree.generalA.ID}, "cleanup")
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, BulkStatusSuccess, results[0].Status)
	assert.Equal(t, f.tree.generalA.ID, results[0].TargetID)

	assert.Equal(t, BulkStatusFailure, results[1].Status)
	assert.Equal(t, shared.CodeUnauthorized, results[1].Code)

	assert.Equal(t, BulkStatusFailure, results[2].Status)
	assert.Equal(t, shared.CodeNotFound, results[2].Code)

	assert.Equal(t, BulkStatusSuccess, results[3].Status)

	assert.True(t, f.reload(t, f.tree.generalA.ID).IsBlocked)
	assert.False(t, f.reload(t, f.tree.generalB.ID).IsBlocked)
	assert.Equal(t, int64(2), f.recordCount(t))
}

func TestBlockService_BulkValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.blocks.BulkBlock(ctx, f.tree.root.ID, nil, "reason")
	assert.Equal(t, shared.CodeInvalidArgument, shared.CodeOf(err))

	results, err := f.blocks.BulkUnblock(ctx, f.tree.root.ID, []uuid.UUID{f.tree.generalA.ID, f.tree.generalB.ID}, "")
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, BulkStatusFailure, r.Status)
		assert.Equal(t, shared.CodeInvalidArgument, r.Code)
	}
	assert.Zero(t, f.recordCount(t))
}

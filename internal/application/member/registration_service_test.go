package member

import (
	"context"
	"testing"

	"github.com/memberhub/backend/internal/domain/member"
	"github.com/memberhub/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationService_Register(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("general without invite code", func(t *testing.T) {
		acc, err := f.registrar.Register(ctx, RegisterInput{
			Username: "walk_in", Password: testPassword, Tier: member.TierGeneral,
		})
		require.NoError(t, err)
		assert.Nil(t, acc.ParentAgencyID)
		assert.Empty(t, f.publisher.publishedTypes())
	})

	t.Run("higher tier needs invite code", func(t *testing.T) {
		_, err := f.registrar.Register(ctx, RegisterInput{
			Username: "wannabe", Password: testPassword, Tier: member.TierAgency,
		})
		assert.Equal(t, shared.CodeInvalidArgument, shared.CodeOf(err))
	})

	t.Run("organization invite inherits agency", func(t *testing.T) {
		acc, err := f.registrar.Register(ctx, RegisterInput{
			Username:   "invited",
			Password:   testPassword,
			Tier:       member.TierGeneral,
			InviteCode: f.tree.orgA.InviteCode,
		})
		require.NoError(t, err)
		require.NotNil(t, acc.ParentOrganizationID)
		require.NotNil(t, acc.ParentAgencyID)
		assert.Equal(t, f.tree.orgA.ID, *acc.ParentOrganizationID)
		assert.Equal(t, f.tree.agencyA.ID, *acc.ParentAgencyID)
		assert.Equal(t, []string{member.EventTypeAccountSignedUp}, f.publisher.publishedTypes())
	})

	t.Run("inviter must outrank requested tier", func(t *testing.T) {
		_, err := f.registrar.Register(ctx, RegisterInput{
			Username:   "peer_org",
			Password:   testPassword,
			Tier:       member.TierOrganization,
			InviteCode: f.tree.orgA.InviteCode,
		})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("unknown invite code", func(t *testing.T) {
		_, err := f.registrar.Register(ctx, RegisterInput{
			Username: "ghost", Password: testPassword, Tier: member.TierGeneral, InviteCode: "NOPE1234",
		})
		assert.Equal(t, shared.CodeNotFound, shared.CodeOf(err))
	})
}

func TestAuthService_Login(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.withPassword(t, f.tree.adminA)

	res, err := f.authn.Login(ctx, " Admin_A ", testPassword)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", res.TokenType)

	claims, err := f.jwtService.Validate(res.AccessToken)
	require.NoError(t, err)
	accountID, err := claims.AccountUUID()
	require.NoError(t, err)
	assert.Equal(t, f.tree.adminA.ID, accountID)
	assert.Equal(t, member.TierAdmin, claims.Tier)

	_, err = f.authn.Login(ctx, "admin_a", "wrong-password-1")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = f.authn.Login(ctx, "nobody", testPassword)
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestBlockHistoryService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.blocks.Block(ctx, f.tree.root.ID, f.tree.generalA.ID, "one"))
	require.NoError(t, f.blocks.Block(ctx, f.tree.root.ID, f.tree.generalB.ID, "two"))
	require.NoError(t, f.blocks.Unblock(ctx, f.tree.root.ID, f.tree.generalA.ID, "three"))

	all, err := f.history.Query(ctx, member.BlockRecordFilter{})
	require.NoError(t, err)
	require.Len(t, all.Items, 3)
	assert.Equal(t, "three", all.Items[0].Reason)
	assert.Equal(t, "one", all.Items[2].Reason)

	action := member.BlockActionBlock
	blocks, err := f.history.Query(ctx, member.BlockRecordFilter{Action: &action})
	require.NoError(t, err)
	assert.Equal(t, int64(2), blocks.Total)

	scoped, err := f.history.QueryAsViewer(ctx, f.tree.agencyB.ID, member.BlockRecordFilter{})
	require.NoError(t, err)
	require.Len(t, scoped.Items, 1)
	assert.Equal(t, f.tree.generalB.ID, scoped.Items[0].TargetAccountID)
}

package member

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanBlock(t *testing.T) {
	ctx := context.Background()
	tree := newMemoryTree()
	administrator := tree.add(TierAdministrator, nil, nil)
	agency := tree.add(TierAgency, nil, nil)
	otherAgency := tree.add(TierAgency, nil, nil)
	org := tree.add(TierOrganization, agency, nil)
	otherOrg := tree.add(TierOrganization, otherAgency, nil)
	general := tree.add(TierGeneral, agency, org)

	tests := []struct {
		name   string
		actor  *Account
		target *Account
		want   bool
	}{
		{"administrator blocks any agency", administrator, otherAgency, true},
		{"agency blocks its organization", agency, org, true},
		{"agency blocks member of its organization", agency, general, true},
		{"organization blocks its member", org, general, true},
		{"organization cannot block non-descendant organization", org, otherOrg, false},
		{"agency cannot block foreign organization", agency, otherOrg, false},
		{"equal tier is refused", agency, otherAgency, false},
		{"lower tier is refused", general, org, false},
		{"nobody blocks administrator", agency, administrator, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanBlock(ctx, tree, tt.actor, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

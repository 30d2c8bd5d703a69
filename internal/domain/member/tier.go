package member

import (
	"strings"

	"github.com/memberhub/backend/internal/domain/shared"
)

// Tier is a level of the member hierarchy
type Tier string

const (
	TierAdministrator Tier = "administrator"
	TierAgency        Tier = "agency"
	TierOrganization  Tier = "organization"
	TierAdmin         Tier = "admin"
	TierGeneral       Tier = "general"
)

// tierRanks is the fixed total order of tiers. Lower rank means more privilege.
var tierRanks = map[Tier]int{
	TierAdministrator: 0,
	TierAgency:        1,
	TierOrganization:  2,
	TierAdmin:         3,
	TierGeneral:       4,
}

// AllTiers returns every tier in rank order
func AllTiers() []Tier {
	return []Tier{TierAdministrator, TierAgency, TierOrganization, TierAdmin, TierGeneral}
}

// ParseTier converts a tier name into a Tier
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", shared.InvalidArgument("Unknown tier: " + s)
	}
	return t, nil
}

// IsValid reports whether t is one of the five known tiers
func (t Tier) IsValid() bool {
	_, ok := tierRanks[t]
	return ok
}

// Rank returns the position of t in the hierarchy, or -1 for unknown tiers
func (t Tier) Rank() int {
	r, ok := tierRanks[t]
	if !ok {
		return -1
	}
	return r
}

// Outranks reports whether t is strictly more privileged than other.
// Unknown tiers never outrank and are never outranked.
func (t Tier) Outranks(other Tier) bool {
	if !t.IsValid() || !other.IsValid() {
		return false
	}
	return t.Rank() < other.Rank()
}

// IssuesInviteCodes reports whether accounts of this tier recruit members by invite code
func (t Tier) IssuesInviteCodes() bool {
	return t == TierAgency || t == TierOrganization
}

// String returns the tier name
func (t Tier) String() string {
	return string(t)
}

// Rank returns the rank of tier t
func Rank(t Tier) int {
	return t.Rank()
}

// Outranks reports whether a is strictly more privileged than b
func Outranks(a, b Tier) bool {
	return a.Outranks(b)
}

package member

import "context"

// CanBlock decides whether actor may block or unblock target.
//
// The actor must strictly outrank the target, and unless the actor is an
// administrator the target must also be a descendant of the actor. Both
// conditions are required: rank alone never grants authority over another
// branch of the tree.
func CanBlock(ctx context.Context, lookup AccountLookup, actor, target *Account) (bool, error) {
	if actor == nil || target == nil {
		return false, nil
	}
	if !actor.Tier.Outranks(target.Tier) {
		return false, nil
	}
	if actor.Tier == TierAdministrator {
		return true, nil
	}
	return IsDescendantOf(ctx, lookup, actor.ID, target)
}

package member

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/memberhub/backend/internal/domain/shared"
)

// MaxHierarchyDepth bounds every walk of the parent chain.
// Five tiers mean no legitimate chain is longer than four links.
const MaxHierarchyDepth = 4

// AccountLookup loads a single account by id
type AccountLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
}

// IsDescendantOf reports whether target sits below ancestorID in the hierarchy.
//
// The walk starts at target and, for at most MaxHierarchyDepth hops, compares
// both parent links of the current account with ancestorID before moving on
// to the primary parent. A missing link or a missing account ends the walk
// with false. The returned error is only ever a storage failure other than
// not-found, and is paired with false.
func IsDescendantOf(ctx context.Context, lookup AccountLookup, ancestorID uuid.UUID, target *Account) (bool, error) {
	if target == nil || target.ID == ancestorID {
		return false, nil
	}

	current := target
	visited := map[uuid.UUID]struct{}{target.ID: {}}
	for hop := 0; hop < MaxHierarchyDepth; hop++ {
		if current.HasDirectParent(ancestorID) {
			return true, nil
		}
		next := current.PrimaryParentID()
		if next == nil {
			return false, nil
		}
		if _, seen := visited[*next]; seen {
			return false, nil
		}
		visited[*next] = struct{}{}

		parent, err := lookup.FindByID(ctx, *next)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		current = parent
	}
	return false, nil
}

// ChildLookup finds the accounts whose primary parent is one of parentIDs,
// plus the accounts that reference any of directIDs through either parent link.
type ChildLookup interface {
	FindChildren(ctx context.Context, directIDs, primaryParentIDs []uuid.UUID) ([]Account, error)
}

// CollectDescendantIDs expands the hierarchy below ancestorID breadth first.
// It returns exactly the set of accounts x for which IsDescendantOf(ancestorID, x)
// holds: the first level matches either parent link, deeper levels follow the
// primary parent only, and the expansion stops after MaxHierarchyDepth levels.
func CollectDescendantIDs(ctx context.Context, lookup ChildLookup, ancestorID uuid.UUID) ([]uuid.UUID, error) {
	seen := map[uuid.UUID]struct{}{ancestorID: {}}
	result := []uuid.UUID{}

	frontier := []uuid.UUID{ancestorID}
	for level := 0; level < MaxHierarchyDepth && len(frontier) > 0; level++ {
		var children []Account
		var err error
		if level == 0 {
			children, err = lookup.FindChildren(ctx, frontier, nil)
		} else {
			children, err = lookup.FindChildren(ctx, nil, frontier)
		}
		if err != nil {
			return nil, err
		}

		next := make([]uuid.UUID, 0, len(children))
		for i := range children {
			id := children[i].ID
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			result = append(result, id)
			next = append(next, id)
		}
		frontier = next
	}
	return result, nil
}

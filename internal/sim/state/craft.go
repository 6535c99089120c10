package state

import (
	"context"
	"sort"

	"github.com/signalsfoundry/world-simulator/internal/logging"
	"github.com/signalsfoundry/world-simulator/internal/sim/craft"
	"github.com/signalsfoundry/world-simulator/internal/sim/features"
	"github.com/signalsfoundry/world-simulator/model"
)

// CraftResult lists the entities a craft created and deleted. Both are empty
// when the craft was rejected.
type CraftResult struct {
	Created []model.EntityID
	Deleted []model.EntityID
}

// Empty reports whether nothing happened.
func (r CraftResult) Empty() bool {
	return len(r.Created) == 0 && len(r.Deleted) == 0
}

// ValidateAssembly checks the assembly against its recipe and against the
// live contents of inv: every source must be a registered entity held in inv
// with the claimed essence, stacks may not be over-claimed and other items
// must be claimed exactly once.
func (s *State) ValidateAssembly(a *craft.Assembly, inv *features.Inventory) bool {
	_, ok := s.validate(a, inv)
	return ok
}

func (s *State) validate(a *craft.Assembly, inv *features.Inventory) (*craft.Recipe, bool) {
	if a == nil || inv == nil || s.recipes == nil {
		return nil, false
	}
	recipe, err := s.recipes.Recipe(a.RecipeCodename)
	if err != nil {
		return nil, false
	}
	if !recipe.ValidateAssembly(a) {
		return nil, false
	}

	for _, sources := range a.Sources {
		for _, source := range sources {
			e := s.entities[source.ActorID]
			if e == nil || !inv.Contains(source.ActorID) || e.Essence() != source.Essence {
				return nil, false
			}
		}
	}
	for id, claimed := range a.Claims() {
		e := s.entities[id]
		if e.Features.Stackable != nil {
			if claimed > e.Features.Stackable.Size {
				return nil, false
			}
		} else if claimed != 1 {
			return nil, false
		}
	}
	return recipe, true
}

// CraftEntity consumes the assembly's sources from inv and puts one new
// entity of the recipe's codename into a free hand. The assembly is always
// re-validated. Either every removal and the creation happen, or nothing
// does.
func (s *State) CraftEntity(a *craft.Assembly, inv *features.Inventory) CraftResult {
	ctx := context.Background()
	recipe, ok := s.validate(a, inv)
	if !ok {
		s.log.Debug(ctx, "craft rejected: invalid assembly", logging.String("recipe", assemblyRecipe(a)))
		return CraftResult{}
	}
	if s.factory == nil {
		s.log.Warn(ctx, "craft rejected: no entity factory configured")
		return CraftResult{}
	}

	// Plan on a copy so the free hand accounts for the planned removals.
	claims := a.Claims()
	ids := make([]model.EntityID, 0, len(claims))
	for id := range claims {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	plan := inv.Clone()
	var consumed, reduced []model.EntityID
	for _, id := range ids {
		e := s.entities[id]
		if e.Features.Stackable != nil && claims[id] < e.Features.Stackable.Size {
			reduced = append(reduced, id)
			continue
		}
		consumed = append(consumed, id)
		plan.Remove(id)
	}
	hand, ok := plan.FreeHand(model.HandRight)
	if !ok {
		s.log.Debug(ctx, "craft rejected: no free hand", logging.String("recipe", recipe.Codename))
		return CraftResult{}
	}

	output, err := s.factory.Create(recipe.Codename, nil)
	if err != nil {
		s.log.Warn(ctx, "craft rejected: cannot build output",
			logging.String("recipe", recipe.Codename),
			logging.Err(err),
		)
		return CraftResult{}
	}
	id, err := s.newID()
	if err != nil {
		return CraftResult{}
	}

	owner := s.inventoryOwner(inv)

	// Nothing below can fail.
	for _, rid := range reduced {
		e := s.entities[rid]
		e.Features.Stackable.Take(claims[rid])
		inv.SetQuantity(rid, e.Features.Stackable.Size)
	}
	var deleted []model.EntityID
	for _, cid := range consumed {
		inv.Remove(cid)
		deleted = append(deleted, s.deleteEntity(cid, nil)...)
	}

	output.Position = nil
	s.register(id, output)
	if output.Features.Inventorable != nil && owner != nil {
		output.Features.Inventorable.SetStoredBy(&owner.ID)
	}
	inv.Store(hand, output.Entry())
	s.updateMetrics()

	s.log.Debug(ctx, "crafted entity",
		logging.String("recipe", recipe.Codename),
		logging.Uint64("entity_id", uint64(id)),
		logging.Int("consumed", len(deleted)),
	)
	return CraftResult{Created: []model.EntityID{id}, Deleted: deleted}
}

func (s *State) inventoryOwner(inv *features.Inventory) *Entity {
	for _, e := range s.entities {
		if e.Features.Inventory == inv {
			return e
		}
	}
	return nil
}

func assemblyRecipe(a *craft.Assembly) string {
	if a == nil {
		return ""
	}
	return a.RecipeCodename
}

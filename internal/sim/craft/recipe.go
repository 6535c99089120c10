package craft

import (
	"sort"

	"github.com/signalsfoundry/world-simulator/model"
)

// Item is an inventory entry offered as (part of) an ingredient.
type Item struct {
	ActorID  model.EntityID `json:"actor_id" yaml:"actor_id"`
	Essence  Essence        `json:"essence" yaml:"essence"`
	Quantity int            `json:"quantity" yaml:"quantity"`
}

// Ingredient is one slot of a recipe.
type Ingredient struct {
	Material Material `json:"material" yaml:"material"`
	Value    int      `json:"value" yaml:"value"`
	Optional bool     `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// MatchEssence checks if an item with the given essence can fill this
// ingredient.
func (i Ingredient) MatchEssence(essence Essence) bool {
	return Matches(i.Material, essence)
}

// FilterItems keeps only the items that can fill this ingredient, ordered by
// actor id.
func (i Ingredient) FilterItems(items []Item) []Item {
	var out []Item
	for _, item := range items {
		if i.MatchEssence(item.Essence) {
			out = append(out, item)
		}
	}
	sortItems(out)
	return out
}

// Recipe is a static template for crafting one output entity. The output's
// codename equals the recipe's codename.
type Recipe struct {
	Codename    string       `json:"codename" yaml:"codename"`
	Description string       `json:"description" yaml:"description"`
	Ingredients []Ingredient `json:"ingredients" yaml:"ingredients"`
}

// MakeAssembly returns an empty assembly for this recipe.
func (r *Recipe) MakeAssembly() *Assembly {
	return &Assembly{
		RecipeCodename: r.Codename,
		Sources:        make([][]Item, len(r.Ingredients)),
	}
}

// ValidateAssembly checks the material and quantity rules only: every source
// matches its slot's material and every slot sums to exactly the required
// value. Optional slots may be left empty. Ownership and stack sizes are
// checked by the world state.
func (r *Recipe) ValidateAssembly(a *Assembly) bool {
	if a == nil || a.RecipeCodename != r.Codename {
		return false
	}
	if len(r.Ingredients) != len(a.Sources) {
		return false
	}
	for i, ingredient := range r.Ingredients {
		sources := a.Sources[i]
		if ingredient.Optional && len(sources) == 0 {
			continue
		}
		total := 0
		for _, source := range sources {
			if source.Quantity <= 0 {
				return false
			}
			if !ingredient.MatchEssence(source.Essence) {
				return false
			}
			total += source.Quantity
		}
		if total != ingredient.Value {
			return false
		}
	}
	return true
}

func sortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool { return items[i].ActorID < items[j].ActorID })
}

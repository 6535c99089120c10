package craft

import "github.com/signalsfoundry/world-simulator/model"

// Assembly is the mutable, per-session candidate for a recipe: for every
// ingredient slot, the set of items offered to fill it.
type Assembly struct {
	RecipeCodename string   `json:"recipe_codename" yaml:"recipe_codename"`
	Sources        [][]Item `json:"sources" yaml:"sources"`
}

// FindItem looks the actor up in the assembly. With index >= 0 only that
// slot is searched.
func (a *Assembly) FindItem(id model.EntityID, index int) (*Item, bool) {
	if index >= len(a.Sources) {
		return nil, false
	}
	lo, hi := 0, len(a.Sources)
	if index >= 0 {
		lo, hi = index, index+1
	}
	for s := lo; s < hi; s++ {
		for i := range a.Sources[s] {
			if a.Sources[s][i].ActorID == id {
				return &a.Sources[s][i], true
			}
		}
	}
	return nil, false
}

// UpdateItem adds, removes or changes the quantity of template's actor in
// slot index. It returns false when the change is not allowed: negative change
// on an absent item, or removing more than is there.
func (a *Assembly) UpdateItem(index int, template Item, change int) bool {
	if index < 0 || index >= len(a.Sources) {
		return false
	}

	if item, ok := a.FindItem(template.ActorID, index); ok {
		switch {
		case -item.Quantity == change:
			a.removeItem(index, template.ActorID)
			return true
		case -item.Quantity < change:
			item.Quantity += change
			return true
		default:
			return false
		}
	}

	if change <= 0 {
		return false
	}
	a.Sources[index] = append(a.Sources[index], Item{
		ActorID:  template.ActorID,
		Essence:  template.Essence,
		Quantity: change,
	})
	return true
}

// FilterItems reduces the quantity of every given item by what this assembly
// already claims from the same actor, dropping items that reach zero.
func (a *Assembly) FilterItems(items []Item) []Item {
	claimed := a.Claims()
	var out []Item
	for _, item := range items {
		item.Quantity -= claimed[item.ActorID]
		if item.Quantity > 0 {
			out = append(out, item)
		}
	}
	sortItems(out)
	return out
}

// Claims sums the claimed quantity per actor across all slots.
func (a *Assembly) Claims() map[model.EntityID]int {
	claims := make(map[model.EntityID]int)
	for _, sources := range a.Sources {
		for _, source := range sources {
			claims[source.ActorID] += source.Quantity
		}
	}
	return claims
}

// Clone returns a deep copy.
func (a *Assembly) Clone() *Assembly {
	out := &Assembly{RecipeCodename: a.RecipeCodename, Sources: make([][]Item, len(a.Sources))}
	for i, sources := range a.Sources {
		out.Sources[i] = append([]Item(nil), sources...)
	}
	return out
}

func (a *Assembly) removeItem(index int, id model.EntityID) {
	sources := a.Sources[index]
	for i := range sources {
		if sources[i].ActorID == id {
			a.Sources[index] = append(sources[:i], sources[i+1:]...)
			return
		}
	}
}

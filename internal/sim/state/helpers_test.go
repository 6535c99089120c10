package state

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/signalsfoundry/world-simulator/core"
	"github.com/signalsfoundry/world-simulator/internal/logging"
	"github.com/signalsfoundry/world-simulator/internal/sim/craft"
	"github.com/signalsfoundry/world-simulator/internal/sim/events"
	"github.com/signalsfoundry/world-simulator/internal/sim/features"
	"github.com/signalsfoundry/world-simulator/model"
)

// testKind is a decision table without rules.
type testKind struct {
	codename string
	essence  craft.Essence
}

func (k testKind) Codename() string                 { return k.codename }
func (k testKind) Essence() craft.Essence           { return k.essence }
func (k testKind) HandleEvent(*Entity, events.Event) {}

type testFactory struct{}

func (testFactory) Create(codename string, position *core.Point) (*Entity, error) {
	switch codename {
	case "axe":
		return NewEntity(testKind{"axe", craft.EssenceTool}, position, features.Set{
			Inventorable: &features.Inventorable{Volume: 1},
		}), nil
	default:
		return nil, fmt.Errorf("unknown codename %q", codename)
	}
}

type testRecipes map[string]*craft.Recipe

func (r testRecipes) Recipe(codename string) (*craft.Recipe, error) {
	if recipe, ok := r[codename]; ok {
		return recipe, nil
	}
	return nil, fmt.Errorf("no recipe %q", codename)
}

var axeRecipe = &craft.Recipe{
	Codename: "axe",
	Ingredients: []craft.Ingredient{
		{Material: craft.MaterialMineral, Value: 2},
		{Material: craft.MaterialWood, Value: 1},
	},
}

func newTestState(t *testing.T, opts ...Option) *State {
	t.Helper()
	base := []Option{
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithRecipes(testRecipes{"axe": axeRecipe}),
		WithFactory(testFactory{}),
	}
	return New(core.NewFlatTerrain(100), logging.Noop(), append(base, opts...)...)
}

func mustAdd(t *testing.T, s *State, e *Entity) model.EntityID {
	t.Helper()
	id, err := s.AddEntity(e)
	if err != nil {
		t.Fatalf("AddEntity: %v", err)
	}
	return id
}

func newHolder(at core.Point) *Entity {
	return NewEntity(testKind{"hero", craft.EssenceHero}, &at, features.Set{
		Inventory: features.NewInventory(),
	})
}

func newStack(codename string, essence craft.Essence, size int, at *core.Point) *Entity {
	return NewEntity(testKind{codename, essence}, at, features.Set{
		Inventorable: &features.Inventorable{Volume: 1},
		Stackable:    &features.Stackable{Size: size},
	})
}

// give puts e into holder's pocket as if it had been picked up earlier.
func give(t *testing.T, s *State, holder *Entity, e *Entity, pocket int) model.EntityID {
	t.Helper()
	e.Position = nil
	id := mustAdd(t, s, e)
	e.Features.Inventorable.SetStoredBy(&holder.ID)
	holder.Features.Inventory.Insert(pocket, e.Entry())
	return id
}

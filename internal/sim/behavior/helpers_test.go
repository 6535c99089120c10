package behavior

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/signalsfoundry/world-simulator/core"
	"github.com/signalsfoundry/world-simulator/internal/logging"
	"github.com/signalsfoundry/world-simulator/internal/sim/actions"
	"github.com/signalsfoundry/world-simulator/internal/sim/craft"
	"github.com/signalsfoundry/world-simulator/internal/sim/events"
	"github.com/signalsfoundry/world-simulator/internal/sim/features"
	"github.com/signalsfoundry/world-simulator/internal/sim/state"
	"github.com/signalsfoundry/world-simulator/model"
	"github.com/signalsfoundry/world-simulator/timectrl"
)

const testRadius = 100.0

var equator = core.Point{Theta: math.Pi / 2}

// near returns a point distance units north of the equator origin.
func near(distance float64) core.Point {
	return core.Point{Theta: math.Pi/2 - distance/testRadius}
}

type stubKind struct {
	codename string
	essence  craft.Essence
}

func (k stubKind) Codename() string                       { return k.codename }
func (k stubKind) Essence() craft.Essence                 { return k.essence }
func (k stubKind) HandleEvent(*state.Entity, events.Event) {}

type stubFactory struct{}

func (stubFactory) Create(codename string, at *core.Point) (*state.Entity, error) {
	switch codename {
	case "axe":
		return newAxe(at), nil
	case "log":
		return newStack("log", craft.EssenceLogs, 1, at), nil
	default:
		return nil, fmt.Errorf("unknown codename %q", codename)
	}
}

type stubRecipes map[string]*craft.Recipe

func (r stubRecipes) Recipe(codename string) (*craft.Recipe, error) {
	if recipe, ok := r[codename]; ok {
		return recipe, nil
	}
	return nil, fmt.Errorf("no recipe %q", codename)
}

type world struct {
	s     *state.State
	clock *timectrl.ManualClock
}

func newWorld(t *testing.T) world {
	t.Helper()
	clock := timectrl.NewManualClock(time.Unix(1_700_000_000, 0))
	s := state.New(core.NewFlatTerrain(testRadius), logging.Noop(),
		state.WithClock(clock),
		state.WithRand(rand.New(rand.NewPCG(3, 4))),
		state.WithFactory(stubFactory{}),
		state.WithRecipes(stubRecipes{"axe": {
			Codename: "axe",
			Ingredients: []craft.Ingredient{
				{Material: craft.MaterialMineral, Value: 2},
				{Material: craft.MaterialWood, Value: 1},
			},
		}}),
	)
	return world{s: s, clock: clock}
}

func (w world) add(t *testing.T, e *state.Entity) *state.Entity {
	t.Helper()
	if _, err := w.s.AddEntity(e); err != nil {
		t.Fatalf("AddEntity: %v", err)
	}
	return e
}

func newHero(at core.Point) *state.Entity {
	return state.NewEntity(stubKind{"hero", craft.EssenceHero}, &at, features.Set{
		Eater:     features.NewEater(100, 50),
		Inventory: features.NewInventory(),
	})
}

func newStack(codename string, essence craft.Essence, size int, at *core.Point) *state.Entity {
	return state.NewEntity(stubKind{codename, essence}, at, features.Set{
		Inventorable: &features.Inventorable{Volume: 1},
		Stackable:    &features.Stackable{Size: size},
	})
}

func newAxe(at *core.Point) *state.Entity {
	return state.NewEntity(stubKind{"axe", craft.EssenceTool}, at, features.Set{
		Inventorable: &features.Inventorable{Volume: 2},
		Tool:         &features.ToolOrWeapon{Damage: map[model.DamageVariant]float64{model.DamageChop: 10}},
	})
}

func newTree(at core.Point) *state.Entity {
	return state.NewEntity(stubKind{"spruce", craft.EssencePlant}, &at, features.Set{
		Damageable: features.NewDamageable(20, model.DamageChop),
	})
}

// hold puts item into hero's hand.
func (w world) hold(t *testing.T, hero, item *state.Entity, hand model.Hand) {
	t.Helper()
	at := *hero.Position
	item.SetPosition(at)
	w.add(t, item)
	if !w.s.StoreInHand(hero, item, hand) {
		t.Fatalf("StoreInHand failed")
	}
}

func kinds(list []actions.Action) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.Kind()
	}
	return out
}

func finishedFor(t *testing.T, res state.JobResult, id model.EntityID) {
	t.Helper()
	with, ok := res.Repeat.(state.RepeatWith)
	if !ok {
		t.Fatalf("Repeat = %#v, want RepeatWith", res.Repeat)
	}
	if f, ok := with.Event.(events.Finished); !ok || f.Entity != id {
		t.Fatalf("Repeat event = %#v, want Finished for %d", with.Event, id)
	}
}

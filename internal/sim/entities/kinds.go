// Package entities defines the entity variants of the world: their feature
// sets and the decision tables that map events to tasks.
package entities

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/signalsfoundry/world-simulator/internal/sim/behavior"
	"github.com/signalsfoundry/world-simulator/internal/sim/craft"
	"github.com/signalsfoundry/world-simulator/internal/sim/events"
	"github.com/signalsfoundry/world-simulator/internal/sim/state"
	"github.com/signalsfoundry/world-simulator/model"
)

// Codenames of the known entity variants.
const (
	CodenameHero    = "hero"
	CodenameWarrior = "warrior"
	CodenameSpruce  = "spruce"
	CodenameRocks   = "rocks"
	CodenameGold    = "gold"
	CodenameLog     = "log"
	CodenameSticks  = "sticks"
	CodenameAxe     = "axe"
	CodenameHat     = "hat"
)

const (
	HeroSpeed         = 1.0
	HeroMaxWalk       = 20 * time.Second
	HeroPickTimeout   = time.Second
	HeroCraftDuration = time.Second

	WarriorSpeed = 1.0
	WarriorWalk  = time.Second

	// SpruceLogs is how many logs a felled spruce leaves behind.
	SpruceLogs = 3
)

// Hero is the player-controlled character.
type Hero struct{}

func (Hero) Codename() string       { return CodenameHero }
func (Hero) Essence() craft.Essence { return craft.EssenceHero }

func (Hero) HandleEvent(e *state.Entity, ev events.Event) {
	switch ev := ev.(type) {
	case events.Resume, events.Finished, events.Stop, events.Conclude:
		e.Task = state.NewIdleTask(e.ID)

	case events.StartMoving:
		e.Task = behavior.NewMovementTask(e.ID, HeroSpeed, ev.Bearing, HeroMaxWalk)

	case events.HandActivation:
		held := e.MustInventory().Hand(ev.Hand)
		switch {
		case held == nil && ev.ObjectID != nil:
			e.Task = &behavior.PickItemTask{
				Who:      e.ID,
				What:     *ev.ObjectID,
				Hand:     ev.Hand,
				Duration: HeroPickTimeout,
			}
		case held != nil && ev.ObjectID != nil:
			e.React(&behavior.UseItemJob{User: e.ID, Hand: ev.Hand, Target: *ev.ObjectID})
		case held != nil:
			e.React(&behavior.DropItemJob{Holder: e.ID, Hand: ev.Hand})
		}

	case events.InventorySwap:
		e.React(&behavior.InventoryUpdateJob{Owner: e.ID, Hand: ev.Hand, Index: ev.Index, Variant: model.UpdateSwap})

	case events.InventoryMerge:
		e.React(&behavior.InventoryUpdateJob{Owner: e.ID, Hand: ev.Hand, Index: ev.Index, Variant: model.UpdateMerge})

	case events.Craft:
		if ev.Assembly != nil {
			e.Task = &behavior.CraftTask{Crafter: e.ID, Assembly: ev.Assembly, Duration: HeroCraftDuration}
		}
	}
}

// Warrior wanders around on its own.
type Warrior struct {
	rng *rand.Rand
}

func (Warrior) Codename() string       { return CodenameWarrior }
func (Warrior) Essence() craft.Essence { return craft.EssenceVoid }

func (w Warrior) HandleEvent(e *state.Entity, ev events.Event) {
	switch ev := ev.(type) {
	case events.Resume, events.Finished:
		bearing := w.rng.Float64()*2*math.Pi - math.Pi
		e.Task = behavior.NewMovementTask(e.ID, WarriorSpeed, bearing, WarriorWalk)

	case events.Damage:
		if d := e.Features.Damageable; d != nil && d.Take(ev.Amount) {
			e.Task = &behavior.DeathTask{Entity: e.ID}
		}
	}
}

// Spruce is a tree that can be chopped down for logs.
type Spruce struct{}

func (Spruce) Codename() string       { return CodenameSpruce }
func (Spruce) Essence() craft.Essence { return craft.EssencePlant }

func (Spruce) HandleEvent(e *state.Entity, ev events.Event) {
	if ev, ok := ev.(events.Damage); ok {
		if d := e.Features.Damageable; d != nil && d.Take(ev.Amount) {
			e.Task = &behavior.FellTask{Tree: e.ID, Drop: CodenameLog, Quantity: SpruceLogs}
		}
	}
}

// Item is an inert variant. It ignores every event.
type Item struct {
	codename string
	essence  craft.Essence
}

func (i Item) Codename() string                      { return i.codename }
func (i Item) Essence() craft.Essence                { return i.essence }
func (Item) HandleEvent(*state.Entity, events.Event) {}

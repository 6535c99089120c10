// Package actions defines the closed set of outbound world mutations sent to
// clients. Actions are immutable values; the simulation never reads them back.
package actions

import (
	"encoding/json"
	"time"

	"github.com/signalsfoundry/world-simulator/core"
	"github.com/signalsfoundry/world-simulator/internal/sim/features"
	"github.com/signalsfoundry/world-simulator/model"
)

// Action is implemented only by the types of this package.
type Action interface {
	// Kind is the wire tag of the action.
	Kind() string
	isAction()
}

// Actor is the client-side view of a placed entity.
type Actor struct {
	ID       model.EntityID `json:"id"`
	Codename string         `json:"codename"`
	Position core.Point     `json:"position"`
}

// Configuration tells a freshly connected client which actor it controls and
// how to rebuild the terrain.
type Configuration struct {
	HeroID  model.EntityID     `json:"hero_actor_id"`
	Terrain core.TerrainParams `json:"elevation"`
}

type CreateActors struct {
	Actors []Actor `json:"actors"`
}

type DeleteActors struct {
	IDs []model.EntityID `json:"actor_ids"`
}

// Movement starts a walk animation. Duration is the maximum walking time.
type Movement struct {
	ID       model.EntityID `json:"actor_id"`
	Speed    float64        `json:"speed"`
	Bearing  float64        `json:"bearing"`
	Duration time.Duration  `json:"-"`
}

// MarshalJSON encodes the duration in seconds.
func (m Movement) MarshalJSON() ([]byte, error) {
	type movement Movement
	return json.Marshal(struct {
		movement
		Duration float64 `json:"duration"`
	}{movement(m), m.Duration.Seconds()})
}

// Localize snaps an actor to a position.
type Localize struct {
	ID       model.EntityID `json:"actor_id"`
	Position core.Point     `json:"position"`
}

type StatUpdate struct {
	ID    model.EntityID `json:"actor_id"`
	Stats model.Stats    `json:"stats"`
}

type PickStart struct {
	Who  model.EntityID `json:"who"`
	What model.EntityID `json:"what"`
}

type PickEnd struct {
	Who  model.EntityID `json:"who"`
	What model.EntityID `json:"what"`
}

// UpdateInventory carries a copy of the owner's inventory.
type UpdateInventory struct {
	Owner     model.EntityID     `json:"owner_id"`
	Inventory features.Snapshot `json:"inventory"`
}

type Damage struct {
	Dealer   model.EntityID      `json:"dealer_id"`
	Receiver model.EntityID      `json:"receiver_id"`
	Variant  model.DamageVariant `json:"variant"`
	Hand     model.Hand          `json:"hand"`
}

type CraftStart struct {
	Crafter model.EntityID `json:"crafter_id"`
}

type CraftEnd struct {
	Crafter model.EntityID `json:"crafter_id"`
}

func (Configuration) Kind() string   { return "configuration" }
func (CreateActors) Kind() string    { return "create_actors" }
func (DeleteActors) Kind() string    { return "delete_actors" }
func (Movement) Kind() string        { return "movement" }
func (Localize) Kind() string        { return "localize" }
func (StatUpdate) Kind() string      { return "stat_update" }
func (PickStart) Kind() string       { return "pick_start" }
func (PickEnd) Kind() string         { return "pick_end" }
func (UpdateInventory) Kind() string { return "update_inventory" }
func (Damage) Kind() string          { return "damage" }
func (CraftStart) Kind() string      { return "craft_start" }
func (CraftEnd) Kind() string        { return "craft_end" }

func (Configuration) isAction()   {}
func (CreateActors) isAction()    {}
func (DeleteActors) isAction()    {}
func (Movement) isAction()        {}
func (Localize) isAction()        {}
func (StatUpdate) isAction()      {}
func (PickStart) isAction()       {}
func (PickEnd) isAction()         {}
func (UpdateInventory) isAction() {}
func (Damage) isAction()          {}
func (CraftStart) isAction()      {}
func (CraftEnd) isAction()        {}

// Recipients lists the entities an action concerns directly, if it is only
// meaningful to them. A nil result means the action is of interest to every
// client.
func Recipients(a Action) []model.EntityID {
	switch a := a.(type) {
	case Configuration:
		return []model.EntityID{a.HeroID}
	case StatUpdate:
		return []model.EntityID{a.ID}
	case UpdateInventory:
		return []model.EntityID{a.Owner}
	default:
		return nil
	}
}

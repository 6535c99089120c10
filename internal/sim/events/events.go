// Package events defines the closed set of inbound stimuli. Every event is
// addressed to exactly one receiver entity and is consumed once.
package events

import (
	"github.com/signalsfoundry/world-simulator/internal/sim/craft"
	"github.com/signalsfoundry/world-simulator/model"
)

// Event is implemented only by the types of this package.
type Event interface {
	// Receiver is the entity the event is addressed to.
	Receiver() model.EntityID
	// Kind is a stable snake_case name used in logs and metrics.
	Kind() string
	isEvent()
}

// Resume wakes an entity up. The engine sends it to every performer at start.
type Resume struct{ Entity model.EntityID }

// Finished signals that the entity's current task ran its course.
type Finished struct{ Entity model.EntityID }

// Stop interrupts the current activity.
type Stop struct{ Entity model.EntityID }

// Conclude ends the current activity gracefully.
type Conclude struct{ Entity model.EntityID }

// StartMoving asks the entity to walk towards bearing (radians, 0 = north).
type StartMoving struct {
	Entity  model.EntityID
	Bearing float64
}

// HandActivation uses the given hand, optionally on a target object.
type HandActivation struct {
	Entity   model.EntityID
	Hand     model.Hand
	ObjectID *model.EntityID
}

// InventorySwap exchanges a hand with an inventory pocket.
type InventorySwap struct {
	Entity model.EntityID
	Hand   model.Hand
	Index  int
}

// InventoryMerge stacks the hand's content onto an inventory pocket.
type InventoryMerge struct {
	Entity model.EntityID
	Hand   model.Hand
	Index  int
}

// Damage harms the receiver.
type Damage struct {
	Entity  model.EntityID
	Dealer  model.EntityID
	Amount  float64
	Variant model.DamageVariant
}

// Craft asks the receiver to craft the given assembly from its inventory.
type Craft struct {
	Entity   model.EntityID
	Assembly *craft.Assembly
}

func (e Resume) Receiver() model.EntityID         { return e.Entity }
func (e Finished) Receiver() model.EntityID       { return e.Entity }
func (e Stop) Receiver() model.EntityID           { return e.Entity }
func (e Conclude) Receiver() model.EntityID       { return e.Entity }
func (e StartMoving) Receiver() model.EntityID    { return e.Entity }
func (e HandActivation) Receiver() model.EntityID { return e.Entity }
func (e InventorySwap) Receiver() model.EntityID  { return e.Entity }
func (e InventoryMerge) Receiver() model.EntityID { return e.Entity }
func (e Damage) Receiver() model.EntityID         { return e.Entity }
func (e Craft) Receiver() model.EntityID          { return e.Entity }

func (Resume) Kind() string         { return "resume" }
func (Finished) Kind() string       { return "finished" }
func (Stop) Kind() string           { return "stop" }
func (Conclude) Kind() string       { return "conclude" }
func (StartMoving) Kind() string    { return "start_moving" }
func (HandActivation) Kind() string { return "hand_activation" }
func (InventorySwap) Kind() string  { return "inventory_swap" }
func (InventoryMerge) Kind() string { return "inventory_merge" }
func (Damage) Kind() string         { return "damage" }
func (Craft) Kind() string          { return "craft" }

func (Resume) isEvent()         {}
func (Finished) isEvent()       {}
func (Stop) isEvent()           {}
func (Conclude) isEvent()       {}
func (StartMoving) isEvent()    {}
func (HandActivation) isEvent() {}
func (InventorySwap) isEvent()  {}
func (InventoryMerge) isEvent() {}
func (Damage) isEvent()         {}
func (Craft) isEvent()          {}

package behavior

import (
	"time"

	"github.com/signalsfoundry/world-simulator/internal/sim/actions"
	"github.com/signalsfoundry/world-simulator/internal/sim/events"
	"github.com/signalsfoundry/world-simulator/internal/sim/state"
	"github.com/signalsfoundry/world-simulator/model"
)

// UseMaxDistance is how close a target must be to be hit with a held item.
const UseMaxDistance = 1.5

// UseItemJob applies the item held in Hand to Target. Only tools that deal
// damage of the variant the target is sensitive to have an effect; the damage
// is then delivered to the target as an event.
type UseItemJob struct {
	User   model.EntityID
	Hand   model.Hand
	Target model.EntityID
}

func (j *UseItemJob) StartDelay() time.Duration { return 0 }

func (j *UseItemJob) Execute(e *state.Entity, s *state.State) state.JobResult {
	inv := e.Features.Inventory
	if inv == nil {
		return state.Done()
	}
	held := inv.Hand(j.Hand)
	if held == nil {
		return state.Done()
	}
	item, target := s.Entity(held.ID), s.Entity(j.Target)
	if item == nil || target == nil || target.Features.Damageable == nil {
		return state.Done()
	}
	distance, ok := s.Distance(e.ID, target.ID)
	if !ok || distance > UseMaxDistance {
		return state.Done()
	}
	variant := target.Features.Damageable.Variant
	amount, ok := item.Features.Tool.DamageFor(variant)
	if !ok {
		return state.Done()
	}

	return state.JobResult{
		Actions: []actions.Action{actions.Damage{
			Dealer:   e.ID,
			Receiver: target.ID,
			Variant:  variant,
			Hand:     j.Hand,
		}},
		Repeat: state.RepeatWith{Event: events.Damage{
			Entity:  target.ID,
			Dealer:  e.ID,
			Amount:  amount,
			Variant: variant,
		}},
	}
}

// DropItemJob puts the item held in Hand down at the holder's feet.
type DropItemJob struct {
	Holder model.EntityID
	Hand   model.Hand
}

func (j *DropItemJob) StartDelay() time.Duration { return 0 }

func (j *DropItemJob) Execute(e *state.Entity, s *state.State) state.JobResult {
	item, ok := s.DropFromHand(e, j.Hand)
	if !ok {
		return state.Done()
	}
	out := []actions.Action{actions.UpdateInventory{Owner: e.ID, Inventory: e.Features.Inventory.Snapshot()}}
	if actor, placed := item.Actor(); placed {
		out = append(out, actions.CreateActors{Actors: []actions.Actor{actor}})
	}
	return state.JobResult{Actions: out}
}

// InventoryUpdateJob swaps or merges a hand with an inventory pocket.
type InventoryUpdateJob struct {
	Owner   model.EntityID
	Hand    model.Hand
	Index   int
	Variant model.UpdateVariant
}

func (j *InventoryUpdateJob) StartDelay() time.Duration { return 0 }

func (j *InventoryUpdateJob) Execute(e *state.Entity, s *state.State) state.JobResult {
	inv := e.Features.Inventory
	if inv == nil {
		return state.Done()
	}
	switch j.Variant {
	case model.UpdateSwap:
		if !inv.Swap(j.Hand, j.Index) {
			return state.Done()
		}
	case model.UpdateMerge:
		if !j.merge(e, s) {
			return state.Done()
		}
	default:
		return state.Done()
	}
	return state.JobResult{Actions: []actions.Action{
		actions.UpdateInventory{Owner: e.ID, Inventory: inv.Snapshot()},
	}}
}

// merge stacks the hand's entity onto the pocket's entity. Only stackable
// entities of the same essence merge; the emptied entity is removed.
func (j *InventoryUpdateJob) merge(e *state.Entity, s *state.State) bool {
	inv := e.Features.Inventory
	held, pocket := inv.Hand(j.Hand), inv.Pocket(j.Index)
	if held == nil || pocket == nil {
		return false
	}
	from, into := s.Entity(held.ID), s.Entity(pocket.ID)
	if from == nil || into == nil || from == into {
		return false
	}
	if from.Features.Stackable == nil || into.Features.Stackable == nil {
		return false
	}
	emptied, ok := inv.Merge(j.Hand, j.Index)
	if !ok {
		return false
	}
	into.Features.Stackable.Size += from.Features.Stackable.Size
	inv.SetQuantity(into.ID, into.Features.Stackable.Size)
	s.DeleteEntity(emptied)
	return true
}

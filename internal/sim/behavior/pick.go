package behavior

import (
	"time"

	"github.com/signalsfoundry/world-simulator/internal/sim/actions"
	"github.com/signalsfoundry/world-simulator/internal/sim/events"
	"github.com/signalsfoundry/world-simulator/internal/sim/state"
	"github.com/signalsfoundry/world-simulator/model"
)

// PickMaxDistance is how far away an item may lie and still be picked up.
const PickMaxDistance = 1.5

// PickItemTask reaches for an item. The pick itself happens when its job
// fires.
type PickItemTask struct {
	Who      model.EntityID
	What     model.EntityID
	Hand     model.Hand
	Duration time.Duration
}

func (t *PickItemTask) Start(*state.State) []actions.Action {
	return []actions.Action{actions.PickStart{Who: t.Who, What: t.What}}
}

func (t *PickItemTask) Finish(*state.State) []actions.Action { return nil }

func (t *PickItemTask) Job() state.Job {
	return &PickItemJob{Who: t.Who, What: t.What, Hand: t.Hand, Duration: t.Duration}
}

// PickItemJob moves the item into the picker's hand if it is still there and
// close enough. Otherwise the pick fizzles without output.
type PickItemJob struct {
	Who      model.EntityID
	What     model.EntityID
	Hand     model.Hand
	Duration time.Duration
}

func (j *PickItemJob) StartDelay() time.Duration { return j.Duration }

func (j *PickItemJob) Execute(e *state.Entity, s *state.State) state.JobResult {
	done := state.JobResult{Repeat: state.RepeatWith{Event: events.Finished{Entity: e.ID}}}

	item := s.Entity(j.What)
	if item == nil {
		return done
	}
	distance, ok := s.Distance(e.ID, item.ID)
	if !ok || distance > PickMaxDistance {
		return done
	}
	if !s.StoreInHand(e, item, j.Hand) {
		return done
	}

	done.Actions = []actions.Action{
		actions.PickEnd{Who: j.Who, What: j.What},
		actions.UpdateInventory{Owner: e.ID, Inventory: e.Features.Inventory.Snapshot()},
		actions.DeleteActors{IDs: []model.EntityID{j.What}},
	}
	return done
}

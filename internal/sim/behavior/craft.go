package behavior

import (
	"time"

	"github.com/signalsfoundry/world-simulator/internal/sim/actions"
	"github.com/signalsfoundry/world-simulator/internal/sim/craft"
	"github.com/signalsfoundry/world-simulator/internal/sim/events"
	"github.com/signalsfoundry/world-simulator/internal/sim/state"
	"github.com/signalsfoundry/world-simulator/model"
)

// CraftTask crafts an assembly out of the crafter's inventory.
type CraftTask struct {
	Crafter  model.EntityID
	Assembly *craft.Assembly
	Duration time.Duration
}

func (t *CraftTask) Start(*state.State) []actions.Action {
	return []actions.Action{actions.CraftStart{Crafter: t.Crafter}}
}

func (t *CraftTask) Finish(*state.State) []actions.Action {
	return []actions.Action{actions.CraftEnd{Crafter: t.Crafter}}
}

func (t *CraftTask) Job() state.Job {
	return &CraftJob{Assembly: t.Assembly, Duration: t.Duration}
}

// CraftJob performs the craft once Duration has passed. The assembly is
// validated again at that point.
type CraftJob struct {
	Assembly *craft.Assembly
	Duration time.Duration
}

func (j *CraftJob) StartDelay() time.Duration { return j.Duration }

func (j *CraftJob) Execute(e *state.Entity, s *state.State) state.JobResult {
	result := state.JobResult{Repeat: state.RepeatWith{Event: events.Finished{Entity: e.ID}}}
	inv := e.Features.Inventory
	if inv == nil {
		return result
	}
	if crafted := s.CraftEntity(j.Assembly, inv); !crafted.Empty() {
		result.Actions = []actions.Action{
			actions.UpdateInventory{Owner: e.ID, Inventory: inv.Snapshot()},
		}
	}
	return result
}

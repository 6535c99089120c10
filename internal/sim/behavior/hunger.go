package behavior

import (
	"time"

	"github.com/signalsfoundry/world-simulator/internal/sim/actions"
	"github.com/signalsfoundry/world-simulator/internal/sim/state"
)

const (
	// HungerInterval is the period of the hunger drain.
	HungerInterval = time.Second
	// HungerPerTick is how much hunger drains per period.
	HungerPerTick = 1.0
)

// HungerDrainJob lowers an eater's hunger every Interval and reports the new
// stats. It runs for as long as its entity exists.
type HungerDrainJob struct {
	Interval time.Duration
}

// NewHungerDrainJob returns a drain job with the default period.
func NewHungerDrainJob() *HungerDrainJob {
	return &HungerDrainJob{Interval: HungerInterval}
}

func (j *HungerDrainJob) StartDelay() time.Duration { return j.Interval }

func (j *HungerDrainJob) Execute(e *state.Entity, _ *state.State) state.JobResult {
	if e.Features.Eater == nil {
		return state.Done()
	}
	e.Features.Eater.Deduce(HungerPerTick)
	return state.JobResult{
		Actions: []actions.Action{actions.StatUpdate{ID: e.ID, Stats: e.Features.Eater.Stats()}},
		Repeat:  state.RepeatAfter(j.Interval),
	}
}

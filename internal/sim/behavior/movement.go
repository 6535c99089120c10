package behavior

import (
	"time"

	"github.com/signalsfoundry/world-simulator/core"
	"github.com/signalsfoundry/world-simulator/internal/sim/actions"
	"github.com/signalsfoundry/world-simulator/internal/sim/events"
	"github.com/signalsfoundry/world-simulator/internal/sim/state"
	"github.com/signalsfoundry/world-simulator/model"
)

// MovementTask walks an entity along a bearing for at most Duration. When it
// finishes, early or not, the entity is moved to where it got and a Localize
// action is emitted.
type MovementTask struct {
	Entity   model.EntityID
	Speed    float64
	Bearing  float64
	Duration time.Duration

	started time.Time
}

// NewMovementTask returns a movement task.
func NewMovementTask(id model.EntityID, speed, bearing float64, duration time.Duration) *MovementTask {
	return &MovementTask{Entity: id, Speed: speed, Bearing: bearing, Duration: duration}
}

func (t *MovementTask) Start(s *state.State) []actions.Action {
	t.started = s.Now()
	return []actions.Action{actions.Movement{
		ID:       t.Entity,
		Speed:    t.Speed,
		Bearing:  t.Bearing,
		Duration: t.Duration,
	}}
}

func (t *MovementTask) Finish(s *state.State) []actions.Action {
	e := s.Entity(t.Entity)
	if e == nil || e.Position == nil {
		return nil
	}
	elapsed := s.Now().Sub(t.started)
	e.SetPosition(core.Travel(s.Elevation(), *e.Position, t.Speed, t.Bearing, elapsed, t.Duration))
	return []actions.Action{actions.Localize{ID: t.Entity, Position: *e.Position}}
}

func (t *MovementTask) Job() state.Job {
	return &MovementJob{Duration: t.Duration, Event: events.Finished{Entity: t.Entity}}
}

// MovementJob ends a walk after Duration by delivering Event.
type MovementJob struct {
	Duration time.Duration
	Event    events.Event
}

func (j *MovementJob) StartDelay() time.Duration { return j.Duration }

func (j *MovementJob) Execute(*state.Entity, *state.State) state.JobResult {
	if j.Event == nil {
		return state.Done()
	}
	return state.JobResult{Repeat: state.RepeatWith{Event: j.Event}}
}

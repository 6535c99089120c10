package state

import (
	"fmt"
	"time"

	"github.com/signalsfoundry/world-simulator/core"
	"github.com/signalsfoundry/world-simulator/internal/sim/actions"
	"github.com/signalsfoundry/world-simulator/internal/sim/craft"
	"github.com/signalsfoundry/world-simulator/internal/sim/events"
	"github.com/signalsfoundry/world-simulator/internal/sim/features"
	"github.com/signalsfoundry/world-simulator/model"
)

// Kind is the per-variant decision table of an entity. HandleEvent may
// replace e.Task and queue reactions, but never schedules or performs I/O.
// Events a kind has no rule for are ignored.
type Kind interface {
	Codename() string
	Essence() craft.Essence
	HandleEvent(e *Entity, ev events.Event)
}

// Task is the behavior currently owning an entity. Finish of the old task
// always completes before Start of the new one.
type Task interface {
	Start(s *State) []actions.Action
	Finish(s *State) []actions.Action
	// Job returns the work to schedule for this task, or nil.
	Job() Job
}

// Job is a schedulable unit of work bound to one entity.
type Job interface {
	StartDelay() time.Duration
	Execute(e *Entity, s *State) JobResult
}

// JobResult is what a job execution produced.
type JobResult struct {
	Actions []actions.Action
	// Repeat is nil when the job is done.
	Repeat Repeat
}

// Repeat tells the engine what to do after a job ran: RepeatAfter reschedules
// the same job, RepeatWith delivers an event to the entity right away.
type Repeat interface{ isRepeat() }

// RepeatAfter reschedules the job after the given delay.
type RepeatAfter time.Duration

// RepeatWith delivers Event immediately.
type RepeatWith struct{ Event events.Event }

func (RepeatAfter) isRepeat() {}
func (RepeatWith) isRepeat()  {}

// Done is a JobResult that ends the job without output.
func Done() JobResult { return JobResult{} }

// IdleTask is the default task. A new one is allocated on every use, so two
// idle entities never share a task value.
type IdleTask struct {
	Entity model.EntityID
}

// NewIdleTask returns an idle task for the entity.
func NewIdleTask(id model.EntityID) *IdleTask { return &IdleTask{Entity: id} }

func (*IdleTask) Start(*State) []actions.Action  { return nil }
func (*IdleTask) Finish(*State) []actions.Action { return nil }
func (*IdleTask) Job() Job                       { return nil }

// IsIdle reports whether t is an IdleTask.
func IsIdle(t Task) bool {
	_, ok := t.(*IdleTask)
	return ok
}

// Entity is one thing in the world. Entities are owned by State; tasks and
// jobs refer to them by id only.
type Entity struct {
	ID model.EntityID
	// Position is nil while the entity is held in an inventory.
	Position *core.Point
	Task     Task
	Features features.Set
	Kind     Kind

	reactions []Job
}

// NewEntity returns an idle entity of the given kind.
func NewEntity(kind Kind, position *core.Point, set features.Set) *Entity {
	e := &Entity{Kind: kind, Features: set}
	if position != nil {
		p := *position
		e.Position = &p
	}
	e.Task = NewIdleTask(0)
	return e
}

// Codename names the entity variant (hero, axe, ...).
func (e *Entity) Codename() string {
	if e.Kind == nil {
		return ""
	}
	return e.Kind.Codename()
}

// Essence is the crafting category of the entity.
func (e *Entity) Essence() craft.Essence {
	if e.Kind == nil {
		return craft.EssenceVoid
	}
	return e.Kind.Essence()
}

// HandleEvent runs the entity's decision table.
func (e *Entity) HandleEvent(ev events.Event) {
	if e.Kind != nil {
		e.Kind.HandleEvent(e, ev)
	}
}

// React queues a one-shot job to be scheduled once the current event has
// been handled. Reactions do not replace the current task.
func (e *Entity) React(job Job) {
	if job != nil {
		e.reactions = append(e.reactions, job)
	}
}

// TakeReactions returns and clears the queued reactions.
func (e *Entity) TakeReactions() []Job {
	r := e.reactions
	e.reactions = nil
	return r
}

// SetPosition places the entity at p.
func (e *Entity) SetPosition(p core.Point) {
	e.Position = &p
}

// Placed reports whether the entity is in the world, as opposed to held.
func (e *Entity) Placed() bool { return e.Position != nil }

// Quantity is the stack size for stackable entities and 1 otherwise.
func (e *Entity) Quantity() int {
	if e.Features.Stackable != nil {
		return e.Features.Stackable.Size
	}
	return 1
}

// Entry describes the entity as an inventory entry.
func (e *Entity) Entry() *features.Entry {
	volume := 0
	if e.Features.Inventorable != nil {
		volume = e.Features.Inventorable.Volume
	}
	return &features.Entry{
		ID:       e.ID,
		Essence:  e.Essence(),
		Quantity: e.Quantity(),
		Volume:   volume,
		Codename: e.Codename(),
	}
}

// Actor returns the client view of a placed entity.
func (e *Entity) Actor() (actions.Actor, bool) {
	if e.Position == nil {
		return actions.Actor{}, false
	}
	return actions.Actor{ID: e.ID, Codename: e.Codename(), Position: *e.Position}, true
}

// MustInventory returns the inventory and panics if the entity has none.
func (e *Entity) MustInventory() *features.Inventory {
	if e.Features.Inventory == nil {
		panic(fmt.Sprintf("entity %d (%s) has no inventory", e.ID, e.Codename()))
	}
	return e.Features.Inventory
}

// MustEater returns the eater feature and panics if the entity has none.
func (e *Entity) MustEater() *features.Eater {
	if e.Features.Eater == nil {
		panic(fmt.Sprintf("entity %d (%s) is not an eater", e.ID, e.Codename()))
	}
	return e.Features.Eater
}

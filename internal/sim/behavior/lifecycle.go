package behavior

import (
	"github.com/signalsfoundry/world-simulator/internal/sim/actions"
	"github.com/signalsfoundry/world-simulator/internal/sim/state"
	"github.com/signalsfoundry/world-simulator/model"
)

// FellTask removes a destroyed tree from the world and drops Quantity units
// of Drop where it stood.
type FellTask struct {
	Tree     model.EntityID
	Drop     string
	Quantity int
}

func (t *FellTask) Start(s *state.State) []actions.Action {
	tree := s.Entity(t.Tree)
	if tree == nil {
		return nil
	}
	at := tree.Position
	var out []actions.Action
	if ids := removeFromWorld(s, t.Tree); len(ids) > 0 {
		out = append(out, actions.DeleteActors{IDs: ids})
	}

	if at == nil || t.Drop == "" || t.Quantity <= 0 || s.Factory() == nil {
		return out
	}
	drop, err := s.Factory().Create(t.Drop, at)
	if err != nil {
		return out
	}
	if drop.Features.Stackable != nil {
		drop.Features.Stackable.Size = t.Quantity
	}
	if _, err := s.AddEntity(drop); err != nil {
		return out
	}
	if actor, ok := drop.Actor(); ok {
		out = append(out, actions.CreateActors{Actors: []actions.Actor{actor}})
	}
	return out
}

func (t *FellTask) Finish(*state.State) []actions.Action { return nil }
func (t *FellTask) Job() state.Job                      { return nil }

// DeathTask removes a destroyed creature.
type DeathTask struct {
	Entity model.EntityID
}

func (t *DeathTask) Start(s *state.State) []actions.Action {
	ids := removeFromWorld(s, t.Entity)
	if len(ids) == 0 {
		return nil
	}
	return []actions.Action{actions.DeleteActors{IDs: ids}}
}

func (t *DeathTask) Finish(*state.State) []actions.Action { return nil }
func (t *DeathTask) Job() state.Job                      { return nil }

// removeFromWorld deletes the entity and returns the ids of the removed
// entities clients can see.
func removeFromWorld(s *state.State, id model.EntityID) []model.EntityID {
	e := s.Entity(id)
	if e == nil {
		return nil
	}
	placed := e.Placed()
	s.DeleteEntity(id)
	if !placed {
		return nil
	}
	return []model.EntityID{id}
}

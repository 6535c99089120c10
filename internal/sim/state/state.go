// Package state owns every entity of the world together with the geometry
// and crafting context they live in.
//
// State is not safe for concurrent use. All mutation happens on the engine's
// single dispatch goroutine; other goroutines must go through the engine.
package state

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/signalsfoundry/world-simulator/core"
	"github.com/signalsfoundry/world-simulator/internal/logging"
	"github.com/signalsfoundry/world-simulator/internal/sim/actions"
	"github.com/signalsfoundry/world-simulator/internal/sim/craft"
	"github.com/signalsfoundry/world-simulator/model"
	"github.com/signalsfoundry/world-simulator/timectrl"
)

// MaxIDAttempts bounds the random id allocation retries.
const MaxIDAttempts = 64

// maxSafeID keeps ids exactly representable as JSON numbers.
const maxSafeID = 1<<53 - 1

var (
	// ErrEntityExists indicates an entity with the same id is registered.
	ErrEntityExists = errors.New("entity already exists")
	// ErrEntityNotFound indicates a requested entity was not found.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrIDSpaceExhausted indicates no free id was found within MaxIDAttempts.
	ErrIDSpaceExhausted = errors.New("entity id space exhausted")
)

// RecipeCatalog resolves recipes by codename.
type RecipeCatalog interface {
	Recipe(codename string) (*craft.Recipe, error)
}

// Factory creates unregistered entities by codename.
type Factory interface {
	Create(codename string, position *core.Point) (*Entity, error)
}

// MetricsRecorder receives entity count updates.
type MetricsRecorder interface {
	SetEntityCounts(total, placed int)
}

// State is the entity registry.
type State struct {
	entities  map[model.EntityID]*Entity
	elevation core.Elevation
	clock     timectrl.SimClock
	recipes   RecipeCatalog
	factory   Factory
	rng       *rand.Rand
	idSpace   uint64

	// log is an optional structured logger for state-level events.
	log logging.Logger

	// metrics is an optional recorder for Prometheus-friendly gauges.
	metrics MetricsRecorder
}

// Option customises State construction.
type Option func(*State)

// WithRecipes attaches the recipe catalog used for crafting.
func WithRecipes(r RecipeCatalog) Option {
	return func(s *State) { s.recipes = r }
}

// WithFactory attaches the factory used to build crafted or dropped items.
func WithFactory(f Factory) Option {
	return func(s *State) { s.factory = f }
}

// WithRand sets the random source used for ids.
func WithRand(r *rand.Rand) Option {
	return func(s *State) { s.rng = r }
}

// WithClock sets the clock tasks read the current moment from.
func WithClock(c timectrl.SimClock) Option {
	return func(s *State) { s.clock = c }
}

// WithIDSpace limits ids to [1, n].
func WithIDSpace(n uint64) Option {
	return func(s *State) {
		if n > 0 {
			s.idSpace = n
		}
	}
}

// WithMetricsRecorder attaches an optional metrics recorder for entity counts.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *State) { s.metrics = m }
}

// New returns an empty world on the given elevation.
func New(elevation core.Elevation, log logging.Logger, opts ...Option) *State {
	if log == nil {
		log = logging.Noop()
	}
	s := &State{
		entities:  make(map[model.EntityID]*Entity),
		elevation: elevation,
		clock:     timectrl.WallClock{},
		idSpace:   maxSafeID,
		log:       log,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed))
	}
	s.updateMetrics()
	return s
}

// Elevation returns the geometry provider.
func (s *State) Elevation() core.Elevation { return s.elevation }

// Radius returns the world radius.
func (s *State) Radius() float64 { return s.elevation.Radius() }

// Now returns the current simulation moment.
func (s *State) Now() time.Time { return s.clock.Now() }

// Rand exposes the world's random source for behavior that needs one.
func (s *State) Rand() *rand.Rand { return s.rng }

// Factory returns the configured entity factory, or nil.
func (s *State) Factory() Factory { return s.factory }

// MovePoint moves p by distance along bearing on the world surface.
func (s *State) MovePoint(p core.Point, distance, bearing float64) core.Point {
	return s.elevation.MovePoint(p, distance, bearing)
}

// AddEntity registers e under a fresh random id.
func (s *State) AddEntity(e *Entity) (model.EntityID, error) {
	id, err := s.newID()
	if err != nil {
		return 0, err
	}
	e.ID = id
	if err := s.InsertEntity(e); err != nil {
		return 0, err
	}
	return id, nil
}

// InsertEntity registers e under its preset id.
func (s *State) InsertEntity(e *Entity) error {
	if e.ID == 0 {
		return fmt.Errorf("insert entity: zero id")
	}
	if _, exists := s.entities[e.ID]; exists {
		return fmt.Errorf("%w: %d", ErrEntityExists, e.ID)
	}
	s.register(e.ID, e)
	return nil
}

func (s *State) newID() (model.EntityID, error) {
	for range MaxIDAttempts {
		id := model.EntityID(1 + s.rng.Uint64N(s.idSpace))
		if _, taken := s.entities[id]; !taken {
			return id, nil
		}
	}
	s.log.Error(context.Background(), "entity id allocation failed",
		logging.Int("attempts", MaxIDAttempts),
		logging.Int("entities", len(s.entities)),
	)
	return 0, ErrIDSpaceExhausted
}

func (s *State) register(id model.EntityID, e *Entity) {
	e.ID = id
	if e.Task == nil {
		e.Task = NewIdleTask(id)
	} else if idle, ok := e.Task.(*IdleTask); ok {
		idle.Entity = id
	}
	s.entities[id] = e
	s.updateMetrics()
}

// DeleteEntity removes the entity, purges it from the inventory holding it
// and removes everything it holds. It returns the ids of every removed
// entity, the requested one first.
func (s *State) DeleteEntity(id model.EntityID) []model.EntityID {
	removed := s.deleteEntity(id, nil)
	if len(removed) > 0 {
		s.updateMetrics()
	}
	return removed
}

func (s *State) deleteEntity(id model.EntityID, removed []model.EntityID) []model.EntityID {
	e, ok := s.entities[id]
	if !ok {
		return removed
	}
	delete(s.entities, id)
	removed = append(removed, id)

	if inv := e.Features.Inventorable; inv != nil && inv.StoredBy != nil {
		if holder, ok := s.entities[*inv.StoredBy]; ok && holder.Features.Inventory != nil {
			holder.Features.Inventory.Remove(id)
		}
	}
	if e.Features.Inventory != nil {
		for _, held := range e.Features.Inventory.IDs() {
			e.Features.Inventory.Remove(held)
			removed = s.deleteEntity(held, removed)
		}
	}
	return removed
}

// Entity returns the entity with the given id, or nil.
func (s *State) Entity(id model.EntityID) *Entity {
	return s.entities[id]
}

// Len returns the number of registered entities.
func (s *State) Len() int { return len(s.entities) }

// Entities returns all entities ordered by id. The slice is a snapshot; the
// entities are not copies.
func (s *State) Entities() []*Entity {
	res := make([]*Entity, 0, len(s.entities))
	for _, e := range s.entities {
		res = append(res, e)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Performers returns the entities with autonomous behavior, ordered by id.
func (s *State) Performers() []*Entity {
	return s.filter(func(e *Entity) bool { return e.Features.Performer != nil })
}

// Eaters returns the entities that get hungry, ordered by id.
func (s *State) Eaters() []*Entity {
	return s.filter(func(e *Entity) bool { return e.Features.Eater != nil })
}

func (s *State) filter(keep func(*Entity) bool) []*Entity {
	var res []*Entity
	for _, e := range s.Entities() {
		if keep(e) {
			res = append(res, e)
		}
	}
	return res
}

// Actors returns the client view of every placed entity, ordered by id.
func (s *State) Actors() []actions.Actor {
	var res []actions.Actor
	for _, e := range s.Entities() {
		if actor, ok := e.Actor(); ok {
			res = append(res, actor)
		}
	}
	return res
}

// Distance returns the surface distance between two placed entities.
func (s *State) Distance(a, b model.EntityID) (float64, bool) {
	ea, eb := s.entities[a], s.entities[b]
	if ea == nil || eb == nil || ea.Position == nil || eb.Position == nil {
		return 0, false
	}
	return s.elevation.Distance(*ea.Position, *eb.Position), true
}

// StoreInHand takes a placed item off the ground and puts it into the
// holder's hand. It fails if the hand is occupied or either side lacks the
// needed feature.
func (s *State) StoreInHand(holder, item *Entity, hand model.Hand) bool {
	inv := holder.Features.Inventory
	if inv == nil || item.Features.Inventorable == nil || holder.ID == item.ID {
		return false
	}
	if inv.Hand(hand) != nil {
		return false
	}
	inv.Store(hand, item.Entry())
	item.Features.Inventorable.SetStoredBy(&holder.ID)
	item.Position = nil
	s.updateMetrics()
	return true
}

// DropFromHand puts the entity held in hand back into the world at the
// holder's position.
func (s *State) DropFromHand(holder *Entity, hand model.Hand) (*Entity, bool) {
	inv := holder.Features.Inventory
	if inv == nil || holder.Position == nil {
		return nil, false
	}
	entry := inv.Hand(hand)
	if entry == nil {
		return nil, false
	}
	item := s.entities[entry.ID]
	inv.Store(hand, nil)
	if item == nil {
		return nil, false
	}
	if item.Features.Inventorable != nil {
		item.Features.Inventorable.SetStoredBy(nil)
	}
	item.SetPosition(*holder.Position)
	s.updateMetrics()
	return item, true
}

func (s *State) updateMetrics() {
	if s == nil || s.metrics == nil {
		return
	}
	placed := 0
	for _, e := range s.entities {
		if e.Position != nil {
			placed++
		}
	}
	s.metrics.SetEntityCounts(len(s.entities), placed)
}

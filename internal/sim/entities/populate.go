package entities

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/world-simulator/core"
	"github.com/signalsfoundry/world-simulator/internal/sim/state"
	"github.com/signalsfoundry/world-simulator/model"
)

// SpawnPoint is where heroes enter the world and around which the initial
// population is scattered.
var SpawnPoint = core.Point{Theta: math.Pi / 2, Phi: 0}

// Spawn asks for Count entities of Codename, each of stack size Quantity if
// stackable (0 keeps the default).
type Spawn struct {
	Codename string `yaml:"codename" json:"codename"`
	Count    int    `yaml:"count" json:"count"`
	Quantity int    `yaml:"quantity,omitempty" json:"quantity,omitempty"`
}

// Population describes the initial content of a world.
type Population struct {
	// Spread is the maximum distance from SpawnPoint.
	Spread float64 `yaml:"spread" json:"spread"`
	Spawns []Spawn `yaml:"spawns" json:"spawns"`
}

// DefaultPopulation is a small world around the spawn point with everything
// an axe takes.
func DefaultPopulation() Population {
	return Population{
		Spread: 15,
		Spawns: []Spawn{
			{Codename: CodenameWarrior, Count: 3},
			{Codename: CodenameSpruce, Count: 8},
			{Codename: CodenameRocks, Count: 6, Quantity: 2},
			{Codename: CodenameGold, Count: 2},
			{Codename: CodenameLog, Count: 3},
			{Codename: CodenameSticks, Count: 4, Quantity: 3},
			{Codename: CodenameAxe, Count: 1},
		},
	}
}

// Populate creates and registers the population. Nothing is registered when
// an entry names an unknown codename.
func Populate(s *state.State, f *Factory, pop Population) ([]model.EntityID, error) {
	var batch []*state.Entity
	for _, spawn := range pop.Spawns {
		for range spawn.Count {
			at := RandomPointNear(s, SpawnPoint, pop.Spread)
			e, err := f.Create(spawn.Codename, &at)
			if err != nil {
				return nil, fmt.Errorf("populate: %w", err)
			}
			if spawn.Quantity > 0 && e.Features.Stackable != nil {
				e.Features.Stackable.Size = spawn.Quantity
			}
			batch = append(batch, e)
		}
	}

	ids := make([]model.EntityID, 0, len(batch))
	for _, e := range batch {
		id, err := s.AddEntity(e)
		if err != nil {
			return ids, fmt.Errorf("populate: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// RandomPointNear returns a point uniformly distributed over the disc of the
// given radius around center.
func RandomPointNear(s *state.State, center core.Point, radius float64) core.Point {
	if radius <= 0 {
		return center
	}
	rng := s.Rand()
	distance := radius * math.Sqrt(rng.Float64())
	bearing := rng.Float64()*2*math.Pi - math.Pi
	return s.MovePoint(center, distance, bearing)
}

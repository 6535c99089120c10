// Package world assembles a runnable simulation from a configuration.
package world

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/signalsfoundry/world-simulator/core"
	"github.com/signalsfoundry/world-simulator/internal/config"
	"github.com/signalsfoundry/world-simulator/internal/logging"
	"github.com/signalsfoundry/world-simulator/internal/sim/engine"
	"github.com/signalsfoundry/world-simulator/internal/sim/entities"
	"github.com/signalsfoundry/world-simulator/internal/sim/proxy"
	"github.com/signalsfoundry/world-simulator/internal/sim/scheduler"
	"github.com/signalsfoundry/world-simulator/internal/sim/state"
	"github.com/signalsfoundry/world-simulator/timectrl"
)

// Deps are the collaborators a world is wired with. Zero values are fine.
type Deps struct {
	Clock timectrl.SimClock
	Log   logging.Logger
	// Output receives every action in addition to the client hub.
	Output proxy.Proxy

	StateMetrics     state.MetricsRecorder
	EngineMetrics    engine.MetricsRecorder
	SchedulerMetrics scheduler.MetricsRecorder
}

// World is a populated simulation ready to Start.
type World struct {
	State     *state.State
	Scheduler *scheduler.Scheduler
	Engine    *engine.Engine
	Hub       *proxy.Hub
	Seed      uint64
}

// Build creates the terrain, recipe catalog, state and engine described by
// cfg and seeds the initial population.
func Build(cfg *config.Config, deps Deps) (*World, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := deps.Log
	if log == nil {
		log = logging.Noop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = timectrl.WallClock{}
	}

	recipes, err := cfg.World.Recipes()
	if err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}

	seed := cfg.World.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	factory := entities.NewFactory(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
	st := state.New(core.NewTerrain(cfg.World.Terrain), log,
		state.WithClock(clock),
		state.WithRecipes(recipes),
		state.WithFactory(factory),
		state.WithRand(rand.New(rand.NewPCG(seed+1, seed))),
		state.WithMetricsRecorder(deps.StateMetrics),
	)

	ids, err := entities.Populate(st, factory, cfg.World.Population)
	if err != nil {
		return nil, err
	}

	sched := scheduler.New(clock, scheduler.WithMetricsRecorder(deps.SchedulerMetrics))
	hub := proxy.NewHub(log)
	eng := engine.New(st, sched, proxy.Tee(hub, deps.Output),
		engine.WithHub(hub),
		engine.WithLogger(log),
		engine.WithMetricsRecorder(deps.EngineMetrics),
		engine.WithSpawnRadius(cfg.World.SpawnRadius),
	)

	log.Info(context.Background(), "world built",
		logging.Uint64("seed", seed),
		logging.Int("entities", len(ids)),
		logging.Int("recipes", recipes.Len()),
		logging.Float64("radius", cfg.World.Terrain.Radius),
	)
	return &World{State: st, Scheduler: sched, Engine: eng, Hub: hub, Seed: seed}, nil
}

package world

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/signalsfoundry/world-simulator/internal/config"
	"github.com/signalsfoundry/world-simulator/internal/sim/entities"
	"github.com/signalsfoundry/world-simulator/internal/sim/proxy"
	"github.com/signalsfoundry/world-simulator/model"
	"github.com/signalsfoundry/world-simulator/timectrl"
)

func seeded(seed uint64) *config.Config {
	cfg := config.Default()
	cfg.World.Seed = seed
	return cfg
}

func ids(w *World) []model.EntityID {
	var out []model.EntityID
	for _, e := range w.State.Entities() {
		out = append(out, e.ID)
	}
	return out
}

func TestBuildPopulatesWorld(t *testing.T) {
	w, err := Build(seeded(42), Deps{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := 0
	for _, s := range entities.DefaultPopulation().Spawns {
		want += s.Count
	}
	if got := w.State.Len(); got != want {
		t.Fatalf("entities = %d, want %d", got, want)
	}
	if w.Seed != 42 {
		t.Fatalf("Seed = %d, want 42", w.Seed)
	}
}

func TestBuildIsDeterministicForASeed(t *testing.T) {
	a, err := Build(seeded(7), Deps{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	b, err := Build(seeded(7), Deps{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !reflect.DeepEqual(ids(a), ids(b)) {
		t.Fatalf("same seed gave different ids")
	}
	if !reflect.DeepEqual(a.State.Actors(), b.State.Actors()) {
		t.Fatalf("same seed gave different placements")
	}
}

func TestBuildRejectsBadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.World.Terrain.Radius = 0
	if _, err := Build(cfg, Deps{}); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("Build error = %v, want ErrInvalid", err)
	}

	cfg = config.Default()
	cfg.World.Population.Spawns = []entities.Spawn{{Codename: "dragon", Count: 1}}
	if _, err := Build(cfg, Deps{}); !errors.Is(err, entities.ErrUnknownCodename) {
		t.Fatalf("Build error = %v, want ErrUnknownCodename", err)
	}
}

func TestBuiltWorldRuns(t *testing.T) {
	clock := timectrl.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	rec := proxy.NewRecorder()
	w, err := Build(seeded(3), Deps{Clock: clock, Output: rec})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	w.Engine.Start()
	w.Engine.RunDue()
	warriors := 0
	for _, s := range entities.DefaultPopulation().Spawns {
		if s.Codename == entities.CodenameWarrior {
			warriors = s.Count
		}
	}
	if got := len(rec.Actions()); got != warriors {
		t.Fatalf("actions after start = %v, want one movement per warrior", rec.Kinds())
	}

	clock.Advance(entities.WarriorWalk)
	w.Engine.RunDue()
	if got := len(rec.Actions()); got != 3*warriors {
		t.Fatalf("actions after one walk = %d, want %d", got, 3*warriors)
	}
}

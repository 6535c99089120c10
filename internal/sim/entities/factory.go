package entities

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/signalsfoundry/world-simulator/core"
	"github.com/signalsfoundry/world-simulator/internal/sim/craft"
	"github.com/signalsfoundry/world-simulator/internal/sim/features"
	"github.com/signalsfoundry/world-simulator/internal/sim/state"
	"github.com/signalsfoundry/world-simulator/model"
)

// ErrUnknownCodename is returned for codenames the factory cannot build.
var ErrUnknownCodename = errors.New("unknown entity codename")

// Factory builds unregistered entities by codename.
type Factory struct {
	rng *rand.Rand
}

// NewFactory returns a factory. rng drives autonomous behavior and must only
// be used from the dispatch goroutine.
func NewFactory(rng *rand.Rand) *Factory {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Factory{rng: rng}
}

// Codenames lists everything the factory can build.
func (f *Factory) Codenames() []string {
	return []string{
		CodenameHero, CodenameWarrior, CodenameSpruce, CodenameRocks, CodenameGold,
		CodenameLog, CodenameSticks, CodenameAxe, CodenameHat,
	}
}

// Create builds an entity at position, or held when position is nil.
func (f *Factory) Create(codename string, position *core.Point) (*state.Entity, error) {
	var (
		kind state.Kind
		set  features.Set
	)
	switch codename {
	case CodenameHero:
		kind = Hero{}
		set = features.Set{
			Eater:     features.NewEater(100, 50),
			Inventory: features.NewInventory(),
		}
	case CodenameWarrior:
		kind = Warrior{rng: f.rng}
		set = features.Set{
			Performer:  &features.Performer{},
			Damageable: features.NewDamageable(30, model.DamageHit),
		}
	case CodenameSpruce:
		kind = Spruce{}
		set = features.Set{Damageable: features.NewDamageable(20, model.DamageChop)}
	case CodenameRocks:
		kind, set = Item{codename, craft.EssenceRocks}, stack(1)
	case CodenameGold:
		kind, set = Item{codename, craft.EssenceGold}, stack(1)
	case CodenameLog:
		kind, set = Item{codename, craft.EssenceLogs}, stack(2)
	case CodenameSticks:
		kind, set = Item{codename, craft.EssenceSticks}, stack(1)
	case CodenameAxe:
		kind = Item{codename, craft.EssenceTool}
		set = features.Set{
			Inventorable: &features.Inventorable{Volume: 3},
			Tool: &features.ToolOrWeapon{Damage: map[model.DamageVariant]float64{
				model.DamageChop: 10,
				model.DamageHit:  3,
			}},
		}
	case CodenameHat:
		kind = Item{codename, craft.EssenceHat}
		set = features.Set{Inventorable: &features.Inventorable{Volume: 2}}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodename, codename)
	}
	return state.NewEntity(kind, position, set), nil
}

func stack(volume int) features.Set {
	return features.Set{
		Inventorable: &features.Inventorable{Volume: volume},
		Stackable:    &features.Stackable{Size: 1},
	}
}

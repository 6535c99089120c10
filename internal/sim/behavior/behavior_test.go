package behavior

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/signalsfoundry/world-simulator/internal/sim/actions"
	"github.com/signalsfoundry/world-simulator/internal/sim/craft"
	"github.com/signalsfoundry/world-simulator/internal/sim/events"
	"github.com/signalsfoundry/world-simulator/internal/sim/state"
	"github.com/signalsfoundry/world-simulator/model"
)

func TestMovementFinishedEarly(t *testing.T) {
	w := newWorld(t)
	hero := w.add(t, newHero(equator))
	start := *hero.Position

	task := NewMovementTask(hero.ID, 2.0, 0.0, 20*time.Second)
	out := task.Start(w.s)
	if len(out) != 1 {
		t.Fatalf("Start actions = %v, want one movement", kinds(out))
	}
	if m, ok := out[0].(actions.Movement); !ok || m.Speed != 2 || m.Duration != 20*time.Second {
		t.Fatalf("Start action = %#v", out[0])
	}

	w.clock.Advance(5 * time.Second)
	out = task.Finish(w.s)
	if len(out) != 1 || out[0].Kind() != "localize" {
		t.Fatalf("Finish actions = %v, want localize", kinds(out))
	}
	moved := w.s.Elevation().Distance(start, *hero.Position)
	if math.Abs(moved-10.0) > 1e-9 {
		t.Fatalf("moved %v, want 10", moved)
	}
	if loc := out[0].(actions.Localize); loc.Position != *hero.Position {
		t.Fatalf("Localize position = %v, want %v", loc.Position, *hero.Position)
	}
}

func TestMovementCappedAtDuration(t *testing.T) {
	w := newWorld(t)
	hero := w.add(t, newHero(equator))
	start := *hero.Position

	task := NewMovementTask(hero.ID, 1.0, math.Pi/2, time.Second)
	task.Start(w.s)
	w.clock.Advance(3 * time.Second)
	task.Finish(w.s)

	moved := w.s.Elevation().Distance(start, *hero.Position)
	if math.Abs(moved-1.0) > 1e-9 {
		t.Fatalf("moved %v, want 1", moved)
	}
}

func TestMovementJobDeliversFinished(t *testing.T) {
	task := NewMovementTask(7, 1, 0, 20*time.Second)
	job := task.Job()
	if job.StartDelay() != 20*time.Second {
		t.Fatalf("StartDelay = %v, want 20s", job.StartDelay())
	}
	finishedFor(t, job.Execute(nil, nil), 7)
}

func TestPickItemInRange(t *testing.T) {
	w := newWorld(t)
	hero := w.add(t, newHero(equator))
	at := near(1.0)
	rocks := w.add(t, newStack("rocks", craft.EssenceRocks, 2, &at))

	task := &PickItemTask{Who: hero.ID, What: rocks.ID, Hand: model.HandRight, Duration: time.Second}
	if got := kinds(task.Start(w.s)); !reflect.DeepEqual(got, []string{"pick_start"}) {
		t.Fatalf("Start actions = %v", got)
	}
	res := task.Job().Execute(hero, w.s)

	want := []string{"pick_end", "update_inventory", "delete_actors"}
	if got := kinds(res.Actions); !reflect.DeepEqual(got, want) {
		t.Fatalf("actions = %v, want %v", got, want)
	}
	if end := res.Actions[0].(actions.PickEnd); end.Who != hero.ID || end.What != rocks.ID {
		t.Fatalf("PickEnd = %+v, want who %d what %d", end, hero.ID, rocks.ID)
	}
	if del := res.Actions[2].(actions.DeleteActors);!reflect.DeepEqual(del.IDs, []model.EntityID{rocks.ID}) {
		t.Fatalf("DeleteActors = %v, want [%d]", del.IDs, rocks.ID)
	}
	if rocks.Position != nil || *rocks.Features.Inventorable.StoredBy != hero.ID {
		t.Fatalf("rocks not held by hero")
	}
	if held := hero.Features.Inventory.Hand(model.HandRight); held == nil || held.ID != rocks.ID || held.Quantity != 2 {
		t.Fatalf("right hand = %+v", held)
	}
	finishedFor(t, res, hero.ID)
}

func TestPickItemOutOfRangeFizzles(t *testing.T) {
	w := newWorld(t)
	hero := w.add(t, newHero(equator))
	at := near(2.0)
	rocks := w.add(t, newStack("rocks", craft.EssenceRocks, 2, &at))

	job := &PickItemJob{Who: hero.ID, What: rocks.ID, Hand: model.HandRight, Duration: time.Second}
	res := job.Execute(hero, w.s)
	if len(res.Actions) != 0 {
		t.Fatalf("actions = %v, want none", kinds(res.Actions))
	}
	if rocks.Position == nil || *rocks.Position != at || rocks.Features.Inventorable.StoredBy != nil {
		t.Fatalf("item moved or changed owner")
	}
	if hero.Features.Inventory.Hand(model.HandRight) != nil {
		t.Fatalf("hero holds something")
	}
}

func TestPickVanishedItem(t *testing.T) {
	w := newWorld(t)
	hero := w.add(t, newHero(equator))
	job := &PickItemJob{Who: hero.ID, What: 999, Hand: model.HandLeft}
	if res := job.Execute(hero, w.s); len(res.Actions) != 0 {
		t.Fatalf("actions = %v, want none", kinds(res.Actions))
	}
}

func TestHungerDrainClampsAtZero(t *testing.T) {
	w := newWorld(t)
	hero := w.add(t, newHero(equator))
	job := NewHungerDrainJob()

	prev := hero.Features.Eater.Hunger
	for i := 0; i < 75; i++ {
		res := job.Execute(hero, w.s)
		if after, ok := res.Repeat.(state.RepeatAfter); !ok || time.Duration(after) != time.Second {
			t.Fatalf("Repeat = %#v, want RepeatAfter(1s)", res.Repeat)
		}
		stat, ok := res.Actions[0].(actions.StatUpdate)
		if !ok || stat.ID != hero.ID {
			t.Fatalf("action = %#v, want stat update", res.Actions[0])
		}
		if stat.Stats.Hunger > prev || stat.Stats.Hunger < 0 {
			t.Fatalf("hunger went from %v to %v", prev, stat.Stats.Hunger)
		}
		prev = stat.Stats.Hunger
	}
	if prev != 0 {
		t.Fatalf("hunger = %v, want 0", prev)
	}
}

func TestUseItemChopsTree(t *testing.T) {
	w := newWorld(t)
	hero := w.add(t, newHero(equator))
	w.hold(t, hero, newAxe(nil), model.HandLeft)
	tree := w.add(t, newTree(near(1.0)))

	res := (&UseItemJob{User: hero.ID, Hand: model.HandLeft, Target: tree.ID}).Execute(hero, w.s)
	want := actions.Damage{Dealer: hero.ID, Receiver: tree.ID, Variant: model.DamageChop, Hand: model.HandLeft}
	if len(res.Actions) != 1 || res.Actions[0] != want {
		t.Fatalf("actions = %#v, want %#v", res.Actions, want)
	}
	with, ok := res.Repeat.(state.RepeatWith)
	if !ok {
		t.Fatalf("Repeat = %#v, want RepeatWith", res.Repeat)
	}
	dmg, ok := with.Event.(events.Damage)
	if !ok || dmg.Entity != tree.ID || dmg.Amount != 10 {
		t.Fatalf("event = %#v, want 10 damage to the tree", with.Event)
	}

	far := w.add(t, newTree(near(5.0)))
	if res := (&UseItemJob{User: hero.ID, Hand: model.HandLeft, Target: far.ID}).Execute(hero, w.s); res.Repeat != nil || len(res.Actions) != 0 {
		t.Fatalf("use out of range = %#v, want nothing", res)
	}
	if res := (&UseItemJob{User: hero.ID, Hand: model.HandRight, Target: tree.ID}).Execute(hero, w.s); res.Repeat != nil {
		t.Fatalf("use with empty hand = %#v, want nothing", res)
	}
}

func TestDropItem(t *testing.T) {
	w := newWorld(t)
	hero := w.add(t, newHero(equator))
	axe := newAxe(nil)
	w.hold(t, hero, axe, model.HandRight)

	res := (&DropItemJob{Holder: hero.ID, Hand: model.HandRight}).Execute(hero, w.s)
	if got := kinds(res.Actions); !reflect.DeepEqual(got, []string{"update_inventory", "create_actors"}) {
		t.Fatalf("actions = %v", got)
	}
	if axe.Position == nil || *axe.Position != *hero.Position {
		t.Fatalf("axe not at the hero's feet")
	}
}

func TestInventoryUpdateSwapAndMerge(t *testing.T) {
	w := newWorld(t)
	hero := w.add(t, newHero(equator))
	inv := hero.Features.Inventory
	first := newStack("rocks", craft.EssenceRocks, 2, nil)
	w.hold(t, hero, first, model.HandLeft)
	second := newStack("rocks", craft.EssenceRocks, 3, nil)
	w.hold(t, hero, second, model.HandRight)

	swap := &InventoryUpdateJob{Owner: hero.ID, Hand: model.HandLeft, Index: 4, Variant: model.UpdateSwap}
	if res := swap.Execute(hero, w.s); len(res.Actions) != 1 {
		t.Fatalf("swap actions = %v", kinds(res.Actions))
	}
	if p := inv.Pocket(4); p == nil || p.ID != first.ID {
		t.Fatalf("pocket 4 = %+v, want first stack", p)
	}

	merge := &InventoryUpdateJob{Owner: hero.ID, Hand: model.HandRight, Index: 4, Variant: model.UpdateMerge}
	if res := merge.Execute(hero, w.s); len(res.Actions) != 1 {
		t.Fatalf("merge actions = %v", kinds(res.Actions))
	}
	if first.Features.Stackable.Size != 5 || inv.Pocket(4).Quantity != 5 {
		t.Fatalf("merged stack = %d (entry %d), want 5", first.Features.Stackable.Size, inv.Pocket(4).Quantity)
	}
	if w.s.Entity(second.ID) != nil || inv.Hand(model.HandRight) != nil {
		t.Fatalf("emptied stack not removed")
	}

	bad := &InventoryUpdateJob{Owner: hero.ID, Hand: model.HandLeft, Index: 99, Variant: model.UpdateSwap}
	if res := bad.Execute(hero, w.s); len(res.Actions) != 0 {
		t.Fatalf("invalid pocket produced %v", kinds(res.Actions))
	}
}

func TestCraftTask(t *testing.T) {
	w := newWorld(t)
	hero := w.add(t, newHero(equator))
	rocks := newStack("rocks", craft.EssenceRocks, 2, nil)
	w.hold(t, hero, rocks, model.HandLeft)
	logs := newStack("log", craft.EssenceLogs, 1, nil)
	w.hold(t, hero, logs, model.HandRight)

	a := &craft.Assembly{RecipeCodename: "axe", Sources: [][]craft.Item{
		{{ActorID: rocks.ID, Essence: craft.EssenceRocks, Quantity: 2}},
		{{ActorID: logs.ID, Essence: craft.EssenceLogs, Quantity: 1}},
	}}
	task := &CraftTask{Crafter: hero.ID, Assembly: a, Duration: time.Second}
	if got := kinds(task.Start(w.s)); !reflect.DeepEqual(got, []string{"craft_start"}) {
		t.Fatalf("Start = %v", got)
	}
	res := task.Job().Execute(hero, w.s)
	if got := kinds(res.Actions); !reflect.DeepEqual(got, []string{"update_inventory"}) {
		t.Fatalf("job actions = %v", got)
	}
	finishedFor(t, res, hero.ID)
	if held := hero.Features.Inventory.Hand(model.HandRight); held == nil || held.Codename != "axe" {
		t.Fatalf("right hand = %+v, want axe", held)
	}
	if got := kinds(task.Finish(w.s)); !reflect.DeepEqual(got, []string{"craft_end"}) {
		t.Fatalf("Finish = %v", got)
	}

	again := task.Job().Execute(hero, w.s)
	if len(again.Actions) != 0 {
		t.Fatalf("stale craft produced %v", kinds(again.Actions))
	}
}

func TestFellTaskDropsLogs(t *testing.T) {
	w := newWorld(t)
	tree := w.add(t, newTree(near(3)))
	task := &FellTask{Tree: tree.ID, Drop: "log", Quantity: 3}

	out := task.Start(w.s)
	if got := kinds(out); !reflect.DeepEqual(got, []string{"delete_actors", "create_actors"}) {
		t.Fatalf("actions = %v", got)
	}
	if w.s.Entity(tree.ID) != nil {
		t.Fatalf("tree still registered")
	}
	created := out[1].(actions.CreateActors).Actors
	if len(created) != 1 || created[0].Codename != "log" || created[0].Position != near(3) {
		t.Fatalf("created = %+v", created)
	}
	if got := w.s.Entity(created[0].ID).Features.Stackable.Size; got != 3 {
		t.Fatalf("log stack = %d, want 3", got)
	}
	if task.Job() != nil {
		t.Fatalf("fell task has a job")
	}
}

func TestDeathTask(t *testing.T) {
	w := newWorld(t)
	hero := w.add(t, newHero(equator))
	out := (&DeathTask{Entity: hero.ID}).Start(w.s)
	if len(out) != 1 || !reflect.DeepEqual(out[0].(actions.DeleteActors).IDs, []model.EntityID{hero.ID}) {
		t.Fatalf("actions = %#v", out)
	}
	if (&DeathTask{Entity: hero.ID}).Start(w.s) != nil {
		t.Fatalf("second death produced actions")
	}
}

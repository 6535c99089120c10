package features

import (
	"testing"

	"github.com/signalsfoundry/world-simulator/internal/sim/craft"
	"github.com/signalsfoundry/world-simulator/model"
)

func TestEaterDeduceClampsAtZero(t *testing.T) {
	e := NewEater(100, 50)
	prev := e.Hunger
	for i := 0; i < 60; i++ {
		e.Deduce(1.0)
		if e.Hunger > prev {
			t.Fatalf("hunger increased: %v -> %v", prev, e.Hunger)
		}
		if e.Hunger < 0 {
			t.Fatalf("hunger = %v, want >= 0", e.Hunger)
		}
		prev = e.Hunger
	}
	if e.Hunger != 0 {
		t.Fatalf("Hunger = %v, want 0", e.Hunger)
	}
	if got := e.Stats(); got.MaxHunger != 100 || got.Hunger != 0 {
		t.Fatalf("Stats() = %+v, want {0 100}", got)
	}
}

func TestDamageableTake(t *testing.T) {
	d := NewDamageable(20, model.DamageChop)
	if d.Take(15) {
		t.Fatalf("destroyed after 15 of 20")
	}
	if d.Take(-3) {
		t.Fatalf("negative damage destroyed the entity")
	}
	if d.Health != 5 {
		t.Fatalf("Health = %v, want 5", d.Health)
	}
	if !d.Take(10) {
		t.Fatalf("not destroyed after lethal damage")
	}
	if d.Health != 0 {
		t.Fatalf("Health = %v, want 0", d.Health)
	}
}

func TestStackableTake(t *testing.T) {
	s := &Stackable{Size: 3}
	if s.Take(2) {
		t.Fatalf("emptied after taking 2 of 3")
	}
	if !s.Take(1) {
		t.Fatalf("not emptied after taking the last unit")
	}
}

func TestToolDamageFor(t *testing.T) {
	axe := &ToolOrWeapon{Damage: map[model.DamageVariant]float64{model.DamageChop: 10}}
	if d, ok := axe.DamageFor(model.DamageChop); !ok || d != 10 {
		t.Fatalf("DamageFor(chop) = %v, %v; want 10, true", d, ok)
	}
	if _, ok := axe.DamageFor(model.DamageSmash); ok {
		t.Fatalf("DamageFor(smash) ok, want false")
	}
	var none *ToolOrWeapon
	if _, ok := none.DamageFor(model.DamageChop); ok {
		t.Fatalf("nil tool deals damage")
	}
}

func TestInventorableStoredByCopies(t *testing.T) {
	var inv Inventorable
	id := model.EntityID(7)
	inv.SetStoredBy(&id)
	id = 8
	if inv.StoredBy == nil || *inv.StoredBy != 7 {
		t.Fatalf("StoredBy = %v, want 7", inv.StoredBy)
	}
	inv.SetStoredBy(nil)
	if inv.StoredBy != nil {
		t.Fatalf("StoredBy = %v, want nil", *inv.StoredBy)
	}
}

func TestInventoryFreeHand(t *testing.T) {
	inv := NewInventory()
	if h, ok := inv.FreeHand(model.HandRight); !ok || h != model.HandRight {
		t.Fatalf("FreeHand(right) = %v, %v; want right, true", h, ok)
	}
	inv.Store(model.HandRight, &Entry{ID: 1})
	if h, ok := inv.FreeHand(model.HandRight); !ok || h != model.HandLeft {
		t.Fatalf("FreeHand(right) = %v, %v; want left, true", h, ok)
	}
	inv.Store(model.HandLeft, &Entry{ID: 2})
	if _, ok := inv.FreeHand(model.HandRight); ok {
		t.Fatalf("FreeHand found a hand in a full inventory")
	}
}

func TestInventorySwapAndMerge(t *testing.T) {
	inv := NewInventory()
	inv.Store(model.HandLeft, &Entry{ID: 1, Essence: craft.EssenceRocks, Quantity: 2})
	inv.Insert(3, &Entry{ID: 2, Essence: craft.EssenceRocks, Quantity: 5})

	if !inv.Swap(model.HandLeft, 3) {
		t.Fatalf("Swap failed")
	}
	if got := inv.Hand(model.HandLeft); got == nil || got.ID != 2 {
		t.Fatalf("left hand = %+v, want id 2", got)
	}
	if got := inv.Pocket(3); got == nil || got.ID != 1 {
		t.Fatalf("pocket 3 = %+v, want id 1", got)
	}

	emptied, ok := inv.Merge(model.HandLeft, 3)
	if !ok || emptied != 2 {
		t.Fatalf("Merge = %v, %v; want 2, true", emptied, ok)
	}
	if inv.Hand(model.HandLeft) != nil {
		t.Fatalf("left hand not emptied by merge")
	}
	if got := inv.Pocket(3).Quantity; got != 7 {
		t.Fatalf("merged quantity = %d, want 7", got)
	}

	inv.Store(model.HandRight, &Entry{ID: 9, Essence: craft.EssenceGold, Quantity: 1})
	if _, ok := inv.Merge(model.HandRight, 3); ok {
		t.Fatalf("merged different essences")
	}
	if inv.Swap(model.HandRight, InventorySize) {
		t.Fatalf("swap with an out-of-range pocket succeeded")
	}
}

func TestInventoryRemoveAndItems(t *testing.T) {
	inv := NewInventory()
	inv.Store(model.HandRight, &Entry{ID: 30, Essence: craft.EssenceLogs, Quantity: 1})
	inv.Insert(0, &Entry{ID: 10, Essence: craft.EssenceRocks, Quantity: 4})
	inv.Insert(5, &Entry{ID: 20, Essence: craft.EssenceGold, Quantity: 1})

	items := inv.Items()
	if len(items) != 3 || items[0].ActorID != 10 || items[2].ActorID != 30 {
		t.Fatalf("Items() = %+v, want ids 10, 20, 30", items)
	}
	if !inv.SetQuantity(10, 1) || inv.Find(10).Quantity != 1 {
		t.Fatalf("SetQuantity did not update the entry")
	}
	if !inv.Remove(30) || inv.Contains(30) {
		t.Fatalf("Remove(30) left the entry behind")
	}
	if inv.Remove(30) {
		t.Fatalf("second Remove(30) reported success")
	}
	if ids := inv.IDs(); len(ids) != 2 {
		t.Fatalf("IDs() = %v, want 2 ids", ids)
	}
}

func TestInventoryCloneIsDeep(t *testing.T) {
	inv := NewInventory()
	inv.Insert(1, &Entry{ID: 4, Quantity: 3})
	clone := inv.Clone()
	clone.SetQuantity(4, 1)
	clone.Remove(4)
	if got := inv.Pocket(1); got == nil || got.Quantity != 3 {
		t.Fatalf("original changed through clone: %+v", got)
	}
	snap := inv.Snapshot()
	if len(snap.Entries) != InventorySize || snap.Entries[1].ID != 4 {
		t.Fatalf("Snapshot entries = %v", snap.Entries)
	}
}

func TestInventoryUnknownHandPanics(t *testing.T) {
	bad := model.Hand(7)
	cases := map[string]func(inv *Inventory){
		"Hand":  func(inv *Inventory) { inv.Hand(bad) },
		"Store": func(inv *Inventory) { inv.Store(bad, &Entry{ID: 1}) },
		"Swap":  func(inv *Inventory) { inv.Swap(bad, 3) },
		"Merge": func(inv *Inventory) { inv.Merge(bad, 3) },
	}
	for name, call := range cases {
		t.Run(name, func(t *testing.T) {
			inv := NewInventory()
			inv.Insert(3, &Entry{ID: 42, Essence: craft.EssenceRocks, Quantity: 1})
			defer func() {
				if recover() == nil {
					t.Fatalf("%s(%v) did not panic", name, bad)
				}
				if !inv.Contains(42) {
					t.Fatalf("pocket entry lost after %s(%v)", name, bad)
				}
			}()
			call(inv)
		})
	}
}

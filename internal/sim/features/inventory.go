package features

import (
	"fmt"
	"sort"

	"github.com/signalsfoundry/world-simulator/internal/sim/craft"
	"github.com/signalsfoundry/world-simulator/model"
)

// InventorySize is the number of pockets besides the two hands.
const InventorySize = 20

// Entry describes one held entity as shown to the owning client.
type Entry struct {
	ID       model.EntityID `json:"id"`
	Essence  craft.Essence  `json:"essence"`
	Quantity int            `json:"current_quantity"`
	Volume   int            `json:"item_volume"`
	Codename string         `json:"codename"`
}

// Item converts the entry to a crafting item.
func (e Entry) Item() craft.Item {
	return craft.Item{ActorID: e.ID, Essence: e.Essence, Quantity: e.Quantity}
}

// Inventory holds entity references in two hands and a row of pockets.
type Inventory struct {
	leftHand  *Entry
	rightHand *Entry
	entries   [InventorySize]*Entry
}

// NewInventory returns an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{}
}

// Hand returns the entry held in hand, or nil. It panics on an unknown hand.
func (inv *Inventory) Hand(hand model.Hand) *Entry {
	return *inv.slot(hand)
}

// Pocket returns the entry at index, or nil when empty or out of range.
func (inv *Inventory) Pocket(index int) *Entry {
	if !validIndex(index) {
		return nil
	}
	return inv.entries[index]
}

// Store puts entry into hand, replacing what was there. A nil entry empties
// the hand. It panics on an unknown hand.
func (inv *Inventory) Store(hand model.Hand, entry *Entry) {
	*inv.slot(hand) = entry
}

func (inv *Inventory) slot(hand model.Hand) **Entry {
	switch hand {
	case model.HandLeft:
		return &inv.leftHand
	case model.HandRight:
		return &inv.rightHand
	default:
		panic(fmt.Sprintf("features: unknown hand %v", hand))
	}
}

// Insert puts entry into the pocket at index. Invalid indices are ignored.
func (inv *Inventory) Insert(index int, entry *Entry) {
	if validIndex(index) {
		inv.entries[index] = entry
	}
}

// Swap exchanges the hand's content with the pocket's content.
func (inv *Inventory) Swap(hand model.Hand, index int) bool {
	h := inv.slot(hand)
	if !validIndex(index) {
		return false
	}
	*h, inv.entries[index] = inv.entries[index], *h
	return true
}

// Merge moves the hand's quantity onto the pocket entry when both hold the
// same essence. The emptied hand entry's id is returned so the caller can
// dispose of the now-empty entity.
func (inv *Inventory) Merge(hand model.Hand, index int) (model.EntityID, bool) {
	inv.slot(hand) // panics on an unknown hand
	if !validIndex(index) {
		return 0, false
	}
	held, pocket := inv.Hand(hand), inv.entries[index]
	if held == nil || pocket == nil || held.ID == pocket.ID || held.Essence != pocket.Essence {
		return 0, false
	}
	pocket.Quantity += held.Quantity
	inv.Store(hand, nil)
	return held.ID, true
}

// FreeHand returns the preferred hand if it is empty, otherwise the other one
// if that is empty.
func (inv *Inventory) FreeHand(preferred model.Hand) (model.Hand, bool) {
	if inv.Hand(preferred) == nil {
		return preferred, true
	}
	if inv.Hand(preferred.Other()) == nil {
		return preferred.Other(), true
	}
	return preferred, false
}

// Find returns the entry for id wherever it is held.
func (inv *Inventory) Find(id model.EntityID) *Entry {
	for _, e := range inv.all() {
		if e != nil && e.ID == id {
			return e
		}
	}
	return nil
}

// Contains reports whether id is held anywhere in the inventory.
func (inv *Inventory) Contains(id model.EntityID) bool {
	return inv.Find(id) != nil
}

// Remove drops id from the inventory.
func (inv *Inventory) Remove(id model.EntityID) bool {
	if inv.leftHand != nil && inv.leftHand.ID == id {
		inv.leftHand = nil
		return true
	}
	if inv.rightHand != nil && inv.rightHand.ID == id {
		inv.rightHand = nil
		return true
	}
	for i, e := range inv.entries {
		if e != nil && e.ID == id {
			inv.entries[i] = nil
			return true
		}
	}
	return false
}

// SetQuantity updates the displayed quantity of id.
func (inv *Inventory) SetQuantity(id model.EntityID, quantity int) bool {
	if e := inv.Find(id); e != nil {
		e.Quantity = quantity
		return true
	}
	return false
}

// IDs returns the ids of every held entity: hands first, then pockets.
func (inv *Inventory) IDs() []model.EntityID {
	var ids []model.EntityID
	for _, e := range inv.all() {
		if e != nil {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// Items returns all held entries as crafting items, ordered by actor id.
func (inv *Inventory) Items() []craft.Item {
	var items []craft.Item
	for _, e := range inv.all() {
		if e != nil {
			items = append(items, e.Item())
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ActorID < items[j].ActorID })
	return items
}

// Clone returns a deep copy.
func (inv *Inventory) Clone() *Inventory {
	out := &Inventory{
		leftHand:  cloneEntry(inv.leftHand),
		rightHand: cloneEntry(inv.rightHand),
	}
	for i, e := range inv.entries {
		out.entries[i] = cloneEntry(e)
	}
	return out
}

// Snapshot is an immutable copy of an inventory suitable for sending to a
// client.
type Snapshot struct {
	LeftHand  *Entry   `json:"left_hand"`
	RightHand *Entry   `json:"right_hand"`
	Entries   []*Entry `json:"entries"`
}

// Snapshot copies the inventory into a Snapshot.
func (inv *Inventory) Snapshot() Snapshot {
	snap := Snapshot{
		LeftHand:  cloneEntry(inv.leftHand),
		RightHand: cloneEntry(inv.rightHand),
		Entries:   make([]*Entry, InventorySize),
	}
	for i, e := range inv.entries {
		snap.Entries[i] = cloneEntry(e)
	}
	return snap
}

func (inv *Inventory) all() []*Entry {
	out := make([]*Entry, 0, InventorySize+2)
	out = append(out, inv.leftHand, inv.rightHand)
	return append(out, inv.entries[:]...)
}

func cloneEntry(e *Entry) *Entry {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

func validIndex(index int) bool {
	return index >= 0 && index < InventorySize
}

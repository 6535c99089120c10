// Package features holds the optional capability records an entity may carry.
// An entity is the composition of the features it has; there is no
// inheritance between entity variants.
package features

import "github.com/signalsfoundry/world-simulator/model"

// Set is the bundle of capabilities attached to one entity. A nil field means
// the capability is absent.
type Set struct {
	Performer    *Performer
	Eater        *Eater
	Inventory    *Inventory
	Inventorable *Inventorable
	Stackable    *Stackable
	Damageable   *Damageable
	Tool         *ToolOrWeapon
}

// Performer marks entities with autonomous behavior. The engine wakes them up
// with a Resume event when the simulation starts.
type Performer struct{}

// Eater tracks hunger.
type Eater struct {
	MaxCapacity float64
	Hunger      float64
}

// NewEater returns an eater with the given capacity and current hunger value.
func NewEater(maxCapacity, hunger float64) *Eater {
	return &Eater{MaxCapacity: maxCapacity, Hunger: hunger}
}

// Deduce lowers the hunger value, never below zero.
func (e *Eater) Deduce(value float64) {
	e.Hunger -= value
	if e.Hunger < 0 {
		e.Hunger = 0
	}
}

// Stats reports the eater's vitals.
func (e *Eater) Stats() model.Stats {
	return model.Stats{Hunger: e.Hunger, MaxHunger: e.MaxCapacity}
}

// Inventorable entities can be held in another entity's inventory.
type Inventorable struct {
	StoredBy *model.EntityID
	Volume   int
}

// SetStoredBy records the holder. Passing nil releases the entity.
func (i *Inventorable) SetStoredBy(id *model.EntityID) {
	if id == nil {
		i.StoredBy = nil
		return
	}
	holder := *id
	i.StoredBy = &holder
}

// Stackable entities represent a pile of identical units.
type Stackable struct {
	Size int
}

// Take removes n units and reports whether the stack is now empty.
func (s *Stackable) Take(n int) bool {
	s.Size -= n
	if s.Size < 0 {
		s.Size = 0
	}
	return s.Size == 0
}

// Damageable entities have health and can be destroyed.
type Damageable struct {
	Health    float64
	MaxHealth float64
	// Variant is the damage variant this entity is sensitive to.
	Variant model.DamageVariant
}

// NewDamageable returns a damageable at full health.
func NewDamageable(maxHealth float64, variant model.DamageVariant) *Damageable {
	return &Damageable{Health: maxHealth, MaxHealth: maxHealth, Variant: variant}
}

// Take applies damage and reports whether the entity is destroyed.
func (d *Damageable) Take(amount float64) bool {
	if amount > 0 {
		d.Health -= amount
	}
	if d.Health < 0 {
		d.Health = 0
	}
	return d.Health == 0
}

// ToolOrWeapon describes how much damage an item deals per variant.
type ToolOrWeapon struct {
	Damage map[model.DamageVariant]float64
}

// DamageFor returns the damage dealt against targets sensitive to variant.
func (t *ToolOrWeapon) DamageFor(variant model.DamageVariant) (float64, bool) {
	if t == nil {
		return 0, false
	}
	d, ok := t.Damage[variant]
	return d, ok && d > 0
}

package model

import (
	"fmt"
	"strings"
)

// EntityID identifies an entity (actor) in the world. Ids are stable once
// assigned and are shared verbatim with clients.
type EntityID uint64

// Hand selects one of the two hands of an inventory holder.
type Hand int

const (
	HandLeft Hand = iota
	HandRight
)

// Other returns the opposite hand.
func (h Hand) Other() Hand {
	if h == HandLeft {
		return HandRight
	}
	return HandLeft
}

func (h Hand) String() string {
	switch h {
	case HandLeft:
		return "LEFT"
	case HandRight:
		return "RIGHT"
	default:
		return fmt.Sprintf("Hand(%d)", int(h))
	}
}

// MarshalText encodes the hand the way clients spell it.
func (h Hand) MarshalText() ([]byte, error) {
	switch h {
	case HandLeft, HandRight:
		return []byte(h.String()), nil
	default:
		return nil, fmt.Errorf("invalid hand %d", int(h))
	}
}

// UnmarshalText accepts "LEFT" or "RIGHT" (case-insensitive).
func (h *Hand) UnmarshalText(b []byte) error {
	switch strings.ToUpper(string(b)) {
	case "LEFT":
		*h = HandLeft
	case "RIGHT":
		*h = HandRight
	default:
		return fmt.Errorf("invalid hand %q", string(b))
	}
	return nil
}

// UpdateVariant tells how an inventory update combines a hand with a pocket.
type UpdateVariant int

const (
	UpdateSwap UpdateVariant = iota
	UpdateMerge
)

func (v UpdateVariant) String() string {
	switch v {
	case UpdateSwap:
		return "SWAP"
	case UpdateMerge:
		return "MERGE"
	default:
		return fmt.Sprintf("UpdateVariant(%d)", int(v))
	}
}

// UnmarshalText accepts "SWAP" or "MERGE" (case-insensitive).
func (v *UpdateVariant) UnmarshalText(b []byte) error {
	switch strings.ToUpper(string(b)) {
	case "SWAP":
		*v = UpdateSwap
	case "MERGE":
		*v = UpdateMerge
	default:
		return fmt.Errorf("invalid update variant %q", string(b))
	}
	return nil
}

// MarshalText encodes the variant name.
func (v UpdateVariant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// DamageVariant describes the kind of harm dealt, which in turn decides how
// effective a given tool or weapon is against a damageable entity.
type DamageVariant int

const (
	DamageNone DamageVariant = iota
	DamageChop
	DamageSmash
	DamageHit
)

func (v DamageVariant) String() string {
	switch v {
	case DamageNone:
		return "none"
	case DamageChop:
		return "chop"
	case DamageSmash:
		return "smash"
	case DamageHit:
		return "hit"
	default:
		return fmt.Sprintf("DamageVariant(%d)", int(v))
	}
}

// MarshalText encodes the variant name.
func (v DamageVariant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText decodes the lower-case variant name.
func (v *DamageVariant) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "none", "":
		*v = DamageNone
	case "chop":
		*v = DamageChop
	case "smash":
		*v = DamageSmash
	case "hit":
		*v = DamageHit
	default:
		return fmt.Errorf("invalid damage variant %q", string(b))
	}
	return nil
}

// Stats is the set of vital statistics reported to the owning client.
type Stats struct {
	Hunger    float64 `json:"hunger"`
	MaxHunger float64 `json:"max_hunger"`
}

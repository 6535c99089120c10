// Package craft describes recipes, their ingredients and the assemblies
// players offer against them.
package craft

import (
	"fmt"
	"strings"
)

// Essence is the general category of a concrete item or entity.
type Essence string

const (
	// Raw materials
	EssenceRocks  Essence = "rocks"
	EssenceGold   Essence = "gold"
	EssenceLogs   Essence = "log"
	EssenceSticks Essence = "sticks"

	// Clothing
	EssenceHat        Essence = "hat"
	EssenceCoat       Essence = "coat"
	EssenceGloves     Essence = "gloves"
	EssenceShoes      Essence = "shoes"
	EssenceBelt       Essence = "belt"
	EssenceBottomWear Essence = "bottom_wear"
	EssenceUpperWear  Essence = "upper_wear"
	EssenceBag        Essence = "bag"

	// Other
	EssencePlant Essence = "plant"
	EssenceHero  Essence = "hero"
	EssenceTool  Essence = "tool"

	// EssenceVoid is the default category of things that never take part in
	// crafting.
	EssenceVoid Essence = "void"
)

// Material is the abstract category of a recipe ingredient. Only items whose
// Essence matches the Material may fill the ingredient.
type Material string

const (
	MaterialFabric   Material = "fabric"
	MaterialGadget   Material = "gadget"
	MaterialLeather  Material = "leather"
	MaterialMeat     Material = "meat"
	MaterialMineral  Material = "mineral"
	MaterialOrnament Material = "ornament"
	MaterialWater    Material = "water"
	MaterialWood     Material = "wood"
)

var materials = map[Material]struct{}{
	MaterialFabric:   {},
	MaterialGadget:   {},
	MaterialLeather:  {},
	MaterialMeat:     {},
	MaterialMineral:  {},
	MaterialOrnament: {},
	MaterialWater:    {},
	MaterialWood:     {},
}

// ParseMaterial validates a material name.
func ParseMaterial(s string) (Material, error) {
	m := Material(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := materials[m]; !ok {
		return "", fmt.Errorf("unknown material %q", s)
	}
	return m, nil
}

type match struct {
	material Material
	essence  Essence
}

// matches is the static Material <-> Essence compatibility table.
var matches = map[match]struct{}{
	{MaterialMineral, EssenceRocks}: {},
	{MaterialMineral, EssenceGold}:  {},
	{MaterialWood, EssenceLogs}:     {},
	{MaterialWood, EssenceSticks}:   {},
}

// Matches reports whether an item of the given essence may be used as an
// ingredient of the given material.
func Matches(material Material, essence Essence) bool {
	_, ok := matches[match{material: material, essence: essence}]
	return ok
}

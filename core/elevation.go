package core

import (
	perlin "github.com/aquilax/go-perlin"
)

// Elevation is the geometry provider the simulation core depends on. It must
// be pure: the same inputs always give the same outputs.
type Elevation interface {
	// Radius returns the mean radius of the world sphere.
	Radius() float64
	// Distance returns the surface distance between two points.
	Distance(a, b Point) float64
	// MovePoint returns the point reached after travelling distance in
	// direction bearing.
	MovePoint(p Point, distance, bearing float64) Point
}

// TerrainParams fully describes a Terrain so clients can rebuild the same
// elevation field locally.
type TerrainParams struct {
	Radius    float64 `json:"radius" yaml:"radius"`
	Seed      int64   `json:"seed" yaml:"seed"`
	Amplitude float64 `json:"amplitude" yaml:"amplitude"` // fraction of the radius
	Frequency float64 `json:"frequency" yaml:"frequency"`
	Alpha     float64 `json:"alpha" yaml:"alpha"`
	Beta      float64 `json:"beta" yaml:"beta"`
	Octaves   int32   `json:"octaves" yaml:"octaves"`
}

// DefaultTerrainParams returns gentle hills on a sphere of the given radius.
func DefaultTerrainParams(radius float64, seed int64) TerrainParams {
	return TerrainParams{
		Radius:    radius,
		Seed:      seed,
		Amplitude: 0.01,
		Frequency: 4,
		Alpha:     2,
		Beta:      2,
		Octaves:   3,
	}
}

// Terrain is a sphere whose surface height is perturbed by Perlin noise.
// Distances are measured on the mean sphere; Height is only informative.
type Terrain struct {
	params TerrainParams
	noise  *perlin.Perlin
}

// NewTerrain builds a terrain from params. Zero alpha/beta/octaves fall back
// to the defaults.
func NewTerrain(params TerrainParams) *Terrain {
	def := DefaultTerrainParams(params.Radius, params.Seed)
	if params.Alpha == 0 {
		params.Alpha = def.Alpha
	}
	if params.Beta == 0 {
		params.Beta = def.Beta
	}
	if params.Octaves == 0 {
		params.Octaves = def.Octaves
	}
	if params.Frequency == 0 {
		params.Frequency = def.Frequency
	}
	return &Terrain{
		params: params,
		noise:  perlin.NewPerlin(params.Alpha, params.Beta, params.Octaves, params.Seed),
	}
}

// NewFlatTerrain returns a perfectly round world.
func NewFlatTerrain(radius float64) *Terrain {
	return NewTerrain(TerrainParams{Radius: radius})
}

// Params returns the parameters the terrain was built with.
func (t *Terrain) Params() TerrainParams {
	return t.params
}

// Radius implements Elevation.
func (t *Terrain) Radius() float64 {
	return t.params.Radius
}

// Distance implements Elevation.
func (t *Terrain) Distance(a, b Point) float64 {
	return a.GreatCircleDistanceTo(b, t.params.Radius)
}

// MovePoint implements Elevation.
func (t *Terrain) MovePoint(p Point, distance, bearing float64) Point {
	return p.MovedBy(distance, bearing, t.params.Radius)
}

// Height returns the distance from the world centre to the surface at p.
// Noise is sampled in 3D on the unit sphere so there is no seam at the
// antimeridian.
func (t *Terrain) Height(p Point) float64 {
	if t.params.Amplitude == 0 {
		return t.params.Radius
	}
	v := p.Cartesian(1).Scale(t.params.Frequency)
	return t.params.Radius * (1 + t.params.Amplitude*t.noise.Noise3D(v.X, v.Y, v.Z))
}

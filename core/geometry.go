package core

import "math"

// Point is a position on the world sphere in spherical coordinates.
// Theta is the polar angle (colatitude, 0 at the north pole, Pi at the south
// pole); Phi is the azimuth (longitude) in (-Pi, Pi].
type Point struct {
	Theta float64 `json:"theta"`
	Phi   float64 `json:"phi"`
}

// Vec3 is a cartesian vector, used when sampling 3D noise on the sphere.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Scale returns v multiplied by k.
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Cartesian converts the point to a cartesian vector on a sphere of the given
// radius.
func (p Point) Cartesian(radius float64) Vec3 {
	sinTheta := math.Sin(p.Theta)
	return Vec3{
		X: radius * sinTheta * math.Cos(p.Phi),
		Y: radius * sinTheta * math.Sin(p.Phi),
		Z: radius * math.Cos(p.Theta),
	}
}

// latitude returns the geographic latitude in radians.
func (p Point) latitude() float64 {
	return math.Pi/2 - p.Theta
}

// GreatCircleDistanceTo returns the distance along the sphere surface between
// two points on a sphere of the given radius (haversine formula).
func (p Point) GreatCircleDistanceTo(other Point, radius float64) float64 {
	lat1, lat2 := p.latitude(), other.latitude()
	dLat := lat2 - lat1
	dLon := other.Phi - p.Phi

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	if a > 1 {
		a = 1
	}
	return 2 * radius * math.Asin(math.Sqrt(a))
}

// MovedBy returns the point reached by travelling distance along the sphere
// surface starting in direction bearing. Bearing 0 points north (towards the
// pole at Theta = 0) and grows clockwise.
func (p Point) MovedBy(distance, bearing, radius float64) Point {
	if radius <= 0 || distance == 0 {
		return p.Normalized()
	}
	delta := distance / radius
	lat1 := p.latitude()

	sinLat2 := math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(bearing)
	if sinLat2 > 1 {
		sinLat2 = 1
	} else if sinLat2 < -1 {
		sinLat2 = -1
	}
	lat2 := math.Asin(sinLat2)
	lon2 := p.Phi + math.Atan2(
		math.Sin(bearing)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*sinLat2,
	)

	return Point{Theta: math.Pi/2 - lat2, Phi: lon2}.Normalized()
}

// Normalized wraps Phi into (-Pi, Pi] and clamps Theta into [0, Pi].
func (p Point) Normalized() Point {
	phi := math.Mod(p.Phi, 2*math.Pi)
	if phi > math.Pi {
		phi -= 2 * math.Pi
	} else if phi <= -math.Pi {
		phi += 2 * math.Pi
	}
	theta := p.Theta
	if theta < 0 {
		theta = 0
	} else if theta > math.Pi {
		theta = math.Pi
	}
	return Point{Theta: theta, Phi: phi}
}

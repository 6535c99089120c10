package core

import "time"

// Displacement returns how far something travelling at speed (units per
// second) gets in elapsed. Negative elapsed counts as zero.
func Displacement(speed float64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return speed * elapsed.Seconds()
}

// Travel returns where a walker starting at from ends up after elapsed,
// capped at limit when limit is positive.
func Travel(e Elevation, from Point, speed, bearing float64, elapsed, limit time.Duration) Point {
	if limit > 0 && elapsed > limit {
		elapsed = limit
	}
	return e.MovePoint(from, Displacement(speed, elapsed), bearing)
}

// Package game implements the deterministic snake simulation shared with the
// browser client: the seeded RNG, food placement, the frame-stepped
// simulator, and server-side replay verification.
package game

import "math"

// Rand returns a deterministic value in [0,1) for the integer input n.
//
// The algorithm is fract(sin(n) * 10000) and must stay bit-identical to the
// client implementation; replacing it requires a lockstep client deploy.
// It is deliberately the only source of randomness in a replay.
func Rand(n int64) float64 {
	s := math.Sin(float64(n)) * 10000
	return s - math.Floor(s)
}

// Point is a grid cell.
type Point struct {
	X int
	Y int
}

// SpawnFood places food for the given seed and food count. k starts at zero
// and increments on every collision with an occupied cell until a free cell
// is found or grid*grid attempts elapse; the last candidate is returned then.
func SpawnFood(seed uint32, foodEaten int, grid int, occupied func(Point) bool) Point {
	var p Point
	for k := 0; k < grid*grid; k++ {
		n := int64(seed) + int64(foodEaten) + int64(k)
		p = Point{
			X: int(Rand(n) * float64(grid)),
			Y: int(Rand(n+1) * float64(grid)),
		}
		if !occupied(p) {
			return p
		}
	}
	return p
}

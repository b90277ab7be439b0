package hex

import "math"

const sqrt3 = 1.7320508075688772

// ToWorld returns the world-space centre of p for a pointy-top layout with the
// given cell size (centre to corner).
func ToWorld(p Position, size float32) (x, y float32) {
	s := float64(size)
	wx := s * sqrt3 * (float64(p.X) + 0.5*float64(p.Y&1))
	wy := s * 1.5 * float64(p.Y)
	return float32(wx), float32(wy)
}

// NearestHex returns the cell whose centre is closest to the world point (wx, wy).
//
// The algebraic inverse of ToWorld is only correct away from cell edges, so the
// estimate and its six neighbours are compared by distance to their centres.
func NearestHex(wx, wy, size float32) Position {
	s := float64(size)
	px, py := float64(wx), float64(wy)

	ex := int(math.Floor((px + sqrt3*s*0.5) / (s * sqrt3)))
	ey := int(math.Floor((py + s*0.5) / (s * 1.5)))
	best := FromOffset(ex, ey)
	bestD := centerDistSq(best, px, py, size)

	for _, n := range best.Neighbors() {
		if d := centerDistSq(n, px, py, size); d < bestD {
			best, bestD = n, d
		}
	}
	return best
}

func centerDistSq(p Position, px, py float64, size float32) float64 {
	cx, cy := ToWorld(p, size)
	dx := float64(cx) - px
	dy := float64(cy) - py
	return dx*dx + dy*dy
}

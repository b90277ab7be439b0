// Package hex provides the hexagonal grid coordinate model.
//
// Cells are addressed in odd-row offset form (X, Y) for array indexing and world
// placement, and in cube form (Q, R, S) with Q+R+S == 0 for distance and
// neighbour math. Both forms are carried on every Position and kept in sync by
// construction, so a Position is safe to compare with == and to use as a map key.
package hex

import "fmt"

// Cube is a cube-space vector. Used both for absolute coordinates and for the
// unit direction offsets in CubeDirections.
type Cube struct {
	Q, R, S int
}

// Add returns c+d.
func (c Cube) Add(d Cube) Cube {
	return Cube{Q: c.Q + d.Q, R: c.R + d.R, S: c.S + d.S}
}

// Sub returns c-d.
func (c Cube) Sub(d Cube) Cube {
	return Cube{Q: c.Q - d.Q, R: c.R - d.R, S: c.S - d.S}
}

// CubeDirections are the six unit neighbour offsets. The order is fixed so that
// neighbour enumeration is deterministic.
var CubeDirections = [6]Cube{
	{Q: 1, R: -1, S: 0},
	{Q: 1, R: 0, S: -1},
	{Q: 0, R: 1, S: -1},
	{Q: -1, R: 1, S: 0},
	{Q: -1, R: 0, S: 1},
	{Q: 0, R: -1, S: 1},
}

// Position is a hex cell address in both offset and cube form.
type Position struct {
	X, Y    int // odd-row offset
	Q, R, S int // cube, Q+R+S == 0
}

// FromOffset builds a Position from odd-row offset coordinates.
func FromOffset(x, y int) Position {
	q := x - (y-(y&1))/2
	r := y
	return Position{X: x, Y: y, Q: q, R: r, S: -q - r}
}

// FromCube builds a Position from cube coordinates q and r (s is derived).
func FromCube(q, r int) Position {
	return Position{X: q + (r-(r&1))/2, Y: r, Q: q, R: r, S: -q - r}
}

// Cube returns the cube form of p.
func (p Position) Cube() Cube {
	return Cube{Q: p.Q, R: p.R, S: p.S}
}

// Add returns the cell reached by moving p by the cube vector d.
func (p Position) Add(d Cube) Position {
	return FromCube(p.Q+d.Q, p.R+d.R)
}

// Neighbors returns the six adjacent cells in CubeDirections order.
// Cells outside any map bounds are included; callers filter them.
func (p Position) Neighbors() [6]Position {
	var out [6]Position
	for i, d := range CubeDirections {
		out[i] = p.Add(d)
	}
	return out
}

// String formats the offset form, which is what level files and logs use.
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Distance returns the number of single-cell steps between a and b.
func Distance(a, b Position) int {
	dq := abs(a.Q - b.Q)
	dr := abs(a.R - b.R)
	ds := abs(a.S - b.S)
	return (dq + dr + ds) / 2
}

// Within returns every cell at distance <= radius from center, including center.
// Order is stable: by Q, then R.
func Within(center Position, radius int) []Position {
	if radius < 0 {
		return nil
	}
	out := make([]Position, 0, 1+3*radius*(radius+1))
	for dq := -radius; dq <= radius; dq++ {
		lo := max(-radius, -dq-radius)
		hi := min(radius, -dq+radius)
		for dr := lo; dr <= hi; dr++ {
			out = append(out, FromCube(center.Q+dq, center.R+dr))
		}
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

package systems

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/hexforage/hex"
)

// FertilityField is a static 0..1 noise map over hex cells. Grass only grows
// on cells at or above the configured threshold.
type FertilityField struct {
	noise     opensimplex.Noise
	scale     float64
	octaves   int
	threshold float64
}

// NewFertilityField creates a field. scale is the base frequency per cell.
func NewFertilityField(seed int64, scale, threshold float64) *FertilityField {
	return &FertilityField{
		noise:     opensimplex.NewNormalized(seed),
		scale:     scale,
		octaves:   3,
		threshold: threshold,
	}
}

// At returns the fertility of a cell in [0,1].
func (f *FertilityField) At(p hex.Position) float64 {
	// Axial -> cartesian so the noise is isotropic on the hex lattice.
	x := float64(p.Q) + float64(p.R)*0.5
	y := float64(p.R) * math.Sqrt(3.0) / 2.0
	return octaveNoise(f.noise, x, y, f.octaves, f.scale, 0.5)
}

// Fertile reports whether grass may grow at p.
func (f *FertilityField) Fertile(p hex.Position) bool {
	return f.At(p) >= f.threshold
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

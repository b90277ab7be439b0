// Level generator - writes a procedural level file and prints a terrain preview.
//
// Usage: go run ./cmd/levelgen -width 32 -height 24 -seed 7 -out meadow.yaml
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pthm-cable/hexforage/components"
	"github.com/pthm-cable/hexforage/hex"
	"github.com/pthm-cable/hexforage/level"
	"github.com/pthm-cable/hexforage/systems"
)

func main() {
	width := flag.Int("width", 32, "Map width in cells")
	height := flag.Int("height", 24, "Map height in cells")
	seed := flag.Int64("seed", 1, "Generator seed")
	rabbits := flag.Int("rabbits", 12, "Rabbit count")
	foxes := flag.Int("foxes", 3, "Fox count")
	grass := flag.Int("grass", -1, "Grass count (-1 = width*height/6)")
	cellSize := flag.Float64("cell-size", 0, "Cell size in world units (0 = use config)")
	rocks := flag.Float64("rocks", 0.8, "Rock noise threshold (0 = no rocks)")
	out := flag.String("out", "", "Output level file (empty = preview only)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	gen := level.DefaultGenConfig(*width, *height, *seed)
	gen.Rabbits = *rabbits
	gen.Foxes = *foxes
	gen.CellSize = *cellSize
	gen.RockThreshold = *rocks
	if *grass >= 0 {
		gen.Grass = *grass
	}

	lvl, err := level.Generate(gen)
	if err != nil {
		slog.Error("failed to generate level", "error", err)
		os.Exit(1)
	}

	field := systems.NewFertilityField(gen.Seed, gen.FertilityScale, gen.FertilityThreshold)
	fmt.Print(preview(lvl, field))

	if *out == "" {
		return
	}
	if err := lvl.WriteYAML(*out); err != nil {
		slog.Error("failed to write level", "error", err)
		os.Exit(1)
	}
	slog.Info("level written",
		"path", *out,
		"rabbits", lvl.Count(components.KindRabbit),
		"foxes", lvl.Count(components.KindFox),
		"grass", lvl.Count(components.KindGrass),
		"obstacles", len(lvl.Obstacles),
	)
}

// preview renders the map as text: # rock, R rabbit, F fox, " grass,
// : fertile, . barren. Odd rows are indented half a cell.
func preview(lvl *level.Level, field *systems.FertilityField) string {
	glyph := make(map[level.Cell]byte, len(lvl.Obstacles)+len(lvl.Entities))
	for _, c := range lvl.Obstacles {
		glyph[c] = '#'
	}
	for _, p := range lvl.Entities {
		c := level.Cell{X: p.X, Y: p.Y}
		kind, _ := p.Kind()
		switch {
		case kind == components.KindRabbit:
			glyph[c] = 'R'
		case kind == components.KindFox:
			glyph[c] = 'F'
		case glyph[c] == 0:
			glyph[c] = '"'
		}
	}

	var b strings.Builder
	minVal, maxVal, total := 1.0, 0.0, 0.0
	for y := 0; y < lvl.Height; y++ {
		if y&1 == 1 {
			b.WriteByte(' ')
		}
		for x := 0; x < lvl.Width; x++ {
			v := field.At(hex.FromOffset(x, y))
			total += v
			minVal = min(minVal, v)
			maxVal = max(maxVal, v)

			g, ok := glyph[level.Cell{X: x, Y: y}]
			if !ok {
				g = '.'
				if field.Fertile(hex.FromOffset(x, y)) {
					g = ':'
				}
			}
			b.WriteByte(g)
			b.WriteByte(' ')
		}
		b.WriteByte('\n')
	}
	avg := total / float64(lvl.Width*lvl.Height)
	fmt.Fprintf(&b, "fertility min %.3f max %.3f avg %.3f\n", minVal, maxVal, avg)
	return b.String()
}

// Package level loads, validates and generates map layouts.
//
// A level fixes the map size and the initial placements. The simulation core
// builds a fresh partition from it every time a level loads.
package level

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/hexforage/components"
	"github.com/pthm-cable/hexforage/hex"
)

// ErrInvalidLevel wraps every schema or bounds failure.
var ErrInvalidLevel = errors.New("invalid level")

//go:embed level.schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("level.schema.json", schemaJSON)

// Cell is an offset coordinate in a level file.
type Cell struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Pos converts to a hex position.
func (c Cell) Pos() hex.Position {
	return hex.FromOffset(c.X, c.Y)
}

// Placement is one initial entity.
type Placement struct {
	Type      string   `yaml:"type"`
	X         int      `yaml:"x"`
	Y         int      `yaml:"y"`
	DecayRate *float64 `yaml:"decay_rate,omitempty"` // overrides the archetype
	Satiety   *int     `yaml:"satiety,omitempty"`    // overrides satiety.initial
}

// Kind resolves the placement type.
func (p Placement) Kind() (components.Kind, error) {
	return components.ParseKind(p.Type)
}

// Pos converts to a hex position.
func (p Placement) Pos() hex.Position {
	return hex.FromOffset(p.X, p.Y)
}

// Level is a map layout.
type Level struct {
	Name      string      `yaml:"name,omitempty"`
	Width     int         `yaml:"width"`
	Height    int         `yaml:"height"`
	CellSize  float64     `yaml:"cell_size,omitempty"` // 0 keeps world.cell_size
	Seed      int64       `yaml:"seed,omitempty"`      // fertility noise seed
	Obstacles []Cell      `yaml:"obstacles,omitempty"`
	Entities  []Placement `yaml:"entities"`
}

// Load reads and validates a level file.
func Load(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading level file: %w", err)
	}
	lvl, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lvl, nil
}

// Parse decodes a YAML level, checks it against the schema and the map bounds.
func Parse(data []byte) (*Level, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing yaml: %v", ErrInvalidLevel, err)
	}
	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	lvl := &Level{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(lvl); err != nil {
		return nil, fmt.Errorf("%w: decoding: %v", ErrInvalidLevel, err)
	}
	if err := lvl.Validate(); err != nil {
		return nil, err
	}
	return lvl, nil
}

// validateSchema round-trips the YAML tree through JSON so the schema sees JSON types.
func validateSchema(doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: level is not a JSON-compatible document: %v", ErrInvalidLevel, err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	return nil
}

// Validate checks bounds and placement exclusivity: one ground entity and one
// other entity per cell, nothing on an obstacle.
func (l *Level) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidLevel, l.Width, l.Height)
	}
	inBounds := func(x, y int) bool {
		return x >= 0 && x < l.Width && y >= 0 && y < l.Height
	}

	blocked := make(map[Cell]bool, len(l.Obstacles))
	for _, c := range l.Obstacles {
		if !inBounds(c.X, c.Y) {
			return fmt.Errorf("%w: obstacle (%d,%d) outside %dx%d", ErrInvalidLevel, c.X, c.Y, l.Width, l.Height)
		}
		blocked[c] = true
	}

	type slot struct {
		cell  Cell
		layer components.Layer
	}
	taken := make(map[slot]int, len(l.Entities))
	for i, p := range l.Entities {
		kind, err := p.Kind()
		if err != nil {
			return fmt.Errorf("%w: entity %d: %v", ErrInvalidLevel, i, err)
		}
		if !inBounds(p.X, p.Y) {
			return fmt.Errorf("%w: entity %d (%s) at (%d,%d) outside %dx%d",
				ErrInvalidLevel, i, p.Type, p.X, p.Y, l.Width, l.Height)
		}
		c := Cell{X: p.X, Y: p.Y}
		if blocked[c] {
			return fmt.Errorf("%w: entity %d (%s) on obstacle (%d,%d)", ErrInvalidLevel, i, p.Type, p.X, p.Y)
		}
		s := slot{cell: c, layer: kind.Layer()}
		if j, dup := taken[s]; dup {
			return fmt.Errorf("%w: entities %d and %d share cell (%d,%d)", ErrInvalidLevel, j, i, p.X, p.Y)
		}
		taken[s] = i
	}
	return nil
}

// WriteYAML writes the level to a file.
func (l *Level) WriteYAML(path string) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshaling level: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing level file: %w", err)
	}
	return nil
}

// Count returns how many placements have the given kind.
func (l *Level) Count(kind components.Kind) int {
	n := 0
	for _, p := range l.Entities {
		if k, err := p.Kind(); err == nil && k == kind {
			n++
		}
	}
	return n
}

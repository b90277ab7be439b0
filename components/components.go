// Package components defines ECS components for the simulation.
package components

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pthm-cable/hexforage/hex"
)

// ErrUnknownKind is returned by ParseKind for names that do not map to a Kind.
var ErrUnknownKind = errors.New("unknown entity kind")

// Kind tags what an entity is. It selects the partition slot and the food chain.
type Kind uint8

const (
	KindCell   Kind = iota // Terrain cell, one per map slot
	KindGrass              // Ground resource
	KindRabbit             // Herbivore agent
	KindFox                // Predator agent
)

// Layer selects which per-cell set of the spatial partition an entity lives in.
type Layer uint8

const (
	LayerCell   Layer = iota // Exclusive terrain slot
	LayerGround              // Ground resources
	LayerOther               // Agents and everything else
)

var kindNames = [...]string{"cell", "grass", "rabbit", "fox"}

// String returns the lowercase name used in level files and logs.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Layer returns the partition layer for k.
func (k Kind) Layer() Layer {
	switch k {
	case KindCell:
		return LayerCell
	case KindGrass:
		return LayerGround
	default:
		return LayerOther
	}
}

// IsAgent reports whether k runs the decision loop.
func (k Kind) IsAgent() bool {
	return k == KindRabbit || k == KindFox
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindCell, KindGrass, KindRabbit, KindFox}
}

// ParseKind maps a level-file name (case-insensitive) to a Kind.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range kindNames {
		if s == n {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Position is an entity's cell plus its world-space centre.
// X and Y are derived from Cell and refreshed on every move.
type Position struct {
	Cell hex.Position
	X, Y float32
}

// Identity carries the stable simulation id and kind of an entity.
type Identity struct {
	ID   uint32
	Kind Kind
}

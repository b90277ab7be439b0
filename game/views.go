package game

import (
	"slices"

	"github.com/pthm-cable/hexforage/components"
)

// AgentView is the read-only state the presentation layer draws each frame.
type AgentView struct {
	ID      uint32  `json:"id"`
	Kind    string  `json:"kind"`
	X       float32 `json:"x"`
	Y       float32 `json:"y"`
	Col     int     `json:"col"`
	Row     int     `json:"row"`
	State   string  `json:"state"`
	Satiety int32   `json:"satiety"`
}

// CellView is an occupied offset cell.
type CellView struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Frame is one published presentation update.
type Frame struct {
	Tick   int32       `json:"tick"`
	Agents []AgentView `json:"agents"`
	Grass  []CellView  `json:"grass"`
}

// Publisher receives frames after a tick completes. Implementations must not
// block the simulation.
type Publisher interface {
	Publish(Frame)
}

// Views returns every agent ordered by ID, and every grass cell.
func (g *Game) Views() ([]AgentView, []CellView) {
	agents := make([]AgentView, 0, g.partition.Count(components.KindRabbit)+g.partition.Count(components.KindFox))
	query := g.agentFilter.Query()
	for query.Next() {
		pos, id, agent := query.Get()
		agents = append(agents, AgentView{
			ID:      id.ID,
			Kind:    id.Kind.String(),
			X:       pos.X,
			Y:       pos.Y,
			Col:     pos.Cell.X,
			Row:     pos.Cell.Y,
			State:   agent.State.String(),
			Satiety: agent.Satiety,
		})
	}
	slices.SortFunc(agents, func(a, b AgentView) int { return int(a.ID) - int(b.ID) })

	placements := g.partition.EntitiesByKind(components.KindGrass)
	grass := make([]CellView, len(placements))
	for i, p := range placements {
		grass[i] = CellView{Col: p.Cell.X, Row: p.Cell.Y}
	}
	return agents, grass
}

// Frame snapshots the current views.
func (g *Game) Frame() Frame {
	agents, grass := g.Views()
	return Frame{Tick: g.tick, Agents: agents, Grass: grass}
}

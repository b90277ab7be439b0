package systems

import "fmt"

// Tick phase identifiers, in execution order.
const (
	PhaseDecay     = "decay"
	PhaseBehavior  = "behavior"
	PhaseRegrowth  = "regrowth"
	PhaseTelemetry = "telemetry"
	PhasePublish   = "publish"
)

// Phase is one step of a simulation tick.
type Phase struct {
	ID          string // used for perf tracking and CSV columns
	Name        string
	Description string
	Run         func(dt float32) // nil until bound
}

// SystemRegistry orders the tick phases and runs them.
// Perf output and logs take their phase names from here.
type SystemRegistry struct {
	phases []Phase
	byID   map[string]int
}

// NewSystemRegistry creates a registry holding the known phases, unbound.
func NewSystemRegistry() *SystemRegistry {
	r := &SystemRegistry{byID: make(map[string]int)}
	r.Register(Phase{ID: PhaseDecay, Name: "Satiety Decay", Description: "Drains satiety every Nth tick"})
	r.Register(Phase{ID: PhaseBehavior, Name: "Behavior", Description: "Idle, explore, forage and flee decisions"})
	r.Register(Phase{ID: PhaseRegrowth, Name: "Regrowth", Description: "Spawns grass on fertile cells"})
	r.Register(Phase{ID: PhaseTelemetry, Name: "Telemetry", Description: "Window stats, bookmarks and CSV output"})
	r.Register(Phase{ID: PhasePublish, Name: "Publish", Description: "Sends frames to observers"})
	return r
}

// Register appends a phase. Panics on a duplicate ID.
func (r *SystemRegistry) Register(p Phase) {
	if _, dup := r.byID[p.ID]; dup {
		panic(fmt.Sprintf("registry: phase %q registered twice", p.ID))
	}
	r.byID[p.ID] = len(r.phases)
	r.phases = append(r.phases, p)
}

// Bind attaches the function run for phase id.
func (r *SystemRegistry) Bind(id string, run func(dt float32)) error {
	i, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("registry: unknown phase %q", id)
	}
	r.phases[i].Run = run
	return nil
}

// Run executes every bound phase in order. before, if set, is called with the
// phase ID ahead of each one.
func (r *SystemRegistry) Run(dt float32, before func(id string)) {
	for _, p := range r.phases {
		if p.Run == nil {
			continue
		}
		if before != nil {
			before(p.ID)
		}
		p.Run(dt)
	}
}

// Name returns the display name for a phase, or the ID itself if unknown.
func (r *SystemRegistry) Name(id string) string {
	if i, ok := r.byID[id]; ok {
		return r.phases[i].Name
	}
	return id
}

// IDs returns all phase IDs in execution order.
func (r *SystemRegistry) IDs() []string {
	ids := make([]string, len(r.phases))
	for i, p := range r.phases {
		ids[i] = p.ID
	}
	return ids
}

package game

import (
	"log/slog"

	"github.com/pthm-cable/hexforage/components"
)

// logWorldState logs a one-line summary of the world.
func (g *Game) logWorldState(msg string) {
	attrs := []any{"tick", g.tick}
	for _, k := range components.Kinds() {
		if k == components.KindCell {
			continue
		}
		attrs = append(attrs,
			k.String(), g.partition.Count(k),
			k.String()+"_removed", g.removed[k],
		)
	}
	slog.Info(msg, attrs...)
}

package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hexforage/camera"
	"github.com/pthm-cable/hexforage/components"
)

// PlaceAtWorld places an entity at the cell nearest a world point.
func (g *Game) PlaceAtWorld(kind components.Kind, wx, wy float32) (ecs.Entity, error) {
	return g.PlaceAt(kind, g.partition.NearestCell(wx, wy))
}

// PlaceAtScreen places an entity under a screen point, e.g. a pointer click.
func (g *Game) PlaceAtScreen(kind components.Kind, sx, sy float32, cam *camera.Camera) (ecs.Entity, error) {
	wx, wy := cam.ScreenToWorld(sx, sy)
	return g.PlaceAtWorld(kind, wx, wy)
}

// NewCamera returns a camera framing the whole map in a viewport.
func (g *Game) NewCamera(viewportW, viewportH float32) *camera.Camera {
	w, h := g.partition.Bounds()
	return camera.New(viewportW, viewportH, w, h)
}

package app

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/philipparndt/arview/internal/preview"
	"github.com/philipparndt/arview/pkg/geometry"
	"github.com/philipparndt/arview/pkg/orbit"
	"github.com/philipparndt/arview/pkg/scene"
)

// resetCameraView returns the rig to the preview framing
func (app *App) resetCameraView() {
	rig := app.Session.preview.Rig
	rig.SetState(orbit.SphericalFromVector(preview.CameraStart.Sub(rig.Pivot())))
}

func toRL(v geometry.Vector3) rl.Vector3 {
	return rl.Vector3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

// raylibCamera converts a scene camera for drawing
func raylibCamera(c *scene.PerspectiveCamera) rl.Camera3D {
	return rl.Camera3D{
		Position:   toRL(c.Position),
		Target:     toRL(c.Target),
		Up:         toRL(c.Up),
		Fovy:       float32(c.FOV * 180 / math.Pi),
		Projection: rl.CameraPerspective,
	}
}

// mouseRay returns the world ray under the mouse cursor
func (app *App) mouseRay() (origin, direction geometry.Vector3) {
	pos := rl.GetMousePosition()
	return app.Session.preview.Camera.Ray(
		float64(pos.X), float64(pos.Y),
		float64(rl.GetScreenWidth()), float64(rl.GetScreenHeight()),
	)
}

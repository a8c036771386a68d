package orbit

import (
	"github.com/charmbracelet/harmonica"
)

// Damper eases the rendered camera toward the rig state.
// It only smooths what is drawn; the rig state itself stays authoritative.
type Damper struct {
	spring  harmonica.Spring
	current SphericalState
	vel     SphericalState
	primed  bool
}

// NewDamper creates a damper stepping at fps frames per second.
// frequency controls speed and ratio the damping (1 is critical).
func NewDamper(fps int, frequency, ratio float64) *Damper {
	return &Damper{spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, ratio)}
}

// Reset snaps the damper to s with no velocity
func (d *Damper) Reset(s SphericalState) {
	d.current = s
	d.vel = SphericalState{}
	d.primed = true
}

// Step advances one frame toward target and returns the smoothed state.
// The first call snaps to target.
func (d *Damper) Step(target SphericalState) SphericalState {
	if !d.primed {
		d.Reset(target)
		return d.current
	}
	d.current.Radius, d.vel.Radius = d.spring.Update(d.current.Radius, d.vel.Radius, target.Radius)
	d.current.Polar, d.vel.Polar = d.spring.Update(d.current.Polar, d.vel.Polar, target.Polar)
	d.current.Azimuth, d.vel.Azimuth = d.spring.Update(d.current.Azimuth, d.vel.Azimuth, target.Azimuth)
	return d.current
}

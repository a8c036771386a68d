// Package orbit keeps a camera on a sphere around a fixed pivot.
//
// The authoritative state is a SphericalState (radius, polar angle measured
// from +Y, azimuth around +Y measured from +Z). Every mutation clamps the
// state into the rig's Limits, so the state is never observed out of bounds.
package orbit

import (
	"errors"
	"fmt"
	"math"

	"github.com/philipparndt/arview/pkg/geometry"
)

// Default limits match the avatar preview framing
const (
	DefaultRotateSensitivity = 0.005
	DefaultMinRadius         = 0.6
	DefaultMaxRadius         = 6.0
	DefaultMinPolar          = 0.01
	DefaultMaxPolar          = math.Pi - 0.01
)

// ErrInvalidLimits is returned by Limits.Validate
var ErrInvalidLimits = errors.New("orbit: invalid limits")

// SphericalState is the camera offset from the pivot
type SphericalState struct {
	Radius  float64
	Polar   float64
	Azimuth float64
}

// Cartesian converts the offset to a vector relative to the pivot
func (s SphericalState) Cartesian() geometry.Vector3 {
	sinPolar := math.Sin(s.Polar)
	return geometry.NewVector3(
		s.Radius*sinPolar*math.Sin(s.Azimuth),
		s.Radius*math.Cos(s.Polar),
		s.Radius*sinPolar*math.Cos(s.Azimuth),
	)
}

// SphericalFromVector derives radius and angles from an offset vector.
// The zero vector yields a zero state.
func SphericalFromVector(v geometry.Vector3) SphericalState {
	r := v.Length()
	if r == 0 {
		return SphericalState{}
	}
	return SphericalState{
		Radius:  r,
		Polar:   math.Acos(math.Max(-1, math.Min(1, v.Y/r))),
		Azimuth: math.Atan2(v.X, v.Z),
	}
}

// Limits bound the rig state and scale pointer input
type Limits struct {
	MinRadius         float64
	MaxRadius         float64
	MinPolar          float64
	MaxPolar          float64
	RotateSensitivity float64
}

// DefaultLimits returns the preview defaults
func DefaultLimits() Limits {
	return Limits{
		MinRadius:         DefaultMinRadius,
		MaxRadius:         DefaultMaxRadius,
		MinPolar:          DefaultMinPolar,
		MaxPolar:          DefaultMaxPolar,
		RotateSensitivity: DefaultRotateSensitivity,
	}
}

// Validate checks that the bounds are ordered and the polar range
// stays strictly inside (0, π)
func (l Limits) Validate() error {
	switch {
	case l.MinRadius < 0 || l.MaxRadius < l.MinRadius:
		return fmt.Errorf("%w: radius range [%v, %v]", ErrInvalidLimits, l.MinRadius, l.MaxRadius)
	case l.MinPolar <= 0 || l.MaxPolar >= math.Pi || l.MaxPolar < l.MinPolar:
		return fmt.Errorf("%w: polar range [%v, %v] must lie inside (0, π)", ErrInvalidLimits, l.MinPolar, l.MaxPolar)
	case l.RotateSensitivity <= 0:
		return fmt.Errorf("%w: rotate sensitivity %v", ErrInvalidLimits, l.RotateSensitivity)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Clamp returns s with radius and polar angle inside the limits
func (l Limits) Clamp(s SphericalState) SphericalState {
	s.Radius = clamp(s.Radius, l.MinRadius, l.MaxRadius)
	s.Polar = clamp(s.Polar, l.MinPolar, l.MaxPolar)
	return s
}

// Camera receives the rig pose
type Camera interface {
	SetPosition(p geometry.Vector3)
	LookAt(target geometry.Vector3)
}

// Rig is a spherical camera rig around a fixed pivot
type Rig struct {
	pivot  geometry.Vector3
	limits Limits
	state  SphericalState
}

// NewRig creates a rig whose initial state is derived from initialPosition - pivot
func NewRig(pivot, initialPosition geometry.Vector3, limits Limits) (*Rig, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	r := &Rig{pivot: pivot, limits: limits}
	r.SetState(SphericalFromVector(initialPosition.Sub(pivot)))
	return r, nil
}

// Pivot returns the fixed orbit center
func (r *Rig) Pivot() geometry.Vector3 {
	return r.pivot
}

// Limits returns the rig bounds
func (r *Rig) Limits() Limits {
	return r.limits
}

// State returns the current spherical offset
func (r *Rig) State() SphericalState {
	return r.state
}

// SetState replaces the state, clamped to the limits
func (r *Rig) SetState(s SphericalState) {
	r.state = r.limits.Clamp(s)
}

// ApplyRotation turns pointer deltas (pixels) into angle changes
func (r *Rig) ApplyRotation(deltaX, deltaY float64) {
	s := r.state
	s.Azimuth -= deltaX * r.limits.RotateSensitivity
	s.Polar -= deltaY * r.limits.RotateSensitivity
	r.SetState(s)
}

// ApplyZoom moves the camera along the view ray by radiusDelta
func (r *Rig) ApplyZoom(radiusDelta float64) {
	s := r.state
	s.Radius += radiusDelta
	r.SetState(s)
}

// SetRadius sets the radius directly, clamped
func (r *Rig) SetRadius(radius float64) {
	s := r.state
	s.Radius = radius
	r.SetState(s)
}

// Pose returns the camera position and its look-at target
func (r *Rig) Pose() (position, target geometry.Vector3) {
	return PoseOf(r.pivot, r.state), r.pivot
}

// Apply pushes the current pose into a camera
func (r *Rig) Apply(cam Camera) {
	position, target := r.Pose()
	cam.SetPosition(position)
	cam.LookAt(target)
}

// PoseOf returns the camera position for a state around pivot
func PoseOf(pivot geometry.Vector3, s SphericalState) geometry.Vector3 {
	return pivot.Add(s.Cartesian())
}

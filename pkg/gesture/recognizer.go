// Package gesture turns raw pointer contacts into orbit rig updates:
// one contact rotates, two contacts pinch-zoom, the wheel zooms at any time.
//
// Deltas are always measured against the Anchor captured at the last
// contact-count change, never frame to frame. Every change in contact count
// captures a fresh anchor from the rig state as it stands at that instant,
// so switching between rotate and pinch never makes the camera jump.
package gesture

import (
	"math"

	"github.com/philipparndt/arview/pkg/orbit"
)

// Mode is the active gesture
type Mode int

const (
	Idle Mode = iota
	Rotating
	Pinching
)

func (m Mode) String() string {
	switch m {
	case Rotating:
		return "rotating"
	case Pinching:
		return "pinching"
	default:
		return "idle"
	}
}

// Defaults for Config
const (
	DefaultWheelSensitivity = 0.001
	DefaultMinPinchDistance = 1e-3
)

// Config scales the non-rotation inputs
type Config struct {
	// WheelSensitivity converts wheel delta units into radius change
	WheelSensitivity float64
	// MinPinchDistance is the smallest contact separation accepted as a pinch baseline
	MinPinchDistance float64
}

// DefaultConfig returns the preview defaults
func DefaultConfig() Config {
	return Config{
		WheelSensitivity: DefaultWheelSensitivity,
		MinPinchDistance: DefaultMinPinchDistance,
	}
}

// Contact is one active pointer
type Contact struct {
	ID   int
	X, Y float64
}

// Anchor is the reference captured when the gesture mode last changed
type Anchor struct {
	Mode          Mode
	Start         orbit.SphericalState
	StartX        float64
	StartY        float64
	StartDistance float64
}

// Recognizer tracks contacts and drives a rig.
// It is not safe for concurrent use; feed it from the input goroutine.
type Recognizer struct {
	rig      *orbit.Rig
	cfg      Config
	contacts map[int]*Contact
	order    []int
	anchor   Anchor
}

// NewRecognizer creates a recognizer bound to rig. Zero config fields take defaults.
func NewRecognizer(rig *orbit.Rig, cfg Config) *Recognizer {
	if cfg.WheelSensitivity == 0 {
		cfg.WheelSensitivity = DefaultWheelSensitivity
	}
	if cfg.MinPinchDistance <= 0 {
		cfg.MinPinchDistance = DefaultMinPinchDistance
	}
	return &Recognizer{
		rig:      rig,
		cfg:      cfg,
		contacts: make(map[int]*Contact),
	}
}

// Mode returns the current gesture mode
func (r *Recognizer) Mode() Mode {
	return r.anchor.Mode
}

// Anchor returns the current gesture anchor
func (r *Recognizer) Anchor() Anchor {
	return r.anchor
}

// ContactCount returns the number of tracked contacts, including ones
// beyond the two that take part in gestures
func (r *Recognizer) ContactCount() int {
	return len(r.order)
}

// Down starts tracking a contact. A repeated id moves the existing contact
// and re-anchors.
func (r *Recognizer) Down(id int, x, y float64) {
	if c, ok := r.contacts[id]; ok {
		c.X, c.Y = x, y
	} else {
		r.contacts[id] = &Contact{ID: id, X: x, Y: y}
		r.order = append(r.order, id)
	}
	r.reanchor()
}

// Move updates a contact and applies the active gesture. Unknown ids are ignored.
func (r *Recognizer) Move(id int, x, y float64) {
	c, ok := r.contacts[id]
	if !ok {
		return
	}
	c.X, c.Y = x, y

	switch r.anchor.Mode {
	case Rotating:
		r.rotate(c)
	case Pinching:
		r.pinch()
	}
}

// Up stops tracking a contact. Unknown ids are ignored.
func (r *Recognizer) Up(id int) {
	if _, ok := r.contacts[id]; !ok {
		return
	}
	delete(r.contacts, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.reanchor()
}

// Cancel is identical to Up
func (r *Recognizer) Cancel(id int) {
	r.Up(id)
}

// Wheel zooms independently of any contact gesture
func (r *Recognizer) Wheel(delta float64) {
	r.rig.ApplyZoom(delta * r.cfg.WheelSensitivity)
}

// Reset drops all contacts and returns to Idle
func (r *Recognizer) Reset() {
	r.contacts = make(map[int]*Contact)
	r.order = nil
	r.anchor = Anchor{Mode: Idle}
}

// reanchor captures a new anchor for the current contact count.
// More than two contacts suspend gestures until the count drops again.
func (r *Recognizer) reanchor() {
	state := r.rig.State()
	switch len(r.order) {
	case 1:
		c := r.contacts[r.order[0]]
		r.anchor = Anchor{Mode: Rotating, Start: state, StartX: c.X, StartY: c.Y}
	case 2:
		r.anchor = Anchor{Mode: Pinching, Start: state, StartDistance: r.pairDistance()}
	default:
		r.anchor = Anchor{Mode: Idle}
	}
}

func (r *Recognizer) pairDistance() float64 {
	a := r.contacts[r.order[0]]
	b := r.contacts[r.order[1]]
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// rotate applies the full delta since the anchor to the anchored angles.
// The radius is left alone so a wheel zoom mid-drag survives.
func (r *Recognizer) rotate(c *Contact) {
	start := r.anchor.Start
	start.Radius = r.rig.State().Radius
	r.rig.SetState(start)
	r.rig.ApplyRotation(c.X-r.anchor.StartX, c.Y-r.anchor.StartY)
}

func (r *Recognizer) pinch() {
	current := r.pairDistance()
	if r.anchor.StartDistance < r.cfg.MinPinchDistance {
		// No usable baseline yet: adopt the first non-degenerate separation.
		if current >= r.cfg.MinPinchDistance {
			r.anchor.StartDistance = current
			r.anchor.Start = r.rig.State()
		}
		return
	}
	if current < r.cfg.MinPinchDistance {
		return
	}
	r.rig.SetRadius(r.anchor.Start.Radius * (r.anchor.StartDistance / current))
}

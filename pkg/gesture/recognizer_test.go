package gesture

import (
	"math"
	"testing"

	"github.com/philipparndt/arview/pkg/geometry"
	"github.com/philipparndt/arview/pkg/orbit"
)

const eps = 1e-9

func newRig(t *testing.T, maxRadius float64) *orbit.Rig {
	t.Helper()
	limits := orbit.DefaultLimits()
	limits.MaxRadius = maxRadius
	rig, err := orbit.NewRig(geometry.NewVector3(0, 0.85, 0), geometry.NewVector3(0, 1.1, 3), limits)
	if err != nil {
		t.Fatalf("NewRig: %v", err)
	}
	return rig
}

func TestModeTransitions(t *testing.T) {
	r := NewRecognizer(newRig(t, 6), Config{})

	if r.Mode() != Idle {
		t.Fatalf("expected idle, got %v", r.Mode())
	}
	r.Down(1, 10, 10)
	if r.Mode() != Rotating {
		t.Fatalf("one contact: expected rotating, got %v", r.Mode())
	}
	r.Down(2, 110, 10)
	if r.Mode() != Pinching {
		t.Fatalf("two contacts: expected pinching, got %v", r.Mode())
	}
	r.Up(2)
	if r.Mode() != Rotating {
		t.Fatalf("back to one contact: expected rotating, got %v", r.Mode())
	}
	r.Cancel(1)
	if r.Mode() != Idle {
		t.Fatalf("no contacts: expected idle, got %v", r.Mode())
	}
}

func TestRotateScenario(t *testing.T) {
	rig := newRig(t, 6)
	r := NewRecognizer(rig, Config{})
	before := rig.State().Azimuth

	r.Down(1, 100, 100)
	if r.Mode() != Rotating {
		t.Fatalf("expected rotating, got %v", r.Mode())
	}
	r.Move(1, 150, 100)

	if got := before - rig.State().Azimuth; math.Abs(got-0.25) > eps {
		t.Errorf("expected azimuth to decrease by 0.25, decreased by %v", got)
	}
}

func TestRotateMeasuresFromAnchor(t *testing.T) {
	rig := newRig(t, 6)
	r := NewRecognizer(rig, Config{})
	before := rig.State().Azimuth

	r.Down(1, 100, 100)
	// Many intermediate moves must not accumulate: only the final offset counts.
	for x := 101.0; x <= 150; x++ {
		r.Move(1, x, 100)
	}

	if got := before - rig.State().Azimuth; math.Abs(got-0.25) > eps {
		t.Errorf("expected total change 0.25, got %v", got)
	}
}

func TestRotateClampRecovers(t *testing.T) {
	rig := newRig(t, 6)
	r := NewRecognizer(rig, Config{})
	before := rig.State().Polar

	r.Down(1, 0, 0)
	r.Move(1, 0, 100000) // slams into the polar clamp
	r.Move(1, 0, 0)      // back to the anchor

	if got := rig.State().Polar; math.Abs(got-before) > eps {
		t.Errorf("returning to the anchor should restore polar %v, got %v", before, got)
	}
}

func pinchSetup(t *testing.T, maxRadius float64) (*orbit.Rig, *Recognizer) {
	t.Helper()
	rig := newRig(t, maxRadius)
	rig.SetRadius(3.0)
	r := NewRecognizer(rig, Config{})
	r.Down(1, 0, 0)
	r.Down(2, 200, 0)
	if r.Anchor().StartDistance != 200 {
		t.Fatalf("expected anchor distance 200, got %v", r.Anchor().StartDistance)
	}
	return rig, r
}

func TestPinchCloserZoomsOut(t *testing.T) {
	rig, r := pinchSetup(t, 10)

	r.Move(2, 100, 0)

	if got := rig.State().Radius; math.Abs(got-6.0) > eps {
		t.Errorf("expected radius 6.0, got %v", got)
	}
}

func TestPinchCloserClampsToMax(t *testing.T) {
	rig, r := pinchSetup(t, 5)

	r.Move(2, 100, 0)

	if got := rig.State().Radius; got != 5 {
		t.Errorf("expected radius clamped to 5, got %v", got)
	}
}

func TestPinchApartZoomsIn(t *testing.T) {
	rig, r := pinchSetup(t, 10)

	r.Move(2, 400, 0)

	if got := rig.State().Radius; math.Abs(got-1.5) > eps {
		t.Errorf("expected radius 1.5, got %v", got)
	}
}

func TestPinchZeroAnchorDistance(t *testing.T) {
	rig := newRig(t, 10)
	rig.SetRadius(3.0)
	r := NewRecognizer(rig, Config{})

	r.Down(1, 50, 50)
	r.Down(2, 50, 50)
	r.Move(2, 50, 50)

	got := rig.State().Radius
	if math.IsNaN(got) || math.IsInf(got, 0) || got != 3.0 {
		t.Fatalf("zero baseline must not change radius, got %v", got)
	}

	// First usable separation becomes the baseline without moving the camera.
	r.Move(2, 150, 50)
	if got := rig.State().Radius; got != 3.0 {
		t.Fatalf("adopting a baseline must not change radius, got %v", got)
	}

	r.Move(2, 100, 50)
	if got := rig.State().Radius; math.Abs(got-6.0) > eps {
		t.Errorf("expected radius 6.0 after halving distance, got %v", got)
	}
}

func TestPinchToRotateHasNoJump(t *testing.T) {
	rig, r := pinchSetup(t, 10)
	r.Move(2, 150, 0)
	r.Move(1, 20, 30)

	before, _ := rig.Pose()
	r.Up(2)
	after, _ := rig.Pose()

	if !before.ApproxEqual(after, eps) {
		t.Fatalf("pose jumped on re-anchor: %v -> %v", before, after)
	}

	anchor := r.Anchor()
	if anchor.Mode != Rotating || anchor.StartX != 20 || anchor.StartY != 30 {
		t.Fatalf("expected fresh anchor at remaining contact, got %+v", anchor)
	}
	if anchor.Start != rig.State() {
		t.Fatalf("anchor must capture the state at re-anchor time")
	}

	// A small move from the remaining contact gives a small change.
	r.Move(1, 21, 30)
	moved, _ := rig.Pose()
	if moved.Distance(after) > 0.05 {
		t.Errorf("one pixel move produced a large jump: %v", moved.Distance(after))
	}
}

func TestMoreThanTwoContactsSuspends(t *testing.T) {
	rig, r := pinchSetup(t, 10)

	r.Down(3, 500, 500)
	if r.Mode() != Idle {
		t.Fatalf("three contacts: expected idle, got %v", r.Mode())
	}
	if r.ContactCount() != 3 {
		t.Fatalf("expected 3 tracked contacts, got %d", r.ContactCount())
	}

	before := rig.State()
	r.Move(2, 10, 0)
	r.Move(3, 0, 900)
	if rig.State() != before {
		t.Fatalf("camera must not change with three contacts")
	}

	r.Up(3)
	if r.Mode() != Pinching {
		t.Fatalf("back to two contacts: expected pinching, got %v", r.Mode())
	}
	if got := r.Anchor().StartDistance; got != 10 {
		t.Errorf("expected anchor recomputed from current contacts (10), got %v", got)
	}
	if rig.State() != before {
		t.Errorf("re-anchoring must not move the camera")
	}
}

func TestUnknownContactsIgnored(t *testing.T) {
	rig := newRig(t, 6)
	r := NewRecognizer(rig, Config{})
	before := rig.State()

	r.Move(42, 10, 10)
	r.Up(42)
	r.Cancel(7)

	if r.Mode() != Idle || r.ContactCount() != 0 {
		t.Errorf("unknown ids should be no-ops, mode=%v count=%d", r.Mode(), r.ContactCount())
	}
	if rig.State() != before {
		t.Errorf("unknown ids must not move the camera")
	}
}

func TestWheelIndependentOfGesture(t *testing.T) {
	rig := newRig(t, 6)
	r := NewRecognizer(rig, Config{WheelSensitivity: 0.001})
	before := rig.State().Radius

	r.Wheel(500)
	if got := rig.State().Radius - before; math.Abs(got-0.5) > eps {
		t.Errorf("expected radius +0.5, got %v", got)
	}
	if r.Mode() != Idle {
		t.Errorf("wheel must not change mode")
	}

	// Zoom survives a rotation drag that started earlier.
	r.Down(1, 0, 0)
	r.Wheel(-200)
	zoomed := rig.State().Radius
	r.Move(1, 10, 0)
	if rig.State().Radius != zoomed {
		t.Errorf("rotation should keep the wheel radius %v, got %v", zoomed, rig.State().Radius)
	}
}

func TestAttachSurface(t *testing.T) {
	rig := newRig(t, 6)
	r := NewRecognizer(rig, Config{})
	surface := NewSurface()

	detach := r.Attach(surface)
	surface.Emit(Event{Kind: EventDown, ID: 1, X: 100, Y: 100})
	if r.Mode() != Rotating {
		t.Fatalf("expected rotating after surface down, got %v", r.Mode())
	}

	detach()
	detach()
	if surface.Subscribers() != 0 {
		t.Errorf("expected no subscribers after detach")
	}
	if r.Mode() != Idle {
		t.Errorf("detach should reset contacts")
	}

	before := rig.State()
	surface.Emit(Event{Kind: EventMove, ID: 1, X: 300, Y: 100})
	if rig.State() != before {
		t.Errorf("detached recognizer must not react")
	}
}

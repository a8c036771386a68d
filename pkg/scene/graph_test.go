package scene

import (
	"math"
	"testing"

	"github.com/philipparndt/arview/pkg/geometry"
)

func TestGraphAddRemove(t *testing.T) {
	g := NewGraph()
	a := NewNode("a", KindModel)
	b := NewNode("b", KindReticle)

	g.Add(a)
	g.Add(a)
	g.Add(b)
	if g.Len() != 2 {
		t.Fatalf("expected 2 nodes, got %d", g.Len())
	}

	if !g.Remove(a) {
		t.Error("expected Remove to report removal")
	}
	if g.Remove(a) {
		t.Error("second Remove should report false")
	}
	if g.Contains(a) || !g.Contains(b) {
		t.Errorf("unexpected contents %v", g.Nodes())
	}
	if g.CountKind(KindReticle) != 1 {
		t.Errorf("expected one reticle")
	}
}

func TestPayloadInstantiate(t *testing.T) {
	p := &Payload{URL: "avatar.glb", Format: FormatGLB}
	n1 := p.Instantiate("one")
	n2 := p.Instantiate("two")

	if n1 == n2 || n1.Payload != p || n2.Payload != p {
		t.Fatal("instances must be distinct nodes sharing the payload")
	}
	if !n1.Visible || n1.Kind != KindModel {
		t.Errorf("unexpected node %+v", n1)
	}
}

func TestCameraRayThroughCenter(t *testing.T) {
	c := NewPerspectiveCamera(45, 0.1, 100)
	c.SetPosition(geometry.NewVector3(0, 2, 5))
	c.LookAt(geometry.NewVector3(0, 0, 0))

	origin, dir := c.Ray(400, 300, 800, 600)
	if origin != c.Position {
		t.Errorf("ray should start at the camera")
	}
	if !dir.ApproxEqual(c.Forward(), 1e-12) {
		t.Errorf("center ray should match forward, got %v", dir)
	}
	if math.Abs(dir.Length()-1) > 1e-12 {
		t.Errorf("ray direction should be unit length")
	}
}

func TestCameraRayRightOfCenter(t *testing.T) {
	c := NewPerspectiveCamera(90, 0.1, 100)
	c.SetPosition(geometry.NewVector3(0, 0, 5))
	c.LookAt(geometry.Vector3{})

	_, dir := c.Ray(800, 300, 800, 600)
	if dir.X <= 0 {
		t.Errorf("right edge ray should point to +X, got %v", dir)
	}
}

package xrsim

import (
	"context"
	"errors"
	"testing"

	"github.com/philipparndt/arview/pkg/geometry"
	"github.com/philipparndt/arview/pkg/xr"
)

func TestFloorHit(t *testing.T) {
	point, ok := FloorHit(geometry.NewVector3(0, 1.5, 0), geometry.NewVector3(0, -1, -1), 0)
	if !ok {
		t.Fatal("expected a hit looking down")
	}
	if !point.ApproxEqual(geometry.NewVector3(0, 0, -1.5), 1e-12) {
		t.Errorf("unexpected hit point %v", point)
	}

	if _, ok := FloorHit(geometry.NewVector3(0, 1.5, 0), geometry.NewVector3(0, 1, -1), 0); ok {
		t.Error("looking up must miss the floor")
	}
	if _, ok := FloorHit(geometry.NewVector3(0, 1.5, 0), geometry.NewVector3(0, 0, -1), 0); ok {
		t.Error("horizontal ray must miss the floor")
	}
}

func TestSessionEndRunsCallbacksOnce(t *testing.T) {
	sys := New(Options{Supported: true})
	sess, err := sys.RequestSession(context.Background(), xr.ImmersiveAR, xr.SessionOptions{Required: []xr.Feature{xr.FeatureHitTest}})
	if err != nil {
		t.Fatalf("RequestSession: %v", err)
	}

	calls := 0
	sess.OnEnd(func() { calls++ })
	_ = sess.End()
	_ = sess.End()

	if calls != 1 {
		t.Errorf("expected one end callback, got %d", calls)
	}
}

func TestRequiredFeatureUnsupported(t *testing.T) {
	sys := New(Options{Supported: true})
	_, err := sys.RequestSession(context.Background(), xr.ImmersiveAR, xr.SessionOptions{Required: []xr.Feature{"anchors"}})
	if !errors.Is(err, ErrUnsupportedFeature) {
		t.Errorf("expected ErrUnsupportedFeature, got %v", err)
	}
}

func TestCancelledSourceYieldsNoHits(t *testing.T) {
	sys := New(Options{Supported: true})
	sess, _ := sys.RequestSession(context.Background(), xr.ImmersiveAR, xr.SessionOptions{})
	space, _ := sess.RequestReferenceSpace(context.Background(), xr.SpaceViewer)
	src, err := sess.RequestHitTestSource(context.Background(), space)
	if err != nil {
		t.Fatalf("RequestHitTestSource: %v", err)
	}

	frame := &Frame{Viewer: geometry.NewVector3(0, 1, 0), Direction: geometry.NewVector3(0, -1, -1)}
	if len(frame.HitTestResults(src)) != 1 {
		t.Fatal("expected one hit before cancel")
	}
	src.Cancel()
	if len(frame.HitTestResults(src)) != 0 {
		t.Error("expected no hits after cancel")
	}
}

// Package xrsim is a simulated AR runtime. Hit tests intersect the viewer
// ray with a horizontal floor plane, which is enough to exercise placement
// on a desktop or in tests. Failures can be injected per call.
package xrsim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/philipparndt/arview/pkg/geometry"
	"github.com/philipparndt/arview/pkg/xr"
)

// ErrUnsupportedFeature is returned for required features the simulator lacks
var ErrUnsupportedFeature = errors.New("xrsim: unsupported required feature")

// Options configure the simulated runtime
type Options struct {
	Supported  bool
	SupportErr error
	RequestErr error
	SpaceErr   error
	HitTestErr error

	// Hooks run just before the matching request returns, on the caller's goroutine
	BeforeSession       func()
	BeforeHitTestSource func()
}

// System implements xr.System
type System struct {
	opts Options

	mu       sync.Mutex
	sessions []*Session
}

// New creates a simulated runtime
func New(opts Options) *System {
	return &System{opts: opts}
}

// IsSessionSupported reports the configured support
func (s *System) IsSessionSupported(ctx context.Context, mode xr.SessionMode) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s.opts.SupportErr != nil {
		return false, s.opts.SupportErr
	}
	return s.opts.Supported && mode == xr.ImmersiveAR, nil
}

// RequestSession starts a simulated session
func (s *System) RequestSession(ctx context.Context, mode xr.SessionMode, opts xr.SessionOptions) (xr.Session, error) {
	if s.opts.BeforeSession != nil {
		s.opts.BeforeSession()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.opts.RequestErr != nil {
		return nil, s.opts.RequestErr
	}
	if mode != xr.ImmersiveAR {
		return nil, fmt.Errorf("xrsim: mode %q not available", mode)
	}
	for _, f := range opts.Required {
		if f != xr.FeatureHitTest {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFeature, f)
		}
	}

	sess := &Session{sys: s}
	s.mu.Lock()
	s.sessions = append(s.sessions, sess)
	s.mu.Unlock()
	return sess, nil
}

// Sessions returns every session handed out so far
func (s *System) Sessions() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Session(nil), s.sessions...)
}

// Session implements xr.Session
type Session struct {
	sys *System

	mu      sync.Mutex
	ended   bool
	onEnd   []func()
	sources []*Source
}

type space struct {
	typ xr.ReferenceSpaceType
}

func (sp space) Type() xr.ReferenceSpaceType { return sp.typ }

// RequestReferenceSpace returns a space of the given type
func (s *Session) RequestReferenceSpace(ctx context.Context, typ xr.ReferenceSpaceType) (xr.ReferenceSpace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.sys.opts.SpaceErr != nil {
		return nil, s.sys.opts.SpaceErr
	}
	return space{typ: typ}, nil
}

// RequestHitTestSource creates a source casting rays from space
func (s *Session) RequestHitTestSource(ctx context.Context, sp xr.ReferenceSpace) (xr.HitTestSource, error) {
	if s.sys.opts.BeforeHitTestSource != nil {
		s.sys.opts.BeforeHitTestSource()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.sys.opts.HitTestErr != nil {
		return nil, s.sys.opts.HitTestErr
	}
	src := &Source{}
	s.mu.Lock()
	s.sources = append(s.sources, src)
	s.mu.Unlock()
	return src, nil
}

// OnEnd registers fn for the end of the session
func (s *Session) OnEnd(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEnd = append(s.onEnd, fn)
}

// End ends the session; end callbacks run once
func (s *Session) End() error {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return nil
	}
	s.ended = true
	callbacks := s.onEnd
	s.onEnd = nil
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
	return nil
}

// Ended reports whether End ran
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// Sources returns the hit-test sources created in this session
func (s *Session) Sources() []*Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Source(nil), s.sources...)
}

// Source implements xr.HitTestSource
type Source struct {
	mu        sync.Mutex
	cancelled int
}

// Cancel releases the source
func (src *Source) Cancel() {
	src.mu.Lock()
	defer src.mu.Unlock()
	src.cancelled++
}

// Cancelled returns how many times Cancel ran
func (src *Source) Cancelled() int {
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.cancelled
}

// Hit implements xr.HitResult with a fixed transform
type Hit struct {
	Transform mgl64.Mat4
}

// Pose returns the hit transform
func (h Hit) Pose(xr.ReferenceSpace) (mgl64.Mat4, bool) {
	return h.Transform, true
}

// Frame implements xr.Frame for a viewer looking along Direction at a floor
type Frame struct {
	Viewer    geometry.Vector3
	Direction geometry.Vector3
	FloorY    float64
	// Lost simulates tracking loss: no pose, no hits
	Lost bool
}

// HitTestResults intersects the viewer ray with the floor plane
func (f *Frame) HitTestResults(source xr.HitTestSource) []xr.HitResult {
	src, ok := source.(*Source)
	if !ok || src.Cancelled() > 0 || f.Lost {
		return nil
	}
	point, ok := FloorHit(f.Viewer, f.Direction, f.FloorY)
	if !ok {
		return nil
	}
	return []xr.HitResult{Hit{Transform: mgl64.Translate3D(point.X, point.Y, point.Z)}}
}

// ViewerPose returns the viewer translation
func (f *Frame) ViewerPose(xr.ReferenceSpace) (mgl64.Mat4, bool) {
	if f.Lost {
		return mgl64.Mat4{}, false
	}
	return mgl64.Translate3D(f.Viewer.X, f.Viewer.Y, f.Viewer.Z), true
}

// FloorHit intersects a ray with the plane y = floorY. Rays parallel to or
// pointing away from the plane miss.
func FloorHit(origin, dir geometry.Vector3, floorY float64) (geometry.Vector3, bool) {
	if dir.Y == 0 {
		return geometry.Vector3{}, false
	}
	t := (floorY - origin.Y) / dir.Y
	if t <= 0 {
		return geometry.Vector3{}, false
	}
	return origin.Add(dir.Mul(t)), true
}

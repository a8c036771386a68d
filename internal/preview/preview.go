// Package preview is the non-AR model preview: an orbiting camera driven by
// pointer gestures, rendered through the shared frame slot.
package preview

import (
	"fmt"
	"log/slog"

	"github.com/philipparndt/arview/internal/platform/logger"
	"github.com/philipparndt/arview/pkg/asset"
	"github.com/philipparndt/arview/pkg/geometry"
	"github.com/philipparndt/arview/pkg/gesture"
	"github.com/philipparndt/arview/pkg/orbit"
	"github.com/philipparndt/arview/pkg/renderloop"
	"github.com/philipparndt/arview/pkg/scene"
)

// Framing for a standing avatar
var (
	Pivot       = geometry.NewVector3(0, 0.85, 0)
	CameraStart = geometry.NewVector3(0, 1.1, 3)
)

const (
	FOV  = 35.0
	Near = 0.1
	Far  = 1000.0

	dampingFrequency = 6.0
	dampingRatio     = 1.0
)

// Config tunes the preview
type Config struct {
	Limits  orbit.Limits
	Gesture gesture.Config
	// FPS is the frame rate the damper steps at; 0 disables damping
	FPS    int
	Logger *slog.Logger
}

// DefaultConfig returns damped 60 fps defaults
func DefaultConfig() Config {
	return Config{
		Limits:  orbit.DefaultLimits(),
		Gesture: gesture.DefaultConfig(),
		FPS:     60,
	}
}

// Session holds everything the preview owns. Fields other than the scene
// graph are read-only after Start.
type Session struct {
	Scene    *scene.Graph
	Camera   *scene.PerspectiveCamera
	Rig      *orbit.Rig
	Gestures *gesture.Recognizer
	Model    *scene.Node

	damper   *orbit.Damper
	driver   *renderloop.Driver
	owner    renderloop.Owner
	renderer scene.Renderer
	detach   func()
	log      *slog.Logger
	stopped  bool
}

// Start builds the preview scene around payload (a placeholder when nil),
// attaches gestures from src (optional) and installs the frame callback.
// It fails with renderloop.ErrResourceConflict when the slot is taken.
func Start(driver *renderloop.Driver, renderer scene.Renderer, src gesture.Source, payload *scene.Payload, cfg Config) (*Session, error) {
	rig, err := orbit.NewRig(Pivot, CameraStart, cfg.Limits)
	if err != nil {
		return nil, fmt.Errorf("preview rig: %w", err)
	}

	s := &Session{
		Scene:    scene.NewGraph(),
		Camera:   scene.NewPerspectiveCamera(FOV, Near, Far),
		Rig:      rig,
		Gestures: gesture.NewRecognizer(rig, cfg.Gesture),
		driver:   driver,
		renderer: renderer,
		log:      logger.OrDefault(cfg.Logger),
	}
	if cfg.FPS > 0 {
		s.damper = orbit.NewDamper(cfg.FPS, dampingFrequency, dampingRatio)
	}
	rig.Apply(s.Camera)

	s.Scene.Add(scene.NewNode("grid", scene.KindHelper))
	s.Scene.Add(scene.NewNode("axes", scene.KindHelper))
	s.SetModel(payload)

	owner, err := driver.Start(s.frame)
	if err != nil {
		return nil, fmt.Errorf("start preview: %w", err)
	}
	s.owner = owner
	if src != nil {
		s.detach = s.Gestures.Attach(src)
	}
	return s, nil
}

// SetModel replaces the previewed model; nil shows the placeholder
func (s *Session) SetModel(payload *scene.Payload) {
	if s.Model != nil {
		s.Scene.Remove(s.Model)
	}

	kind := "model"
	if payload == nil {
		payload = asset.Placeholder()
		kind = "placeholder"
	}
	node := payload.Instantiate(payload.Name)
	if payload.Format == scene.FormatPlaceholder {
		node.Kind = scene.KindPlaceholder
	}
	s.Model = node
	s.Scene.Add(node)
	s.log.Info("preview model", slog.String("kind", kind), slog.String("name", payload.Name))
}

func (s *Session) frame(renderloop.Frame) {
	state := s.Rig.State()
	if s.damper != nil {
		state = s.Rig.Limits().Clamp(s.damper.Step(state))
	}
	s.Camera.SetPosition(orbit.PoseOf(s.Rig.Pivot(), state))
	s.Camera.LookAt(s.Rig.Pivot())
	s.renderer.RenderFrame(s.Scene, s.Camera)
}

// Stop detaches input and gives up the frame slot. While an AR session
// holds the slot it keeps running, and its teardown leaves the slot empty
// instead of handing it back. Safe to call more than once.
func (s *Session) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	if s.detach != nil {
		s.detach()
	}
	if !s.driver.Release(s.owner) {
		s.log.Debug("preview stopped while another callback holds the frame slot")
	}
	s.log.Debug("preview stopped")
}

// Stopped reports whether Stop ran
func (s *Session) Stopped() bool {
	return s.stopped
}

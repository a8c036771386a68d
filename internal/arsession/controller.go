// Package arsession runs an immersive AR session: capability check, session
// request, hit-test setup, the per-frame reticle update, model placement and
// teardown.
//
// Session state is owned by the frame loop. Every mutation runs through the
// configured loop.Executor; the AR runtime and the model loader are called
// off the loop, and results that come back after the session moved on are
// discarded.
package arsession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/philipparndt/arview/internal/loop"
	"github.com/philipparndt/arview/internal/platform/logger"
	"github.com/philipparndt/arview/internal/status"
	"github.com/philipparndt/arview/pkg/geometry"
	"github.com/philipparndt/arview/pkg/renderloop"
	"github.com/philipparndt/arview/pkg/scene"
	"github.com/philipparndt/arview/pkg/xr"
)

var (
	// ErrCapabilityUnsupported means immersive AR is unavailable, including
	// when the support query itself failed
	ErrCapabilityUnsupported = errors.New("arsession: immersive-ar not supported")
	// ErrSessionRequestFailed means the runtime refused the session
	ErrSessionRequestFailed = errors.New("arsession: session request failed")
	// ErrSessionActive is returned by Start when a session is not Idle
	ErrSessionActive = errors.New("arsession: session already in progress")
	// ErrSessionCancelled is returned by Start when Stop ran before the session became usable
	ErrSessionCancelled = errors.New("arsession: session start cancelled")
	// ErrHitTestSetupFailed is logged, not returned: the session stays up without placement
	ErrHitTestSetupFailed = errors.New("arsession: hit-test setup failed")
	// ErrModelLoadFailed aborts one placement attempt
	ErrModelLoadFailed = errors.New("arsession: model load failed")
	// ErrSessionEndedExternally is reported when the runtime ends the session
	ErrSessionEndedExternally = errors.New("arsession: session ended by the runtime")
)

// State of the controller
type State int

const (
	Idle State = iota
	Requesting
	Active
	Ending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case Active:
		return "active"
	case Ending:
		return "ending"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// PlacementPolicy decides what a select does once a model is placed
type PlacementPolicy int

const (
	// PlaceMultiple places a new instance on every valid select
	PlaceMultiple PlacementPolicy = iota
	// PlaceOnce places a single instance and hides the reticle afterwards
	PlaceOnce
)

// Observer receives lifecycle events; *metrics.Metrics satisfies it
type Observer interface {
	SessionStarted()
	SessionFailed(reason string)
	SessionEnded(external bool)
	Placed()
	PlacementFailed()
}

type nopObserver struct{}

func (nopObserver) SessionStarted()      {}
func (nopObserver) SessionFailed(string) {}
func (nopObserver) SessionEnded(bool)    {}
func (nopObserver) Placed()              {}
func (nopObserver) PlacementFailed()     {}

// Config wires a Controller to its services
type Config struct {
	System   xr.System
	Driver   *renderloop.Driver
	Scene    scene.Scene
	Camera   scene.Camera
	Renderer scene.Renderer
	Loader   scene.Loader

	// Executor runs state changes on the frame loop; nil runs them inline
	Executor loop.Executor
	Logger   *slog.Logger
	Observer Observer
	Status   status.Reporter

	Policy PlacementPolicy
	// DisplayScale multiplies the scale of placed models; 0 means 1
	DisplayScale float64
	// OverlayRoot names the element kept on screen during the session
	OverlayRoot string
}

// Options for one session
type Options struct {
	ModelURL string
	// Model skips loading when the payload is already decoded
	Model *scene.Payload
}

// Result of a successful Start
type Result struct {
	Mode      xr.SessionMode
	SessionID string
	// HitTest is false when the session runs without placement
	HitTest bool
}

// Placement is the outcome of Select
type Placement struct {
	Placed bool
	Node   *scene.Node
	// Reason explains a select that placed nothing
	Reason string
}

// Controller drives one AR session at a time
type Controller struct {
	cfg  Config
	exec loop.Executor
	base *slog.Logger

	// loop-owned
	state     State
	gen       uint64
	id        string
	log       *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	opts      Options
	session   xr.Session
	local     xr.ReferenceSpace
	viewer    xr.ReferenceSpace
	source    xr.HitTestSource
	reticle   *scene.Node
	viewerPos geometry.Vector3
	hasViewer bool
	owner     renderloop.Owner
	handoff   renderloop.Handoff
	placed    int
	pending   int
}

// New creates an idle controller
func New(cfg Config) *Controller {
	if cfg.Executor == nil {
		cfg.Executor = loop.Inline{}
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	if cfg.Status == nil {
		cfg.Status = status.Nop{}
	}
	if cfg.DisplayScale == 0 {
		cfg.DisplayScale = 1
	}

	done := make(chan struct{})
	close(done)

	base := logger.OrDefault(cfg.Logger)
	return &Controller{
		cfg:  cfg,
		exec: cfg.Executor,
		base: base,
		log:  base,
		done: done,
	}
}

// State returns the current state
func (c *Controller) State() State {
	var s State
	_ = c.exec.Do(func() { s = c.state })
	return s
}

// Done returns a channel closed once the current session is fully torn
// down. The render surface may be disposed after it closes.
func (c *Controller) Done() <-chan struct{} {
	var ch chan struct{}
	_ = c.exec.Do(func() { ch = c.done })
	return ch
}

// Start runs the session setup. It returns once the session is Active (with
// or without hit testing) or has failed and returned to Idle. ctx bounds the
// setup only; the session lives until Stop or an end event.
func (c *Controller) Start(ctx context.Context, opts Options) (Result, error) {
	var (
		gen  uint64
		id   string
		log  *slog.Logger
		life context.Context
		busy bool
	)
	if err := c.exec.Do(func() {
		if c.state != Idle {
			busy = true
			return
		}
		c.gen++
		gen = c.gen
		c.state = Requesting
		c.id = uuid.NewString()
		c.log = c.base.With(slog.String("session", c.id))
		id, log = c.id, c.log
		c.ctx, c.cancel = context.WithCancel(context.WithoutCancel(ctx))
		life = c.ctx
		c.done = make(chan struct{})
		c.opts = opts
		c.placed = 0
		c.pending = 0
		c.report(c.id, status.LevelInfo, "Requesting AR session", Requesting)
	}); err != nil {
		return Result{}, err
	}
	if busy {
		return Result{}, ErrSessionActive
	}

	// setup requests stop on caller cancellation or on Stop
	sctx, cancelSetup := context.WithCancel(ctx)
	defer cancelSetup()
	defer context.AfterFunc(life, cancelSetup)()

	log.Info("requesting AR session", slog.String("model", opts.ModelURL))

	supported, err := c.cfg.System.IsSessionSupported(sctx, xr.ImmersiveAR)
	if err != nil || !supported {
		if c.finish(gen, status.LevelWarn, "AR unavailable, preview only") == Ending {
			return Result{}, ErrSessionCancelled
		}
		if err != nil {
			log.Warn("session support query failed", slog.Any("err", err))
			err = fmt.Errorf("%w: %w", ErrCapabilityUnsupported, err)
		} else {
			err = ErrCapabilityUnsupported
		}
		c.cfg.Observer.SessionFailed("unsupported")
		return Result{}, err
	}

	sess, err := c.cfg.System.RequestSession(sctx, xr.ImmersiveAR, xr.SessionOptions{
		Required:    []xr.Feature{xr.FeatureHitTest},
		Optional:    []xr.Feature{xr.FeatureDOMOverlay},
		OverlayRoot: c.cfg.OverlayRoot,
	})
	if err != nil {
		if c.finish(gen, status.LevelError, "Failed to start AR session: "+err.Error()) == Ending {
			return Result{}, ErrSessionCancelled
		}
		log.Warn("session request failed", slog.Any("err", err))
		c.cfg.Observer.SessionFailed("request")
		return Result{}, fmt.Errorf("%w: %w", ErrSessionRequestFailed, err)
	}
	sess.OnEnd(func() { c.sessionEnded(gen) })

	if !c.activate(gen, sess) {
		_ = sess.End()
		c.finish(gen, status.LevelInfo, "AR session start cancelled")
		log.Info("session start cancelled")
		return Result{}, ErrSessionCancelled
	}
	c.cfg.Observer.SessionStarted()
	log.Info("AR session active")

	hitTest := c.setupHitTest(sctx, gen, sess, log)

	var current bool
	_ = c.exec.Do(func() { current = c.gen == gen && c.state == Active })
	if !current {
		return Result{}, ErrSessionCancelled
	}
	return Result{Mode: xr.ImmersiveAR, SessionID: id, HitTest: hitTest}, nil
}

// activate moves a Requesting session to Active and takes over the frame
// callback. It reports false when Stop ran during the request.
func (c *Controller) activate(gen uint64, sess xr.Session) bool {
	var ok bool
	_ = c.exec.Do(func() {
		if c.gen != gen || c.state != Requesting {
			return
		}
		c.state = Active
		c.session = sess
		c.hasViewer = false
		c.reticle = scene.NewNode("reticle", scene.KindReticle)
		c.reticle.Visible = false
		c.cfg.Scene.Add(c.reticle)
		c.owner, c.handoff = c.cfg.Driver.Swap(c.frame(gen))
		c.report(c.id, status.LevelInfo, "AR session started", Active)
		ok = true
	})
	return ok
}

// finish returns a session that never became Active to Idle and reports the
// state it was in. A failed request is reported with text, one cancelled by
// Stop as cancelled. Sessions already superseded are left alone.
func (c *Controller) finish(gen uint64, level status.Level, text string) State {
	var was State
	_ = c.exec.Do(func() {
		if c.gen != gen {
			was = Idle
			return
		}
		was = c.state
		switch c.state {
		case Requesting:
			c.report(c.id, level, text, Idle)
		case Ending:
			c.report(c.id, status.LevelInfo, "AR session start cancelled", Idle)
		default:
			return
		}
		c.state = Idle
		c.cancel()
		close(c.done)
	})
	return was
}

func (c *Controller) setupHitTest(ctx context.Context, gen uint64, sess xr.Session, log *slog.Logger) bool {
	local, err := sess.RequestReferenceSpace(ctx, xr.SpaceLocal)
	if err != nil {
		c.hitTestFailed(gen, log, err)
		return false
	}
	if !c.apply(gen, func() { c.local = local }) {
		return false
	}

	viewer, err := sess.RequestReferenceSpace(ctx, xr.SpaceViewer)
	if err != nil {
		c.hitTestFailed(gen, log, err)
		return false
	}
	src, err := sess.RequestHitTestSource(ctx, viewer)
	if err != nil {
		c.hitTestFailed(gen, log, err)
		return false
	}

	if !c.apply(gen, func() {
		c.viewer = viewer
		c.source = src
	}) {
		src.Cancel()
		return false
	}
	log.Debug("hit-test source ready")
	return true
}

// apply runs fn on the loop if gen is still the Active session
func (c *Controller) apply(gen uint64, fn func()) bool {
	var ok bool
	_ = c.exec.Do(func() {
		if c.gen != gen || c.state != Active {
			return
		}
		fn()
		ok = true
	})
	return ok
}

// hitTestFailed reports a failed setup while gen is still the Active
// session; a failure that arrives after teardown is only logged
func (c *Controller) hitTestFailed(gen uint64, log *slog.Logger, err error) {
	err = fmt.Errorf("%w: %w", ErrHitTestSetupFailed, err)
	if !c.apply(gen, func() {
		c.report(c.id, status.LevelWarn, "Surface detection unavailable; placement disabled", Active)
	}) {
		log.Debug("hit-test setup failed after session end", slog.Any("err", err))
		return
	}
	log.Warn("placement disabled", slog.Any("err", err))
}

// frame is the per-frame callback installed for the session's lifetime
func (c *Controller) frame(gen uint64) renderloop.FrameFunc {
	return func(f renderloop.Frame) {
		if c.gen != gen || c.state != Active {
			return
		}
		c.updateViewer(f.XR)
		c.updateReticle(f.XR)
		c.cfg.Renderer.RenderFrame(c.cfg.Scene, c.cfg.Camera)
	}
}

func (c *Controller) updateViewer(frame xr.Frame) {
	if frame == nil || c.local == nil {
		return
	}
	pose, ok := frame.ViewerPose(c.local)
	if !ok {
		return
	}
	pos := geometry.FromVec3(pose.Col(3).Vec3())
	forward := geometry.FromVec3(pose.Mul4x1(mgl64.Vec4{0, 0, -1, 0}).Vec3())
	c.viewerPos = pos
	c.hasViewer = true
	c.cfg.Camera.SetPosition(pos)
	c.cfg.Camera.LookAt(pos.Add(forward))
}

// updateReticle shows the reticle at the nearest hit. A missing frame,
// source or space hides it.
func (c *Controller) updateReticle(frame xr.Frame) {
	visible := false
	if frame != nil && c.source != nil && c.local != nil && !c.placedOnce() {
		if hits := frame.HitTestResults(c.source); len(hits) > 0 {
			if m, ok := hits[0].Pose(c.local); ok {
				c.reticle.Transform = geometry.Decompose(m)
				visible = true
			}
		}
	}
	c.reticle.Visible = visible
}

func (c *Controller) placedOnce() bool {
	return c.cfg.Policy == PlaceOnce && c.placed > 0
}

// Select places the model at the reticle. A select while the reticle is
// hidden, or with no active session, places nothing and is not an error.
func (c *Controller) Select(ctx context.Context) (Placement, error) {
	var (
		gen       uint64
		id        string
		reason    string
		opts      Options
		at        geometry.Transform
		viewer    geometry.Vector3
		hasViewer bool
		sctx      context.Context
		log       *slog.Logger
	)
	if err := c.exec.Do(func() {
		switch {
		case c.state != Active:
			reason = "no active session"
		case c.reticle == nil || !c.reticle.Visible:
			reason = "reticle not visible"
		case c.cfg.Policy == PlaceOnce && c.placed+c.pending > 0:
			reason = "model already placed"
		default:
			gen, id = c.gen, c.id
			opts = c.opts
			at = c.reticle.Transform
			viewer, hasViewer = c.viewerPos, c.hasViewer
			sctx = c.ctx
			log = c.log
			c.pending++
		}
	}); err != nil {
		return Placement{}, err
	}
	if reason != "" {
		c.base.Debug("select ignored", slog.String("reason", reason))
		return Placement{Reason: reason}, nil
	}

	payload, err := c.load(ctx, sctx, opts)
	if err != nil {
		var current bool
		_ = c.exec.Do(func() {
			if c.gen != gen {
				return
			}
			c.pending--
			if c.state != Active {
				return
			}
			current = true
			c.report(id, status.LevelError, "Model load failed; placement aborted", Active)
		})
		if !current {
			log.Debug("placement discarded, session ended during load", slog.Any("err", err))
			return Placement{Reason: "session ended"}, nil
		}
		log.Error("placement failed", slog.Any("err", err))
		c.cfg.Observer.PlacementFailed()
		return Placement{Reason: "model load failed"}, fmt.Errorf("%w: %w", ErrModelLoadFailed, err)
	}

	var node *scene.Node
	_ = c.exec.Do(func() {
		if c.gen != gen {
			return
		}
		c.pending--
		if c.state != Active {
			return
		}
		node = payload.Instantiate(fmt.Sprintf("%s-%d", payload.Name, c.placed+1))
		node.Transform = c.placement(at, viewer, hasViewer)
		c.cfg.Scene.Add(node)
		c.placed++
		c.report(id, status.LevelInfo, "Model placed", Active)
	})
	if node == nil {
		log.Info("placement discarded, session ended during load")
		return Placement{Reason: "session ended"}, nil
	}

	log.Info("model placed",
		slog.String("node", node.Name),
		slog.Float64("x", node.Transform.Position.X),
		slog.Float64("y", node.Transform.Position.Y),
		slog.Float64("z", node.Transform.Position.Z),
	)
	c.cfg.Observer.Placed()
	return Placement{Placed: true, Node: node}, nil
}

func (c *Controller) load(ctx, sessionCtx context.Context, opts Options) (*scene.Payload, error) {
	if opts.Model != nil {
		return opts.Model, nil
	}
	lctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(sessionCtx, cancel)
	defer stop()
	return c.cfg.Loader.Load(lctx, opts.ModelURL)
}

// placement takes position and scale from the reticle, turns the model to
// face the viewer and applies the display scale
func (c *Controller) placement(at geometry.Transform, viewer geometry.Vector3, hasViewer bool) geometry.Transform {
	t := at
	if hasViewer {
		t.Rotation = geometry.YawToward(at.Position, viewer)
	}
	t.Scale = at.Scale.Mul(c.cfg.DisplayScale)
	return t
}

// Stop ends the session. It is safe in any state: while Requesting the
// pending setup is cancelled and discarded when it resumes, while Active
// the session is torn down at once.
func (c *Controller) Stop() error {
	var (
		sess xr.Session
		log  *slog.Logger
	)
	if err := c.exec.Do(func() {
		log = c.log
		switch c.state {
		case Requesting:
			c.state = Ending
			c.cancel()
		case Active:
			sess = c.teardown(false)
		}
	}); err != nil {
		return err
	}
	if sess == nil {
		return nil
	}
	if err := sess.End(); err != nil {
		log.Warn("session end failed", slog.Any("err", err))
	}
	return nil
}

func (c *Controller) sessionEnded(gen uint64) {
	_ = c.exec.Do(func() {
		if c.gen != gen {
			return
		}
		switch c.state {
		case Requesting:
			c.state = Ending
			c.cancel()
		case Active:
			c.log.Info("session ended", slog.Any("reason", ErrSessionEndedExternally))
			c.teardown(true)
		}
	})
}

// teardown runs on the loop exactly once per Active session
func (c *Controller) teardown(external bool) xr.Session {
	c.state = Ending
	if c.source != nil {
		c.source.Cancel()
		c.source = nil
	}
	c.local, c.viewer = nil, nil
	if !c.cfg.Driver.Restore(c.owner, c.handoff) {
		c.log.Debug("frame slot changed owner during the session")
	}
	c.owner, c.handoff = 0, renderloop.Handoff{}
	if c.reticle != nil {
		c.cfg.Scene.Remove(c.reticle)
		c.reticle = nil
	}
	sess := c.session
	c.session = nil
	c.cancel()
	c.state = Idle
	close(c.done)

	c.cfg.Observer.SessionEnded(external)
	c.log.Info("AR session torn down", slog.Bool("external", external))
	c.report(c.id, status.LevelInfo, "AR session ended", Idle)
	return sess
}

func (c *Controller) report(id string, level status.Level, text string, st State) {
	c.cfg.Status.Report(status.Message{
		Time:    time.Now(),
		Level:   level,
		Text:    text,
		Session: id,
		State:   st.String(),
	})
}

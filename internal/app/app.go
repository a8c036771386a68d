// Package app is the desktop host: it opens a raylib window, feeds mouse
// and touch input to the preview, and simulates an AR device whose hit
// tests follow the mouse.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/philipparndt/arview/internal/arsession"
	"github.com/philipparndt/arview/internal/loop"
	"github.com/philipparndt/arview/internal/platform/config"
	"github.com/philipparndt/arview/internal/platform/logger"
	"github.com/philipparndt/arview/internal/preview"
	"github.com/philipparndt/arview/internal/status"
	"github.com/philipparndt/arview/internal/viewer"
	"github.com/philipparndt/arview/pkg/asset"
	"github.com/philipparndt/arview/pkg/geometry"
	"github.com/philipparndt/arview/pkg/gesture"
	"github.com/philipparndt/arview/pkg/platform"
	"github.com/philipparndt/arview/pkg/renderloop"
	"github.com/philipparndt/arview/pkg/scene"
	"github.com/philipparndt/arview/pkg/xr"
	"github.com/philipparndt/arview/pkg/xr/xrsim"
)

// desktopBase is the pretend page URL assets resolve against
const desktopBase = "http://desktop/"

// devicePosition is where the simulated AR device is held
var devicePosition = geometry.NewVector3(0, 1.6, 2.5)

// Options configure the desktop host
type Options struct {
	Config config.Viewer
	// Device is the platform the asset preparation pretends to run on
	Device platform.Info
	// XRSupported is the simulated immersive-ar answer
	XRSupported bool
	Logger      *slog.Logger
	Observer    arsession.Observer
}

// Run prepares the assets under Config.WebRoot, opens the window and runs
// until it is closed or ctx is done
func Run(ctx context.Context, opts Options) error {
	cfg := opts.Config
	log := logger.OrDefault(opts.Logger)

	app := &App{
		log: log,
		UI:  UIState{maxLines: 8},
		Render: RenderState{
			meshes: make(map[*scene.Payload]rl.Mesh),
		},
		Input: InputState{
			surface: gesture.NewSurface(),
			touches: make(map[int]pointerState),
		},
		Sim: SimState{
			system: xrsim.New(xrsim.Options{Supported: opts.XRSupported}),
			viewer: devicePosition,
		},
	}

	// assets are read from the web root as if served
	client := &http.Client{Transport: http.NewFileTransport(http.Dir(cfg.WebRoot))}
	modelLoader := asset.NewLoader(client)
	prep := asset.Prepare(ctx, asset.Request{
		Base:     desktopBase,
		VRMPath:  cfg.VRMPath,
		GLBPath:  cfg.GLBPath,
		USDZPath: cfg.USDZPath,
		Device:   opts.Device,
		Checker:  app.Sim.system,
		OnLog:    func(s string) { log.Debug(s) },
	}, asset.NewProber(client), modelLoader)
	for _, e := range prep.Errors {
		app.hudError(e)
	}

	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagWindowHighdpi | rl.FlagMsaa4xHint) // Must be before InitWindow
	rl.InitWindow(1280, 800, "arview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.FPS))
	app.Render.material = rl.LoadMaterialDefault()

	l := loop.New(64)
	defer l.Close()
	driver := renderloop.NewDriver()

	pcfg := preview.DefaultConfig()
	pcfg.Limits = cfg.Limits()
	pcfg.Gesture.WheelSensitivity = cfg.WheelSensitivity
	pcfg.FPS = cfg.FPS
	pcfg.Logger = log
	pv, err := preview.Start(driver, app, app.Input.surface, prep.Preloaded.Model(), pcfg)
	if err != nil {
		return fmt.Errorf("start preview: %w", err)
	}

	policy := arsession.PlaceMultiple
	if cfg.PlaceOnce() {
		policy = arsession.PlaceOnce
	}
	reporter := status.Multi{app, status.NewLogReporter(log)}
	ar := arsession.New(arsession.Config{
		System:       app.Sim.system,
		Driver:       driver,
		Scene:        pv.Scene,
		Camera:       pv.Camera,
		Renderer:     app,
		Loader:       modelLoader,
		Executor:     l,
		Logger:       log,
		Observer:     opts.Observer,
		Status:       reporter,
		Policy:       policy,
		DisplayScale: cfg.DisplayScale,
	})
	shell := viewer.New(viewer.Config{
		Prep:     prep,
		Preview:  pv,
		AR:       ar,
		Launcher: &viewer.ReportingLauncher{Mode: prep.Mode, Status: reporter, Logger: log},
		Status:   reporter,
		Logger:   log,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	app.Session = SessionState{loop: l, driver: driver, preview: pv, ar: ar, shell: shell, prep: prep, ctx: runCtx}

	if cfg.Watch {
		app.FileWatch.loader = asset.NewLoader(nil)
		app.FileWatch.sourceFile = watchTarget(cfg.WebRoot, prep)
		if err := app.setupFileWatcher(runCtx); err != nil {
			log.Warn("auto-reload unavailable", slog.Any("err", err))
		} else {
			defer app.FileWatch.fileWatcher.Close()
		}
	}

	for !rl.WindowShouldClose() && runCtx.Err() == nil {
		l.Drain()
		app.handleInput()

		rl.BeginDrawing()
		rl.ClearBackground(rl.NewColor(15, 18, 25, 255))
		driver.Tick(time.Now(), app.simFrame())
		app.drawUI()
		rl.EndDrawing()
	}

	// AR teardown and preview stop run through the loop
	done := make(chan error, 1)
	go func() { done <- shell.Close() }()
	for {
		l.Drain()
		select {
		case err := <-done:
			app.releaseMeshes(nil)
			return err
		case <-time.After(time.Millisecond):
		}
	}
}

// watchTarget maps the preferred preloaded model URL back to its file
func watchTarget(webRoot string, prep *asset.Preparation) string {
	u := prep.Resolved.GLB
	if prep.Preloaded.VRM != nil {
		u = prep.Resolved.VRM
	}
	return filepath.Join(webRoot, filepath.FromSlash(strings.TrimPrefix(u, desktopBase)))
}

// simFrame builds the simulated XR frame: the device stands still and the
// mouse aims the hit test. Outside AR there is no XR frame.
func (app *App) simFrame() xr.Frame {
	if app.arState() != arsession.Active.String() {
		return nil
	}
	_, dir := app.mouseRay()
	app.Sim.frame = &xrsim.Frame{Viewer: app.Sim.viewer, Direction: dir}
	return app.Sim.frame
}

func (app *App) enterAR() {
	go func() {
		if err := app.Session.shell.EnterAR(app.Session.ctx); err != nil && !errors.Is(err, context.Canceled) {
			app.log.Warn("enter AR failed", slog.Any("err", err))
		}
	}()
}

func (app *App) selectAR() {
	go func() {
		p, err := app.Session.shell.Select(app.Session.ctx)
		if err != nil {
			app.log.Warn("select failed", slog.Any("err", err))
			return
		}
		if !p.Placed {
			app.log.Debug("nothing placed", slog.String("reason", p.Reason))
		}
	}()
}

func (app *App) stopAR() {
	go func() {
		if err := app.Session.shell.StopAR(); err != nil {
			app.log.Warn("stop AR failed", slog.Any("err", err))
		}
	}()
}

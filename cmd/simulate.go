package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/philipparndt/arview/internal/arsession"
	"github.com/philipparndt/arview/internal/preview"
	"github.com/philipparndt/arview/internal/status"
	"github.com/philipparndt/arview/pkg/asset"
	"github.com/philipparndt/arview/pkg/geometry"
	"github.com/philipparndt/arview/pkg/renderloop"
	"github.com/philipparndt/arview/pkg/scene"
	"github.com/philipparndt/arview/pkg/xr/xrsim"
	"github.com/spf13/cobra"
)

var (
	simModel  string
	simPlaces int
	simOnce   bool
	simNoXR   bool
	simFrames int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a scripted AR session against a simulated device",
	Long: `Simulate starts the preview, enters a simulated immersive-ar session,
aims at the floor in front of the device, places the model and ends the
session, printing every status line along the way.`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simModel, "model", "", "model file (default: the configured GLB under the web root)")
	simulateCmd.Flags().IntVar(&simPlaces, "places", 2, "number of select actions")
	simulateCmd.Flags().BoolVar(&simOnce, "once", false, "allow a single placement")
	simulateCmd.Flags().BoolVar(&simNoXR, "no-xr", false, "simulate a device without immersive-ar support")
	simulateCmd.Flags().IntVar(&simFrames, "frames", 3, "frames rendered between actions")
	rootCmd.AddCommand(simulateCmd)
}

// frameCounter is a renderer that only counts frames
type frameCounter struct {
	frames int
}

func (f *frameCounter) RenderFrame(scene.Scene, scene.Camera) {
	f.frames++
}

func formatVector(v geometry.Vector3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	log := newLogger(cfg)
	ctx := cmd.Context()

	model := simModel
	if model == "" {
		model = filepath.Join(cfg.WebRoot, filepath.FromSlash(cfg.GLBPath))
	}

	sys := xrsim.New(xrsim.Options{Supported: !simNoXR})
	driver := renderloop.NewDriver()
	renderer := &frameCounter{}

	pcfg := preview.DefaultConfig()
	pcfg.Limits = cfg.Limits()
	pcfg.FPS = 0
	pcfg.Logger = log
	pv, err := preview.Start(driver, renderer, nil, nil, pcfg)
	if err != nil {
		return err
	}
	defer pv.Stop()

	trace := status.Func(func(msg status.Message) {
		state := msg.State
		if state == "" {
			state = "-"
		}
		fmt.Printf("[%-10s] %-5s %s\n", state, msg.Level, msg.Text)
	})

	policy := arsession.PlaceMultiple
	if simOnce || cfg.PlaceOnce() {
		policy = arsession.PlaceOnce
	}
	ctrl := arsession.New(arsession.Config{
		System:       sys,
		Driver:       driver,
		Scene:        pv.Scene,
		Camera:       pv.Camera,
		Renderer:     renderer,
		Loader:       asset.NewLoader(nil),
		Logger:       log,
		Status:       status.Multi{trace, status.NewLogReporter(log)},
		Policy:       policy,
		DisplayScale: cfg.DisplayScale,
	})

	res, err := ctrl.Start(ctx, arsession.Options{ModelURL: model})
	if err != nil {
		return fmt.Errorf("start AR: %w", err)
	}
	fmt.Printf("session %s started (hit test: %t)\n", res.SessionID, res.HitTest)

	// device at eye height looking down and forward at the floor
	frame := &xrsim.Frame{
		Viewer:    geometry.NewVector3(0, 1.6, 0),
		Direction: geometry.NewVector3(0, -1, -1),
	}
	tick := func() {
		for i := 0; i < simFrames; i++ {
			driver.Tick(time.Now(), frame)
		}
	}

	tick()
	for i := 0; i < simPlaces; i++ {
		// step forward so placements do not overlap
		frame.Viewer = frame.Viewer.Add(geometry.NewVector3(0, 0, -0.5))
		tick()
		p, err := ctrl.Select(ctx)
		if err != nil {
			return fmt.Errorf("select: %w", err)
		}
		if !p.Placed {
			fmt.Printf("select %d: nothing placed (%s)\n", i+1, p.Reason)
			continue
		}
		fmt.Printf("select %d: placed %s at %s\n", i+1, p.Node.Name, formatVector(p.Node.Transform.Position))
	}

	if err := ctrl.Stop(); err != nil {
		return fmt.Errorf("stop AR: %w", err)
	}
	tick()

	fmt.Printf("\nframes rendered: %d, models in scene: %d, state: %s\n",
		renderer.frames, pv.Scene.CountKind(scene.KindModel), ctrl.State())
	return nil
}

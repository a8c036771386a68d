// Package viewer ties a prepared asset set to the preview and the AR flow
// the device was assigned.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/philipparndt/arview/internal/arsession"
	"github.com/philipparndt/arview/internal/platform/logger"
	"github.com/philipparndt/arview/internal/preview"
	"github.com/philipparndt/arview/internal/status"
	"github.com/philipparndt/arview/pkg/asset"
	"github.com/philipparndt/arview/pkg/platform"
)

// ErrNoController is returned by EnterAR in WebXR mode without a controller
var ErrNoController = errors.New("viewer: no AR controller")

// ReadyText is the status line shown once the viewer is up
func ReadyText(mode platform.Mode) string {
	switch mode {
	case platform.IOSQuickLook:
		return "iOS Quick Look ready"
	case platform.AndroidWebXR:
		return "Android WebXR ready, press Enter AR"
	case platform.SceneViewer:
		return "Scene Viewer ready, press Enter AR"
	default:
		return "Preview ready, AR may be limited"
	}
}

// Config wires a Shell
type Config struct {
	Prep     *asset.Preparation
	Preview  *preview.Session
	AR       *arsession.Controller
	Launcher Launcher
	Status   status.Reporter
	Logger   *slog.Logger
}

// Shell is the AR screen: a running preview plus the Enter AR action
type Shell struct {
	cfg Config
	log *slog.Logger
}

// New creates a shell and reports the ready line for the prepared mode
func New(cfg Config) *Shell {
	if cfg.Status == nil {
		cfg.Status = status.Nop{}
	}
	s := &Shell{cfg: cfg, log: logger.OrDefault(cfg.Logger)}

	msg := status.Info(ReadyText(cfg.Prep.Mode))
	msg.State = string(cfg.Prep.Mode)
	s.cfg.Status.Report(msg)
	return s
}

// Mode returns the AR flow in use
func (s *Shell) Mode() platform.Mode {
	return s.cfg.Prep.Mode
}

// EnterAR starts the flow for the prepared mode. In WebXR mode that is an
// in-page session with the preferred model; other modes hand the assets to
// the launcher. Launcher failures are logged and returned, the preview
// keeps running either way.
func (s *Shell) EnterAR(ctx context.Context) error {
	prep := s.cfg.Prep
	mode := prep.Mode
	s.log.Info("enter AR", slog.String("mode", string(mode)))

	if mode.UsesWebXR() {
		if s.cfg.AR == nil {
			return ErrNoController
		}
		modelURL := prep.Resolved.VRM
		if prep.Preloaded.VRM == nil {
			modelURL = prep.Resolved.GLB
		}
		_, err := s.cfg.AR.Start(ctx, arsession.Options{
			ModelURL: modelURL,
			Model:    prep.Preloaded.Model(),
		})
		return err
	}

	if s.cfg.Launcher == nil {
		return fmt.Errorf("viewer: no launcher for %s", mode)
	}

	iosSrc := prep.Resolved.USDZ
	if mode != platform.IOSQuickLook && !prep.Preloaded.USDZ {
		iosSrc = ""
	}
	if err := s.cfg.Launcher.ActivateAR(ctx, prep.Resolved.GLB, iosSrc); err != nil {
		s.log.Warn("activate AR failed", slog.String("mode", string(mode)), slog.Any("err", err))
		s.cfg.Status.Report(status.Error("Activate AR failed: " + err.Error()))
		return err
	}
	return nil
}

// Select forwards a screen tap to the AR session
func (s *Shell) Select(ctx context.Context) (arsession.Placement, error) {
	if s.cfg.AR == nil {
		return arsession.Placement{Reason: "no active session"}, nil
	}
	return s.cfg.AR.Select(ctx)
}

// StopAR ends the in-page session, if any
func (s *Shell) StopAR() error {
	if s.cfg.AR == nil {
		return nil
	}
	return s.cfg.AR.Stop()
}

// Close leaves the AR screen: the AR session first, then the preview
func (s *Shell) Close() error {
	err := s.StopAR()
	if s.cfg.Preview != nil {
		s.cfg.Preview.Stop()
	}
	return err
}

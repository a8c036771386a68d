package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/philipparndt/arview/internal/platform/logger"
	"github.com/philipparndt/arview/internal/status"
	"github.com/philipparndt/arview/pkg/platform"
)

var (
	ErrNoAsset  = errors.New("viewer: no asset for this AR mode")
	ErrInPageAR = errors.New("viewer: mode runs the in-page AR session")
)

// Launcher hands the model to a platform AR viewer outside the page
type Launcher interface {
	ActivateAR(ctx context.Context, src, iosSrc string) error
}

// LaunchURL returns the URL that opens src (GLB) or iosSrc (USDZ) in the
// viewer for mode. fallback is where Scene Viewer sends users without ARCore.
func LaunchURL(mode platform.Mode, src, iosSrc, fallback string) (string, error) {
	switch mode {
	case platform.IOSQuickLook:
		if iosSrc == "" {
			return "", fmt.Errorf("%w: %s needs a USDZ", ErrNoAsset, mode)
		}
		return iosSrc, nil

	case platform.SceneViewer:
		if src == "" {
			return "", fmt.Errorf("%w: %s needs a GLB", ErrNoAsset, mode)
		}
		return sceneViewerIntent(src, fallback), nil

	case platform.GenericFallback:
		switch {
		case src != "":
			return src, nil
		case iosSrc != "":
			return iosSrc, nil
		}
		return "", fmt.Errorf("%w: %s", ErrNoAsset, mode)

	case platform.AndroidWebXR:
		return "", ErrInPageAR
	}
	return "", fmt.Errorf("viewer: unknown mode %q", mode)
}

func sceneViewerIntent(src, fallback string) string {
	if fallback == "" {
		fallback = src
	}
	q := url.Values{}
	q.Set("file", src)
	q.Set("mode", "ar_preferred")
	return "intent://arvr.google.com/scene-viewer/1.0?" + q.Encode() +
		"#Intent;scheme=https;package=com.google.ar.core;action=android.intent.action.VIEW;" +
		"S.browser_fallback_url=" + url.QueryEscape(fallback) + ";end;"
}

// ReportingLauncher publishes the launch URL on the status channel; the
// page follows it.
type ReportingLauncher struct {
	Mode     platform.Mode
	Fallback string
	Status   status.Reporter
	Logger   *slog.Logger
}

// ActivateAR reports the launch URL for the configured mode
func (l *ReportingLauncher) ActivateAR(ctx context.Context, src, iosSrc string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := LaunchURL(l.Mode, src, iosSrc, l.Fallback)
	if err != nil {
		return err
	}

	logger.OrDefault(l.Logger).Info("activate AR", slog.String("mode", string(l.Mode)), slog.String("url", target))
	if l.Status != nil {
		msg := status.Info("open " + target)
		msg.State = string(l.Mode)
		l.Status.Report(msg)
	}
	return nil
}

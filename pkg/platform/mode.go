// Package platform decides, once per page load, which AR flow a device gets.
package platform

import (
	"context"
	"regexp"

	"github.com/philipparndt/arview/pkg/xr"
)

// Mode is the AR flow chosen for a device
type Mode string

const (
	// IOSQuickLook hands a USDZ asset to Quick Look
	IOSQuickLook Mode = "ios-quicklook"
	// AndroidWebXR runs the in-page WebXR hit-test placement session
	AndroidWebXR Mode = "android-webxr"
	// SceneViewer hands a GLB asset to the Android Scene Viewer
	SceneViewer Mode = "scene-viewer"
	// GenericFallback previews in page and lets a model viewer try its best
	GenericFallback Mode = "model-viewer-fallback"
)

// UsesWebXR reports whether the mode runs the in-page AR session
func (m Mode) UsesWebXR() bool {
	return m == AndroidWebXR
}

// Info describes the client device
type Info struct {
	IOS     bool
	Android bool
}

var (
	iosAgent     = regexp.MustCompile(`iPhone|iPad|iPod`)
	androidAgent = regexp.MustCompile(`Android`)
)

// Detect classifies a user agent. iPadOS reports itself as "MacIntel" with
// touch support, so platform and maxTouchPoints are consulted too.
func Detect(userAgent, platformName string, maxTouchPoints int) Info {
	return Info{
		IOS:     iosAgent.MatchString(userAgent) || (platformName == "MacIntel" && maxTouchPoints > 1),
		Android: androidAgent.MatchString(userAgent),
	}
}

// Assets records which asset variants exist
type Assets struct {
	GLB  bool
	USDZ bool
}

// SupportChecker answers immersive session support; xr.System satisfies it
type SupportChecker interface {
	IsSessionSupported(ctx context.Context, mode xr.SessionMode) (bool, error)
}

// Decision is the outcome of Resolve, with the reasoning for the load log
type Decision struct {
	Mode   Mode
	Reason string
	// Err is the support query failure, if one forced the fallback
	Err error
}

// Resolve picks the AR flow. A failing support query is treated as
// unsupported. checker may be nil when the runtime has no AR API at all.
func Resolve(ctx context.Context, info Info, assets Assets, checker SupportChecker) Decision {
	switch {
	case info.IOS && assets.USDZ:
		return Decision{Mode: IOSQuickLook, Reason: "iOS with USDZ asset"}
	case info.Android:
		return resolveAndroid(ctx, assets, checker)
	case assets.GLB:
		return Decision{Mode: GenericFallback, Reason: "other platform with GLB asset"}
	case assets.USDZ:
		return Decision{Mode: IOSQuickLook, Reason: "other platform with only a USDZ asset"}
	default:
		return Decision{Mode: GenericFallback, Reason: "no AR asset available"}
	}
}

func resolveAndroid(ctx context.Context, assets Assets, checker SupportChecker) Decision {
	fallback := GenericFallback
	if assets.GLB {
		fallback = SceneViewer
	}
	if checker == nil {
		return Decision{Mode: fallback, Reason: "AR runtime not available"}
	}

	supported, err := checker.IsSessionSupported(ctx, xr.ImmersiveAR)
	switch {
	case err != nil:
		return Decision{Mode: fallback, Reason: "session support query failed", Err: err}
	case supported:
		return Decision{Mode: AndroidWebXR, Reason: "immersive-ar supported"}
	default:
		return Decision{Mode: fallback, Reason: "immersive-ar not supported"}
	}
}

// Provider hands out the mode resolved once at startup
type Provider interface {
	Mode() Mode
}

// Static is a Provider with a fixed mode
type Static Mode

// Mode returns the fixed mode
func (s Static) Mode() Mode {
	return Mode(s)
}

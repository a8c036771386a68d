package asset

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/philipparndt/arview/pkg/platform"
	"github.com/philipparndt/arview/pkg/scene"
)

// Request describes what to prepare before the viewer starts
type Request struct {
	// Base is the page URL relative asset paths resolve against
	Base     string
	VRMPath  string
	GLBPath  string
	USDZPath string
	Device   platform.Info
	// Checker answers immersive session support; nil when there is no AR runtime
	Checker platform.SupportChecker
	// OnLog receives every log and error line as it is produced
	OnLog func(string)
}

// DefaultRequest returns the stock asset paths
func DefaultRequest() Request {
	return Request{
		VRMPath:  "./assets/model.vrm",
		GLBPath:  "./assets/model.glb",
		USDZPath: "./assets/model.usdz",
	}
}

// Resolved holds the absolute asset URLs
type Resolved struct {
	VRM  string `json:"vrm"`
	GLB  string `json:"glb"`
	USDZ string `json:"usdz"`
}

// Preloaded holds whatever could be decoded ahead of time
type Preloaded struct {
	VRM  *scene.Payload
	GLB  *scene.Payload
	USDZ bool
}

// Model returns the preferred preloaded payload, VRM first, or nil
func (p Preloaded) Model() *scene.Payload {
	if p.VRM != nil {
		return p.VRM
	}
	return p.GLB
}

// Preparation is the outcome of Prepare
type Preparation struct {
	Mode      platform.Mode `json:"mode"`
	Reason    string        `json:"reason"`
	Logs      []string      `json:"logs"`
	Errors    []string      `json:"errors"`
	Resolved  Resolved      `json:"resolved"`
	Preloaded Preloaded     `json:"-"`
}

// Success reports whether preparation finished without errors
func (p *Preparation) Success() bool {
	return len(p.Errors) == 0
}

func (p *Preparation) logf(onLog func(string), format string, args ...any) {
	s := fmt.Sprintf(format, args...)
	p.Logs = append(p.Logs, s)
	if onLog != nil {
		onLog(s)
	}
}

func (p *Preparation) errorf(onLog func(string), format string, args ...any) {
	s := fmt.Sprintf(format, args...)
	p.Errors = append(p.Errors, s)
	if onLog != nil {
		onLog(s)
	}
}

// Prepare resolves asset URLs, probes which variants exist, preloads VRM and
// GLB, and picks the AR mode. It never fails; problems land in Errors.
func Prepare(ctx context.Context, req Request, prober *Prober, loader scene.Loader) *Preparation {
	p := &Preparation{Logs: []string{}, Errors: []string{}}
	p.logf(req.OnLog, "Platform: ios=%t android=%t", req.Device.IOS, req.Device.Android)

	p.logf(req.OnLog, "Resolving asset URLs...")
	p.Resolved = Resolved{
		VRM:  p.resolve(req, req.VRMPath),
		GLB:  p.resolve(req, req.GLBPath),
		USDZ: p.resolve(req, req.USDZPath),
	}
	p.logf(req.OnLog, "Resolved: vrm=%s glb=%s usdz=%s", p.Resolved.VRM, p.Resolved.GLB, p.Resolved.USDZ)

	vrmExists := p.Resolved.VRM != "" && prober.Exists(ctx, p.Resolved.VRM)
	glbExists := p.Resolved.GLB != "" && prober.Exists(ctx, p.Resolved.GLB)
	usdzExists := p.Resolved.USDZ != "" && prober.Exists(ctx, p.Resolved.USDZ)
	p.logf(req.OnLog, "Asset existence: vrm=%t glb=%t usdz=%t", vrmExists, glbExists, usdzExists)
	p.Preloaded.USDZ = usdzExists

	if vrmExists {
		p.Preloaded.VRM = p.preload(ctx, req, loader, "VRM", p.Resolved.VRM)
	} else {
		p.logf(req.OnLog, "No VRM present; skipping VRM preload.")
	}
	if glbExists {
		p.Preloaded.GLB = p.preload(ctx, req, loader, "GLB", p.Resolved.GLB)
	} else {
		p.logf(req.OnLog, "No GLB present.")
	}

	decision := platform.Resolve(ctx, req.Device, platform.Assets{GLB: glbExists, USDZ: usdzExists}, req.Checker)
	if decision.Err != nil {
		p.errorf(req.OnLog, "Session support query failed: %v", decision.Err)
	}
	p.Mode = decision.Mode
	p.Reason = decision.Reason
	p.logf(req.OnLog, "Mode -> %s (%s)", p.Mode, p.Reason)
	return p
}

func (p *Preparation) resolve(req Request, path string) string {
	if path == "" {
		return ""
	}
	u, err := ResolveURL(req.Base, path)
	if err != nil {
		p.errorf(req.OnLog, "Resolve %s failed: %v", path, err)
		return ""
	}
	return u
}

func (p *Preparation) preload(ctx context.Context, req Request, loader scene.Loader, label, location string) *scene.Payload {
	p.logf(req.OnLog, "Preloading %s (fetch & parse)...", label)
	payload, err := loader.Load(ctx, location)
	if err != nil {
		p.errorf(req.OnLog, "%s preload failed: %v", label, err)
		return nil
	}
	p.logf(req.OnLog, "%s parsed: %d meshes, %s", label, payload.Meshes, humanize.Bytes(uint64(payload.Size)))
	return payload
}

// Package server serves the viewer page, its assets and the endpoints the
// page talks to.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/philipparndt/arview/internal/platform/config"
	"github.com/philipparndt/arview/internal/platform/logger"
	"github.com/philipparndt/arview/internal/platform/metrics"
	"github.com/philipparndt/arview/internal/status"
	"github.com/philipparndt/arview/pkg/asset"
	"github.com/philipparndt/arview/pkg/platform"
	"github.com/philipparndt/arview/pkg/xr"
)

var assetTypes = map[string]string{
	".glb":  "model/gltf-binary",
	".vrm":  "model/gltf-binary",
	".gltf": "model/gltf+json",
	".usdz": "model/vnd.usdz+zip",
	".stl":  "model/stl",
}

// Handler exposes the viewer endpoints using go-chi.
type Handler struct {
	cfg     config.Viewer
	log     *slog.Logger
	metrics *metrics.Metrics
	hub     *status.Hub
	prober  *asset.Prober
	loader  *asset.Loader
}

// NewHandler creates a handler serving cfg.WebRoot. Asset probes and
// preloads are answered from the web root by a file transport, so the
// server never requests its own URLs. Metrics and hub may be nil.
func NewHandler(cfg config.Viewer, log *slog.Logger, m *metrics.Metrics, hub *status.Hub) *Handler {
	client := &http.Client{Transport: http.NewFileTransport(http.Dir(cfg.WebRoot))}
	return &Handler{
		cfg:     cfg,
		log:     logger.OrDefault(log),
		metrics: m,
		hub:     hub,
		prober:  asset.NewProber(client),
		loader:  asset.NewLoader(client),
	}
}

// Router builds the full route table with logging and metrics middleware
func (h *Handler) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(logger.RequestLogger(h.log))
	if h.metrics != nil {
		r.Use(metrics.RequestMiddleware(h.metrics))
		r.Get("/metrics", h.metrics.Handler().ServeHTTP)
	}
	if h.hub != nil {
		r.Get("/status", h.hub.ServeHTTP)
	}
	r.Get("/healthz", h.Health)
	r.Get("/api/prepare", h.Prepare)
	r.Handle("/*", h.Static())
	return r
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Static serves the web root with model content types
func (h *Handler) Static() http.Handler {
	files := http.FileServer(http.Dir(h.cfg.WebRoot))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct, ok := assetTypes[strings.ToLower(path.Ext(r.URL.Path))]; ok {
			w.Header().Set("Content-Type", ct)
		}
		files.ServeHTTP(w, r)
	})
}

// reportedSupport replays the page's own immersive-ar support answer
type reportedSupport struct {
	supported bool
	err       error
}

func (s reportedSupport) IsSessionSupported(context.Context, xr.SessionMode) (bool, error) {
	return s.supported, s.err
}

// checkerFor maps the xr query value: "1"/"true", "0"/"false", "error", or
// absent when the page has no WebXR API
func checkerFor(v string) platform.SupportChecker {
	switch strings.ToLower(v) {
	case "":
		return nil
	case "error":
		return reportedSupport{err: errors.New("page reported isSessionSupported error")}
	}
	ok, _ := strconv.ParseBool(v)
	return reportedSupport{supported: ok}
}

// Prepare handles GET /api/prepare?platform=&touch=&xr=.
// The user agent comes from the request.
func (h *Handler) Prepare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	touch, _ := strconv.Atoi(q.Get("touch"))
	device := platform.Detect(r.UserAgent(), q.Get("platform"), touch)

	req := asset.Request{
		Base:     baseURL(r),
		VRMPath:  h.cfg.VRMPath,
		GLBPath:  h.cfg.GLBPath,
		USDZPath: h.cfg.USDZPath,
		Device:   device,
		Checker:  checkerFor(q.Get("xr")),
	}
	prep := asset.Prepare(r.Context(), req, h.prober, h.loader)

	h.log.Info("mode decided",
		slog.String("mode", string(prep.Mode)),
		slog.String("reason", prep.Reason),
		slog.Int("errors", len(prep.Errors)),
	)
	if h.metrics != nil {
		h.metrics.ModeDecided(string(prep.Mode))
	}
	if h.hub != nil {
		msg := status.Info("Mode -> " + string(prep.Mode))
		msg.State = string(prep.Mode)
		h.hub.Report(msg)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(prep); err != nil {
		h.log.Debug("encode prepare response", slog.String("error", err.Error()))
	}
}

// baseURL is the page URL asset paths resolve against. Behind a proxy the
// forwarded scheme wins.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + r.Host + "/"
}

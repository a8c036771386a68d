package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/philipparndt/arview/internal/platform/config"
	"github.com/philipparndt/arview/internal/platform/logger"
	"github.com/philipparndt/arview/internal/platform/metrics"
	"github.com/philipparndt/arview/pkg/platform"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

const (
	androidUA = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 Chrome/126.0 Mobile Safari/537.36"
	iphoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Mobile/15E148"
)

func writeGLB(t *testing.T, path string) {
	t.Helper()
	doc := gltf.NewDocument()
	idx := modeler.WritePosition(doc, [][3]float32{{-0.5, 0, -0.5}, {0.5, 1.7, 0.5}})
	doc.Accessors[idx].Min = []float64{-0.5, 0, -0.5}
	doc.Accessors[idx].Max = []float64{0.5, 1.7, 0.5}
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Primitives: []*gltf.Primitive{{Attributes: map[string]int{gltf.POSITION: idx}}},
	})

	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

// newTestHandler serves a web root holding a GLB and, optionally, a USDZ
func newTestHandler(t *testing.T, usdz bool) (*Handler, *metrics.Metrics) {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "assets"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeGLB(t, filepath.Join(root, "assets", "model.glb"))
	if usdz {
		if err := os.WriteFile(filepath.Join(root, "assets", "model.usdz"), []byte("PK\x03\x04usdz"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "index.html"), []byte("<html></html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Viewer{
		WebRoot:  root,
		VRMPath:  "./assets/model.vrm",
		GLBPath:  "./assets/model.glb",
		USDZPath: "./assets/model.usdz",
	}
	m := metrics.New()
	return NewHandler(cfg, logger.Discard(), m, nil), m
}

type prepareResponse struct {
	Mode     platform.Mode `json:"mode"`
	Logs     []string      `json:"logs"`
	Errors   []string      `json:"errors"`
	Resolved struct {
		GLB  string `json:"glb"`
		USDZ string `json:"usdz"`
	} `json:"resolved"`
}

func prepare(t *testing.T, h *Handler, ua, query string) prepareResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/prepare"+query, nil)
	req.Header.Set("User-Agent", ua)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp prepareResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestPrepareModes(t *testing.T) {
	tests := []struct {
		name  string
		usdz  bool
		ua    string
		query string
		want  platform.Mode
	}{
		{"android with webxr", false, androidUA, "?xr=1", platform.AndroidWebXR},
		{"android without webxr", false, androidUA, "?xr=0", platform.SceneViewer},
		{"android without xr api", false, androidUA, "", platform.SceneViewer},
		{"android support error", false, androidUA, "?xr=error", platform.SceneViewer},
		{"iphone with usdz", true, iphoneUA, "", platform.IOSQuickLook},
		{"ipados", true, "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)", "?platform=MacIntel&touch=5", platform.IOSQuickLook},
		{"desktop", false, "Mozilla/5.0 (X11; Linux x86_64)", "", platform.GenericFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, tt.usdz)
			resp := prepare(t, h, tt.ua, tt.query)
			if resp.Mode != tt.want {
				t.Errorf("expected mode %s, got %s (logs %v)", tt.want, resp.Mode, resp.Logs)
			}
		})
	}
}

func TestPrepareResolvesAgainstHost(t *testing.T) {
	h, _ := newTestHandler(t, false)
	resp := prepare(t, h, androidUA, "?xr=1")

	if resp.Resolved.GLB != "http://example.com/assets/model.glb" {
		t.Errorf("unexpected GLB url %q", resp.Resolved.GLB)
	}
	if len(resp.Errors) != 0 {
		t.Errorf("expected no errors, got %v", resp.Errors)
	}
	found := false
	for _, l := range resp.Logs {
		if strings.HasPrefix(l, "GLB parsed: 1 meshes") {
			found = true
		}
	}
	if !found {
		t.Errorf("GLB was not preloaded: %v", resp.Logs)
	}
}

func TestPrepareCountsModes(t *testing.T) {
	h, m := newTestHandler(t, false)
	prepare(t, h, androidUA, "?xr=1")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `arview_mode_decisions_total{mode="android-webxr"} 1`) {
		t.Errorf("mode decision not counted:\n%s", body)
	}
}

func TestStaticContentTypes(t *testing.T) {
	h, _ := newTestHandler(t, true)
	r := h.Router()

	tests := []struct {
		path string
		code int
		ct   string
	}{
		{"/assets/model.glb", http.StatusOK, "model/gltf-binary"},
		{"/assets/model.usdz", http.StatusOK, "model/vnd.usdz+zip"},
		{"/index.html", http.StatusMovedPermanently, ""},
		{"/", http.StatusOK, "text/html; charset=utf-8"},
		{"/assets/missing.glb", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.code {
			t.Errorf("%s: expected %d, got %d", tt.path, tt.code, rec.Code)
			continue
		}
		if tt.ct != "" && rec.Header().Get("Content-Type") != tt.ct {
			t.Errorf("%s: expected content type %q, got %q", tt.path, tt.ct, rec.Header().Get("Content-Type"))
		}
	}
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t, false)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	body, _ := io.ReadAll(rec.Body)
	if rec.Code != http.StatusOK || string(body) != "ok" {
		t.Errorf("expected 200 ok, got %d %q", rec.Code, body)
	}
}

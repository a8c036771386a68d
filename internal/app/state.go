package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/philipparndt/arview/internal/arsession"
	"github.com/philipparndt/arview/internal/loop"
	"github.com/philipparndt/arview/internal/preview"
	"github.com/philipparndt/arview/internal/viewer"
	"github.com/philipparndt/arview/pkg/asset"
	"github.com/philipparndt/arview/pkg/geometry"
	"github.com/philipparndt/arview/pkg/gesture"
	"github.com/philipparndt/arview/pkg/renderloop"
	"github.com/philipparndt/arview/pkg/scene"
	"github.com/philipparndt/arview/pkg/watcher"
	"github.com/philipparndt/arview/pkg/xr/xrsim"
)

// SessionState holds the viewer services shared by the preview and AR
type SessionState struct {
	loop    *loop.Loop
	driver  *renderloop.Driver
	preview *preview.Session
	ar      *arsession.Controller
	shell   *viewer.Shell
	prep    *asset.Preparation
	ctx     context.Context
}

// InputState holds pointer tracking between frames
type InputState struct {
	surface *gesture.Surface
	touches map[int]pointerState
}

// SimState holds the simulated AR device
type SimState struct {
	system *xrsim.System
	// viewer is the simulated device position
	viewer geometry.Vector3
	frame  *xrsim.Frame
}

// FileWatchState holds file watching and reload state
type FileWatchState struct {
	sourceFile  string
	fileWatcher *watcher.FileWatcher
	loader      *asset.Loader
	isLoading   bool
	startedAt   time.Time
}

// UIState holds HUD state. Status lines arrive from any goroutine.
type UIState struct {
	mu       sync.Mutex
	lines    []hudLine
	maxLines int
	arState  string
}

type hudLine struct {
	text  string
	color rl.Color
	at    time.Time
}

// RenderState holds GPU resources keyed by payload
type RenderState struct {
	meshes   map[*scene.Payload]rl.Mesh
	material rl.Material
	camera   rl.Camera3D
}

// App is the desktop host: a raylib window driving the shared viewer core
type App struct {
	Session   SessionState
	Input     InputState
	Sim       SimState
	FileWatch FileWatchState
	UI        UIState
	Render    RenderState

	log *slog.Logger
}

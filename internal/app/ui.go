package app

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/philipparndt/arview/internal/arsession"
	"github.com/philipparndt/arview/internal/status"
	"github.com/philipparndt/arview/version"
)

const hudTTL = 8 * time.Second

// Report implements status.Reporter for the HUD
func (app *App) Report(msg status.Message) {
	color := rl.RayWhite
	switch msg.Level {
	case status.LevelWarn:
		color = rl.Orange
	case status.LevelError:
		color = rl.Red
	}
	if msg.Session != "" && msg.State != "" {
		app.UI.mu.Lock()
		app.UI.arState = msg.State
		app.UI.mu.Unlock()
	}
	app.addLine(msg.Text, color)
}

// arState is the AR session state as last reported. The controller's own
// State blocks on the loop, which the drawing goroutine is.
func (app *App) arState() string {
	app.UI.mu.Lock()
	defer app.UI.mu.Unlock()
	if app.UI.arState == "" {
		return arsession.Idle.String()
	}
	return app.UI.arState
}

func (app *App) hud(text string) {
	app.addLine(text, rl.RayWhite)
}

func (app *App) hudError(text string) {
	app.addLine(text, rl.Red)
}

func (app *App) addLine(text string, color rl.Color) {
	app.UI.mu.Lock()
	defer app.UI.mu.Unlock()

	app.UI.lines = append(app.UI.lines, hudLine{text: text, color: color, at: time.Now()})
	if len(app.UI.lines) > app.UI.maxLines {
		app.UI.lines = app.UI.lines[len(app.UI.lines)-app.UI.maxLines:]
	}
}

// recentLines returns the lines younger than the HUD lifetime
func (app *App) recentLines(now time.Time) []hudLine {
	app.UI.mu.Lock()
	defer app.UI.mu.Unlock()

	out := make([]hudLine, 0, len(app.UI.lines))
	for _, l := range app.UI.lines {
		if now.Sub(l.at) < hudTTL {
			out = append(out, l)
		}
	}
	return out
}

// drawUI draws the mode banner, key help and recent status lines
func (app *App) drawUI() {
	fontSize := int32(16)
	lineHeight := int32(20)
	y := int32(10)

	state := app.arState()
	banner := fmt.Sprintf("Mode: %s   AR: %s", app.Session.shell.Mode(), state)
	rl.DrawText(banner, 10, y, fontSize+2, rl.RayWhite)
	y += lineHeight + 6

	help := "Drag: rotate  Wheel/pinch: zoom  Home: reset  Enter: start AR"
	if state == arsession.Active.String() {
		help = "Move mouse: aim reticle  Space/right click: place  Backspace: exit AR"
	}
	rl.DrawText(help, 10, y, fontSize-2, rl.LightGray)
	y += lineHeight

	if app.FileWatch.isLoading {
		elapsed := time.Since(app.FileWatch.startedAt).Seconds()
		rl.DrawText(fmt.Sprintf("Loading... (%.1fs)", elapsed), 10, y, fontSize-2, rl.Yellow)
		y += lineHeight
	}

	for _, l := range app.recentLines(time.Now()) {
		rl.DrawText(l.text, 10, y, fontSize-2, l.color)
		y += lineHeight
	}

	versionText := fmt.Sprintf("v%s", version.GetVersion())
	screenHeight := int32(rl.GetScreenHeight())
	rl.DrawText(versionText, 10, screenHeight-lineHeight, 12, rl.Gray)
	rl.DrawFPS(int32(rl.GetScreenWidth())-90, 10)
}

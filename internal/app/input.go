package app

import (
	"maps"
	"slices"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/philipparndt/arview/internal/arsession"
	"github.com/philipparndt/arview/pkg/gesture"
)

// wheelScale converts raylib wheel notches to browser-style delta units
const wheelScale = 100.0

// pointerState is one pointer as seen in a single frame
type pointerState struct {
	x, y float64
}

// pointerEvents diffs two frames of pointer snapshots into gesture events.
// Releases come first so a pointer swap never counts three contacts.
func pointerEvents(prev, cur map[int]pointerState) []gesture.Event {
	var events []gesture.Event
	for _, id := range slices.Sorted(maps.Keys(prev)) {
		if _, ok := cur[id]; !ok {
			events = append(events, gesture.Event{Kind: gesture.EventUp, ID: id})
		}
	}
	for _, id := range slices.Sorted(maps.Keys(cur)) {
		p := cur[id]
		old, ok := prev[id]
		switch {
		case !ok:
			events = append(events, gesture.Event{Kind: gesture.EventDown, ID: id, X: p.x, Y: p.y})
		case old != p:
			events = append(events, gesture.Event{Kind: gesture.EventMove, ID: id, X: p.x, Y: p.y})
		}
	}
	return events
}

// wheelEvent converts a raylib wheel move; scrolling up zooms in
func wheelEvent(move float32) (gesture.Event, bool) {
	if move == 0 {
		return gesture.Event{}, false
	}
	return gesture.Event{Kind: gesture.EventWheel, Delta: -float64(move) * wheelScale}, true
}

// pointerSnapshot reads touches, or the left mouse button when there are none
func pointerSnapshot() map[int]pointerState {
	cur := make(map[int]pointerState)
	if n := rl.GetTouchPointCount(); n > 0 {
		for i := int32(0); i < n; i++ {
			pos := rl.GetTouchPosition(i)
			cur[int(rl.GetTouchPointId(i))] = pointerState{x: float64(pos.X), y: float64(pos.Y)}
		}
		return cur
	}
	if rl.IsMouseButtonDown(rl.MouseLeftButton) {
		pos := rl.GetMousePosition()
		cur[0] = pointerState{x: float64(pos.X), y: float64(pos.Y)}
	}
	return cur
}

// handleInput forwards pointer input to the gesture surface and maps keys
// to viewer actions
func (app *App) handleInput() {
	cur := pointerSnapshot()
	for _, ev := range pointerEvents(app.Input.touches, cur) {
		app.Input.surface.Emit(ev)
	}
	app.Input.touches = cur

	if ev, ok := wheelEvent(rl.GetMouseWheelMove()); ok {
		app.Input.surface.Emit(ev)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		app.resetCameraView()
	}
	if rl.IsKeyPressed(rl.KeyEnter) {
		app.enterAR()
	}
	if rl.IsKeyPressed(rl.KeySpace) || rl.IsMouseButtonPressed(rl.MouseRightButton) {
		app.selectAR()
	}
	if rl.IsKeyPressed(rl.KeyBackspace) && app.arState() == arsession.Active.String() {
		app.stopAR()
	}
}

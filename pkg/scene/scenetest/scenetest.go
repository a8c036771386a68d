// Package scenetest provides recording fakes for the scene interfaces.
package scenetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/philipparndt/arview/pkg/geometry"
	"github.com/philipparndt/arview/pkg/scene"
)

// Renderer counts frames and remembers the camera of the last one
type Renderer struct {
	Frames     int
	LastCamera geometry.Vector3
}

// RenderFrame records one frame
func (r *Renderer) RenderFrame(_ scene.Scene, c scene.Camera) {
	r.Frames++
	if pc, ok := c.(*scene.PerspectiveCamera); ok {
		r.LastCamera = pc.Position
	}
}

// Loader serves payloads from a map. Unknown URLs fail with scene.ErrAssetLoad.
type Loader struct {
	mu       sync.Mutex
	payloads map[string]*scene.Payload
	errs     map[string]error
	calls    int

	// Before runs at the start of every Load, outside the lock
	Before func(url string)
}

// NewLoader creates an empty fake loader
func NewLoader() *Loader {
	return &Loader{
		payloads: make(map[string]*scene.Payload),
		errs:     make(map[string]error),
	}
}

// Serve registers a payload for url
func (l *Loader) Serve(url string, p *scene.Payload) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.payloads[url] = p
	delete(l.errs, url)
}

// Fail makes url fail with err
func (l *Loader) Fail(url string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs[url] = err
}

// Calls returns the number of Load calls
func (l *Loader) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// Load implements scene.Loader
func (l *Loader) Load(ctx context.Context, url string) (*scene.Payload, error) {
	if l.Before != nil {
		l.Before(url)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", scene.ErrAssetLoad, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if err, ok := l.errs[url]; ok {
		return nil, fmt.Errorf("%w: %w", scene.ErrAssetLoad, err)
	}
	p, ok := l.payloads[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s not found", scene.ErrAssetLoad, url)
	}
	return p, nil
}

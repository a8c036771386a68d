// Package xr describes the immersive AR runtime the viewer drives: session
// support queries, session requests, reference spaces, hit-test sources and
// per-frame hit results. Implementations adapt a platform API; xrsim
// provides a simulated runtime for desktop hosts and tests.
package xr

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"
)

// SessionMode names the kind of session requested
type SessionMode string

const (
	ImmersiveAR SessionMode = "immersive-ar"
)

// Feature is a session capability
type Feature string

const (
	FeatureHitTest    Feature = "hit-test"
	FeatureDOMOverlay Feature = "dom-overlay"
)

// ReferenceSpaceType selects the coordinate system of a reference space
type ReferenceSpaceType string

const (
	// SpaceViewer follows the device; hit-test rays are cast from it
	SpaceViewer ReferenceSpaceType = "viewer"
	// SpaceLocal is fixed near the session origin; poses are reported in it
	SpaceLocal ReferenceSpaceType = "local"
)

// SessionOptions are passed to RequestSession
type SessionOptions struct {
	Required []Feature
	Optional []Feature
	// OverlayRoot identifies the element shown over the camera feed
	OverlayRoot string
}

// System is the entry point of the AR runtime
type System interface {
	IsSessionSupported(ctx context.Context, mode SessionMode) (bool, error)
	// RequestSession is gated on a user gesture by most platforms; callers
	// must not retry it without a new user action.
	RequestSession(ctx context.Context, mode SessionMode, opts SessionOptions) (Session, error)
}

// Session is a live immersive session
type Session interface {
	RequestReferenceSpace(ctx context.Context, typ ReferenceSpaceType) (ReferenceSpace, error)
	RequestHitTestSource(ctx context.Context, space ReferenceSpace) (HitTestSource, error)
	// OnEnd registers fn to run once when the session ends for any reason.
	// fn must not be invoked on the frame loop goroutine.
	OnEnd(fn func())
	End() error
}

// ReferenceSpace is an opaque coordinate system handle
type ReferenceSpace interface {
	Type() ReferenceSpaceType
}

// HitTestSource yields per-frame ray/surface intersections
type HitTestSource interface {
	Cancel()
}

// HitResult is one intersection, nearest first in a result list
type HitResult interface {
	// Pose returns the hit transform in space, false when unavailable
	Pose(space ReferenceSpace) (mgl64.Mat4, bool)
}

// Frame is the per-frame snapshot of the AR runtime
type Frame interface {
	HitTestResults(source HitTestSource) []HitResult
	// ViewerPose returns the device transform in space, false when tracking is lost
	ViewerPose(space ReferenceSpace) (mgl64.Mat4, bool)
}

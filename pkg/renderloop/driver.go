// Package renderloop owns the single per-frame callback slot shared by the
// preview and the AR session.
package renderloop

import (
	"errors"
	"time"

	"github.com/philipparndt/arview/pkg/xr"
)

var (
	// ErrResourceConflict is returned by Start when a callback is already installed
	ErrResourceConflict = errors.New("renderloop: frame callback already installed")
	// ErrNilCallback is returned by Start for a nil callback
	ErrNilCallback = errors.New("renderloop: nil frame callback")
)

// Frame is what a frame callback sees for one display frame
type Frame struct {
	Index uint64
	Time  time.Time
	Delta time.Duration
	// XR is the immersive frame snapshot, nil outside an AR session
	XR xr.Frame
}

// FrameFunc renders one frame
type FrameFunc func(Frame)

// Owner identifies one installation of a callback. The zero Owner never
// holds the slot.
type Owner uint64

// Handoff is the installation a Swap displaced
type Handoff struct {
	owner Owner
	cb    FrameFunc
}

// Driver holds at most one FrameFunc. Ownership changes hands only through
// Start, Stop, Swap, Release and Restore.
//
// A Driver is not safe for concurrent use: call it from the goroutine that
// runs the frame loop.
type Driver struct {
	cb     FrameFunc
	owner  Owner
	next   Owner
	frames uint64
	last   time.Time

	// displaced owners that may still be handed the slot back
	waiting map[Owner]bool
}

// NewDriver creates an empty driver
func NewDriver() *Driver {
	return &Driver{waiting: make(map[Owner]bool)}
}

func (d *Driver) install(cb FrameFunc) Owner {
	d.next++
	d.cb, d.owner = cb, d.next
	return d.owner
}

// Start installs cb. It fails with ErrResourceConflict when a callback is
// already installed; call Stop or use Swap instead.
func (d *Driver) Start(cb FrameFunc) (Owner, error) {
	if cb == nil {
		return 0, ErrNilCallback
	}
	if d.cb != nil {
		return 0, ErrResourceConflict
	}
	return d.install(cb), nil
}

// MustStart is Start for call sites where a conflict is a programming error
func (d *Driver) MustStart(cb FrameFunc) Owner {
	owner, err := d.Start(cb)
	if err != nil {
		panic(err)
	}
	return owner
}

// Stop clears the installed callback whoever owns it. Safe to call when none
// is installed. Owners waiting for a Restore are not affected.
func (d *Driver) Stop() {
	d.cb, d.owner = nil, 0
}

// Swap replaces the callback in one step. No frame observes an empty slot
// between the two callbacks. The displaced installation is returned for
// Restore.
func (d *Driver) Swap(cb FrameFunc) (Owner, Handoff) {
	prev := Handoff{owner: d.owner, cb: d.cb}
	if prev.cb != nil {
		d.waiting[prev.owner] = true
	}
	return d.install(cb), prev
}

// Release gives up owner's claim on the slot: the slot is cleared when
// owner holds it, and a displaced owner is no longer handed the slot back.
// It reports whether owner held the slot.
func (d *Driver) Release(owner Owner) bool {
	delete(d.waiting, owner)
	if owner == 0 || d.owner != owner {
		return false
	}
	d.Stop()
	return true
}

// Restore ends owner's installation and reinstalls the callback h
// displaced, unless that callback's owner was released in the meantime, in
// which case the slot is left empty. It does nothing and reports false when
// owner no longer holds the slot.
func (d *Driver) Restore(owner Owner, h Handoff) bool {
	delete(d.waiting, owner)
	if owner == 0 || d.owner != owner {
		return false
	}
	if h.cb != nil && d.waiting[h.owner] {
		delete(d.waiting, h.owner)
		d.cb, d.owner = h.cb, h.owner
		return true
	}
	d.Stop()
	return true
}

// Owner returns the owner of the installed callback, zero when empty
func (d *Driver) Owner() Owner {
	return d.owner
}

// Installed reports whether a callback is installed
func (d *Driver) Installed() bool {
	return d.cb != nil
}

// Frames returns the number of frames delivered to a callback
func (d *Driver) Frames() uint64 {
	return d.frames
}

// Tick delivers one frame to the installed callback and reports whether one
// ran. Index and Delta are filled in by the driver; xrFrame may be nil.
func (d *Driver) Tick(now time.Time, xrFrame xr.Frame) bool {
	cb := d.cb
	if cb == nil {
		d.last = now
		return false
	}

	f := Frame{Index: d.frames, Time: now, XR: xrFrame}
	if !d.last.IsZero() {
		f.Delta = now.Sub(d.last)
	}
	d.last = now
	d.frames++

	cb(f)
	return true
}

package vkrender

import (
	"fmt"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// FrameState is where the frame loop is within one iteration.
type FrameState int

const (
	FrameIdle FrameState = iota
	FrameAcquiring
	FrameRecording
	FrameSubmitted
	FramePresenting
)

func (s FrameState) String() string {
	switch s {
	case FrameIdle:
		return "idle"
	case FrameAcquiring:
		return "acquiring"
	case FrameRecording:
		return "recording"
	case FrameSubmitted:
		return "submitted"
	case FramePresenting:
		return "presenting"
	}
	return fmt.Sprintf("FrameState(%d)", int(s))
}

// FrameEvents carries what happened to the window since the last frame.
type FrameEvents struct {
	// Resized reports a framebuffer size change. Like every rebuild
	// trigger it stays pending in the loop until a rebuild succeeds.
	Resized bool
}

// SurfaceStatus is how acquire and present judged the swapchain.
type SurfaceStatus int

const (
	SurfaceOptimal SurfaceStatus = iota
	SurfaceSuboptimal
	SurfaceOutOfDate
)

// surfaceStatus sorts a vulkan result into the statuses the frame loop
// handles, or an error for anything else.
func surfaceStatus(res vk.Result, call string) (SurfaceStatus, error) {
	switch res {
	case vk.Success:
		return SurfaceOptimal, nil
	case vk.Suboptimal:
		return SurfaceSuboptimal, nil
	case vk.ErrorOutOfDate:
		return SurfaceOutOfDate, nil
	}
	return SurfaceOptimal, vkErr(res, call)
}

// FrameDriver performs the GPU side of each frame loop step for one frame
// slot at a time.
type FrameDriver interface {
	// WaitForSlot blocks until the GPU has retired the slot's last submission.
	WaitForSlot(slot int) error
	AcquireImage(slot int) (uint32, SurfaceStatus, error)
	RecordSlot(slot int, image uint32) error
	// ResetSlot unsignals the slot's fence ahead of SubmitSlot.
	ResetSlot(slot int) error
	SubmitSlot(slot int, image uint32) error
	PresentImage(slot int, image uint32) (SurfaceStatus, error)
	// Rebuild recreates the swapchain and everything sized by it.
	Rebuild() error
}

// FrameLoop runs frames over N slots. Slot i's command buffer is only
// recorded after WaitForSlot(i) returned, and its fence is only reset once
// the frame is certain to be submitted.
type FrameLoop struct {
	N      int
	driver FrameDriver

	current        int
	state          FrameState
	pendingRebuild bool
	rebuilds       int
	presented      uint64
}

func NewFrameLoop(n int, driver FrameDriver) (*FrameLoop, error) {
	if n < 2 {
		return nil, errors.Mark(errors.Newf("frame loop needs at least 2 slots, got %d", n), ErrInvalidOptions)
	}
	return &FrameLoop{N: n, driver: driver}, nil
}

func (l *FrameLoop) Current() int { return l.current }
func (l *FrameLoop) State() FrameState { return l.state }
func (l *FrameLoop) PendingRebuild() bool { return l.pendingRebuild }
func (l *FrameLoop) Rebuilds() int { return l.rebuilds }
func (l *FrameLoop) PresentedFrames() uint64 { return l.presented }

// rebuild keeps the rebuild pending until the driver succeeds, so a failed
// attempt is retried before the next frame touches the swapchain. Failures
// caused by an out of date surface are marked ErrSurfaceOutOfDate.
func (l *FrameLoop) rebuild(status SurfaceStatus) error {
	l.pendingRebuild = true
	if err := l.driver.Rebuild(); err != nil {
		err = errors.Wrap(err, "rebuilding swapchain")
		if status == SurfaceOutOfDate {
			err = errors.Mark(err, ErrSurfaceOutOfDate)
		}
		return err
	}
	l.pendingRebuild = false
	l.rebuilds++
	return nil
}

// Step runs one iteration. It returns with the loop Idle whether the frame
// was presented or abandoned because the surface went out of date, in
// which case the swapchain was rebuilt and the current slot is reused.
func (l *FrameLoop) Step(ev FrameEvents) error {
	defer func() {
		l.state = FrameIdle
	}()

	if ev.Resized {
		l.pendingRebuild = true
	}
	if l.pendingRebuild {
		if err := l.rebuild(SurfaceOptimal); err != nil {
			return err
		}
	}

	slot := l.current
	l.state = FrameAcquiring
	if err := l.driver.WaitForSlot(slot); err != nil {
		return errors.Wrapf(err, "waiting for frame slot %d", slot)
	}
	image, status, err := l.driver.AcquireImage(slot)
	if err != nil {
		return errors.Wrap(err, "acquiring swapchain image")
	}
	if status == SurfaceOutOfDate {
		return l.rebuild(status)
	}
	rebuildAfterPresent := status == SurfaceSuboptimal

	l.state = FrameRecording
	if err := l.driver.RecordSlot(slot, image); err != nil {
		return errors.Wrapf(err, "recording frame slot %d", slot)
	}

	if err := l.driver.ResetSlot(slot); err != nil {
		return errors.Wrapf(err, "resetting frame slot %d", slot)
	}
	if err := l.driver.SubmitSlot(slot, image); err != nil {
		return errors.Wrapf(err, "submitting frame slot %d", slot)
	}
	l.state = FrameSubmitted

	l.state = FramePresenting
	status, err = l.driver.PresentImage(slot, image)
	if err != nil {
		return errors.Wrap(err, "presenting swapchain image")
	}
	l.presented++
	l.current = (l.current + 1) % l.N

	if status != SurfaceOptimal || rebuildAfterPresent || l.pendingRebuild {
		return l.rebuild(status)
	}
	return nil
}

package vkrender

import (
	"testing"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// fakeDriver models one fence per slot. Submitting leaves the fence
// unsignalled until the next wait on that slot retires the work.
type fakeDriver struct {
	t    *testing.T
	loop *FrameLoop

	signalled []bool
	inFlight  []bool
	recorded  []bool

	acquire    []SurfaceStatus
	present    []SurfaceStatus
	rebuildErr error

	calls    []string
	rebuilds int
	images   uint32
	next     uint32
}

func newFakeDriver(t *testing.T, n int) *fakeDriver {
	d := &fakeDriver{
		t:         t,
		signalled: make([]bool, n),
		inFlight:  make([]bool, n),
		recorded:  make([]bool, n),
		images:    3,
	}
	for i := range d.signalled {
		d.signalled[i] = true
	}
	loop, err := NewFrameLoop(n, d)
	if err != nil {
		t.Fatal(err)
	}
	d.loop = loop
	return d
}

func (d *fakeDriver) expectState(call string, want FrameState) {
	d.calls = append(d.calls, call)
	if got := d.loop.State(); got != want {
		d.t.Errorf("%s called in state %s, want %s", call, got, want)
	}
}

func (d *fakeDriver) WaitForSlot(slot int) error {
	d.expectState("wait", FrameAcquiring)
	if d.inFlight[slot] {
		d.inFlight[slot] = false
		d.signalled[slot] = true
	}
	if !d.signalled[slot] {
		d.t.Fatalf("waiting on slot %d whose fence was reset and never submitted", slot)
	}
	d.recorded[slot] = false
	return nil
}

func (d *fakeDriver) AcquireImage(slot int) (uint32, SurfaceStatus, error) {
	d.expectState("acquire", FrameAcquiring)
	status := SurfaceOptimal
	if len(d.acquire) > 0 {
		status, d.acquire = d.acquire[0], d.acquire[1:]
	}
	img := d.next
	d.next = (d.next + 1) % d.images
	return img, status, nil
}

func (d *fakeDriver) RecordSlot(slot int, image uint32) error {
	d.expectState("record", FrameRecording)
	if !d.signalled[slot] || d.inFlight[slot] {
		d.t.Errorf("slot %d recorded while its fence is unsignalled", slot)
	}
	d.recorded[slot] = true
	return nil
}

func (d *fakeDriver) ResetSlot(slot int) error {
	d.expectState("reset", FrameRecording)
	if !d.recorded[slot] {
		d.t.Errorf("slot %d fence reset before its commands were recorded", slot)
	}
	d.signalled[slot] = false
	return nil
}

func (d *fakeDriver) SubmitSlot(slot int, image uint32) error {
	d.expectState("submit", FrameRecording)
	if d.signalled[slot] {
		d.t.Errorf("slot %d submitted with a signalled fence", slot)
	}
	d.inFlight[slot] = true
	return nil
}

func (d *fakeDriver) PresentImage(slot int, image uint32) (SurfaceStatus, error) {
	d.expectState("present", FramePresenting)
	status := SurfaceOptimal
	if len(d.present) > 0 {
		status, d.present = d.present[0], d.present[1:]
	}
	return status, nil
}

func (d *fakeDriver) Rebuild() error {
	d.calls = append(d.calls, "rebuild")
	if d.rebuildErr != nil {
		err := d.rebuildErr
		d.rebuildErr = nil
		return err
	}
	d.rebuilds++
	return nil
}

func (d *fakeDriver) step(ev FrameEvents) {
	d.t.Helper()
	d.calls = nil
	if err := d.loop.Step(ev); err != nil {
		d.t.Fatal(err)
	}
	if d.loop.State() != FrameIdle {
		d.t.Errorf("step ended in state %s", d.loop.State())
	}
}

func equalCalls(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFrameLoopNeedsTwoSlots(t *testing.T) {
	if _, err := NewFrameLoop(1, nil); !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("got %v, want ErrInvalidOptions", err)
	}
}

func TestFrameLoopOrder(t *testing.T) {
	d := newFakeDriver(t, 2)
	d.step(FrameEvents{})
	want := []string{"wait", "acquire", "record", "reset", "submit", "present"}
	if !equalCalls(d.calls, want) {
		t.Errorf("calls = %v, want %v", d.calls, want)
	}
	if d.loop.Current() != 1 || d.loop.PresentedFrames() != 1 {
		t.Errorf("current = %d after %d frames", d.loop.Current(), d.loop.PresentedFrames())
	}
}

func TestFrameLoopFenceDiscipline(t *testing.T) {
	for _, n := range []int{2, 3} {
		d := newFakeDriver(t, n)
		for i := 0; i < 10; i++ {
			if d.loop.Current() != i%n {
				t.Fatalf("N=%d frame %d on slot %d", n, i, d.loop.Current())
			}
			d.step(FrameEvents{})
		}
	}
}

func TestFrameLoopAcquireOutOfDate(t *testing.T) {
	d := newFakeDriver(t, 2)
	d.step(FrameEvents{})

	d.acquire = []SurfaceStatus{SurfaceOutOfDate}
	d.step(FrameEvents{})

	want := []string{"wait", "acquire", "rebuild"}
	if !equalCalls(d.calls, want) {
		t.Errorf("calls = %v, want %v", d.calls, want)
	}
	if d.loop.Current() != 1 {
		t.Errorf("current = %d, out of date acquire must not advance", d.loop.Current())
	}
	if !d.signalled[1] {
		t.Error("fence of the abandoned slot was reset")
	}
	if d.loop.PresentedFrames() != 1 || d.rebuilds != 1 {
		t.Errorf("presented %d frames with %d rebuilds", d.loop.PresentedFrames(), d.rebuilds)
	}

	// the abandoned slot is reused without blocking
	d.step(FrameEvents{})
	if d.loop.Current() != 0 || d.loop.PresentedFrames() != 2 {
		t.Errorf("current = %d after %d frames", d.loop.Current(), d.loop.PresentedFrames())
	}
}

func TestFrameLoopSuboptimalAcquire(t *testing.T) {
	d := newFakeDriver(t, 2)
	d.acquire = []SurfaceStatus{SurfaceSuboptimal}
	d.step(FrameEvents{})
	want := []string{"wait", "acquire", "record", "reset", "submit", "present", "rebuild"}
	if !equalCalls(d.calls, want) {
		t.Errorf("calls = %v, want %v", d.calls, want)
	}
	if d.loop.Current() != 1 {
		t.Errorf("current = %d, a presented frame advances", d.loop.Current())
	}
}

func TestFrameLoopPresentOutOfDate(t *testing.T) {
	d := newFakeDriver(t, 2)
	d.present = []SurfaceStatus{SurfaceOutOfDate}
	d.step(FrameEvents{})
	if d.rebuilds != 1 {
		t.Errorf("rebuilds = %d, want 1", d.rebuilds)
	}
}

func TestFrameLoopResizeIsSticky(t *testing.T) {
	d := newFakeDriver(t, 2)
	d.rebuildErr = errors.New("surface is zero sized")

	if err := d.loop.Step(FrameEvents{Resized: true}); err == nil {
		t.Fatal("failed rebuild not reported")
	}
	if !d.loop.PendingRebuild() {
		t.Fatal("resize dropped after a failed rebuild")
	}

	d.step(FrameEvents{})
	if d.calls[0] != "rebuild" || d.rebuilds != 1 {
		t.Errorf("calls = %v, pending resize not rebuilt first", d.calls)
	}
	if d.loop.PendingRebuild() {
		t.Error("resize still pending after a rebuild")
	}

	d.step(FrameEvents{})
	if d.rebuilds != 1 {
		t.Errorf("rebuilds = %d, consumed resize rebuilt again", d.rebuilds)
	}
}

func TestFrameLoopFailedRebuildIsRetried(t *testing.T) {
	for _, tt := range []struct {
		name    string
		acquire []SurfaceStatus
		present []SurfaceStatus
		marked  bool
	}{
		{"acquire out of date", []SurfaceStatus{SurfaceOutOfDate}, nil, true},
		{"acquire suboptimal", []SurfaceStatus{SurfaceSuboptimal}, nil, false},
		{"present out of date", nil, []SurfaceStatus{SurfaceOutOfDate}, true},
		{"present suboptimal", nil, []SurfaceStatus{SurfaceSuboptimal}, false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			d := newFakeDriver(t, 2)
			d.acquire = tt.acquire
			d.present = tt.present
			d.rebuildErr = errors.New("device lost")

			err := d.loop.Step(FrameEvents{})
			if err == nil {
				t.Fatal("failed rebuild not reported")
			}
			if got := errors.Is(err, ErrSurfaceOutOfDate); got != tt.marked {
				t.Errorf("errors.Is(err, ErrSurfaceOutOfDate) = %v, want %v", got, tt.marked)
			}
			if !d.loop.PendingRebuild() {
				t.Fatal("rebuild dropped after it failed")
			}

			d.step(FrameEvents{})
			if len(d.calls) < 2 || d.calls[0] != "rebuild" || d.calls[1] != "wait" {
				t.Errorf("calls = %v, want the rebuild retried before waiting", d.calls)
			}
			if d.rebuilds != 1 || d.loop.PendingRebuild() {
				t.Errorf("rebuilds = %d, pending = %v", d.rebuilds, d.loop.PendingRebuild())
			}
		})
	}
}

func TestSurfaceStatus(t *testing.T) {
	tests := []struct {
		res  vk.Result
		want SurfaceStatus
	}{
		{vk.Success, SurfaceOptimal},
		{vk.Suboptimal, SurfaceSuboptimal},
		{vk.ErrorOutOfDate, SurfaceOutOfDate},
	}
	for _, tt := range tests {
		got, err := surfaceStatus(tt.res, "vkQueuePresentKHR")
		if err != nil || got != tt.want {
			t.Errorf("%d: got %d, %v", tt.res, got, err)
		}
	}
	if _, err := surfaceStatus(vk.ErrorDeviceLost, "vkQueuePresentKHR"); err == nil {
		t.Error("device lost not reported")
	}
}

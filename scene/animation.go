package scene

import (
	"github.com/cockroachdb/errors"
)

// leftoverEpsilon is the time below which leftover is not carried into the
// next keyframe.
const leftoverEpsilon = 1e-6

// KeyFrame moves its target along Interp over Duration.
type KeyFrame struct {
	Duration float32
	Interp   Interpolator

	progress float32
	last     Transform
}

// Advance moves the keyframe forward by dt. It returns the change since the
// previous Advance and the part of dt past the keyframe's end.
func (k *KeyFrame) Advance(dt float32) (delta Transform, leftover float32) {
	rel := float32(1)
	if k.Duration > 0 {
		rel = (k.progress + dt) / k.Duration
	}
	var travel Transform
	if k.Interp != nil {
		travel = k.Interp.Evaluate(clamp01(rel))
	}
	delta = travel.Sub(k.last)
	k.last = travel

	leftover = k.progress + dt - k.Duration
	k.progress += dt
	if k.progress > k.Duration {
		k.progress = k.Duration
	}
	if leftover < 0 {
		leftover = 0
	}
	return delta, leftover
}

func (k *KeyFrame) Done() bool {
	return k.progress >= k.Duration
}

func (k *KeyFrame) Reset() {
	k.progress = 0
	k.last = Transform{}
}

// Animation plays keyframes in order on the transform behind Target. The
// handle is resolved on every tick.
type Animation struct {
	Loop   bool
	Target Handle

	keyframes []*KeyFrame
	index     int
	start     Transform
	animating bool
}

func NewAnimation(loop bool) *Animation {
	return &Animation{Loop: loop}
}

// Bind targets h and records its current transform as the start every
// playthrough begins from.
func (a *Animation) Bind(arena *Arena, h Handle) error {
	t, err := arena.Get(h)
	if err != nil {
		return errors.Wrap(err, "binding animation")
	}
	a.Target = h
	a.start = t
	a.animating = false
	return nil
}

func (a *Animation) AddKeyFrame(duration float32, interp Interpolator) *KeyFrame {
	kf := &KeyFrame{Duration: duration, Interp: interp}
	a.keyframes = append(a.keyframes, kf)
	return kf
}

// Done reports whether a non looping animation has played every keyframe.
func (a *Animation) Done() bool {
	return !a.Loop && a.index >= len(a.keyframes)
}

// Tick advances the animation by dt and writes the result to the target.
func (a *Animation) Tick(arena *Arena, dt float32) error {
	if a.Target.IsZero() || len(a.keyframes) == 0 || a.Done() {
		return nil
	}
	t, err := arena.Get(a.Target)
	if err != nil {
		return err
	}
	if !a.animating {
		t = a.start
		a.animating = true
	}

	for a.index < len(a.keyframes) {
		kf := a.keyframes[a.index]
		delta, leftover := kf.Advance(dt)
		t = t.Add(delta)
		if !kf.Done() {
			break
		}
		a.index++
		dt = leftover
		if dt < leftoverEpsilon {
			break
		}
	}

	if a.index == len(a.keyframes) && a.Loop {
		for _, kf := range a.keyframes {
			kf.Reset()
		}
		a.index = 0
		a.animating = false
	}
	return arena.Set(a.Target, t)
}

// System ticks every animation over one arena.
type System struct {
	Arena      *Arena
	animations []*Animation
}

func NewSystem(arena *Arena) *System {
	return &System{Arena: arena}
}

// Animate creates an animation bound to h.
func (s *System) Animate(h Handle, loop bool) (*Animation, error) {
	a := NewAnimation(loop)
	if err := a.Bind(s.Arena, h); err != nil {
		return nil, err
	}
	s.animations = append(s.animations, a)
	return a, nil
}

func (s *System) Len() int {
	return len(s.animations)
}

// Tick advances every animation. Animations whose target was released are
// dropped and reported in the returned error.
func (s *System) Tick(dt float32) error {
	var errs error
	live := s.animations[:0]
	for _, a := range s.animations {
		if err := a.Tick(s.Arena, dt); err != nil {
			errs = errors.CombineErrors(errs, err)
			if errors.Is(err, ErrStaleHandle) {
				continue
			}
		}
		live = append(live, a)
	}
	s.animations = live
	return errs
}

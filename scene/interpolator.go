package scene

// Interpolator maps relative time t in [0, 1] through a keyframe to the
// offset travelled from the keyframe's start. The set is closed: Linear,
// Step and EaseInOut.
type Interpolator interface {
	Evaluate(t float32) Transform
	interpolator()
}

// Linear moves from Start to End at constant speed.
type Linear struct {
	Start, End Transform
}

func (l Linear) Evaluate(t float32) Transform {
	return l.End.Sub(l.Start).Mul(clamp01(t))
}

// Step holds at Start and jumps to End when the keyframe completes.
type Step struct {
	Start, End Transform
}

func (s Step) Evaluate(t float32) Transform {
	if t < 1 {
		return Transform{}
	}
	return s.End.Sub(s.Start)
}

// EaseInOut follows a smoothstep curve from Start to End.
type EaseInOut struct {
	Start, End Transform
}

func (e EaseInOut) Evaluate(t float32) Transform {
	t = clamp01(t)
	return e.End.Sub(e.Start).Mul(t * t * (3 - 2*t))
}

func (Linear) interpolator()    {}
func (Step) interpolator()      {}
func (EaseInOut) interpolator() {}

func clamp01(t float32) float32 {
	switch {
	case t < 0:
		return 0
	case t > 1:
		return 1
	}
	return t
}

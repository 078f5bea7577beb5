package vkrender

import (
	"log/slog"
	"time"

	"github.com/loov/hrtime"
)

// FrameStats keeps the durations of the last frames in a ring.
type FrameStats struct {
	durations []time.Duration
	next      int
	filled    bool
	last      time.Duration
	started   bool
}

func NewFrameStats(window int) *FrameStats {
	if window < 1 {
		window = 1
	}
	return &FrameStats{durations: make([]time.Duration, window)}
}

// Tick marks the end of a frame at the current time.
func (s *FrameStats) Tick() {
	s.TickAt(hrtime.Now())
}

// TickAt marks the end of a frame at now, a reading of hrtime.Now.
func (s *FrameStats) TickAt(now time.Duration) {
	if s.started {
		s.Add(now - s.last)
	}
	s.last = now
	s.started = true
}

// Add records one frame duration.
func (s *FrameStats) Add(d time.Duration) {
	s.durations[s.next] = d
	s.next++
	if s.next == len(s.durations) {
		s.next = 0
		s.filled = true
	}
}

// Count is the number of durations held.
func (s *FrameStats) Count() int {
	if s.filled {
		return len(s.durations)
	}
	return s.next
}

func (s *FrameStats) window() []time.Duration {
	return s.durations[:s.Count()]
}

func (s *FrameStats) Average() time.Duration {
	w := s.window()
	if len(w) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range w {
		total += d
	}
	return total / time.Duration(len(w))
}

func (s *FrameStats) Max() time.Duration {
	var m time.Duration
	for _, d := range s.window() {
		if d > m {
			m = d
		}
	}
	return m
}

// FPS is the frame rate implied by the average frame duration.
func (s *FrameStats) FPS() float64 {
	avg := s.Average()
	if avg == 0 {
		return 0
	}
	return float64(time.Second) / float64(avg)
}

func (s *FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("frames", s.Count()),
		slog.Duration("avg", s.Average()),
		slog.Duration("max", s.Max()),
		slog.Float64("fps", s.FPS()),
	)
}

package scene

import (
	"github.com/cockroachdb/errors"
)

// ErrStaleHandle is returned when a handle's transform was released.
var ErrStaleHandle = errors.New("stale transform handle")

// Handle refers to a transform in an Arena. The zero Handle refers to
// nothing.
type Handle struct {
	index      uint32
	generation uint32
}

func (h Handle) IsZero() bool {
	return h.generation == 0
}

type arenaSlot struct {
	transform  Transform
	generation uint32
	live       bool
}

// Arena stores transforms by handle. A released slot is reused with a new
// generation, so handles to the old transform stop resolving.
type Arena struct {
	slots []arenaSlot
	free  []uint32
}

func NewArena() *Arena {
	return &Arena{}
}

func (a *Arena) New(t Transform) Handle {
	var index uint32
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		index = uint32(len(a.slots))
		a.slots = append(a.slots, arenaSlot{})
	}
	s := &a.slots[index]
	s.generation++
	s.live = true
	s.transform = t
	return Handle{index: index, generation: s.generation}
}

func (a *Arena) slot(h Handle) (*arenaSlot, error) {
	if h.IsZero() || int(h.index) >= len(a.slots) {
		return nil, errors.Wrapf(ErrStaleHandle, "handle %d/%d", h.index, h.generation)
	}
	s := &a.slots[h.index]
	if !s.live || s.generation != h.generation {
		return nil, errors.Wrapf(ErrStaleHandle, "handle %d/%d, slot at generation %d", h.index, h.generation, s.generation)
	}
	return s, nil
}

func (a *Arena) Get(h Handle) (Transform, error) {
	s, err := a.slot(h)
	if err != nil {
		return Transform{}, err
	}
	return s.transform, nil
}

func (a *Arena) Set(h Handle, t Transform) error {
	s, err := a.slot(h)
	if err != nil {
		return err
	}
	s.transform = t
	return nil
}

// Release frees the slot of h for reuse.
func (a *Arena) Release(h Handle) error {
	s, err := a.slot(h)
	if err != nil {
		return err
	}
	s.live = false
	s.transform = Transform{}
	a.free = append(a.free, h.index)
	return nil
}

// Len is the number of live transforms.
func (a *Arena) Len() int {
	return len(a.slots) - len(a.free)
}

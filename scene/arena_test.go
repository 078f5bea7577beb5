package scene

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
)

func TestArenaHandles(t *testing.T) {
	a := NewArena()
	h := a.New(Transform{Pos: mgl32.Vec3{1, 0, 0}})
	if err := a.Set(h, Transform{Pos: mgl32.Vec3{2, 0, 0}}); err != nil {
		t.Fatal(err)
	}
	got, err := a.Get(h)
	if err != nil || got.Pos.X() != 2 {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	if err := a.Release(h); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Get(h); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("released handle resolved: %v", err)
	}

	reused := a.New(Identity())
	if reused.index != h.index {
		t.Errorf("slot %d not reused, got %d", h.index, reused.index)
	}
	if _, err := a.Get(h); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("old handle resolved to the reused slot: %v", err)
	}
	if a.Len() != 1 {
		t.Errorf("Len = %d, want 1", a.Len())
	}
}

func TestArenaZeroHandle(t *testing.T) {
	a := NewArena()
	a.New(Identity())
	if _, err := a.Get(Handle{}); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("zero handle resolved: %v", err)
	}
	if err := a.Release(Handle{}); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("zero handle released: %v", err)
	}
}

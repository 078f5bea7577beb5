package vkrender

import (
	"testing"
)

func TestAlign(t *testing.T) {
	if makeAlignUp(12, 3) != 12 {
		t.Fail()
	}

	if makeAlignUp(10, 3) != 12 {
		t.Fail()
	}

	if makeAlignUp(10, 0) != 10 {
		t.Fail()
	}
}

func TestAllocator(t *testing.T) {
	a := LinearAllocator{Size: 1024}

	ra := a.Allocate(2048, 1)
	if ra != nil {
		t.Error("Failed first allocation")
	}

	ra = a.Allocate(512, 1)
	fa := ra
	if ra == nil {
		t.Fatal("Failed 2nd allocation")
	}

	ra = a.Allocate(768, 1)
	if ra != nil {
		t.Error("Failed 3rd allocation")
	}

	ra = a.Allocate(500, 1)
	k := ra
	if ra == nil || ra.Offset != 512 {
		t.Fatalf("Failed 4th allocation: %v", ra)
	}

	ra = a.Allocate(50, 1)
	if ra != nil {
		t.Error("Failed 5th allocation")
	}

	ra = a.Allocate(5, 1)
	if ra == nil {
		t.Error("Failed 6th allocation")
	}

	ra = a.Allocate(20, 1)
	if ra != nil {
		t.Error("Failed 7th allocation")
	}

	a.Free(k)
	ra = a.Allocate(500, 1)
	if ra == nil || ra.Offset != 512 {
		t.Errorf("Failed 8th allocation: %v", ra)
	}

	a.Free(fa)
	ra = a.Allocate(20, 1)
	if ra == nil || ra.Offset != 0 {
		t.Errorf("Failed 9th allocation: %v", ra)
	}

	ra = a.Allocate(40, 1)
	if ra == nil || ra.Offset != 20 {
		t.Errorf("Failed 10th allocation: %v", ra)
	}

	ra = a.Allocate(500, 1)
	if ra != nil {
		t.Error("Failed 11th allocation")
	}
}

func TestAllocatorAlignment(t *testing.T) {
	a := LinearAllocator{Size: 1024}

	first := a.Allocate(100, 256)
	second := a.Allocate(100, 256)
	third := a.Allocate(100, 256)
	if first == nil || second == nil || third == nil {
		t.Fatalf("allocations failed: %v", a.String())
	}
	if first.Offset != 0 || second.Offset != 256 || third.Offset != 512 {
		t.Errorf("offsets = %d %d %d, want 0 256 512", first.Offset, second.Offset, third.Offset)
	}

	a.Free(second)
	again := a.Allocate(200, 256)
	if again == nil || again.Offset != 256 {
		t.Errorf("reuse of freed gap = %v, want offset 256", again)
	}

	if a.Allocate(300, 256) != nil {
		t.Errorf("allocation past the end should fail: %v", a.String())
	}

	a.Reset()
	if ra := a.Allocate(1024, 256); ra == nil || ra.Offset != 0 {
		t.Errorf("allocation after reset = %v", ra)
	}
}

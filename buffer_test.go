package vkrender

import (
	"bytes"
	"testing"
	"unsafe"

	"github.com/cockroachdb/errors"
)

func mappedTestBuffer(backing []byte) *Buffer {
	return &Buffer{
		Size:       uint64(len(backing)),
		Memory:     &DeviceMemory{Size: uint64(len(backing)), Ptr: unsafe.Pointer(&backing[0])},
		mappedSize: uint64(len(backing)),
	}
}

func TestBufferCopyData(t *testing.T) {
	backing := make([]byte, 8)
	b := mappedTestBuffer(backing)

	if err := b.CopyData([]byte{1, 2, 3}, 2); err != nil {
		t.Fatal(err)
	}
	want := []byte{0, 0, 1, 2, 3, 0, 0, 0}
	if !bytes.Equal(backing, want) {
		t.Errorf("backing = %v, want %v", backing, want)
	}

	if err := b.CopyData(make([]byte, 8), 0); err != nil {
		t.Errorf("full copy failed: %v", err)
	}
}

func TestBufferCopyDataBounds(t *testing.T) {
	backing := make([]byte, 8)
	b := mappedTestBuffer(backing)

	if err := b.CopyData(make([]byte, 9), 0); !errors.Is(err, ErrCopyOverflow) {
		t.Errorf("oversized copy: got %v, want ErrCopyOverflow", err)
	}
	if err := b.CopyData(make([]byte, 4), 5); !errors.Is(err, ErrCopyOverflow) {
		t.Errorf("copy past end: got %v, want ErrCopyOverflow", err)
	}

	unmapped := &Buffer{Size: 8, Memory: &DeviceMemory{Size: 8}}
	if err := unmapped.CopyData([]byte{1}, 0); !errors.Is(err, ErrNotMapped) {
		t.Errorf("unmapped copy: got %v, want ErrNotMapped", err)
	}
}

func TestBufferMapCopyRejectsOversizedData(t *testing.T) {
	b := &Buffer{Size: 4, Memory: &DeviceMemory{Size: 4}}
	if err := b.MapCopy(make([]byte, 5)); !errors.Is(err, ErrCopyOverflow) {
		t.Errorf("got %v, want ErrCopyOverflow", err)
	}
}

func TestAtomRange(t *testing.T) {
	tests := []struct {
		name                string
		offset, size, limit uint64
		atom                uint64
		start, length       uint64
	}{
		{"aligned", 128, 256, 1024, 64, 128, 256},
		{"unaligned start", 100, 28, 1024, 64, 64, 64},
		{"unaligned end", 0, 100, 1024, 64, 0, 128},
		{"clamped to memory end", 960, 50, 1000, 64, 960, 40},
		{"uniform slot", 2*200 + 8, 200, 1024, 256, 256, 512},
		{"no atom", 13, 7, 1024, 0, 13, 7},
		{"byte atom", 13, 7, 1024, 1, 13, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, length := atomRange(tt.offset, tt.size, tt.limit, tt.atom)
			if start != tt.start || length != tt.length {
				t.Fatalf("got [%d, +%d), want [%d, +%d)", start, length, tt.start, tt.length)
			}
			if start > tt.offset || start+length < tt.offset+tt.size && start+length != tt.limit {
				t.Errorf("[%d, +%d) does not cover [%d, +%d)", start, length, tt.offset, tt.size)
			}
			if tt.atom > 1 && (start%tt.atom != 0 || length%tt.atom != 0 && start+length != tt.limit) {
				t.Errorf("[%d, +%d) not aligned to %d", start, length, tt.atom)
			}
		})
	}
}

func TestCoherentFlushSkipped(t *testing.T) {
	m := &DeviceMemory{Size: 64, Properties: hostCoherent}
	if err := m.Flush(3, 5); err != nil {
		t.Errorf("flushing coherent memory: %v", err)
	}
}

package vkrender

import (
	"fmt"
)

// Allocation is a sub-range of a larger region handed out by an Allocator.
type Allocation struct {
	Offset uint64
	Size   uint64
}

func (a *Allocation) String() string {
	return fmt.Sprintf("[%d %d]", a.Offset, a.Size)
}

type Allocator interface {
	Free(a *Allocation)
	Allocate(size uint64, align uint64) *Allocation
}

// LinearAllocator hands out aligned ranges of a region of Size bytes,
// first fit, keeping allocations sorted by offset.
type LinearAllocator struct {
	Size   uint64
	allocs []*Allocation
}

func makeAlignUp(a uint64, align uint64) uint64 {
	if align <= 1 {
		return a
	}
	m := a % align
	if m == 0 {
		return a
	}
	return (a - m) + align
}

// Free releases a. Freeing an allocation twice does nothing.
func (p *LinearAllocator) Free(fa *Allocation) {
	for i, a := range p.allocs {
		if a == fa {
			p.allocs = append(p.allocs[:i], p.allocs[i+1:]...)
			return
		}
	}
}

// Allocate returns the first aligned range of size bytes that fits, or nil
// when the region is full.
func (p *LinearAllocator) Allocate(size uint64, align uint64) *Allocation {
	if size == 0 || size > p.Size {
		return nil
	}

	// start is the first aligned offset after the previous allocation
	var start uint64
	for i, c := range p.allocs {
		if c.Offset >= start && c.Offset-start >= size {
			na := &Allocation{Offset: start, Size: size}
			p.allocs = append(p.allocs[:i], append([]*Allocation{na}, p.allocs[i:]...)...)
			return na
		}
		start = makeAlignUp(c.Offset+c.Size, align)
	}

	if start <= p.Size && p.Size-start >= size {
		na := &Allocation{Offset: start, Size: size}
		p.allocs = append(p.allocs, na)
		return na
	}
	return nil
}

// Used is the number of bytes currently allocated, alignment padding
// excluded.
func (p *LinearAllocator) Used() uint64 {
	var n uint64
	for _, a := range p.allocs {
		n += a.Size
	}
	return n
}

// Reset frees every allocation.
func (p *LinearAllocator) Reset() {
	p.allocs = nil
}

func (p *LinearAllocator) String() string {
	return fmt.Sprintf("%v", p.allocs)
}

// Package page implements a bitmap page allocator: a fixed pool of
// equal-sized pages handed out in contiguous runs, searched either
// bottom-up or top-down. It backs both thread stacks and general
// allocation for the kernel, the way a bump-free bitmap heap backs an
// embedded runtime with no virtual memory.
package page

import (
	"errors"
	"fmt"
	"sync"
)

// Strategy selects the direction the allocator scans the bitmap for a
// contiguous run of free pages.
type Strategy int

const (
	// BottomUp examines page k at scan step k. Used for general-purpose
	// allocation, so it fills from the low end of the arena.
	BottomUp Strategy = iota

	// TopDown examines page (total-1-k) at scan step k. Used for thread
	// stacks, so they grow from the high end and reduce fragmentation
	// against BottomUp general allocations.
	TopDown
)

func (s Strategy) String() string {
	switch s {
	case BottomUp:
		return "BottomUp"
	case TopDown:
		return "TopDown"
	default:
		return "Strategy(?)"
	}
}

// ErrNoPages is returned by Allocate when no contiguous run of free pages
// large enough to satisfy the request exists.
var ErrNoPages = errors.New("page: no contiguous run of free pages available")

// OutOfMemoryHook is called when Allocate fails to find a run. It is
// weakly-overridable: the zero value is a no-op.
type OutOfMemoryHook func(requested int)

// Stats is a point-in-time snapshot of allocator occupancy, for
// introspection and logging.
type Stats struct {
	PageSize   int
	TotalPages int
	UsedPages  int
}

// FreeBytes reports the number of bytes not currently allocated.
func (s Stats) FreeBytes() int {
	return (s.TotalPages - s.UsedPages) * s.PageSize
}

// Allocator is a fixed-size bitmap page pool. The zero value is not
// usable; construct with New. An Allocator is safe for concurrent use:
// Allocate/Free are guarded by an internal mutex standing in for a
// preemption-disable critical section.
type Allocator struct {
	mu         sync.Mutex
	pageSize   int
	totalPages int
	// bitmap has one bit per page; 0 = free, 1 = used. Packed into
	// uint64 words for fast contiguous-run scanning.
	bitmap []uint64

	// OnOutOfMemory fires when Allocate cannot satisfy a request. Weakly
	// overridable: nil is a valid, silent default.
	OnOutOfMemory OutOfMemoryHook
}

// New creates an Allocator managing totalPages pages of pageSize bytes
// each. Both must be positive; pageSize is typically a small power of two
// (16-64 bytes) but this is not enforced — callers targeting real
// hardware should pick an alignment-friendly size themselves.
func New(pageSize, totalPages int) *Allocator {
	if pageSize <= 0 {
		panic("page: pageSize must be positive")
	}
	if totalPages <= 0 {
		panic("page: totalPages must be positive")
	}
	words := (totalPages + 63) / 64
	return &Allocator{
		pageSize:   pageSize,
		totalPages: totalPages,
		bitmap:     make([]uint64, words),
	}
}

// PageSize returns the configured page size in bytes.
func (a *Allocator) PageSize() int { return a.pageSize }

// TotalPages returns the number of pages managed by the allocator.
func (a *Allocator) TotalPages() int { return a.totalPages }

func (a *Allocator) bitSet(page int) bool {
	return a.bitmap[page/64]&(1<<uint(page%64)) != 0
}

func (a *Allocator) setRun(start, n int, used bool) {
	for p := start; p < start+n; p++ {
		word, bit := p/64, uint(p%64)
		if used {
			a.bitmap[word] |= 1 << bit
		} else {
			a.bitmap[word] &^= 1 << bit
		}
	}
}

// pagesFor rounds a byte count up to a whole number of pages.
func (a *Allocator) pagesFor(bytes int) int {
	if bytes <= 0 {
		return 0
	}
	return (bytes + a.pageSize - 1) / a.pageSize
}

// Allocate reserves the smallest number of pages covering bytes, using the
// given search strategy, and returns the byte address (page index *
// pageSize) of the first page in the run plus the actual number of bytes
// granted (always a whole multiple of pageSize). It fails with ErrNoPages,
// firing OnOutOfMemory, when no sufficiently long run of free pages
// exists.
//
// The scan terminates at the first qualifying run; the returned start
// page is always the lowest index of that run, even under TopDown, so the
// returned address is stable regardless of scan direction.
func (a *Allocator) Allocate(bytes int, strategy Strategy) (addr int, allocated int, err error) {
	n := a.pagesFor(bytes)
	if n == 0 {
		return 0, 0, nil
	}
	if n > a.totalPages {
		if a.OnOutOfMemory != nil {
			a.OnOutOfMemory(bytes)
		}
		return 0, 0, ErrNoPages
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	start, ok := a.findRun(n, strategy)
	if !ok {
		if a.OnOutOfMemory != nil {
			a.OnOutOfMemory(bytes)
		}
		return 0, 0, ErrNoPages
	}

	a.setRun(start, n, true)
	return start * a.pageSize, n * a.pageSize, nil
}

// findRun scans for the first run of n contiguous free pages in the
// direction given by strategy, returning the lowest page index of the run.
func (a *Allocator) findRun(n int, strategy Strategy) (int, bool) {
	switch strategy {
	case TopDown:
		run := 0
		for k := 0; k < a.totalPages; k++ {
			p := a.totalPages - 1 - k
			if !a.bitSet(p) {
				run++
				if run == n {
					return p, true
				}
			} else {
				run = 0
			}
		}
	default: // BottomUp
		run := 0
		start := 0
		for p := 0; p < a.totalPages; p++ {
			if !a.bitSet(p) {
				if run == 0 {
					start = p
				}
				run++
				if run == n {
					return start, true
				}
			} else {
				run = 0
			}
		}
	}
	return 0, false
}

// Free releases the pages spanning addr for bytes. addr must be
// page-aligned; a misaligned or previously-unallocated region degrades to
// a best-effort clearing of whatever bits the computed range covers
// (this never panics and never corrupts bitmap
// structure — it can only mark the wrong pages free, which is a caller
// bug, not a kernel fault).
func (a *Allocator) Free(addr, bytes int) {
	n := a.pagesFor(bytes)
	if n == 0 {
		return
	}
	start := addr / a.pageSize

	a.mu.Lock()
	defer a.mu.Unlock()

	end := start + n
	if end > a.totalPages {
		end = a.totalPages
	}
	if start < 0 {
		start = 0
	}
	if start >= end {
		return
	}
	a.setRun(start, end-start, false)
}

// Stats returns a point-in-time occupancy snapshot.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	used := 0
	for p := 0; p < a.totalPages; p++ {
		if a.bitSet(p) {
			used++
		}
	}
	return Stats{PageSize: a.pageSize, TotalPages: a.totalPages, UsedPages: used}
}

// String implements fmt.Stringer for debug/log output.
func (s Stats) String() string {
	return fmt.Sprintf("page.Stats{size=%d total=%d used=%d free=%dB}", s.PageSize, s.TotalPages, s.UsedPages, s.FreeBytes())
}

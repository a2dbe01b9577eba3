// Package pool implements the kernel's thread pool: a fixed set of
// pre-created, dormant TCBs ("Dormant" state) that get "reanimated" —
// rewritten in place with fresh entry code and a fresh identity — rather
// than reconstructed, and recycled back to Dormant on termination.
//
// The bulk-request shape (RequestMany) drains a batch of logical
// requests against a fixed-size worker resource, returning partial
// results rather than blocking the whole batch on the least-available
// unit.
package pool

import (
	"errors"

	"github.com/joeycumines/go-zerokernel/klist"
	"github.com/joeycumines/go-zerokernel/kthread"
)

// ErrPoolEmpty is returned when no dormant TCB is available to reanimate.
var ErrPoolEmpty = errors.New("zerokernel: pool: no dormant thread available")

// Pool is a fixed-size set of dormant TCBs awaiting reanimation. The zero
// value is not usable; construct with New.
type Pool struct {
	dormant klist.List[*kthread.TCB]
	total   int
}

// New seeds a Pool with threads already constructed in the dormant
// (POOL_THREAD-flagged, never-resumed) state. Callers are expected to
// build these via kthread.NewPrepared with an entry that blocks forever —
// Reanimate rewrites that entry before the TCB ever actually runs it.
func New(dormant []*kthread.TCB) *Pool {
	p := &Pool{total: len(dormant)}
	for _, t := range dormant {
		t.Flags |= kthread.FlagPoolThread
		p.dormant.Append(&t.Link)
	}
	return p
}

// Total returns the pool's fixed capacity.
func (p *Pool) Total() int { return p.total }

// Available returns the number of currently dormant TCBs.
func (p *Pool) Available() int { return p.dormant.Len() }

// Take pops one dormant TCB and reanimates it with id, name, entry,
// termNotify, and exitCode, but does not enqueue
// it anywhere — the caller (kernel) is responsible for prepending it to
// the active ready list so it runs promptly, since only kernel holds the
// scheduler.
func (p *Pool) Take(id uint32, name string, entry kthread.Entry, termNotify kthread.Terminator, exitCode *int) (*kthread.TCB, error) {
	n := p.dormant.PopHead()
	if n == nil {
		return nil, ErrPoolEmpty
	}
	t := n.Value
	t.Reanimate(id, name, entry, termNotify, exitCode)
	return t, nil
}

// Recycle returns a terminated pool thread to the dormant list. Callers
// must only pass TCBs whose Flags include FlagPoolThread and whose
// Exited() is true.
func (p *Pool) Recycle(t *kthread.TCB) {
	p.dormant.Append(&t.Link)
}

// RequestMany attempts to reanimate up to len(specs) threads in one
// call. It does not fail the whole batch just because the pool runs dry
// partway through. Each successfully reanimated TCB still needs
// the caller to enqueue it — RequestMany only performs the pool-list
// bookkeeping, mirroring Take.
func (p *Pool) RequestMany(specs []Spec) []Result {
	results := make([]Result, len(specs))
	for i, s := range specs {
		t, err := p.Take(s.ID, s.Name, s.Entry, s.TermNotify, s.ExitCode)
		results[i] = Result{TCB: t, Err: err}
	}
	return results
}

// Spec describes one thread a batched RequestMany call should reanimate.
type Spec struct {
	ID         uint32
	Name       string
	Entry      kthread.Entry
	TermNotify kthread.Terminator
	ExitCode   *int
}

// Result is RequestMany's per-Spec outcome.
type Result struct {
	TCB *kthread.TCB
	Err error
}

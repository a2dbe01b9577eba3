// Package sched implements the round-robin scheduler core: a dual
// active/expired ready list whose roles swap in O(1)
// once the active list drains, and a dedicated idle thread that never
// itself joins either list. It holds no opinion about signals, timeouts,
// or how a thread's context is actually resumed — those are kernel's job,
// layered on top of the primitives here.
package sched

import (
	"github.com/joeycumines/go-zerokernel/klist"
	"github.com/joeycumines/go-zerokernel/kthread"
)

// Scheduler is the dual ready-list round-robin core. The currently
// running thread is left linked at the head of the active list for the
// duration of its turn: this is what lets Tick detect "someone newly signalled raced to the
// head" without any extra bookkeeping — it is simply
// active().Head() != &current.Link.
//
// The zero value is not usable; construct with New.
type Scheduler struct {
	lists     [2]klist.List[*kthread.TCB]
	activeIdx int
	idle      *kthread.TCB
	current   *kthread.TCB
	quantum   uint8
	switching bool
}

// New constructs a Scheduler with idle as its dedicated idle thread and
// quantum as the number of ticks a freshly-scheduled thread is topped up
// to when its quantum has run out. Switching (preemption) starts enabled.
func New(idle *kthread.TCB, quantum uint8) *Scheduler {
	return &Scheduler{
		idle:      idle,
		quantum:   quantum,
		switching: true,
	}
}

func (s *Scheduler) active() *klist.List[*kthread.TCB]  { return &s.lists[s.activeIdx] }
func (s *Scheduler) expired() *klist.List[*kthread.TCB] { return &s.lists[1-s.activeIdx] }
func (s *Scheduler) swapLists()                         { s.activeIdx = 1 - s.activeIdx }

// Current returns the thread currently occupying the running role (which
// may be the idle thread), or nil before the first PickNext.
func (s *Scheduler) Current() *kthread.TCB { return s.current }

// Idle returns the dedicated idle thread.
func (s *Scheduler) Idle() *kthread.TCB { return s.idle }

// SwitchingEnabled reports whether preemption is currently permitted.
func (s *Scheduler) SwitchingEnabled() bool { return s.switching }

// SetSwitchingEnabled is the low-level gate kernel's Forbid/Permit toggle
// operates through.
func (s *Scheduler) SetSwitchingEnabled(enabled bool) { s.switching = enabled }

// EnqueueReady appends t to the tail of the active list — the normal
// "this thread is ready to run" path for freshly created threads and for
// threads returning from a completed operation.
func (s *Scheduler) EnqueueReady(t *kthread.TCB) {
	s.active().Append(&t.Link)
}

// EnqueueUrgent prepends t to the head of the active list, so it is
// picked before any other currently-runnable thread at the next
// scheduling decision. Used both for reanimated pool threads and for
// threads woken by Signal.
func (s *Scheduler) EnqueueUrgent(t *kthread.TCB) {
	s.active().Prepend(&t.Link)
}

// PickNext selects the next thread to run: the active list's head, or —
// if empty — the expired list's head after an O(1) role swap, or the
// idle thread if both are empty. It tops up the selected thread's
// quantum if depleted, and becomes the new Current.
func (s *Scheduler) PickNext() *kthread.TCB {
	h := s.active().Head()
	if h == nil {
		s.swapLists()
		h = s.active().Head()
	}
	if h == nil {
		s.current = s.idle
		return s.idle
	}
	t := h.Value
	if t.QuantumTicks == 0 {
		t.QuantumTicks = s.quantum
	}
	s.current = t
	return t
}

// RemoveCurrentFromActive detaches the current thread from the head of
// the active list (a no-op for the idle thread, which is never linked).
// Called whenever the current thread is about to stop running for any
// reason: preemption, voluntary block, or termination.
func (s *Scheduler) RemoveCurrentFromActive() {
	if s.current == nil || s.current == s.idle {
		return
	}
	s.active().Remove(&s.current.Link)
}

// RequeueCurrentAsExpired moves the current thread (already detached via
// RemoveCurrentFromActive) to the tail of the expired list. A no-op for
// idle, which never joins either list.
func (s *Scheduler) RequeueCurrentAsExpired() {
	if s.current == nil || s.current == s.idle {
		return
	}
	s.expired().Append(&s.current.Link)
}

// ClearCurrent nulls the running-role pointer — the "nobody is running
// between schedule decisions" state.
func (s *Scheduler) ClearCurrent() { s.current = nil }

// Tick applies the per-tick quantum/race logic against the
// current thread and reports whether it should yield at its next
// checkpoint. It does not itself move the thread between lists or touch
// its goroutine — callers (kernel) act on the returned decision.
func (s *Scheduler) Tick() (shouldYield bool) {
	cur := s.current
	if cur == nil {
		return false
	}

	if cur == s.idle {
		// The idle thread has no quantum of its own: it yields as soon as
		// real work exists, so genuinely idle time is the only time it
		// keeps running.
		return s.active().Head() != nil
	}

	if cur.QuantumTicks > 0 {
		cur.QuantumTicks--
	}

	if s.switching && s.active().Head() != &cur.Link {
		// Someone newly signalled raced to the head of the active list
		// while cur was running — force cur to yield this tick, a soft
		// "most-recently-unblocked first" priority. A burst of signals
		// arriving over consecutive ticks can therefore force a switch on
		// each of those ticks; this is accepted, since every preempted
		// thread is requeued at the tail of the expired list and still
		// gets its turn.
		cur.QuantumTicks = 0
	}

	if !s.switching {
		return false
	}

	return cur.QuantumTicks == 0
}

// ActiveHead exposes the active list's head node pointer for callers that
// need to compare thread identity against the head of the active list.
func (s *Scheduler) ActiveHead() *klist.Node[*kthread.TCB] { return s.active().Head() }

// EachReady walks every thread linked into either ready list (active or
// expired, in that order), excluding whichever one is currently occupying
// the running role. Used only by kernel.Snapshot's introspection API —
// the scheduler itself never needs to enumerate, only pick heads.
func (s *Scheduler) EachReady(fn func(*kthread.TCB)) {
	visit := func(n *klist.Node[*kthread.TCB]) {
		if n.Value != s.current {
			fn(n.Value)
		}
	}
	s.active().Each(visit)
	s.expired().Each(visit)
}

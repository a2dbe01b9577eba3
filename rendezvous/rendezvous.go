// Package rendezvous implements an owning thread+signal binding: at
// construction it allocates a fresh signal bit from
// the currently-executing thread; at release it frees that bit. It is the
// abstract "event" primitive drivers use to hand a single wakeup back to
// the thread that asked for it.
package rendezvous

import (
	"time"

	"github.com/joeycumines/go-zerokernel/ksignal"
	"github.com/joeycumines/go-zerokernel/kthread"
)

// Waker is the minimal scheduler surface a Handle needs: deliver a signal
// to a thread (callable from any context, including a simulated ISR) and
// block the owning thread in a wait. Implemented by *kernel.Kernel; kept
// as an interface here so this package never imports kernel. kernel does
// not import this package either: it takes termination targets as
// kthread.Terminator, which *Handle satisfies.
type Waker interface {
	Signal(t *kthread.TCB, mask ksignal.Bits)
	Wait(t *kthread.TCB, mask ksignal.Bits, timeout time.Duration) ksignal.Bits
}

// Handle is a non-copyable owning binding of one thread to one signal
// bit. The zero value is invalid; construct with New. Copying a Handle
// (by value) would let two owners free the same bit — embed a pointer or
// take Handle by reference in your own types.
type Handle struct {
	_ [0]func() // makes Handle values incomparable; copies are not detected by the compiler or go vet

	waker  Waker
	thread *kthread.TCB
	bit    ksignal.Bits
	valid  bool
}

// New allocates a fresh signal bit from thread and binds it to a Handle.
// Returns a Handle with Valid()==false if the thread has no free
// allocatable bits — resource exhaustion, not a panic.
func New(waker Waker, thread *kthread.TCB) *Handle {
	bit, ok := thread.Signals.Allocate(0)
	if !ok {
		return &Handle{waker: waker, thread: thread, valid: false}
	}
	return &Handle{waker: waker, thread: thread, bit: bit, valid: true}
}

// Valid reports whether construction succeeded.
func (h *Handle) Valid() bool { return h.valid }

// Mask returns the underlying bit, for composition into a wider wait mask
// (e.g. waiting on a rendezvous alongside other signals). Returns 0 if
// invalid.
func (h *Handle) Mask() ksignal.Bits {
	if !h.valid {
		return 0
	}
	return h.bit
}

// Signal delivers this Handle's bit to its owning thread. Safe to call
// from any context, including a simulated ISR — it never blocks.
func (h *Handle) Signal() {
	if !h.valid {
		return
	}
	h.waker.Signal(h.thread, h.bit)
}

// ClearSignals clears just this Handle's bit in the owning thread's
// current (pending) set, without waiting and without disturbing whatever
// the thread is otherwise waiting on.
func (h *Handle) ClearSignals() {
	if !h.valid {
		return
	}
	saved := h.thread.Signals.Waiting()
	h.thread.Signals.BeginWait(h.bit, false)
	h.thread.Signals.ConsumeActive()
	h.thread.Signals.BeginWait(saved, false)
}

// Wait blocks until this Handle's bit is signalled or timeout elapses (0
// means wait forever). Callable only by the owning thread on itself — the
// same restriction every wait operation carries. Returns the
// bits that woke it (a subset of {this bit, Timeout}).
func (h *Handle) Wait(timeout time.Duration) ksignal.Bits {
	if !h.valid {
		return 0
	}
	return h.waker.Wait(h.thread, h.bit, timeout)
}

// Release frees the bound signal bit. Must be called exactly once, when
// the Handle is no longer needed — most callers should defer it
// immediately after a successful New. Outliving the owning thread's
// termination without calling Release is a user bug the termination path
// detects (a pool thread terminating with user signals still allocated).
func (h *Handle) Release() {
	if !h.valid {
		return
	}
	h.thread.Signals.FreeSignals(h.bit)
	h.valid = false
}

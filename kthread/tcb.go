// Package kthread implements the thread control block: identity, owned
// stack accounting, signal bank, and the lifecycle operations (stack
// preparation, reanimation bookkeeping, termination).
// It knows about signal bits (ksignal) and list linkage
// (klist) but nothing about the scheduler's ready lists or the page
// allocator directly — those are wired together by sched and kernel.
package kthread

import (
	"github.com/joeycumines/go-zerokernel/internal/stackframe"
	"github.com/joeycumines/go-zerokernel/klist"
	"github.com/joeycumines/go-zerokernel/ksignal"
)

// Entry is a thread's body: no arguments, a small signed exit code.
type Entry func() int

// Flags controls a TCB's lifecycle behavior.
type Flags uint8

const (
	// FlagNone sets no flags.
	FlagNone Flags = 0
	// FlagReady marks the thread ready to run as soon as possible.
	FlagReady Flags = 1 << 0
	// FlagPoolThread marks the thread as belonging to the system pool:
	// on termination its TCB and stack are recycled rather than freed.
	FlagPoolThread Flags = 1 << 1
)

// Status is a point-in-time classification of a TCB, for introspection
// only (kernel.Snapshot) — it is derived from which list a TCB sits on,
// not an independent source of truth.
type Status int

const (
	StatusReady Status = iota
	StatusRunning
	StatusWaiting
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusRunning:
		return "Running"
	case StatusWaiting:
		return "Waiting"
	case StatusStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Terminator is the minimal surface a termination-notification target
// must implement; satisfied by *rendezvous.Handle. Kept as an interface
// here (rather than importing package rendezvous) so that rendezvous can
// depend on kthread without a cycle back.
type Terminator interface {
	Signal()
}

// TCB is one thread's bookkeeping record. Fields are exported for use by
// sched/pool/kernel, which are trusted collaborators in the same module;
// application code is expected to interact with threads only through
// kernel's API.
type TCB struct {
	// Link is this TCB's membership in exactly one of {active, expired,
	// pool, timeout} at a time, or none while blocked in a wait without a
	// timeout. A running thread stays linked at the head of the active
	// list for the duration of its turn (see sched.Scheduler). The "on at most
	// one list" invariant lives in klist.List/TimeoutList's own
	// bookkeeping; Link is simply the embedded node.
	Link klist.Node[*TCB]

	ID    uint32
	Name  string
	Flags Flags

	// StackBase/StackLen describe the heap-owned byte range this thread
	// was granted by the page allocator.
	StackBase int
	StackLen  int

	// ctx is the parked-goroutine context standing in for a saved
	// register/stack frame (see internal/stackframe).
	ctx *stackframe.Context

	// watermark is the lowest "simulated SP" observed so far, where a
	// smaller value means deeper into the stack's byte budget. It starts
	// at StackBase+StackLen (an empty stack) and falls as the thread
	// consumes its budget.
	watermark int

	// QuantumTicks is ticks remaining in the current scheduling quantum.
	QuantumTicks uint8

	Signals ksignal.Bank

	entry      Entry
	termNotify Terminator
	exitCode   *int

	// lastExitCode mirrors *exitCode (or entry's return value, if the
	// caller passed no exitCode pointer) so collaborators that only hold
	// a *TCB — kernel's run loop, in particular — can read a terminated
	// thread's exit code without needing the original pointer.
	lastExitCode int

	// exited is set once the trampoline has run entry to completion;
	// read by the termination bookkeeping, never by user code.
	exited bool
}

// NewPrepared constructs a TCB with a freshly prepared stack frame: the
// hardware analogue would write register bytes onto a synthetic frame;
// here it launches a parked goroutine that will run the trampoline logic
// on first Resume.
func NewPrepared(id uint32, name string, stackBase, stackLen int, flags Flags, entry Entry, termNotify Terminator, exitCode *int) *TCB {
	t := &TCB{
		ID:        id,
		Name:      name,
		Flags:     flags,
		StackBase: stackBase,
		StackLen:  stackLen,
		ctx:       stackframe.NewContext(),
		watermark: stackBase + stackLen,
		Signals:   ksignal.NewBank(),
	}
	t.Link.Value = t
	t.prepare(entry, termNotify, exitCode)
	return t
}

// Reanimate rewrites a dormant pool TCB's stack frame and identity fields
// for a new logical thread. The
// caller (pool.Pool) is responsible for having already removed t from the
// pool list; enqueuing it on a ready list afterward is done by whoever
// holds the scheduler (kernel.FromPool).
func (t *TCB) Reanimate(id uint32, name string, entry Entry, termNotify Terminator, exitCode *int) {
	t.ID = id
	t.Name = name
	t.watermark = t.StackBase + t.StackLen
	t.Signals.Reset()
	t.exited = false
	t.ctx = stackframe.NewContext()
	t.prepare(entry, termNotify, exitCode)
}

func (t *TCB) prepare(entry Entry, termNotify Terminator, exitCode *int) {
	t.entry = entry
	t.termNotify = termNotify
	t.exitCode = exitCode
	t.ctx.Launch(func() { trampoline(t) })
}

// trampoline is the global entry point every prepared stack frame lands
// on. It performs the steps that only the terminating
// thread itself can do (call Entry, capture the exit code, signal the
// termination rendezvous) and then parks for good via Finish — which
// never returns, matching "call yield, it will never return". The
// remaining termination steps (asserting no stray user signals, removing
// the thread from scheduler bookkeeping, nulling the current-thread
// pointer, firing OnThreadExit, and recycling or freeing the stack) touch
// state trampoline has no access to (the ready lists, the allocator, the
// hooks) and are performed by kernel's run loop immediately after the
// Resume call that observed Exited() become true.
func trampoline(t *TCB) {
	code := t.entry()
	t.lastExitCode = code
	if t.exitCode != nil {
		*t.exitCode = code
	}
	if t.termNotify != nil {
		t.termNotify.Signal()
	}
	t.exited = true
	t.ctx.Finish()
}

// Resume hands control to this thread's goroutine and blocks until it
// parks again (via yield, preemption checkpoint, or termination).
func (t *TCB) Resume() { t.ctx.Resume() }

// Yield parks the calling thread (which must be running inside its own
// trampoline) until the scheduler resumes it again. Exported so sched can
// drive it without reaching into the unexported ctx field.
func (t *TCB) Yield() { t.ctx.Yield() }

// Exited reports whether this thread's entry function has returned.
func (t *TCB) Exited() bool { return t.exited }

// LastExitCode returns the exit code of the most recently completed run
// of this TCB (valid once Exited is true).
func (t *TCB) LastExitCode() int { return t.lastExitCode }

// CheckStackWatermark samples the calling goroutine's current stack usage
// and folds it into t's low-water-mark, returning true if doing so pushed
// the watermark below the thread's owned stack base — the stack-overflow
// condition, approximated per internal/stackframe's doc comment (Go
// stacks are runtime-managed, not fixed hardware ranges).
func (t *TCB) CheckStackWatermark() (overflowed bool) {
	used := stackframe.SampleStackDepth()
	sp := t.StackBase + t.StackLen - used
	if sp < t.watermark {
		t.watermark = sp
	}
	return t.watermark < t.StackBase
}

// Watermark returns the lowest simulated stack pointer observed so far.
func (t *TCB) Watermark() int { return t.watermark }

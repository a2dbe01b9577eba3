package kernel

import (
	"time"

	"github.com/joeycumines/go-zerokernel/ksignal"
	"github.com/joeycumines/go-zerokernel/kthread"
)

// Signal delivers mask to t: it sets t's current bitfield and, if that
// causes current&waiting to become non-empty for
// the first time, moves t to the head of the active ready list so it
// runs before any other currently-runnable thread at the next scheduling
// decision — unless t is the caller itself (signalling your own thread
// never triggers a requeue; you're already running). Safe to call from
// any context, including a simulated ISR (e.g. rendezvous.Handle.Signal).
func (k *Kernel) Signal(t *kthread.TCB, mask ksignal.Bits) {
	k.mu.Lock()
	defer k.mu.Unlock()

	becameActive := t.Signals.SetCurrent(mask)
	if k.sigHistory != nil {
		k.sigHistory.Record(ksignal.Entry{Mask: mask, AtMs: k.msCounter.Load()})
	}
	if !becameActive || t == k.sched.Current() {
		return
	}

	// t was asleep on the timeout list, waiting with a deadline; a
	// non-timeout wakeup cancels that deadline. A no-op if t isn't
	// linked there.
	k.timeouts.Remove(&t.Link)

	if !t.Link.Linked() {
		k.sched.EnqueueUrgent(t)
	}
}

// Wait blocks the calling thread t until any bit in mask is signalled
// or timeout elapses (timeout<=0 means wait forever). Callable only by
// the currently running thread on itself. Returns the subset of
// {mask, ksignal.Timeout} that woke it.
func (k *Kernel) Wait(t *kthread.TCB, mask ksignal.Bits, timeout time.Duration) ksignal.Bits {
	k.CheckPoint()

	k.mu.Lock()
	waiting := t.Signals.BeginWait(mask, timeout > 0)
	if waiting == 0 {
		k.mu.Unlock()
		return 0
	}
	if active := t.Signals.Active(); active != 0 {
		result := t.Signals.ConsumeActive()
		k.mu.Unlock()
		return result
	}

	k.sched.RemoveCurrentFromActive()
	if timeout > 0 {
		ms := uint32(timeout / time.Millisecond)
		if ms == 0 {
			ms = 1
		}
		k.timeouts.InsertByOffset(&t.Link, ms)
	}
	k.sched.ClearCurrent()
	k.mu.Unlock()

	if t.CheckStackWatermark() {
		k.hooks.OnStackOverflow(t)
	}

	t.Yield()

	k.mu.Lock()
	result := t.Signals.ConsumeActive()
	t.Signals.ClearWaiting()
	k.timeouts.Remove(&t.Link) // clears a stale entry if woken by signal, not timeout
	k.mu.Unlock()
	return result
}

// Delay blocks the calling thread t for duration milliseconds, waiting
// only on the reserved Timeout signal; defined directly in terms of
// Wait.
func (k *Kernel) Delay(t *kthread.TCB, duration time.Duration) {
	k.Wait(t, 0, duration)
}

// CheckPoint is the cooperative preemption point standing in for a
// timer-driven tick ISR on a target with no hardware IRQ line: it drains
// every tick the background tick source has posted since the last
// checkpoint, advances the millisecond counter and timeout list once per
// tick, and yields the calling thread if the scheduler's quantum/race
// logic demands it. Wait and Delay call this automatically; threads
// running tight busy loops without a natural Wait/Delay call should call
// it directly, the same way a hardware ISR would catch such a loop at
// the next instruction boundary.
func (k *Kernel) CheckPoint() {
	n := k.pendingTicks.Swap(0)
	if n == 0 {
		return
	}

	k.mu.Lock()
	yield := false
	for i := uint32(0); i < n; i++ {
		k.msCounter.Add(1)
		for _, node := range k.timeouts.Tick() {
			woken := node.Value
			woken.Signals.SetCurrent(ksignal.Timeout)
			k.sched.EnqueueUrgent(woken)
		}
		if k.sched.Tick() {
			yield = true
		}
	}
	cur := k.sched.Current()
	k.mu.Unlock()

	if !yield || cur == nil {
		return
	}
	k.prepareYield(cur)
	cur.Yield()
}

// prepareYield performs the bookkeeping required immediately before a
// running thread parks due to a forced (non-terminating) yield: the
// stack-watermark check, and moving it from the active list's head to
// the tail of the expired list.
func (k *Kernel) prepareYield(t *kthread.TCB) {
	if t.CheckStackWatermark() {
		k.hooks.OnStackOverflow(t)
	}
	k.mu.Lock()
	k.sched.RemoveCurrentFromActive()
	k.sched.RequeueCurrentAsExpired()
	k.sched.ClearCurrent()
	k.mu.Unlock()
}

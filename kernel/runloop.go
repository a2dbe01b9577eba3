package kernel

import (
	"github.com/joeycumines/go-zerokernel/internal/hosttimer"
	"github.com/joeycumines/go-zerokernel/klog"
	"github.com/joeycumines/go-zerokernel/kthread"
)

// Run starts the tick source and drives the scheduler until Stop is
// called. It blocks until the run loop has fully exited. Run must only
// be called once per Kernel.
func (k *Kernel) Run() {
	k.tick = k.cfg.TickSource
	if k.tick == nil {
		k.tick = hosttimer.NewTicker(k.cfg.TickInterval)
	}
	tickDone := make(chan struct{})
	go k.forwardTicks(tickDone)

	defer close(k.doneCh)
	defer func() {
		_ = k.tick.Close()
		<-tickDone
	}()

	k.mu.Lock()
	cur := k.sched.PickNext()
	k.mu.Unlock()

	for {
		select {
		case <-k.stopCh:
			return
		default:
		}

		cur.Resume()

		if cur.Exited() {
			if cur == k.sched.Idle() {
				// the idle entry only returns once Stop has been
				// requested: the run loop ends with it, and the idle
				// thread is not reported as a terminating thread.
				return
			}
			k.finishThread(cur)
		}

		k.mu.Lock()
		cur = k.sched.PickNext()
		k.mu.Unlock()
	}
}

// forwardTicks turns hosttimer.Source events into the pendingTicks
// counter CheckPoint drains — decoupling "a tick occurred" from "someone
// is currently in a position to act on it", since the running thread's
// own goroutine (not this one) is what eventually calls CheckPoint.
func (k *Kernel) forwardTicks(done chan struct{}) {
	defer close(done)
	for range k.tick.C() {
		k.pendingTicks.Add(1)
	}
}

// Stop halts the run loop after its current thread next parks. It does
// not forcibly interrupt a running thread (there is no such primitive on
// this target, real or simulated) — it simply stops scheduling a new one
// once the loop notices stopCh closed.
func (k *Kernel) Stop() {
	k.stopOnce.Do(func() { close(k.stopCh) })
}

// Done returns a channel closed once Run has fully returned.
func (k *Kernel) Done() <-chan struct{} { return k.doneCh }

// finishThread performs the termination steps that only the
// run loop (not the terminating thread's own trampoline) can perform:
// asserting no stray user signals for pool threads, removing the thread
// from scheduler bookkeeping, firing OnThreadExit, and recycling or
// freeing its stack.
func (k *Kernel) finishThread(t *kthread.TCB) {
	if t.Flags&kthread.FlagPoolThread != 0 && t.Signals.HasUserSignalsAllocated() {
		err := &InvariantError{Kind: InvariantStraySignalAtExit, Thread: t.Name}
		klog.Error(k.log, klog.CategoryThread, "pool thread terminated with user signals still allocated", err)
	}

	k.mu.Lock()
	k.sched.RemoveCurrentFromActive()
	k.sched.ClearCurrent()
	k.mu.Unlock()

	k.hooks.OnThreadExit(t, t.LastExitCode())

	if t.Flags&kthread.FlagPoolThread != 0 {
		k.mu.Lock()
		k.pool.Recycle(t)
		k.mu.Unlock()
	} else {
		k.pages.Free(t.StackBase, t.StackLen)
	}
}

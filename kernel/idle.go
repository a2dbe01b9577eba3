package kernel

import "time"

// idleEntry is the default idle thread body Hooks.IdleThreadEntry may
// replace. On real firmware the idle thread
// never terminates; here it spins calling OnSleep and CheckPoint (which is
// what lets sched.Tick's "idle yields the instant real work exists" rule
// take effect) until Stop is called, so Run can actually return once
// nothing else is left running. The short sleep between spins stands in
// for a CPU sleep instruction — there is no honest equivalent on a
// hosted Go runtime, but spinning at full host speed would misrepresent
// "idle" as "busy".
func (k *Kernel) idleEntry() int {
	if k.hooks.IdleThreadEntry != nil {
		return k.hooks.IdleThreadEntry(k)
	}
	for !k.stopRequested() {
		k.hooks.OnSleep(0)
		time.Sleep(k.cfg.TickInterval / 4)
		k.CheckPoint()
	}
	return 0
}

// stopRequested reports whether Stop has been called, without blocking.
// The default idle entry polls this so Run can actually return once every
// other thread is parked and nothing else would otherwise notice stopCh —
// an idle thread that only ever yielded for real work would spin forever
// in Resume if the device never had anything left to do.
func (k *Kernel) stopRequested() bool {
	select {
	case <-k.stopCh:
		return true
	default:
		return false
	}
}

package kernel

// Guard is a scoped acquisition of forbid-state: its Release restores
// the previous gate state, so callers defer it immediately after Forbid
// rather than hand-pairing Forbid/Permit calls.
type Guard struct {
	k        *Kernel
	released bool
}

// Forbid disables preemption and returns a Guard whose Release re-enables
// it once every nested Forbid has been released — the switching-enabled
// gate, made re-entrant so nested critical sections compose safely.
func (k *Kernel) Forbid() *Guard {
	k.mu.Lock()
	k.forbidDepth++
	if k.forbidDepth == 1 {
		k.sched.SetSwitchingEnabled(false)
	}
	k.mu.Unlock()
	return &Guard{k: k}
}

// Release restores the gate to its state before the matching Forbid. Safe
// to call more than once; only the first call has an effect.
func (g *Guard) Release() {
	if g.released {
		return
	}
	g.released = true
	k := g.k
	k.mu.Lock()
	k.forbidDepth--
	if k.forbidDepth == 0 {
		k.sched.SetSwitchingEnabled(true)
	}
	k.mu.Unlock()
}

// SwitchingEnabled reports whether preemption is currently permitted.
func (k *Kernel) SwitchingEnabled() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.sched.SwitchingEnabled()
}

package kernel

import (
	"fmt"

	"github.com/joeycumines/go-zerokernel/ksignal"
	"github.com/joeycumines/go-zerokernel/kthread"
	"github.com/joeycumines/go-zerokernel/page"
)

// ThreadInfo is one row of a Snapshot's thread table — the data a `ps`
// style command would print. The command itself is out of scope; the data
// is not, since tests and weak hooks need something to assert against.
type ThreadInfo struct {
	ID             uint32
	Name           string
	Status         kthread.Status
	QuantumTicks   uint8
	StackBytes     int
	StackUsedBytes int
	Allocated      uint32
	Waiting        uint32
	Current        uint32
}

func (ti ThreadInfo) String() string {
	return fmt.Sprintf("#%d %-12s %-8s q=%-3d stack=%d/%dB",
		ti.ID, ti.Name, ti.Status, ti.QuantumTicks, ti.StackUsedBytes, ti.StackBytes)
}

// Snapshot is a point-in-time view of the running thread and every thread
// on the active or expired ready list, plus a heap usage summary
// (page.Stats provides this directly). Threads blocked in Wait or Delay
// and dormant pool threads are not listed.
type Snapshot struct {
	Now     uint32
	Threads []ThreadInfo
	Heap    page.Stats
	// RecentSignals is the most recent entries from the signal history
	// diagnostic (nil if SignalHistoryCapacity was configured as 0).
	RecentSignals []ksignal.Entry
}

// Snapshot captures the kernel's current thread table and heap usage. It
// briefly acquires Forbid to get a consistent view of the running thread
// and the active and expired ready lists; the pool and timeout lists are
// not walked.
func (k *Kernel) Snapshot() Snapshot {
	g := k.Forbid()
	defer g.Release()

	k.mu.Lock()
	defer k.mu.Unlock()

	s := Snapshot{Now: k.msCounter.Load(), Heap: k.pages.Stats()}
	if k.sigHistory != nil {
		s.RecentSignals = k.sigHistory.Recent(0)
	}

	cur := k.sched.Current()
	if cur != nil {
		s.Threads = append(s.Threads, describeTCB(cur, kthread.StatusRunning))
	}

	k.sched.EachReady(func(t *kthread.TCB) {
		if t == cur {
			return
		}
		s.Threads = append(s.Threads, describeTCB(t, kthread.StatusReady))
	})

	return s
}

func describeTCB(t *kthread.TCB, fallback kthread.Status) ThreadInfo {
	status := fallback
	switch {
	case t.Signals.Waiting() != 0 && fallback != kthread.StatusRunning:
		status = kthread.StatusWaiting
	case t.Exited():
		status = kthread.StatusStopped
	}
	used := t.StackBase + t.StackLen - t.Watermark()
	return ThreadInfo{
		ID:             t.ID,
		Name:           t.Name,
		Status:         status,
		QuantumTicks:   t.QuantumTicks,
		StackBytes:     t.StackLen,
		StackUsedBytes: used,
		Allocated:      uint32(t.Signals.Allocated()),
		Waiting:        uint32(t.Signals.Waiting()),
		Current:        uint32(t.Signals.Current()),
	}
}

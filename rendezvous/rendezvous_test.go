package rendezvous_test

import (
	"testing"
	"time"

	"github.com/joeycumines/go-zerokernel/ksignal"
	"github.com/joeycumines/go-zerokernel/kthread"
	"github.com/joeycumines/go-zerokernel/rendezvous"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWaker is a minimal in-process Waker: Signal immediately delivers
// into the thread's bank; Wait drains whatever is already current.
type fakeWaker struct {
	signalled []ksignal.Bits
}

func (f *fakeWaker) Signal(t *kthread.TCB, mask ksignal.Bits) {
	f.signalled = append(f.signalled, mask)
	t.Signals.SetCurrent(mask)
}

func (f *fakeWaker) Wait(t *kthread.TCB, mask ksignal.Bits, timeout time.Duration) ksignal.Bits {
	t.Signals.BeginWait(mask, timeout > 0)
	return t.Signals.ConsumeActive()
}

func newTCB(t *testing.T) *kthread.TCB {
	t.Helper()
	return kthread.NewPrepared(1, "owner", 0, 256, kthread.FlagNone, func() int {
		select {}
	}, nil, nil)
}

func TestNewAllocatesFreshBit(t *testing.T) {
	tcb := newTCB(t)
	w := &fakeWaker{}

	h := rendezvous.New(w, tcb)
	require.True(t, h.Valid())
	assert.NotZero(t, h.Mask())
	assert.True(t, tcb.Signals.HasUserSignalsAllocated())
}

func TestSignalThenWaitDeliversOwnBit(t *testing.T) {
	tcb := newTCB(t)
	w := &fakeWaker{}
	h := rendezvous.New(w, tcb)

	h.Signal()
	got := h.Wait(0)
	assert.Equal(t, h.Mask(), got)
}

func TestReleaseFreesBitAndInvalidates(t *testing.T) {
	tcb := newTCB(t)
	w := &fakeWaker{}
	h := rendezvous.New(w, tcb)
	bit := h.Mask()

	h.Release()
	assert.False(t, h.Valid())
	assert.Equal(t, ksignal.Bits(0), h.Mask())

	// the freed bit must be available for reallocation.
	again, ok := tcb.Signals.Allocate(bit)
	assert.True(t, ok)
	assert.Equal(t, bit, again)
}

func TestClearSignalsDoesNotDisturbOtherWaiting(t *testing.T) {
	tcb := newTCB(t)
	w := &fakeWaker{}
	h := rendezvous.New(w, tcb)

	other, ok := tcb.Signals.Allocate(0)
	require.True(t, ok)

	tcb.Signals.BeginWait(other, false)
	h.Signal()
	h.ClearSignals()

	assert.Equal(t, other, tcb.Signals.Waiting(), "ClearSignals must restore the thread's own waiting mask")
}

func TestInvalidHandleOperationsAreNoOps(t *testing.T) {
	tcb := newTCB(t)
	// exhaust all allocatable bits so New fails.
	for {
		if _, ok := tcb.Signals.Allocate(0); !ok {
			break
		}
	}
	w := &fakeWaker{}
	h := rendezvous.New(w, tcb)
	require.False(t, h.Valid())

	assert.NotPanics(t, func() {
		h.Signal()
		h.ClearSignals()
		h.Release()
		_ = h.Wait(0)
	})
}

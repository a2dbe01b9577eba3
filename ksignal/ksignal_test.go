package ksignal_test

import (
	"testing"

	"github.com/joeycumines/go-zerokernel/ksignal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBankHasOnlyReservedAllocated(t *testing.T) {
	b := ksignal.NewBank()
	assert.Equal(t, ksignal.Timeout|ksignal.Start|ksignal.Stop, b.Allocated())
	assert.False(t, b.HasUserSignalsAllocated())
}

func TestAllocateAnyFindsLowestFreeAboveReserved(t *testing.T) {
	b := ksignal.NewBank()
	mask, ok := b.Allocate(0)
	require.True(t, ok)
	assert.Equal(t, ksignal.Bits(1<<ksignal.ReservedCount), mask)
	assert.True(t, b.HasUserSignalsAllocated())
}

func TestAllocateSpecificBitRejectsDouble(t *testing.T) {
	b := ksignal.NewBank()
	bit := ksignal.Bits(1 << 10)

	got, ok := b.Allocate(bit)
	require.True(t, ok)
	assert.Equal(t, bit, got)

	_, ok = b.Allocate(bit)
	assert.False(t, ok, "double allocation of the same bit must fail")
}

func TestAllocateReservedBitIsRejected(t *testing.T) {
	b := ksignal.NewBank()
	_, ok := b.Allocate(ksignal.Start)
	assert.False(t, ok, "reserved bits are pre-allocated from birth")
}

func TestFreeSignalsIgnoresReserved(t *testing.T) {
	b := ksignal.NewBank()
	bit, _ := b.Allocate(0)

	b.FreeSignals(bit | ksignal.Timeout | ksignal.Start | ksignal.Stop)

	assert.False(t, b.HasUserSignalsAllocated())
	assert.Equal(t, ksignal.Timeout|ksignal.Start|ksignal.Stop, b.Allocated(), "reserved bits must remain allocated")
}

func TestSignalThenWaitRoundTrip(t *testing.T) {
	b := ksignal.NewBank()
	bit, _ := b.Allocate(0)

	waiting := b.BeginWait(bit, false)
	assert.Equal(t, bit, waiting)

	becameActive := b.SetCurrent(bit)
	assert.True(t, becameActive)

	active := b.ConsumeActive()
	assert.Equal(t, bit, active)

	// a second wait on the same bits without a further signal consumes
	// nothing.
	b.BeginWait(bit, false)
	assert.Equal(t, ksignal.Bits(0), b.ConsumeActive())
}

func TestBeginWaitWithTimeoutIncludesTimeoutBit(t *testing.T) {
	b := ksignal.NewBank()
	bit, _ := b.Allocate(0)

	waiting := b.BeginWait(bit, true)
	assert.Equal(t, bit|ksignal.Timeout, waiting)
}

func TestSetCurrentOnlyAffectsAllocatedBits(t *testing.T) {
	b := ksignal.NewBank()
	bit, _ := b.Allocate(0)
	unallocated := ksignal.Bits(1 << 20)

	b.BeginWait(bit|unallocated, false)
	b.SetCurrent(bit | unallocated)

	active := b.ConsumeActive()
	assert.Equal(t, bit, active, "unallocated bits must never appear as active")
}

func TestResetReturnsToBirthState(t *testing.T) {
	b := ksignal.NewBank()
	bit, _ := b.Allocate(0)
	b.BeginWait(bit, true)
	b.SetCurrent(bit)

	b.Reset()

	assert.Equal(t, ksignal.Timeout|ksignal.Start|ksignal.Stop, b.Allocated())
	assert.Equal(t, ksignal.Bits(0), b.Waiting())
	assert.Equal(t, ksignal.Bits(0), b.Current())
}

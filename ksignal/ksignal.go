// Package ksignal implements the per-thread signal bitfield that is the
// kernel's sole blocking primitive: allocation, freeing, delivery, and the
// pure bit arithmetic behind wait/signal. It deliberately knows nothing
// about the scheduler or ready lists — moving a woken thread to the head
// of the active list is the scheduler's job (see sched and kernel), not
// this package's; Bank only ever touches its own three bitfields.
package ksignal

import "math/bits"

// Bits is a thread's signal bitfield: the full word, so user code on a
// 32-bit host gets more headroom than an 8-bit target's 16-bit bank,
// without changing any semantics.
type Bits uint32

// Reserved signals. Always present in a fresh Bank's allocated set and
// cannot be freed by FreeSignals.
const (
	Timeout Bits = 1 << iota
	Start
	Stop

	// ReservedCount is the number of low-numbered reserved bits.
	// User-allocatable bits start above them.
	ReservedCount = 3
)

const reservedMask = Timeout | Start | Stop

// BitWidth is the number of usable signal bits.
const BitWidth = 32

// Bank is the three-bitfield state machine for a single thread:
// allocated ⊇ {reserved}, waiting ⊆ allocated, current ⊆ allocated. The zero value is not ready to use; call Reset or construct
// via NewBank.
type Bank struct {
	allocated Bits
	waiting   Bits
	current   Bits
}

// NewBank returns a Bank with only the reserved signals allocated.
func NewBank() Bank {
	var b Bank
	b.Reset()
	return b
}

// Reset restores a Bank to its just-born state: only the reserved bits
// allocated, nothing waiting or current. Used both at first construction
// and when a pool thread is reanimated.
func (b *Bank) Reset() {
	b.allocated = reservedMask
	b.waiting = 0
	b.current = 0
}

// Allocated returns the currently allocated bitfield.
func (b *Bank) Allocated() Bits { return b.allocated }

// Waiting returns the currently-waited-on bitfield.
func (b *Bank) Waiting() Bits { return b.waiting }

// Current returns the currently-pending (signalled but not yet consumed)
// bitfield.
func (b *Bank) Current() Bits { return b.current }

// HasUserSignalsAllocated reports whether any non-reserved bit is
// allocated. Used by the termination path to detect a stray rendezvous
// handle that outlived its thread.
func (b *Bank) HasUserSignalsAllocated() bool {
	return b.allocated&^reservedMask != 0
}

// Allocate finds or claims a signal bit. If requested is 0, the lowest
// free bit above the reserved range is claimed; otherwise requested must
// be a single bit, which is claimed if free. Returns the claimed mask and
// true on success, or 0 and false if no such bit is available — a
// resource-exhaustion result, never a panic.
func (b *Bank) Allocate(requested Bits) (Bits, bool) {
	if requested != 0 {
		if requested&(requested-1) != 0 {
			// not a single bit
			return 0, false
		}
		if b.allocated&requested != 0 {
			return 0, false
		}
		b.allocated |= requested
		return requested, true
	}

	free := ^b.allocated
	// start checking after the reserved signals, for speed and to keep
	// the reserved range permanently off-limits.
	free &^= reservedMask
	if free == 0 {
		return 0, false
	}
	lowest := Bits(1) << uint(bits.TrailingZeros32(uint32(free)))
	b.allocated |= lowest
	return lowest, true
}

// FreeSignals clears the given bits from allocated, waiting, and current.
// Reserved bits are silently ignored: freeing them is a no-op, not an
// error.
func (b *Bank) FreeSignals(mask Bits) {
	freeable := mask &^ reservedMask
	b.allocated &^= freeable
	b.waiting &^= freeable
	b.current &^= freeable
}

// SetCurrent ORs mask (narrowed to allocated bits) into current, and
// reports whether doing so caused current&waiting to become non-empty
// when it was previously empty — the condition the scheduler uses to
// decide whether to wake the thread.
func (b *Bank) SetCurrent(mask Bits) (becameActive bool) {
	before := b.current & b.waiting
	b.current |= mask & b.allocated
	after := b.current & b.waiting
	return before == 0 && after != 0
}

// BeginWait sets waiting = mask & allocated, optionally including Timeout
// when withTimeout is true, and returns the resulting waiting mask (0 if
// nothing survived the intersection with allocated — the caller should
// treat that as "return immediately").
func (b *Bank) BeginWait(mask Bits, withTimeout bool) Bits {
	b.waiting = mask & b.allocated
	if withTimeout {
		b.waiting |= Timeout
	}
	return b.waiting
}

// Active returns current&waiting without mutating state.
func (b *Bank) Active() Bits {
	return b.current & b.waiting
}

// ConsumeActive clears current&waiting from current and returns the bits
// that were cleared. Called both for the immediate-return fast path and
// on resumption from yield.
func (b *Bank) ConsumeActive() Bits {
	active := b.Active()
	b.current &^= active
	return active
}

// ClearWaiting clears the waiting bitfield, e.g. so a stale wait does not
// linger after a thread has woken.
func (b *Bank) ClearWaiting() {
	b.waiting = 0
}

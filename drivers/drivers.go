// Package drivers declares the external-collaborator contracts the
// kernel's consumers depend on, without implementations: no
// register-level GPIO/USART/SPI/ADC/watchdog bit-banging lives in this
// module. Resource-scoped driver classes become Go interfaces so
// cmd/ledflasher and cmd/pinchange can compile and run against a hosted
// fake, the same way production firmware would compile the identical
// thread bodies against a real bit-banging implementation.
package drivers

import "github.com/joeycumines/go-zerokernel/ksignal"

// PinField is a bitmask over a device's GPIO pins: bit N is pin N, with
// no assumption about how pins map to physical ports beyond what a
// concrete implementation chooses.
type PinField uint32

// GPIO is a claimed pin set: a caller obtains ownership for its
// lifetime (the resource package's Obtain/Release pattern, generalized
// from fixed peripherals to an arbitrary pin mask), then drives or
// reads it.
type GPIO interface {
	// Pins returns the pin set this handle owns.
	Pins() PinField

	SetAsInput()
	SetAsOutput()
	SwitchOn()
	SwitchOff()
	Toggle()

	// InputState returns the current input level of every owned pin.
	InputState() PinField

	// Release relinquishes ownership of the pin set; the handle must not
	// be used afterward.
	Release()
}

// GPIOController constructs GPIO handles; construction fails when the
// requested pins are already claimed.
type GPIOController interface {
	// Claim obtains exclusive ownership of pins, or reports ok=false if
	// any requested pin is already owned elsewhere.
	Claim(pins PinField) (h GPIO, ok bool)

	// ClaimWithInterrupt is Claim, plus registration of mask as the
	// signal a pin-change event on pins should deliver. It takes a raw
	// signal mask rather than a rendezvous handle so drivers carries no
	// dependency on rendezvous; handle owners pass handle.Mask().
	ClaimWithInterrupt(pins PinField, deliver func(mask ksignal.Bits), mask ksignal.Bits) (h GPIO, ok bool)
}

// USARTTx is the transmit half of a UART, its signals-on-ready contract
// expressed as an explicit callback.
type USARTTx interface {
	SetBaud(baud uint32)
	Enable(ready func()) bool
	Disable()
	Transmit(data []byte) bool
}

// USARTRx is the receive half of a UART. The dataReceived and overflow
// callbacks fire on their respective conditions; GetBuffer drains
// whatever the implementation has accumulated since the last call (a
// double-buffer handoff).
type USARTRx interface {
	SetBaud(baud uint32)
	Enable(bufferSize int, dataReceived, overflow func()) bool
	Disable()
	GetBuffer() []byte
	Flush()
}

// SPI is a simple synchronous bus transfer, independent of which
// physical pins a board wires MOSI/MISO/SCLK to.
type SPI interface {
	Transfer(out []byte) (in []byte, err error)
}

// ADC selects a channel, starts a conversion, and collects the result
// once it completes (delivered out-of-band via the supplied callback).
type ADC interface {
	Enable()
	Disable()
	BeginConversion(channel uint8, done func(result uint16))
	LastConversion() uint16
}

// Watchdog arms/disarms the reset timeout; Pat it periodically to
// prevent a reset.
type Watchdog interface {
	Pat()
	Disable()
}

package main

import (
	"fmt"
	"sync"

	"github.com/joeycumines/go-zerokernel/drivers"
	"github.com/joeycumines/go-zerokernel/ksignal"
)

// fakeController is a hosted stand-in for a real GPIO port driver: it
// tracks claimed pins and prints state transitions instead of toggling
// real registers.
type fakeController struct {
	mu     sync.Mutex
	owned  drivers.PinField
	labels map[drivers.PinField]string
}

func newFakeController() *fakeController {
	return &fakeController{labels: make(map[drivers.PinField]string)}
}

func (c *fakeController) Claim(pins drivers.PinField) (drivers.GPIO, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owned&pins != 0 {
		return nil, false
	}
	c.owned |= pins
	return &fakeGPIO{ctrl: c, pins: pins}, true
}

func (c *fakeController) ClaimWithInterrupt(pins drivers.PinField, deliver func(mask ksignal.Bits), mask ksignal.Bits) (drivers.GPIO, bool) {
	panic("unused by ledflasher")
}

func (c *fakeController) label(pins drivers.PinField, s string) {
	c.mu.Lock()
	c.labels[pins] = s
	c.mu.Unlock()
}

// fakeGPIO implements drivers.GPIO over in-memory state.
type fakeGPIO struct {
	ctrl  *fakeController
	pins  drivers.PinField
	state drivers.PinField // set bit = high
}

func (g *fakeGPIO) Pins() drivers.PinField { return g.pins }
func (g *fakeGPIO) SetAsInput()            {}
func (g *fakeGPIO) SetAsOutput()           {}

func (g *fakeGPIO) SwitchOn() {
	g.state |= g.pins
	g.print("on")
}

func (g *fakeGPIO) SwitchOff() {
	g.state &^= g.pins
	g.print("off")
}

func (g *fakeGPIO) Toggle() {
	g.state ^= g.pins
	if g.state&g.pins != 0 {
		g.print("on")
	} else {
		g.print("off")
	}
}

func (g *fakeGPIO) InputState() drivers.PinField { return g.state & g.pins }

func (g *fakeGPIO) Release() {
	g.ctrl.mu.Lock()
	g.ctrl.owned &^= g.pins
	g.ctrl.mu.Unlock()
}

func (g *fakeGPIO) print(action string) {
	g.ctrl.mu.Lock()
	label := g.ctrl.labels[g.pins]
	g.ctrl.mu.Unlock()
	fmt.Printf("[%s] pins=%#x %s\n", label, uint32(g.pins), action)
}

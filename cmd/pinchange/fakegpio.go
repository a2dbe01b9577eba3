package main

import (
	"sync"
	"time"

	"github.com/joeycumines/go-zerokernel/drivers"
	"github.com/joeycumines/go-zerokernel/ksignal"
)

// fakeController is a hosted stand-in for a GPIO driver's pin-change
// interrupt registration path: instead of a PCINT vector, a background
// goroutine flips simulated input state on an interval and
// calls the registered deliver callback, the same "event arrives from a
// context that isn't the waiting thread" shape a real ISR has.
type fakeController struct {
	mu    sync.Mutex
	owned drivers.PinField
	stop  chan struct{}
}

func newFakeController() *fakeController {
	return &fakeController{stop: make(chan struct{})}
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
	g, ok := c.Claim(pins)
	if !ok {
		return nil, false
	}
	fg := g.(*fakeGPIO)
	go fg.simulateButton(deliver, mask)
	return fg, true
}

func (c *fakeController) close() { close(c.stop) }

type fakeGPIO struct {
	ctrl  *fakeController
	pins  drivers.PinField
	mu    sync.Mutex
	state drivers.PinField
}

func (g *fakeGPIO) Pins() drivers.PinField       { return g.pins }
func (g *fakeGPIO) SetAsInput()                  {}
func (g *fakeGPIO) SetAsOutput()                 {}
func (g *fakeGPIO) SwitchOn()                    { g.setState(g.pins) }
func (g *fakeGPIO) SwitchOff()                   { g.setState(0) }
func (g *fakeGPIO) Toggle()                      { g.setState(g.state ^ g.pins) }
func (g *fakeGPIO) InputState() drivers.PinField { g.mu.Lock(); defer g.mu.Unlock(); return g.state }

func (g *fakeGPIO) setState(s drivers.PinField) {
	g.mu.Lock()
	g.state = s & g.pins
	g.mu.Unlock()
}

func (g *fakeGPIO) Release() {
	g.ctrl.mu.Lock()
	g.ctrl.owned &^= g.pins
	g.ctrl.mu.Unlock()
}

// simulateButton toggles the pin's state every 500ms, mimicking a hand
// pressing and releasing a button wired with a pull-up: high is "up",
// low is "down".
func (g *fakeGPIO) simulateButton(deliver func(mask ksignal.Bits), mask ksignal.Bits) {
	g.setState(g.pins) // starts "up"
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-g.ctrl.stop:
			return
		case <-ticker.C:
			g.setState(g.state ^ g.pins)
			deliver(mask)
		}
	}
}

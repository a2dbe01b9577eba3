package main

import (
	"fmt"

	"github.com/joeycumines/go-zerokernel/drivers"
	"github.com/joeycumines/go-zerokernel/kernel"
	"github.com/joeycumines/go-zerokernel/ksignal"
	"github.com/joeycumines/go-zerokernel/kthread"
	"github.com/joeycumines/go-zerokernel/rendezvous"
)

// pinChangeDemo is a thread that blocks in a rendezvous wait until a
// pin-change interrupt wakes it, then reports the button's new state.
// The demo never supplies a timeout, so every wake is a genuine signal
// delivery, not a race.
type pinChangeDemo struct {
	name string
	pins drivers.PinField
}

func (d *pinChangeDemo) spawn(k *kernel.Kernel, ctrl *fakeController) *kthread.TCB {
	var t *kthread.TCB
	entry := func() int { return d.main(k, ctrl, t) }
	t = k.Spawn(d.name, 2<<10, entry, nil, nil)
	return t
}

func (d *pinChangeDemo) main(k *kernel.Kernel, ctrl *fakeController, t *kthread.TCB) int {
	handle := rendezvous.New(k, t)
	if !handle.Valid() {
		return 20
	}
	defer handle.Release()

	listenPins, ok := ctrl.ClaimWithInterrupt(d.pins, func(ksignal.Bits) { handle.Signal() }, handle.Mask())
	if !ok {
		return 20
	}
	defer listenPins.Release()

	listenPins.SetAsInput()
	listenPins.SwitchOn() // enable the simulated pull-up

	for {
		handle.Wait(0)

		if listenPins.InputState() != 0 {
			fmt.Printf("%s: button up\n", d.name)
		} else {
			fmt.Printf("%s: button down\n", d.name)
		}
	}
}

package main

import (
	"fmt"

	"github.com/joeycumines/go-zerokernel/drivers"
	"github.com/joeycumines/go-zerokernel/kernel"
	"github.com/joeycumines/go-zerokernel/kthread"
)

// ledFlasher is a thread that owns a GPIO pin set, blinks it at
// distinct on/off rates, and optionally stops after a fixed number of
// flashes.
type ledFlasher struct {
	name             string
	pins             drivers.PinField
	timeOnMs         uint32
	timeOffMs        uint32
	flashesRemaining int
}

// spawn starts the flasher as a kernel thread; construction registers
// it with the scheduler immediately.
func (f *ledFlasher) spawn(k *kernel.Kernel, ctrl *fakeController) *kthread.TCB {
	var t *kthread.TCB
	entry := func() int { return f.main(k, ctrl, t) }
	t = k.Spawn(f.name, 2<<10, entry, nil, nil)
	return t
}

func (f *ledFlasher) main(k *kernel.Kernel, ctrl *fakeController, t *kthread.TCB) int {
	led, ok := ctrl.Claim(f.pins)
	if !ok {
		return 20
	}
	ctrl.label(f.pins, f.name)
	defer led.Release()

	led.SetAsOutput()

	remaining := f.flashesRemaining
	for {
		led.SwitchOn()
		k.Delay(t, kernel.Ms(f.timeOnMs))

		led.SwitchOff()
		k.Delay(t, kernel.Ms(f.timeOffMs))

		if remaining > 0 {
			remaining--
			if remaining == 0 {
				break
			}
		}
	}

	fmt.Printf("%s: done\n", f.name)
	return 0
}

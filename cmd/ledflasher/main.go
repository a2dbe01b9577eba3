// Command ledflasher demonstrates multiple independently-scheduled
// kernel threads driving distinct simulated LEDs at distinct rates.
// Run with:
//
//	go run ./cmd/ledflasher
package main

import (
	"fmt"
	"time"

	"github.com/joeycumines/go-zerokernel/drivers"
	"github.com/joeycumines/go-zerokernel/kernel"
)

func main() {
	k, ok := kernel.New(0, kernel.Hooks{})
	if !ok {
		fmt.Println("boot aborted")
		return
	}

	ctrl := newFakeController()

	flashers := []*ledFlasher{
		{name: "led-fast", pins: drivers.PinField(1 << 0), timeOnMs: 100, timeOffMs: 100},
		{name: "led-slow", pins: drivers.PinField(1 << 1), timeOnMs: 400, timeOffMs: 400},
		{name: "led-counted", pins: drivers.PinField(1 << 2), timeOnMs: 150, timeOffMs: 250, flashesRemaining: 5},
	}
	for _, f := range flashers {
		f.spawn(k, ctrl)
	}

	go k.Run()

	time.Sleep(3 * time.Second)
	k.Stop()
	<-k.Done()
}

// Command pinchange demonstrates a thread parked in a rendezvous wait
// being woken by a simulated interrupt. Run with:
//
//	go run ./cmd/pinchange
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
	defer ctrl.close()

	demo := &pinChangeDemo{name: "button", pins: drivers.PinField(1 << 0)}
	demo.spawn(k, ctrl)

	go k.Run()

	time.Sleep(3 * time.Second)
	k.Stop()
	<-k.Done()
}

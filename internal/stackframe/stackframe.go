// Package stackframe is the one audited, target-specific module where
// the kernel's "synthetic initial stack frame" lives. On an 8-bit
// hardware target that means writing exact byte offsets a later `reti`
// pops as registers; Go offers no equivalent of hand-rolling a stack
// frame, so this package instead models a thread's saved execution state as a
// parked goroutine gated by a pair of unbuffered channels — a baton passed
// back and forth between exactly one running party and the scheduler,
// which is the Go-native equivalent of "one hardware stack pointer, one
// CPU". Every other package refers to a thread's context only through
// Context's Resume/Yield/Finish, never by touching a goroutine directly.
package stackframe

import "runtime"

// Context is the parked-goroutine equivalent of a saved CPU context. The
// zero value is not usable; construct with NewContext.
type Context struct {
	resume chan struct{}
	parked chan struct{}
}

// NewContext allocates an unstarted Context.
func NewContext() *Context {
	return &Context{
		resume: make(chan struct{}),
		parked: make(chan struct{}),
	}
}

// Launch starts body in a new goroutine that blocks immediately until
// the first Resume — a synthetic frame sitting dormant on its stack
// until the scheduler first restores it. Launch returns without
// waiting for body to run.
func (c *Context) Launch(body func()) {
	go func() {
		<-c.resume
		body()
	}()
}

// Resume hands control to this Context's goroutine (unblocking the body
// at its last Yield, or starting it for the first time) and blocks the
// caller — which must be the scheduler — until that goroutine parks again,
// whether via Yield or by running to completion and calling Finish.
func (c *Context) Resume() {
	c.resume <- struct{}{}
	<-c.parked
}

// Yield parks the calling goroutine and blocks it until the scheduler
// Resumes it again. Must only be called from inside the goroutine started
// by Launch.
func (c *Context) Yield() {
	c.parked <- struct{}{}
	<-c.resume
}

// Finish performs the final park when body is about to return. Unlike
// Yield, the goroutine is not expected to run again afterward — calling
// Resume after Finish would deadlock, the moral equivalent of asserting
// that a terminated thread's context is never restored.
func (c *Context) Finish() {
	c.parked <- struct{}{}
}

// SampleStackDepth approximates "stack pointer depth" for the calling
// goroutine by measuring how large a buffer runtime.Stack needs to capture
// its current call stack. Go goroutines have runtime-managed,
// dynamically growing stacks with no fixed base the way heap-carved
// per-thread stacks have, so this is a deliberate approximation: callers
// treat larger samples as "the stack has grown further from its nominal
// base", and compare against a configured budget rather than a hardware
// address range. See kthread.TCB.CheckStackWatermark.
func SampleStackDepth() int {
	buf := make([]byte, 64<<10)
	n := runtime.Stack(buf, false)
	for n == len(buf) && n < 8<<20 {
		buf = make([]byte, len(buf)*2)
		n = runtime.Stack(buf, false)
	}
	return n
}

// Package hosttimer supplies the 1kHz tick source that stands in for a
// hardware timer interrupt. The portable backend here wraps time.Ticker;
// a Linux-only backend in timerfd_linux.go wires in
// golang.org/x/sys/unix's timerfd.
package hosttimer

import "time"

// Source emits one value on C per tick. Close stops delivery; it is safe
// to call more than once.
type Source interface {
	C() <-chan struct{}
	Close() error
}

type tickerSource struct {
	ticker *time.Ticker
	out    chan struct{}
	done   chan struct{}
}

// NewTicker builds a Source backed by time.Ticker, firing every interval.
func NewTicker(interval time.Duration) Source {
	t := &tickerSource{
		ticker: time.NewTicker(interval),
		out:    make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go t.pump()
	return t
}

func (t *tickerSource) pump() {
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			select {
			case t.out <- struct{}{}:
			default:
				// A tick the consumer hasn't drained yet is simply
				// coalesced: the dropped tick is lost, since the kernel
				// counts exactly one tick per value received.
			}
		}
	}
}

func (t *tickerSource) C() <-chan struct{} { return t.out }

func (t *tickerSource) Close() error {
	t.ticker.Stop()
	select {
	case <-t.done:
	default:
		close(t.done)
	}
	return nil
}

//go:build linux

package hosttimer

import (
	"time"

	"golang.org/x/sys/unix"
)

// timerfdSource backs Source with a Linux timerfd, polled by a single
// background goroutine via unix.Read — closer in spirit to the hardware
// ISR than time.Ticker, since the fd itself accumulates missed-tick
// counts that a real interrupt controller would also coalesce.
type timerfdSource struct {
	fd   int
	out  chan struct{}
	done chan struct{}
}

// NewTimerfd builds a Source backed by CLOCK_MONOTONIC timerfd, firing
// every interval. Returns an error if the kernel timerfd syscalls fail.
func NewTimerfd(interval time.Duration) (Source, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, 0)
	if err != nil {
		return nil, err
	}

	spec := &unix.ItimerSpec{
		Interval: unix.NsecToTimespec(interval.Nanoseconds()),
		Value:    unix.NsecToTimespec(interval.Nanoseconds()),
	}
	if err := unix.TimerfdSettime(fd, 0, spec, nil); err != nil {
		unix.Close(fd)
		return nil, err
	}

	t := &timerfdSource{
		fd:   fd,
		out:  make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go t.pump()
	return t, nil
}

func (t *timerfdSource) pump() {
	buf := make([]byte, 8)
	for {
		n, err := unix.Read(t.fd, buf)
		if err != nil || n != 8 {
			select {
			case <-t.done:
				return
			default:
				continue
			}
		}
		select {
		case <-t.done:
			return
		case t.out <- struct{}{}:
		default:
		}
	}
}

func (t *timerfdSource) C() <-chan struct{} { return t.out }

func (t *timerfdSource) Close() error {
	select {
	case <-t.done:
	default:
		close(t.done)
	}
	return unix.Close(t.fd)
}

package hosttimer_test

import (
	"testing"
	"time"

	"github.com/joeycumines/go-zerokernel/internal/hosttimer"
	"github.com/stretchr/testify/assert"
)

func TestNewTickerFiresRepeatedly(t *testing.T) {
	src := hosttimer.NewTicker(5 * time.Millisecond)
	defer src.Close()

	for i := 0; i < 3; i++ {
		select {
		case <-src.C():
		case <-time.After(time.Second):
			t.Fatalf("tick %d never arrived", i)
		}
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	src := hosttimer.NewTicker(2 * time.Millisecond)
	assert.NoError(t, src.Close())
	assert.NoError(t, src.Close(), "Close must be idempotent")

	// Let the pump goroutine observe the close, then drop the one tick it
	// may have buffered just before it; nothing may arrive after that.
	time.Sleep(10 * time.Millisecond)
	select {
	case <-src.C():
	default:
	}
	select {
	case <-src.C():
		t.Fatal("tick delivered after Close")
	case <-time.After(20 * time.Millisecond):
	}
}

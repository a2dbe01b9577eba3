package pool_test

import (
	"testing"

	"github.com/joeycumines/go-zerokernel/kthread"
	"github.com/joeycumines/go-zerokernel/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dormantTCB(id uint32) *kthread.TCB {
	return kthread.NewPrepared(id, "dormant", 0, 256, kthread.FlagPoolThread, func() int {
		select {}
	}, nil, nil)
}

func TestNewSeedsAvailableCount(t *testing.T) {
	p := pool.New([]*kthread.TCB{dormantTCB(100), dormantTCB(101), dormantTCB(102)})
	assert.Equal(t, 3, p.Total())
	assert.Equal(t, 3, p.Available())
}

func TestTakeReanimatesAndShrinksAvailable(t *testing.T) {
	p := pool.New([]*kthread.TCB{dormantTCB(100)})

	ran := make(chan struct{}, 1)
	tcb, err := p.Take(7, "worker", func() int {
		ran <- struct{}{}
		return 0
	}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), tcb.ID)
	assert.Equal(t, 0, p.Available())

	tcb.Resume()
	select {
	case <-ran:
	default:
		t.Fatal("reanimated entry did not run")
	}
}

func TestTakeFromEmptyPoolFails(t *testing.T) {
	p := pool.New(nil)
	_, err := p.Take(1, "x", func() int { return 0 }, nil, nil)
	assert.ErrorIs(t, err, pool.ErrPoolEmpty)
}

func TestRecycleReturnsThreadToPool(t *testing.T) {
	p := pool.New([]*kthread.TCB{dormantTCB(1)})
	tcb, err := p.Take(1, "a", func() int { return 0 }, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Available())

	p.Recycle(tcb)
	assert.Equal(t, 1, p.Available())
}

func TestRequestManyReturnsPartialResultsOnExhaustion(t *testing.T) {
	p := pool.New([]*kthread.TCB{dormantTCB(1), dormantTCB(2)})

	specs := []pool.Spec{
		{ID: 10, Name: "a", Entry: func() int { return 0 }},
		{ID: 11, Name: "b", Entry: func() int { return 0 }},
		{ID: 12, Name: "c", Entry: func() int { return 0 }},
	}
	results := p.RequestMany(specs)

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.ErrorIs(t, results[2].Err, pool.ErrPoolEmpty)
	assert.Nil(t, results[2].TCB)
}

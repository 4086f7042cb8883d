package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRun_HandlesEveryJob(t *testing.T) {
	pool := NewPool(3)
	jobs := []int{1, 2, 3, 4, 5, 6, 7}

	var mu sync.Mutex
	seen := make(map[int]bool)
	Run(context.Background(), pool, jobs, func(ctx context.Context, i int, job int) {
		mu.Lock()
		seen[job] = true
		mu.Unlock()
	})

	assert.Len(t, seen, len(jobs))
}

func TestRun_RespectsLimit(t *testing.T) {
	pool := NewPool(2)
	jobs := make([]int, 10)

	var inFlight, peak int32
	Run(context.Background(), pool, jobs, func(ctx context.Context, i int, job int) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
	})

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestRun_RecoversPanics(t *testing.T) {
	var done int32
	Run(context.Background(), NewPool(2), []int{0, 1, 2}, func(ctx context.Context, i int, job int) {
		if job == 1 {
			panic("bad job")
		}
		atomic.AddInt32(&done, 1)
	})
	assert.Equal(t, int32(2), atomic.LoadInt32(&done))
}

func TestNewPool_DefaultsToOne(t *testing.T) {
	assert.Equal(t, 1, NewPool(0).Size())
	assert.Equal(t, 1, NewPool(-4).Size())
}

package worker

import (
	"context"
	"fmt"

	"github.com/nimasrn/admissions-inbox/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Handler processes one job. workerIndex is the position of the job in the
// batch, not a goroutine id.
type Handler[T any] func(ctx context.Context, workerIndex int, job T)

// Pool runs a batch of independent jobs with at most size of them in flight.
// A panicking job is recovered and logged; it never takes the batch down.
type Pool struct {
	size int
}

func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{size: size}
}

func (p *Pool) Size() int {
	return p.size
}

// Run blocks until every job has been handled. Jobs not yet started when ctx
// is cancelled are skipped.
func Run[T any](ctx context.Context, p *Pool, jobs []T, do Handler[T]) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.size)

	for i, job := range jobs {
		if gctx.Err() != nil {
			logger.Warn("worker pool stopped before batch completed", "remaining", len(jobs)-i)
			break
		}
		i, job := i, job
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("worker job panicked", "worker", i, "panic", fmt.Sprint(r))
				}
			}()
			do(gctx, i, job)
			return nil
		})
	}

	_ = g.Wait()
}

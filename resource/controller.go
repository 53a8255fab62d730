// Package resource shares process-wide limits between concurrently ranked
// topics: worker slots, a memory budget and an I/O rate.
package resource

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits. Zero values disable a limit, except
// MaxWorkers which defaults to 1.
type Config struct {
	MaxWorkers         int64
	MemoryLimitBytes   int64
	IOLimitBytesPerSec int64
}

// Controller admits topics and throttles their I/O. It is safe for
// concurrent use. A nil *Controller admits everything immediately.
type Controller struct {
	memLimit int64
	workers  *semaphore.Weighted
	memory   *semaphore.Weighted // nil without a memory limit
	io       *rate.Limiter       // nil without an I/O limit
	reserved atomic.Int64
}

// NewController creates a Controller.
func NewController(cfg Config) *Controller {
	c := &Controller{
		memLimit: cfg.MemoryLimitBytes,
		workers:  semaphore.NewWeighted(max(cfg.MaxWorkers, 1)),
	}
	if cfg.MemoryLimitBytes > 0 {
		c.memory = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.IOLimitBytesPerSec > 0 {
		burst := int(min(cfg.IOLimitBytesPerSec, int64(1<<30)))
		c.io = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), burst)
	}
	return c
}

// Ticket is an admitted topic's share of the controller.
type Ticket struct {
	c      *Controller
	memory int64
	once   sync.Once
}

// Memory returns the bytes reserved for the ticket.
func (t *Ticket) Memory() int64 { return t.memory }

// Release returns the worker slot and the memory reservation. It is safe to
// call more than once.
func (t *Ticket) Release() {
	if t.c == nil {
		return
	}
	t.once.Do(func() {
		if t.memory > 0 {
			if t.c.memory != nil {
				t.c.memory.Release(t.memory)
			}
			t.c.reserved.Add(-t.memory)
		}
		t.c.workers.Release(1)
	})
}

// Admit blocks until a worker slot and sizeHint bytes of memory are free.
// A hint above the memory limit is clamped to the limit, so the topic runs
// alone instead of waiting forever.
func (c *Controller) Admit(ctx context.Context, sizeHint int64) (*Ticket, error) {
	if c == nil {
		return &Ticket{}, ctx.Err()
	}
	if err := c.workers.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	t := &Ticket{c: c}
	if sizeHint > 0 {
		if c.memory != nil {
			sizeHint = min(sizeHint, c.memLimit)
			if err := c.memory.Acquire(ctx, sizeHint); err != nil {
				c.workers.Release(1)
				return nil, err
			}
		}
		t.memory = sizeHint
		c.reserved.Add(sizeHint)
	}
	return t, nil
}

// MemoryReserved returns the bytes held by outstanding tickets.
func (c *Controller) MemoryReserved() int64 {
	if c == nil {
		return 0
	}
	return c.reserved.Load()
}

// AcquireIO waits until the I/O limit allows n more bytes. Requests larger
// than the limiter burst are split.
func (c *Controller) AcquireIO(ctx context.Context, n int) error {
	if c == nil || c.io == nil {
		return nil
	}
	burst := c.io.Burst()
	for n > 0 {
		step := min(n, burst)
		if err := c.io.WaitN(ctx, step); err != nil {
			return err
		}
		n -= step
	}
	return nil
}

package shopmirror

import (
	"context"
	"time"
)

// step is one forward action of a saga. undo, when set, reverses a
// completed do. Only steps marked retry are re-run, and only for internal
// failures; a step must be idempotent to be marked.
type step struct {
	name  string
	do    func(context.Context) error
	undo  func(context.Context) error
	retry bool
}

// runSaga executes steps in order. On the first failure the completed steps
// are undone in reverse and the failure is returned unchanged.
func (c *Core) runSaga(ctx context.Context, saga string, steps ...step) error {
	done := make([]step, 0, len(steps))
	for _, s := range steps {
		if err := c.runStep(ctx, saga, s); err != nil {
			c.compensate(ctx, saga, done)
			return err
		}
		done = append(done, s)
	}
	return nil
}

func (c *Core) runStep(ctx context.Context, saga string, s step) error {
	attempts := 1
	if s.retry {
		attempts += c.retries
	}
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if werr := sleep(ctx, time.Duration(i)*c.backoff); werr != nil {
				return err
			}
		}
		err = s.do(ctx)
		if err == nil || KindOf(err) != KindInternal {
			return err
		}
		c.log.Warn("saga step failed", Fields{"saga": saga, "step": s.name, "attempt": i + 1, "err": err})
	}
	return err
}

func (c *Core) compensate(ctx context.Context, saga string, done []step) {
	// compensations run even when the caller has gone away
	ctx = context.WithoutCancel(ctx)
	for i := len(done) - 1; i >= 0; i-- {
		s := done[i]
		if s.undo == nil {
			continue
		}
		if err := s.undo(ctx); err != nil {
			c.hooks.CompensationFailed(saga, s.name, err)
			c.log.Error("saga compensation failed", Fields{"saga": saga, "step": s.name, "err": err})
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package batch

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Runner выполняет независимые задачи пачками фиксированного размера
// с паузой между пачками, чтобы массовые сохранения из админки не
// заваливали базу. Ошибка любой задачи останавливает прогон.
type Runner struct {
	BatchSize int
	Pause     time.Duration
}

func (r Runner) Run(ctx context.Context, n int, task func(ctx context.Context, i int) error) error {
	size := r.BatchSize
	if size <= 0 {
		size = 3
	}

	for start := 0; start < n; start += size {
		end := min(start+size, n)

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				return task(gctx, i)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if end < n && r.Pause > 0 {
			select {
			case <-time.After(r.Pause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

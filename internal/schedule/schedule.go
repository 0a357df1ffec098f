package schedule

import (
	"context"
	"time"
)

// Sleep blocks until t or until ctx is done.
func Sleep(ctx context.Context, t time.Time) error {
	delay := time.Until(t)
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Every runs execute at each of the next n run times of cron, one after the
// other. A run that overlaps later run times skips them. It stops at the
// first error.
func Every(ctx context.Context, cron string, n int, execute func(ctx context.Context, runAt time.Time) error) error {
	runTimes, err := NextRunTimes(cron, n)
	if err != nil {
		return err
	}
	for _, runAt := range runTimes {
		if time.Now().After(runAt.Add(time.Second)) {
			continue
		}
		if err := Sleep(ctx, runAt); err != nil {
			return err
		}
		if err := execute(ctx, runAt); err != nil {
			return err
		}
	}
	return nil
}

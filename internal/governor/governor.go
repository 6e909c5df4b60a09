// Package governor enforces the archive's download volume cap. Once the
// cumulative downloaded volume crosses the cap, the caller is suspended for
// a fixed cooldown and the counter resets. The archive throttles accounts
// that exceed roughly 1.8 GB per hour; the cooldown keeps a run under that.
package governor

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Governor tracks no state of its own: the running total is threaded
// through Check so callers own and persist it.
type Governor struct {
	capKB    float64
	cooldown time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

// New creates a Governor with the given volume cap (KB) and cooldown.
func New(capKB float64, cooldown time.Duration) *Governor {
	return &Governor{
		capKB:    capKB,
		cooldown: cooldown,
		sleep:    sleepCtx,
	}
}

// Check compares the running total against the cap. Below the cap, the
// total passes through unchanged. At or above it, Check blocks for the
// cooldown and returns a reset total of zero. A context cancellation during
// the cooldown is returned to the caller.
func (g *Governor) Check(ctx context.Context, totalKB float64) (float64, bool, error) {
	if totalKB < g.capKB {
		return totalKB, false, nil
	}

	zap.L().Info("volume cap reached, suspending downloads",
		zap.Float64("total_kb", totalKB),
		zap.Float64("cap_kb", g.capKB),
		zap.Duration("cooldown", g.cooldown),
	)
	if err := g.sleep(ctx, g.cooldown); err != nil {
		return totalKB, true, err
	}
	return 0, true, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

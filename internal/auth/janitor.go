// AngelaMos | 2026
// janitor.go

package auth

import (
	"context"
	"log/slog"
	"time"
)

// expiredGrace keeps expired tokens around long enough for reuse
// detection to still see them.
const expiredGrace = 24 * time.Hour

// StartJanitor deletes long-expired refresh tokens every interval until
// ctx is cancelled.
func StartJanitor(
	ctx context.Context,
	repo Repository,
	interval time.Duration,
	logger *slog.Logger,
) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweep(ctx, repo, logger)
			}
		}
	}()
}

func sweep(ctx context.Context, repo Repository, logger *slog.Logger) {
	n, err := repo.DeleteExpired(ctx, expiredGrace)
	if err != nil {
		logger.WarnContext(ctx, "token cleanup failed", "error", err)
		return
	}
	if n > 0 {
		logger.InfoContext(ctx, "expired refresh tokens removed", "count", n)
	}
}

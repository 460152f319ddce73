package checkout

import (
	"context"
	"time"
)

// Clock abstracts the flow's cosmetic pauses so tests run them synchronously.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration)
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

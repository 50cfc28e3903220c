package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// SetupSignalHandler returns a context derived from parent that is canceled
// on SIGINT or SIGTERM. Call stop to release the signal registration.
func SetupSignalHandler(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// WithTimeout bounds ctx by d. A zero or negative d leaves ctx unbounded.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

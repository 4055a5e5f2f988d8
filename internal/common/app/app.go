package app

import (
	"context"
	"os/signal"
	"syscall"
)

// CreateContextWithShutdown returns a context that is cancelled when SIGINT or SIGTERM is received.
// Calling stop releases the signal handlers.
func CreateContextWithShutdown() (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

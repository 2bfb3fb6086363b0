package async

import (
	"context"

	"github.com/kintai-lab/dakoku/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Dispatch executes a handler function asynchronously in a new goroutine.
// It creates a background context and handles errors and panics.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	// Create a new background context but preserve logger
	bgCtx := logging.With(context.Background(), logging.From(ctx))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.From(bgCtx).Error("panic in async handler", "panic", r)
			}
		}()

		if err := handler(bgCtx); err != nil {
			logging.From(bgCtx).Error("async handler failed", "error", goerr.Unwrap(err))
		}
	}()
}

// Guard runs a handler synchronously and converts a panic into an error.
// A panicking handler must not take down the goroutine that invoked it;
// the caller decides what the failure means (for a queue consumer, a nack).
func Guard(ctx context.Context, handler func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.From(ctx).Error("panic in guarded handler", "panic", r)
			err = goerr.New("handler panicked", goerr.V("panic", r))
		}
	}()

	return handler(ctx)
}

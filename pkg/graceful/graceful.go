package graceful

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Hook is a named shutdown step; hooks run in the order given, after the
// HTTP listener has stopped accepting connections.
type Hook struct {
	Name string
	Fn   func(ctx context.Context) error
}

// WaitForShutdown blocks until SIGINT/SIGTERM, then shuts the fiber app down
// and runs the hooks with the given timeout budget.
func WaitForShutdown(app *fiber.App, timeout time.Duration, hooks ...Hook) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	zap.L().Info("shutdown signal received", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		zap.L().Error("server shutdown failed", zap.Error(err))
	}

	for _, hook := range hooks {
		if err := hook.Fn(ctx); err != nil {
			zap.L().Error("shutdown hook failed", zap.String("hook", hook.Name), zap.Error(err))
		}
	}

	zap.L().Info("shutdown complete")
}

package shared

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	charmlog "github.com/charmbracelet/log"
)

// SetupSignalHandler creates a context that is cancelled on interrupt
// signals.
func SetupSignalHandler(logger *charmlog.Logger) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	return ctx
}

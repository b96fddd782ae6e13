// Command synccore runs the HydroSnap client sync core: the offline-first
// profile cache and its loopback HTTP facade for the app shell.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"hydrosnap-client/internal/di"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file (optional)")
	flag.Parse()

	app, cleanup, err := di.InitializeApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "synccore: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	logger := app.Logger
	logger.Info("Sync core starting",
		zap.String("environment", string(app.Config.Environment)),
		zap.String("listen_addr", app.Config.HTTP.ListenAddr))

	errCh := make(chan error, 1)
	go func() {
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
	case sig := <-stop:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Graceful shutdown incomplete", zap.Error(err))
	}
	logger.Info("Sync core stopped")
}

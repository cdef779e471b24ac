package appbootstrap

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sapsan-irt/config"
	"sapsan-irt/core/maintenance"
	"sapsan-irt/core/store"
	"sapsan-irt/core/utils"
)

// Run loads configuration, migrates the database, composes the server and
// blocks until the process is told to stop.
func Run(configPath string) error {
	logger := utils.NewLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := store.NewDB(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.ApplyMigrations(context.Background(), cfg, db, logger); err != nil {
		return err
	}

	server, err := composeServer(cfg, db, logger)
	if err != nil {
		return err
	}

	sessions := store.NewSessionsStore(db)
	audits := store.NewAuditStore(db)
	server.AddWorker(maintenance.NewScheduler(cfg.Maintenance, sessions, audits, logger))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case sig := <-stop:
		logger.Printf("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

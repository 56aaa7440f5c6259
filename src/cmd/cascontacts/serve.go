package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/casapps/cascontacts/src/internal/database"
	"github.com/casapps/cascontacts/src/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
	cmd.Flags().Int("port", 0, "listen port (overrides server.port)")
	return cmd
}

func runServe(cmd *cobra.Command) error {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if flag := cmd.Flags().Lookup("port"); flag != nil && flag.Changed {
		port, _ := cmd.Flags().GetInt("port")
		cfg.Set("server.port", port)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	if err := database.MigrateDB(db); err != nil {
		return err
	}

	e := echo.New()
	e.HidePort = true
	srv := server.New(e, cfg, db, logger, Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	address := fmt.Sprintf("%s:%d", cfg.GetString("server.host"), cfg.GetInt("server.port"))
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx, address)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	timeout := cfg.GetDuration("server.shutdown_timeout")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

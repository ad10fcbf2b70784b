package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/atelier/internal/presentation/tui"
	httpAdapter "github.com/aretw0/atelier/pkg/adapters/http"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP render server",
	Long:  `Starts the render engine in server mode, exposing the OpenAPI-validated render API over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("listen") {
			cfg.Listen = stringFlag(cmd, "listen")
		}

		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		opts := []httpAdapter.Option{httpAdapter.WithLogger(logger)}
		if a.registry != nil {
			opts = append(opts, httpAdapter.WithMetrics(a.registry))
		}
		handler, err := httpAdapter.NewHandler(a.engine, opts...)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if every := sweepInterval(cfg); every > 0 {
			a.engine.StartSweeper(ctx, every)
		}

		srv := &http.Server{
			Addr:              cfg.Listen,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
				tui.PrintBanner(cmd.ErrOrStderr())
			}
			logger.Info("atelier server listening", "address", srv.Addr, "store", cfg.Store.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			// Asking listener to shut down and shed load.
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				return srv.Close()
			}
			logger.Info("atelier server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Address to listen on (overrides listen)")
	serveCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"textscope/internal/api"
	"textscope/internal/console"
	"textscope/internal/logger"
)

func (c *CLI) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP control surface; the terminal stays usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.HTTP.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			term := console.New(os.Stdin, os.Stdout)
			a, err := c.buildApp(term)
			if err != nil {
				return err
			}
			defer a.Close()
			term.Attach(a)
			// The terminal answers permission prompts and takes commands
			// alongside HTTP. quit stops the server; end of input does not.
			termDone := make(chan error, 1)
			go func() { termDone <- term.Run(ctx) }()

			srv := &http.Server{Addr: addr, Handler: api.NewRouter(a)}
			errs := make(chan error, 1)
			go func() {
				logger.Infof("listening on %s", addr)
				errs <- srv.ListenAndServe()
			}()

			if err := waitForShutdown(ctx, errs, termDone); err != nil {
				return err
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutting down http: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides http.addr")
	return cmd
}

// waitForShutdown blocks until the server stops or a shutdown is requested.
// A terminal that loses its input keeps the server running.
func waitForShutdown(ctx context.Context, errs <-chan error, termDone <-chan error) error {
	for {
		select {
		case err := <-errs:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving http: %w", err)
			}
			return nil
		case <-ctx.Done():
			return nil
		case err := <-termDone:
			if err == nil {
				logger.Infof("terminal quit, shutting down")
				return nil
			}
			logger.DebugLog("[serve]: terminal stopped: %v", err)
			termDone = nil
		}
	}
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/stgov/internal/api"
	"github.com/roach88/stgov/internal/engine"
	"github.com/roach88/stgov/internal/ir"
)

const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	PollInterval time.Duration
	Replay       bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	serveOpts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only discovery API over HTTP",
		Long: `Serve the discovery API on the configured --listen address.

The HTTP surface is read-only; mutations go through the CLI. While serving,
the event outbox is tailed and every event committed to the database, by
this or any other process, is logged in seq order. By default tailing
starts at the newest event; --replay starts from the beginning. The server
stops gracefully on SIGINT or SIGTERM.

Examples:
  stgov serve --db ./stgov.db
  stgov serve --listen :9090 --poll-interval 250ms
  stgov serve --replay`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, serveOpts, cmd)
		},
	}

	cmd.Flags().DurationVar(&serveOpts.PollInterval, "poll-interval", time.Second, "how often to check the event outbox")
	cmd.Flags().BoolVar(&serveOpts.Replay, "replay", false, "deliver every stored event before new ones")

	return cmd
}

func runServe(opts *RootOptions, serveOpts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := resolvedConfig(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	level, err := cfg.Level()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to configure logging", err)
	}
	logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	dispatcher := engine.NewDispatcher(logger, engine.SubscriberFunc(func(_ context.Context, ev ir.Event) error {
		logger.Info("event",
			"seq", ev.Seq,
			"kind", ev.Kind,
			"origin_id", ev.OriginID,
			"status", ev.Status,
			"actor", ev.Actor,
		)
		return nil
	}))

	sess, err := openSession(opts, cmd, engine.WithLogger(logger))
	if err != nil {
		return err
	}
	defer sess.Close()

	var since int64
	if !serveOpts.Replay {
		if since, err = sess.store.LastSeq(sess.ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to read event outbox", err)
		}
	}
	relay := engine.NewRelay(sess.store, dispatcher, since,
		engine.WithPollInterval(serveOpts.PollInterval),
		engine.WithRelayLogger(logger),
	)

	ctx, cancel := context.WithCancel(sess.ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		if err := dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("dispatcher error", "error", err)
		}
	}()

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("relay error", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.NewServer(sess.facade, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	logger.Info("server starting", "addr", cfg.Listen, "db", cfg.DB)
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s. Press Ctrl-C to stop.\n", cfg.Listen)

	select {
	case err := <-serveErr:
		cancel()
		<-relayDone
		<-dispatchDone
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return WrapExitError(ExitCommandError, "server error", err)
	case <-ctx.Done():
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down server", "error", err)
	}
	<-relayDone
	dispatcher.Stop()
	<-dispatchDone

	logger.Info("server stopped gracefully")
	return nil
}

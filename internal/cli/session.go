package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/stgov/internal/config"
	"github.com/roach88/stgov/internal/engine"
	"github.com/roach88/stgov/internal/facade"
	"github.com/roach88/stgov/internal/ir"
	"github.com/roach88/stgov/internal/queryir"
	"github.com/roach88/stgov/internal/store"
)

// session is everything a database-backed command needs: an open store,
// the engine over it, the read facade, and the output formatter.
type session struct {
	ctx    context.Context
	store  *store.Store
	engine *engine.Engine
	facade *facade.Facade
	out    *OutputFormatter
	caller ir.SecurityContext
	logger *slog.Logger
}

// newFormatter builds the formatter for a command. Verbose logs go to
// stderr to avoid corrupting JSON.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// resolvedConfig returns the configuration loaded by the root command, or
// loads defaults when the command runs on its own.
func resolvedConfig(opts *RootOptions) (*config.Config, error) {
	if opts.Config != nil {
		return opts.Config, nil
	}
	return config.Load(config.New(opts.ConfigFile))
}

// newLogger creates a text slog logger at the configured level.
func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// openSession opens the configured database and builds the engine. The
// caller must Close the session.
func openSession(opts *RootOptions, cmd *cobra.Command, engineOpts ...engine.Option) (*session, error) {
	cfg, err := resolvedConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	logger, err := newLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to configure logging", err)
	}

	logger.Debug("opening database", "path", cfg.DB)
	st, err := store.Open(cfg.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	ctx := commandContext(cmd)
	base := []engine.Option{
		engine.WithAuthorizer(engine.NewAdminList(cfg.Admins...)),
		engine.WithLogger(logger),
	}
	eng, err := engine.New(ctx, st, append(base, engineOpts...)...)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to start engine", err)
	}

	return &session{
		ctx:    ctx,
		store:  st,
		engine: eng,
		facade: facade.New(eng),
		out:    newFormatter(opts, cmd),
		caller: ir.SecurityContext{UserID: cfg.User, Permissions: opts.Permissions},
		logger: logger,
	}, nil
}

// Close releases the database.
func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing database", "error", err)
	}
}

// withView returns the facade for a --view flag value.
func (s *session) withView(name string) (*facade.Facade, error) {
	view, err := queryir.ParseView(name)
	if err != nil {
		return nil, s.usage(err.Error())
	}
	return s.facade.WithView(view), nil
}

// fail reports err in the configured format and returns the matching
// ExitError. Governance rejections exit 1 under their engine code; anything
// else is a command error.
func (s *session) fail(err error) error {
	return reportError(s.out, err)
}

// usage reports a bad argument.
func (s *session) usage(message string) error {
	_ = s.out.Error(ErrCodeUsage, message, nil)
	return NewExitError(ExitCommandError, message)
}

func reportError(out *OutputFormatter, err error) error {
	var engErr *engine.Error
	if errors.As(err, &engErr) {
		var details any
		if engErr.OriginID != "" {
			details = map[string]string{"origin_id": engErr.OriginID}
		}
		_ = out.Error(string(engErr.Code), engErr.Message, details)
		return WrapExitError(ExitFailure, string(engErr.Code), err)
	}
	_ = out.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitCommandError, "command failed", err)
}

// parsePosting parses a "kind/id" posting reference, e.g. request/r-17.
func parsePosting(s string) (ir.PostingRef, error) {
	kind, id, ok := strings.Cut(s, "/")
	if !ok || id == "" {
		return ir.PostingRef{}, fmt.Errorf("invalid posting %q: want kind/id", s)
	}
	k, err := ir.ParseEntityKind(kind)
	if err != nil {
		return ir.PostingRef{}, err
	}
	return ir.PostingRef{ID: id, Kind: k}, nil
}

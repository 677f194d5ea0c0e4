package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/stgov/internal/config"
	"github.com/roach88/stgov/internal/ir"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string

	// Permissions are extra permissions carried by the caller, e.g.
	// service_types:admin.
	Permissions []string

	// Config is the merged file, environment, and flag configuration.
	// It is loaded before any subcommand runs.
	Config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// boundFlags maps config keys to the persistent flags that override them.
var boundFlags = map[string]string{
	config.KeyDB:       "db",
	config.KeyUser:     "as",
	config.KeyAdmins:   "admin",
	config.KeyLogLevel: "log-level",
	config.KeyListen:   "listen",
}

// NewRootCommand creates the root command for the stgov CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "stgov",
		Version: ir.EngineVersion,
		Short:   "stgov - service type governance",
		Long: `Govern the shared vocabulary of service types used to classify
requests and offers: suggest, review, tag, discover, and link them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load configuration", err)
			}
			opts.Config = cfg
			return nil
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.ConfigFile, "config", "", "config file (default ./stgov.yaml or $HOME/.stgov/stgov.yaml)")
	pf.String("db", "stgov.db", "path to SQLite database")
	pf.String("as", "", "caller user id for mutating commands")
	pf.StringSliceVar(&opts.Permissions, "permission", nil, "caller permission (repeatable)")
	pf.StringSlice("admin", nil, "administrator user id (repeatable)")
	pf.String("log-level", "info", "log level (debug|info|warn|error)")
	pf.String("listen", "127.0.0.1:8080", "HTTP listen address for serve")

	// Lineage lifecycle
	cmd.AddCommand(NewSuggestCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewApproveCommand(opts))
	cmd.AddCommand(NewRejectCommand(opts))
	cmd.AddCommand(NewRejectApprovedCommand(opts))

	// Posting links
	cmd.AddCommand(NewLinkCommand(opts))
	cmd.AddCommand(NewUnlinkCommand(opts))
	cmd.AddCommand(NewReplaceLinksCommand(opts))
	cmd.AddCommand(NewClearLinksCommand(opts))
	cmd.AddCommand(NewLinksCommand(opts))

	// Discovery
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewTagsCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))

	// Maintenance and tooling
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewReindexCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// loadConfig merges the config file, STGOV_* environment, and any flags
// set explicitly on the command line.
func loadConfig(cmd *cobra.Command, opts *RootOptions) (*config.Config, error) {
	v := config.New(opts.ConfigFile)
	for key, name := range boundFlags {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

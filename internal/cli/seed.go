package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/stgov/internal/ir"
)

// SeedResult is the JSON payload of seed.
type SeedResult struct {
	Created []SeededServiceType `json:"created"`
}

// SeededServiceType pairs a catalog key with the lineage it produced.
type SeededServiceType struct {
	Key      string    `json:"key"`
	OriginID string    `json:"origin_id"`
	Status   ir.Status `json:"status"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <catalog-dir>",
		Short: "Load a CUE service type catalog into the database",
		Long: `Validate the CUE catalog in a directory and submit every entry in
source order. Entries with status "approved" are created directly and need
an administrator; the rest are suggested and start Pending.

Each entry commits on its own: if one fails, the entries before it stay.

Example:
  stgov seed --as admin ./catalog`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			drafts, validationErrors, err := validateCatalogDir(args[0], formatter)
			if err != nil {
				var loadErr *LoadError
				if errors.As(err, &loadErr) {
					return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
				}
				return outputValidateError(formatter, ErrCodeGeneric, err.Error(), nil)
			}
			if len(validationErrors) > 0 {
				return outputValidationErrors(formatter, validationErrors)
			}

			formatter.VerboseLog("Seeding %d service type(s)", len(drafts))

			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			created, seedErr := s.engine.Seed(s.ctx, s.caller, drafts)
			result := SeedResult{Created: make([]SeededServiceType, len(created))}
			for i, l := range created {
				result.Created[i] = SeededServiceType{Key: drafts[i].Key, OriginID: l.OriginID, Status: l.Status}
			}
			if seedErr != nil {
				s.logger.Error("seed stopped", "created", len(created), "error", seedErr)
				return s.fail(seedErr)
			}
			return s.out.Render(result, func(w io.Writer) {
				for _, c := range result.Created {
					fmt.Fprintf(w, "%s  %-8s  %s\n", c.OriginID, c.Status, c.Key)
				}
				fmt.Fprintf(w, "✓ Seeded %d service types\n", len(result.Created))
			})
		},
	}
}

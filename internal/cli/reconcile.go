package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/stgov/internal/engine"
)

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the tag index and links against a rebuild",
		Long: `Rebuild the tag index and statistics from the lineage records and
compare them with the stored ones, check that both link tables mirror each
other, and check that every link targets a live Approved service type.
Nothing is written.

Exit codes:
  0 - Derived state matches the rebuild
  1 - Drift found (run reindex to repair)
  2 - Command error`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := s.engine.Verify(s.ctx)
			if err != nil {
				return s.fail(err)
			}
			if err := s.out.Render(report, func(w io.Writer) { writeReport(w, report) }); err != nil {
				return err
			}
			if !report.Clean() {
				return NewExitError(ExitFailure, "derived state drifted from the lineage records")
			}
			return nil
		},
	}
}

// NewReindexCommand creates the reindex command.
func NewReindexCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Repair the tag index and links from the lineage records",
		Long: `Replace the tag index with a rebuild, remove links to service types that
are not live and Approved, and rewrite the reverse link table. The report
shows what was wrong before the repair.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := s.engine.Reindex(s.ctx)
			if err != nil {
				return s.fail(err)
			}
			return s.out.Render(report, func(w io.Writer) {
				writeReport(w, report)
				if !report.Clean() {
					fmt.Fprintln(w, "✓ Repaired")
				}
			})
		},
	}
}

func writeReport(w io.Writer, r engine.Report) {
	fmt.Fprintf(w, "Examined %d service types, %d links\n", r.Lineages, r.Links)
	if r.Clean() {
		fmt.Fprintln(w, "✓ Clean")
		return
	}
	for _, e := range r.TagDrift.Missing {
		fmt.Fprintf(w, "  missing index row: %s -> %s\n", e.Tag, e.OriginID)
	}
	for _, e := range r.TagDrift.Extra {
		fmt.Fprintf(w, "  extra index row: %s -> %s\n", e.Tag, e.OriginID)
	}
	for _, view := range r.StatisticsMismatch {
		fmt.Fprintf(w, "  statistics differ in view %s\n", view)
	}
	for _, a := range r.Asymmetries {
		fmt.Fprintf(w, "  link %s <-> %s missing from %s table\n", a.Link.OriginID, a.Link.Posting, a.MissingFrom)
	}
	for _, l := range r.InvalidLinks {
		fmt.Fprintf(w, "  invalid link %s <-> %s: %s\n", l.Link.OriginID, l.Link.Posting, l.Reason)
	}
}

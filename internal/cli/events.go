package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/stgov/internal/ir"
)

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		since int64
		limit int
	)
	cmd := &cobra.Command{
		Use:   "events [origin-id]",
		Short: "Show the lifecycle event outbox",
		Long: `Show committed lifecycle events, oldest first. With an origin id, show
that service type's full history; otherwise page through the outbox with
--since and --limit.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			var events []ir.Event
			if len(args) == 1 {
				events, err = s.store.EventsForOrigin(s.ctx, args[0])
			} else {
				events, err = s.store.Events(s.ctx, since, limit)
			}
			if err != nil {
				return s.fail(err)
			}
			return s.out.Render(events, func(w io.Writer) {
				if len(events) == 0 {
					fmt.Fprintln(w, "No events.")
					return
				}
				for _, ev := range events {
					fmt.Fprintf(w, "%6d  %-8s  %s  status=%s  actor=%s\n", ev.Seq, ev.Kind, ev.OriginID, ev.Status, ev.Actor)
				}
			})
		},
	}
	cmd.Flags().Int64Var(&since, "since", 0, "only events after this seq")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of events (0 for all)")
	return cmd
}

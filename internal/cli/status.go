package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/stgov/internal/ir"
)

type transitionFunc func(ctx context.Context, s *session, originID string) (ir.Lineage, error)

// newTransitionCommand builds a review command that moves one lineage
// between statuses.
func newTransitionCommand(rootOpts *RootOptions, use, short, long string, fn transitionFunc) *cobra.Command {
	return &cobra.Command{
		Use:           use + " <origin-id>",
		Short:         short,
		Long:          long,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			l, err := fn(s.ctx, s, args[0])
			if err != nil {
				return s.fail(err)
			}
			return s.out.Render(l, func(w io.Writer) { writeLineage(w, l) })
		},
	}
}

// NewApproveCommand creates the approve command.
func NewApproveCommand(rootOpts *RootOptions) *cobra.Command {
	return newTransitionCommand(rootOpts, "approve",
		"Approve a pending service type (administrators only)",
		`Approve a Pending service type, making it discoverable and linkable.
Approving anything that is not Pending fails with NOT_PENDING.`,
		func(ctx context.Context, s *session, id string) (ir.Lineage, error) {
			return s.engine.Approve(ctx, s.caller, id)
		})
}

// NewRejectCommand creates the reject command.
func NewRejectCommand(rootOpts *RootOptions) *cobra.Command {
	return newTransitionCommand(rootOpts, "reject",
		"Reject a pending service type (administrators only)",
		`Reject a Pending service type. Rejection is final.`,
		func(ctx context.Context, s *session, id string) (ir.Lineage, error) {
			return s.engine.Reject(ctx, s.caller, id)
		})
}

// NewRejectApprovedCommand creates the reject-approved command.
func NewRejectApprovedCommand(rootOpts *RootOptions) *cobra.Command {
	return newTransitionCommand(rootOpts, "reject-approved",
		"Withdraw an approved service type (administrators only)",
		`Reject an Approved service type. Every posting link to it is removed
in the same transaction.`,
		func(ctx context.Context, s *session, id string) (ir.Lineage, error) {
			return s.engine.RejectApproved(ctx, s.caller, id)
		})
}

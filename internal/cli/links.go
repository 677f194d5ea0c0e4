package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/stgov/internal/ir"
)

// LinksResult is the JSON payload of the links command. Exactly one of
// the two lists is set, depending on what was queried.
type LinksResult struct {
	OriginID     string          `json:"origin_id,omitempty"`
	Postings     []ir.PostingRef `json:"postings,omitempty"`
	Posting      string          `json:"posting,omitempty"`
	ServiceTypes []string        `json:"service_types,omitempty"`
}

// NewLinkCommand creates the link command.
func NewLinkCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "link <origin-id> <kind/posting-id>",
		Short: "Link an approved service type to a request or offer",
		Long: `Link an Approved service type to a posting. Linking an existing edge
is a no-op; a service type that is not Approved fails with NOT_APPROVED.

Example:
  stgov link 3f2a... request/r-17`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			posting, err := parsePosting(args[1])
			if err != nil {
				return s.usage(err.Error())
			}
			if err := s.engine.Link(s.ctx, args[0], posting); err != nil {
				return s.fail(err)
			}
			link := ir.Link{OriginID: args[0], Posting: posting}
			return s.out.Render(link, func(w io.Writer) {
				fmt.Fprintf(w, "✓ Linked %s to %s\n", posting, args[0])
			})
		},
	}
}

// NewUnlinkCommand creates the unlink command.
func NewUnlinkCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "unlink <origin-id> <kind/posting-id>",
		Short:         "Remove a link between a service type and a posting",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			posting, err := parsePosting(args[1])
			if err != nil {
				return s.usage(err.Error())
			}
			if err := s.engine.Unlink(s.ctx, args[0], posting); err != nil {
				return s.fail(err)
			}
			link := ir.Link{OriginID: args[0], Posting: posting}
			return s.out.Render(link, func(w io.Writer) {
				fmt.Fprintf(w, "✓ Unlinked %s from %s\n", posting, args[0])
			})
		},
	}
}

// NewReplaceLinksCommand creates the replace-links command.
func NewReplaceLinksCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replace-links <kind/posting-id> [origin-id]...",
		Short: "Set a posting's service types to exactly the given set",
		Long: `Replace every link of a posting. New edges must target Approved
service types; if any does not, nothing changes. With no origin ids the
posting is cleared.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			posting, err := parsePosting(args[0])
			if err != nil {
				return s.usage(err.Error())
			}
			if err := s.engine.ReplaceLinks(s.ctx, posting, args[1:]); err != nil {
				return s.fail(err)
			}
			return renderPostingLinks(s, posting)
		},
	}
}

// NewClearLinksCommand creates the clear-links command.
func NewClearLinksCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "clear-links <kind/posting-id>",
		Short:         "Remove every link of a deleted posting",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			posting, err := parsePosting(args[0])
			if err != nil {
				return s.usage(err.Error())
			}
			if err := s.engine.DeleteAllLinksForPosting(s.ctx, posting); err != nil {
				return s.fail(err)
			}
			return renderPostingLinks(s, posting)
		},
	}
}

// NewLinksCommand creates the links command.
func NewLinksCommand(rootOpts *RootOptions) *cobra.Command {
	var postingFlag string
	cmd := &cobra.Command{
		Use:   "links [origin-id] [--posting kind/id]",
		Short: "Show the links of a service type or a posting",
		Long: `Show the postings linked to a service type, or with --posting the
service types linked to a posting.

Examples:
  stgov links 3f2a...
  stgov links --posting offer/o-9`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if (postingFlag == "") == (len(args) == 0) {
				return s.usage("give either an origin id or --posting")
			}
			if postingFlag != "" {
				posting, err := parsePosting(postingFlag)
				if err != nil {
					return s.usage(err.Error())
				}
				return renderPostingLinks(s, posting)
			}

			postings, err := s.facade.LinksForServiceType(s.ctx, args[0])
			if err != nil {
				return s.fail(err)
			}
			result := LinksResult{OriginID: args[0], Postings: postings}
			return s.out.Render(result, func(w io.Writer) {
				if len(postings) == 0 {
					fmt.Fprintln(w, "No links.")
					return
				}
				for _, p := range postings {
					fmt.Fprintln(w, p.String())
				}
			})
		},
	}
	cmd.Flags().StringVar(&postingFlag, "posting", "", "posting as kind/id")
	return cmd
}

func renderPostingLinks(s *session, posting ir.PostingRef) error {
	origins, err := s.facade.LinksForPosting(s.ctx, posting)
	if err != nil {
		return s.fail(err)
	}
	result := LinksResult{Posting: posting.String(), ServiceTypes: origins}
	return s.out.Render(result, func(w io.Writer) {
		if len(origins) == 0 {
			fmt.Fprintf(w, "%s: no links\n", posting)
			return
		}
		fmt.Fprintf(w, "%s: %s\n", posting, strings.Join(origins, ", "))
	})
}

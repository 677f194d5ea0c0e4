package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/stgov/internal/ir"
)

const viewUsage = "index view: discovery (approved only) or all (every live service type)"

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list [--status pending|approved|rejected]",
		Short: "List service types in one status",
		Long: `List live service types in one status, oldest first. The review queue
is the pending list.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			st := ir.Status(status)
			if !st.Valid() {
				return s.usage(fmt.Sprintf("invalid status %q: must be pending, approved, or rejected", status))
			}
			ls, err := s.facade.List(s.ctx, st)
			if err != nil {
				return s.fail(err)
			}
			return s.out.Render(ls, func(w io.Writer) { writeLineageList(w, ls) })
		},
	}
	cmd.Flags().StringVar(&status, "status", "pending", "status to list")
	return cmd
}

// NewTagsCommand creates the tags command.
func NewTagsCommand(rootOpts *RootOptions) *cobra.Command {
	var view string
	cmd := &cobra.Command{
		Use:           "tags",
		Short:         "List every distinct tag",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			f, err := s.withView(view)
			if err != nil {
				return err
			}
			tags, err := f.AllTags(s.ctx)
			if err != nil {
				return s.fail(err)
			}
			return s.out.Render(tags, func(w io.Writer) {
				for _, tag := range tags {
					fmt.Fprintln(w, tag)
				}
			})
		},
	}
	cmd.Flags().StringVar(&view, "view", "discovery", viewUsage)
	return cmd
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		view   string
		tags   []string
		prefix string
	)
	cmd := &cobra.Command{
		Use:   "search (--tag t [--tag t]... | --prefix p)",
		Short: "Find service types by tags or tag prefix",
		Long: `Find service types carrying every given tag, or any tag starting with a
prefix. Tag matches are exact; prefix matches ignore case.

Examples:
  stgov search --tag javascript --tag react
  stgov search --prefix java --view all`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			byPrefix := cmd.Flags().Changed("prefix")
			if byPrefix == (len(tags) > 0) {
				return s.usage("give either --tag or --prefix")
			}
			f, err := s.withView(view)
			if err != nil {
				return err
			}

			var ls []ir.Lineage
			if byPrefix {
				ls, err = f.ByPrefix(s.ctx, prefix)
			} else {
				ls, err = f.ByTags(s.ctx, tags)
			}
			if err != nil {
				return s.fail(err)
			}
			return s.out.Render(ls, func(w io.Writer) { writeLineageList(w, ls) })
		},
	}
	cmd.Flags().StringVar(&view, "view", "discovery", viewUsage)
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "required tag (repeatable)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "tag prefix")
	return cmd
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	var view string
	cmd := &cobra.Command{
		Use:           "stats",
		Short:         "Show how many service types use each tag",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			f, err := s.withView(view)
			if err != nil {
				return err
			}
			stats, err := f.Statistics(s.ctx)
			if err != nil {
				return s.fail(err)
			}
			return s.out.Render(stats, func(w io.Writer) {
				width := 0
				for _, st := range stats {
					width = max(width, len(st.Tag))
				}
				for _, st := range stats {
					fmt.Fprintf(w, "%s%s  %d\n", st.Tag, strings.Repeat(" ", width-len(st.Tag)), st.Count)
				}
			})
		},
	}
	cmd.Flags().StringVar(&view, "view", "discovery", viewUsage)
	return cmd
}

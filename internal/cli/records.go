package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/stgov/internal/engine"
	"github.com/roach88/stgov/internal/ir"
)

// contentFlags holds the editable fields of a service type.
type contentFlags struct {
	name        string
	description string
	category    string
	technical   bool
	tags        []string
}

// register adds the content flags to cmd. Tags use StringArray so a tag
// containing a comma is kept whole.
func (c *contentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&c.description, "description", "", "description")
	cmd.Flags().StringVar(&c.category, "category", "", "category")
	cmd.Flags().BoolVar(&c.technical, "technical", false, "mark as a technical skill")
	cmd.Flags().StringArrayVar(&c.tags, "tag", nil, "tag (repeatable)")
	_ = cmd.MarkFlagRequired("name")
}

func (c *contentFlags) input() engine.Input {
	return engine.Input{
		Name:        c.name,
		Description: c.description,
		Category:    c.category,
		Technical:   c.technical,
		Tags:        c.tags,
	}
}

// NewSuggestCommand creates the suggest command.
func NewSuggestCommand(rootOpts *RootOptions) *cobra.Command {
	content := &contentFlags{}
	cmd := &cobra.Command{
		Use:   "suggest --name <name> [--tag t]...",
		Short: "Suggest a new service type for review",
		Long: `Suggest a new service type. It starts Pending and is invisible to
discovery until an administrator approves it.

Example:
  stgov suggest --as alice --name "Web Development" --tag javascript --tag react`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(rootOpts, cmd, content, false)
		},
	}
	content.register(cmd)
	return cmd
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	content := &contentFlags{}
	cmd := &cobra.Command{
		Use:   "create --name <name> [--tag t]...",
		Short: "Create an approved service type (administrators only)",
		Long: `Create a service type directly as Approved, skipping review.

Example:
  stgov create --as admin --name "API Design" --tag backend`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(rootOpts, cmd, content, true)
		},
	}
	content.register(cmd)
	return cmd
}

func runCreate(opts *RootOptions, cmd *cobra.Command, content *contentFlags, approved bool) error {
	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	var l ir.Lineage
	if approved {
		l, err = s.engine.Create(s.ctx, s.caller, content.input())
	} else {
		l, err = s.engine.Suggest(s.ctx, s.caller, content.input())
	}
	if err != nil {
		return s.fail(err)
	}
	return s.out.Render(l, func(w io.Writer) { writeLineage(w, l) })
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	content := &contentFlags{}
	var revision string
	cmd := &cobra.Command{
		Use:   "update <origin-id> --name <name> [--tag t]...",
		Short: "Replace a service type's content with a new revision",
		Long: `Append a revision with new content. The whole content is replaced:
tags not listed are removed. Status is unchanged.

Pass --revision to fail with CONFLICT if someone else updated the service
type since you read it.

Example:
  stgov update 3f2a... --as alice --name "Web Development" --tag javascript --revision 3f2a...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			l, err := s.engine.Update(s.ctx, s.caller, args[0], revision, content.input())
			if err != nil {
				return s.fail(err)
			}
			return s.out.Render(l, func(w io.Writer) { writeLineage(w, l) })
		},
	}
	content.register(cmd)
	cmd.Flags().StringVar(&revision, "revision", "", "expected current revision id (default: current head)")
	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <origin-id>",
		Short: "Delete a service type",
		Long: `Delete a service type. It leaves every list, the tag index, and every
posting link. Its revision history is kept.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.engine.Delete(s.ctx, s.caller, args[0]); err != nil {
				return s.fail(err)
			}
			data := map[string]any{"origin_id": args[0], "deleted": true}
			return s.out.Render(data, func(w io.Writer) {
				fmt.Fprintf(w, "✓ Deleted %s\n", args[0])
			})
		},
	}
}

// GetResult is the JSON payload of get.
type GetResult struct {
	ir.Lineage
	Revisions []ir.Revision `json:"revisions,omitempty"`
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	var history bool
	cmd := &cobra.Command{
		Use:           "get <origin-or-revision-id>",
		Short:         "Show a service type",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			// Any revision id resolves to its lineage.
			origin, err := s.engine.ResolveOrigin(s.ctx, args[0])
			if err != nil {
				return s.fail(err)
			}
			l, err := s.facade.Get(s.ctx, origin)
			if err != nil {
				return s.fail(err)
			}
			result := GetResult{Lineage: l}
			if history {
				if result.Revisions, err = s.facade.Revisions(s.ctx, origin); err != nil {
					return s.fail(err)
				}
			}
			return s.out.Render(result, func(w io.Writer) {
				writeLineage(w, l)
				for _, r := range result.Revisions {
					fmt.Fprintf(w, "  rev %s  seq=%d  by %s  %s\n", r.ID, r.Seq, r.Author, r.Content.Name)
				}
			})
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "include the revision chain")
	return cmd
}

func writeLineage(w io.Writer, l ir.Lineage) {
	fmt.Fprintf(w, "%s  %s  [%s]\n", l.OriginID, l.Name, l.Status)
	fmt.Fprintf(w, "  revision: %s\n", l.RevisionID)
	if l.Description != "" {
		fmt.Fprintf(w, "  description: %s\n", l.Description)
	}
	if l.Category != "" {
		fmt.Fprintf(w, "  category: %s\n", l.Category)
	}
	if l.Technical {
		fmt.Fprintln(w, "  technical: true")
	}
	fmt.Fprintf(w, "  tags: %s\n", strings.Join(l.Tags, ", "))
	fmt.Fprintf(w, "  author: %s\n", l.Author)
}

// writeLineageList writes one line per lineage.
func writeLineageList(w io.Writer, ls []ir.Lineage) {
	if len(ls) == 0 {
		fmt.Fprintln(w, "No service types.")
		return
	}
	for _, l := range ls {
		fmt.Fprintf(w, "%s  %-8s  %s  [%s]\n", l.OriginID, l.Status, l.Name, strings.Join(l.Tags, ", "))
	}
}

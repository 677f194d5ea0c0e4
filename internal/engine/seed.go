package engine

import (
	"context"
	"fmt"

	"github.com/roach88/stgov/internal/ir"
)

// Seed submits catalog drafts in order. Drafts marked approved go through
// Create and need an administrator; the rest go through Suggest and start
// Pending.
//
// Each draft commits on its own. Seed stops at the first failure and
// returns the lineages created so far together with the error.
func (e *Engine) Seed(ctx context.Context, caller ir.SecurityContext, drafts []ir.Draft) ([]ir.Lineage, error) {
	created := make([]ir.Lineage, 0, len(drafts))
	for _, d := range drafts {
		in := Input{
			Name:        d.Name,
			Description: d.Description,
			Category:    d.Category,
			Technical:   d.Technical,
			Tags:        d.Tags,
		}

		var (
			l   ir.Lineage
			err error
		)
		switch d.Status {
		case ir.StatusApproved:
			l, err = e.Create(ctx, caller, in)
		case ir.StatusPending, "":
			l, err = e.Suggest(ctx, caller, in)
		default:
			err = NewInvalidInputError("catalog entry %q: status %q cannot be seeded", d.Key, d.Status)
		}
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", d.Key, err)
		}
		created = append(created, l)
	}
	return created, nil
}

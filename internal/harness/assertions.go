package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/stgov/internal/engine"
	"github.com/roach88/stgov/internal/queryir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against the harness state and
// returns one message per failure. It does not stop at the first failure.
func EvaluateAssertions(ctx context.Context, h *Harness, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(ctx, h, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(ctx context.Context, h *Harness, a Assertion) error {
	view, err := queryir.ParseView(a.View)
	if err != nil {
		return err
	}
	f := h.facade.WithView(view)

	switch a.Type {
	case AssertStatus:
		return assertStatus(ctx, h, a)
	case AssertByTag:
		ls, err := f.ByTag(ctx, a.Tag)
		if err != nil {
			return err
		}
		return compareList(a, h.refs(ls))
	case AssertByTags:
		ls, err := f.ByTags(ctx, a.Tags)
		if err != nil {
			return err
		}
		return compareList(a, h.refs(ls))
	case AssertByPrefix:
		ls, err := f.ByPrefix(ctx, a.Prefix)
		if err != nil {
			return err
		}
		return compareList(a, h.refs(ls))
	case AssertAllTags:
		tags, err := f.AllTags(ctx)
		if err != nil {
			return err
		}
		return compareList(a, tags)
	case AssertLinksForPosting:
		ids, err := f.LinksForPosting(ctx, a.Posting.Ref())
		if err != nil {
			return err
		}
		return compareList(a, h.nameAll(ids))
	case AssertLinksForServiceType:
		postings, err := f.LinksForServiceType(ctx, h.resolve(a.Target))
		if err != nil {
			return err
		}
		got := make([]string, len(postings))
		for i, p := range postings {
			got[i] = p.String()
		}
		return compareList(a, got)
	case AssertEvents:
		events, err := h.engine.Store().EventsForOrigin(ctx, h.resolve(a.Target))
		if err != nil {
			return err
		}
		got := make([]string, len(events))
		for i, ev := range events {
			got[i] = string(ev.Kind)
		}
		return compareList(a, got)
	case AssertReconciled:
		report, err := h.engine.Verify(ctx)
		if err != nil {
			return err
		}
		if !report.Clean() {
			return &AssertionError{
				Type:     a.Type,
				Expected: "stored index and links match a rebuild",
				Actual:   fmt.Sprintf("%+v", report),
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertStatus checks a lineage's status. Deleted lineages report the
// pseudo-status "deleted".
func assertStatus(ctx context.Context, h *Harness, a Assertion) error {
	actual := StatusDeleted
	l, err := h.engine.Get(ctx, h.resolve(a.Target))
	switch {
	case err == nil:
		actual = string(l.Status)
	case engine.IsNotFound(err):
		if _, rerr := h.engine.Store().GetLineage(ctx, h.resolve(a.Target)); rerr != nil {
			actual = "not found"
		}
	default:
		return err
	}

	if actual != a.Status {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s is %s", a.Target, a.Status),
			Actual:   actual,
		}
	}
	return nil
}

// compareList checks an ordered list result. A missing want expects an
// empty result.
func compareList(a Assertion, got []string) error {
	want := a.Want
	if want == nil {
		want = []string{}
	}
	if slices.Equal(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", got),
	}
}

package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/roach88/stgov/internal/compiler"
	"github.com/roach88/stgov/internal/engine"
	"github.com/roach88/stgov/internal/facade"
	"github.com/roach88/stgov/internal/ir"
	"github.com/roach88/stgov/internal/queryir"
	"github.com/roach88/stgov/internal/store"
	"github.com/roach88/stgov/internal/testutil"
)

// opRequirements lists the step fields an operation cannot run without.
type opRequirements struct {
	input   bool
	target  bool
	posting bool
	tag     bool
}

var operations = map[string]opRequirements{
	"suggest":                {input: true},
	"create":                 {input: true},
	"update":                 {input: true, target: true},
	"delete":                 {target: true},
	"approve":                {target: true},
	"reject":                 {target: true},
	"reject_approved":        {target: true},
	"link":                   {target: true, posting: true},
	"unlink":                 {target: true, posting: true},
	"replace_links":          {posting: true},
	"clear_links":            {posting: true},
	"get":                    {target: true},
	"by_tag":                 {tag: true},
	"by_tags":                {},
	"by_prefix":              {},
	"all_tags":               {},
	"statistics":             {},
	"pending_list":           {},
	"approved_list":          {},
	"rejected_list":          {},
	"links_for_service_type": {target: true},
	"links_for_posting":      {posting: true},
	"verify":                 {},
	"reindex":                {},
}

// Harness is the test execution engine.
// It runs scenarios against a real engine with a deterministic clock and
// event tokens, so identical scenarios produce identical traces.
type Harness struct {
	engine *engine.Engine
	facade *facade.Facade
	clock  *testutil.DeterministicClock

	// names maps scenario names to origin IDs; origins is the reverse.
	names   map[string]string
	origins map[string]string
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and engine
// 2. Seed the catalog, if any
// 3. Execute setup steps (any error aborts the run)
// 4. Execute flow steps with expect validation
// 5. Evaluate assertions against the final state
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	admins := scenario.Admins
	if admins == nil {
		admins = []string{"admin"}
	}
	prefix := scenario.TokenPrefix
	if prefix == "" {
		prefix = scenario.Name
	}

	clock := testutil.NewDeterministicClock()
	eng, err := engine.New(ctx, st,
		engine.WithClock(clock),
		engine.WithTokenGenerator(testutil.NewSequentialTokens(prefix)),
		engine.WithAuthorizer(engine.NewAdminList(admins...)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	h := &Harness{
		engine:  eng,
		facade:  facade.New(eng),
		clock:   clock,
		names:   make(map[string]string),
		origins: make(map[string]string),
	}

	if scenario.Catalog != "" {
		var seeder ir.SecurityContext
		if len(admins) > 0 {
			seeder = ir.SecurityContext{UserID: admins[0]}
		}
		if err := h.seedCatalog(ctx, scenario.Catalog, seeder); err != nil {
			return nil, err
		}
	}

	result := NewResult()
	for i, step := range scenario.Setup {
		ev, _, err := h.execute(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("setup[%d] %s: %w", i, step.Op, err)
		}
		result.AddTrace(ev)
	}

	for i, step := range scenario.Flow {
		ev, got, err := h.execute(ctx, step)
		result.AddTrace(ev)
		for _, msg := range checkExpect(step, ev, got, err) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Op, msg))
		}
	}

	for _, msg := range EvaluateAssertions(ctx, h, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// seedCatalog compiles a CUE catalog and binds each entry under its key.
func (h *Harness) seedCatalog(ctx context.Context, path string, caller ir.SecurityContext) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	drafts, err := compiler.CompileBytes(path, src)
	if err != nil {
		return fmt.Errorf("failed to compile catalog: %w", err)
	}
	if errs := compiler.Validate(drafts); len(errs) > 0 {
		return fmt.Errorf("invalid catalog: %w", errs[0])
	}
	created, err := h.engine.Seed(ctx, caller, drafts)
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	for i, l := range created {
		h.bind(drafts[i].Key, l.OriginID)
	}
	return nil
}

// stepResult is what a step returned, in comparable form.
type stepResult struct {
	status string
	list   []string
	isList bool
}

// execute runs one step and returns its trace event. err is the engine
// error, if any; the trace records its code as the outcome.
func (h *Harness) execute(ctx context.Context, step Step) (TraceEvent, stepResult, error) {
	caller := ir.SecurityContext{UserID: step.As, Permissions: step.Permissions}
	target := h.resolve(step.Target)

	var (
		got stepResult
		err error
	)
	lineage := func(l ir.Lineage, e error) {
		err = e
		if e == nil {
			got.status = string(l.Status)
		}
	}
	lineages := func(ls []ir.Lineage, e error) {
		err = e
		if e == nil {
			got.list, got.isList = h.refs(ls), true
		}
	}
	strs := func(ss []string, e error) {
		err = e
		if e == nil {
			got.list, got.isList = ss, true
		}
	}

	f := h.facade
	if step.View != "" {
		view, verr := queryir.ParseView(step.View)
		if verr != nil {
			return TraceEvent{}, got, verr
		}
		f = f.WithView(view)
	}

	switch step.Op {
	case "suggest", "create":
		var l ir.Lineage
		if step.Op == "suggest" {
			l, err = h.engine.Suggest(ctx, caller, *step.Input)
		} else {
			l, err = h.engine.Create(ctx, caller, *step.Input)
		}
		if err == nil {
			name := step.Bind
			if name == "" {
				name = step.Input.Name
			}
			h.bind(name, l.OriginID)
			target = l.OriginID
			got.status = string(l.Status)
		}
	case "update":
		expected := step.Revision
		if expected == "origin" {
			expected = target
		}
		lineage(h.engine.Update(ctx, caller, target, expected, *step.Input))
	case "delete":
		err = h.engine.Delete(ctx, caller, target)
	case "approve":
		lineage(h.engine.Approve(ctx, caller, target))
	case "reject":
		lineage(h.engine.Reject(ctx, caller, target))
	case "reject_approved":
		lineage(h.engine.RejectApproved(ctx, caller, target))
	case "link":
		err = h.engine.Link(ctx, target, step.Posting.Ref())
	case "unlink":
		err = h.engine.Unlink(ctx, target, step.Posting.Ref())
	case "replace_links":
		ids := make([]string, len(step.Targets))
		for i, t := range step.Targets {
			ids[i] = h.resolve(t)
		}
		err = h.engine.ReplaceLinks(ctx, step.Posting.Ref(), ids)
	case "clear_links":
		err = h.engine.DeleteAllLinksForPosting(ctx, step.Posting.Ref())
	case "get":
		lineage(f.Get(ctx, target))
	case "by_tag":
		lineages(f.ByTag(ctx, step.Tag))
	case "by_tags":
		lineages(f.ByTags(ctx, step.Tags))
	case "by_prefix":
		lineages(f.ByPrefix(ctx, step.Prefix))
	case "all_tags":
		strs(f.AllTags(ctx))
	case "statistics":
		var stats []ir.TagCount
		stats, err = f.Statistics(ctx)
		if err == nil {
			list := make([]string, len(stats))
			for i, s := range stats {
				list[i] = fmt.Sprintf("%s=%d", s.Tag, s.Count)
			}
			got.list, got.isList = list, true
		}
	case "pending_list":
		lineages(f.PendingList(ctx))
	case "approved_list":
		lineages(f.ApprovedList(ctx))
	case "rejected_list":
		lineages(f.RejectedList(ctx))
	case "links_for_service_type":
		var postings []ir.PostingRef
		postings, err = f.LinksForServiceType(ctx, target)
		if err == nil {
			list := make([]string, len(postings))
			for i, p := range postings {
				list[i] = p.String()
			}
			got.list, got.isList = list, true
		}
	case "links_for_posting":
		var ids []string
		ids, err = f.LinksForPosting(ctx, step.Posting.Ref())
		if err == nil {
			got.list, got.isList = h.nameAll(ids), true
		}
	case "verify", "reindex":
		var report engine.Report
		if step.Op == "verify" {
			report, err = h.engine.Verify(ctx)
		} else {
			report, err = h.engine.Reindex(ctx)
		}
		if err == nil {
			got.status = "dirty"
			if report.Clean() {
				got.status = "clean"
			}
		}
	default:
		return TraceEvent{}, got, fmt.Errorf("unknown op %q", step.Op)
	}

	ev := TraceEvent{
		Op:      step.Op,
		Target:  h.name(target),
		Outcome: OutcomeOK,
		Seq:     h.clock.Current(),
	}
	if err != nil {
		ev.Outcome = outcome(err)
		return ev, got, err
	}
	switch {
	case got.isList:
		ev.Result = got.list
	case got.status != "":
		ev.Result = got.status
	}
	return ev, got, nil
}

// checkExpect compares a step's outcome with its expect clause.
func checkExpect(step Step, ev TraceEvent, got stepResult, err error) []string {
	want := step.Expect
	if want == nil {
		want = &ExpectClause{}
	}

	if want.Error != "" {
		if err == nil {
			return []string{fmt.Sprintf("expected error %s, got ok", want.Error)}
		}
		if ev.Outcome != want.Error {
			return []string{fmt.Sprintf("expected error %s, got %v", want.Error, err)}
		}
		return nil
	}
	if err != nil {
		return []string{fmt.Sprintf("unexpected error: %v", err)}
	}

	var msgs []string
	if want.Status != "" && got.status != want.Status {
		msgs = append(msgs, fmt.Sprintf("expected status %s, got %q", want.Status, got.status))
	}
	if want.Want != nil && !slices.Equal(got.list, want.Want) {
		msgs = append(msgs, fmt.Sprintf("expected %v, got %v", want.Want, got.list))
	}
	return msgs
}

// outcome maps an error to its engine code, or "ERROR" for anything else.
func outcome(err error) string {
	if code := engine.CodeOf(err); code != "" {
		return string(code)
	}
	return "ERROR"
}

func (h *Harness) bind(name, origin string) {
	h.names[name] = origin
	h.origins[origin] = name
}

// resolve turns a bound name into its origin ID. Unbound values are used
// as literal origin IDs.
func (h *Harness) resolve(name string) string {
	if origin, ok := h.names[name]; ok {
		return origin
	}
	return name
}

// name is the inverse of resolve.
func (h *Harness) name(origin string) string {
	if name, ok := h.origins[origin]; ok {
		return name
	}
	return origin
}

func (h *Harness) nameAll(origins []string) []string {
	out := make([]string, len(origins))
	for i, o := range origins {
		out[i] = h.name(o)
	}
	return out
}

func (h *Harness) refs(ls []ir.Lineage) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = h.name(l.OriginID)
	}
	return out
}

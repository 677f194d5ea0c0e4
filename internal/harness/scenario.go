package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/stgov/internal/engine"
	"github.com/roach88/stgov/internal/ir"
	"github.com/roach88/stgov/internal/queryir"
)

// Scenario defines a conformance test scenario.
// Scenarios drive the engine through governance operations and assert on
// the resulting trace, statuses, tag index, and links.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is an optional CUE catalog seeded before setup. Each entry is
	// bound under its catalog key. Relative paths are resolved against the
	// scenario's base path.
	Catalog string `yaml:"catalog,omitempty"`

	// Admins lists user IDs with the administrative capability.
	// Defaults to ["admin"].
	Admins []string `yaml:"admins,omitempty"`

	// TokenPrefix fixes the event token sequence for golden comparison.
	// Defaults to the scenario name.
	TokenPrefix string `yaml:"token_prefix,omitempty"`

	// Setup steps establish initial state and must all succeed.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow contains the steps under test, each with an optional expectation.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one engine or facade operation.
type Step struct {
	// Op names the operation, e.g. "suggest", "approve", "by_tag".
	Op string `yaml:"op"`

	// As is the caller's user ID. Empty means an anonymous caller.
	As string `yaml:"as,omitempty"`

	// Permissions are extra permissions carried by the caller.
	Permissions []string `yaml:"permissions,omitempty"`

	// Bind names the lineage created by suggest/create. Defaults to the
	// input name.
	Bind string `yaml:"bind,omitempty"`

	// Target is a bound lineage name or a literal origin ID.
	Target string `yaml:"target,omitempty"`

	// Targets lists lineages for replace_links.
	Targets []string `yaml:"targets,omitempty"`

	// Revision is the expected revision for update: empty for the current
	// head, "origin" for the lineage's first revision, or a literal ID.
	Revision string `yaml:"revision,omitempty"`

	// Input is the content for suggest/create/update.
	Input *engine.Input `yaml:"input,omitempty"`

	// Posting addresses a request or offer for link operations.
	Posting *Posting `yaml:"posting,omitempty"`

	Tag    string   `yaml:"tag,omitempty"`
	Tags   []string `yaml:"tags,omitempty"`
	Prefix string   `yaml:"prefix,omitempty"`

	// View selects "discovery" (default) or "all" for tag queries.
	View string `yaml:"view,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the step must succeed and its result is not checked.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// Posting is the YAML form of ir.PostingRef.
type Posting struct {
	ID   string `yaml:"id"`
	Kind string `yaml:"kind"`
}

// Ref converts the posting to its IR form.
func (p Posting) Ref() ir.PostingRef {
	return ir.PostingRef{ID: p.ID, Kind: ir.EntityKind(p.Kind)}
}

// ExpectClause specifies expected step behavior.
type ExpectClause struct {
	// Error is the expected engine error code, e.g. "NOT_PENDING".
	// Empty means the step must succeed.
	Error string `yaml:"error,omitempty"`

	// Status is the expected lineage status after a status-returning step.
	Status string `yaml:"status,omitempty"`

	// Want is the expected list result, in order: lineage names for
	// lineage queries, tags for all_tags, "kind/id" for
	// links_for_service_type. An explicit empty list expects no results.
	Want []string `yaml:"want,omitempty"`
}

// Assertion validates final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "status": Target has Status ("deleted" for tombstoned lineages)
	// - "by_tag", "by_tags", "by_prefix": query returns Want
	// - "all_tags": distinct tags equal Want
	// - "links_for_posting": Posting is linked to Want
	// - "links_for_service_type": Target is linked to Want ("kind/id")
	// - "events": Target's event kinds equal Want
	// - "reconciled": the incremental index and links match a rebuild
	Type string `yaml:"type"`

	Target  string   `yaml:"target,omitempty"`
	Status  string   `yaml:"status,omitempty"`
	Tag     string   `yaml:"tag,omitempty"`
	Tags    []string `yaml:"tags,omitempty"`
	Prefix  string   `yaml:"prefix,omitempty"`
	View    string   `yaml:"view,omitempty"`
	Posting *Posting `yaml:"posting,omitempty"`
	Want    []string `yaml:"want,omitempty"`
}

// Assertion type constants.
const (
	AssertStatus              = "status"
	AssertByTag               = "by_tag"
	AssertByTags              = "by_tags"
	AssertByPrefix            = "by_prefix"
	AssertAllTags             = "all_tags"
	AssertLinksForPosting     = "links_for_posting"
	AssertLinksForServiceType = "links_for_service_type"
	AssertEvents              = "events"
	AssertReconciled          = "reconciled"
)

// StatusDeleted is the pseudo-status asserted for tombstoned lineages.
const StatusDeleted = "deleted"

// LoadScenario reads and parses a scenario YAML file. A relative catalog
// path is resolved against the scenario file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving a relative catalog path against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) && basePath != "" {
		scenario.Catalog = filepath.Join(basePath, scenario.Catalog)
	}
	if scenario.Catalog != "" {
		if _, err := os.Stat(scenario.Catalog); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: catalog file not found: %s", scenario.Catalog)
		}
	}

	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML. A catalog path is left
// as written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and per-operation arguments.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: expect is not allowed in setup", i)
		}
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	if step.Op == "" {
		return fmt.Errorf("op is required")
	}
	req, ok := operations[step.Op]
	if !ok {
		return fmt.Errorf("unknown op %q", step.Op)
	}
	if req.input && step.Input == nil {
		return fmt.Errorf("input is required for %s", step.Op)
	}
	if req.target && step.Target == "" {
		return fmt.Errorf("target is required for %s", step.Op)
	}
	if req.posting && step.Posting == nil {
		return fmt.Errorf("posting is required for %s", step.Op)
	}
	if req.tag && step.Tag == "" {
		return fmt.Errorf("tag is required for %s", step.Op)
	}
	if _, err := queryir.ParseView(step.View); err != nil {
		return err
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertStatus:
		if a.Target == "" || a.Status == "" {
			return fmt.Errorf("target and status are required for status")
		}
	case AssertByTag:
		if a.Tag == "" {
			return fmt.Errorf("tag is required for by_tag")
		}
	case AssertByTags, AssertByPrefix, AssertAllTags, AssertReconciled:
		if _, err := queryir.ParseView(a.View); err != nil {
			return err
		}
	case AssertLinksForPosting:
		if a.Posting == nil {
			return fmt.Errorf("posting is required for links_for_posting")
		}
	case AssertLinksForServiceType, AssertEvents:
		if a.Target == "" {
			return fmt.Errorf("target is required for %s", a.Type)
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

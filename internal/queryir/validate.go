package queryir

import (
	"fmt"
	"unicode/utf8"
)

// ValidationResult lists the problems found in a query.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems describes each rejected construct.
	Problems []string
}

// Err folds the result into a single error, or nil when valid.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("invalid query: %v", r.Problems)
}

// Validate checks a query before it is handed to a backend.
//
// Rules:
//  1. View must be ViewDiscovery or ViewAll
//  2. HasTag requires a non-empty, valid UTF-8 tag
//  3. HasTagPrefix requires valid UTF-8 (the empty prefix is allowed)
//  4. StatusIs requires a known status
//  5. And requires at least one predicate
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{problems: []string{}}
	v.validateQuery(query)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateView(view View) {
	if view != ViewDiscovery && view != ViewAll {
		v.addProblem("unknown view %d", int(view))
	}
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addProblem("nil query")
	case Lineages:
		v.validateView(query.View)
		if query.Where != nil {
			v.validatePredicate(query.Where)
		}
	case TagCounts:
		v.validateView(query.View)
	default:
		v.addProblem("unknown query type %T", q)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case HasTag:
		if pred.Tag == "" {
			v.addProblem("HasTag: tag must be non-empty")
		} else if !utf8.ValidString(pred.Tag) {
			v.addProblem("HasTag: tag %q is not valid UTF-8", pred.Tag)
		}
	case HasTagPrefix:
		if !utf8.ValidString(pred.Prefix) {
			v.addProblem("HasTagPrefix: prefix %q is not valid UTF-8", pred.Prefix)
		}
	case StatusIs:
		if !pred.Status.Valid() {
			v.addProblem("StatusIs: unknown status %q", pred.Status)
		}
	case And:
		if len(pred.Predicates) == 0 {
			v.addProblem("And: at least one predicate is required")
		}
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}

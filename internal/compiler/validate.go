package compiler

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/roach88/stgov/internal/ir"
)

// Validation error codes (E200-E299)
const (
	// General validation errors (E200)
	ErrUnsupportedType = "E200" // unsupported value type for validation

	// Entry errors (E201-E209)
	ErrNameEmpty     = "E201" // name is required
	ErrTagEmpty      = "E202" // tags must be non-empty strings
	ErrTagInvalid    = "E203" // tag is not valid UTF-8
	ErrTagDuplicate  = "E204" // tag listed twice in one entry
	ErrInvalidStatus = "E205" // status must be pending or approved

	// Catalog errors (E210-E219)
	ErrDuplicateName = "E210" // two entries share a name
)

// ValidationError represents a catalog validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks compiled drafts against catalog rules.
// Returns all errors found (does not fail-fast).
// Accepts a single draft or a whole catalog.
func Validate(v any) []ValidationError {
	switch d := v.(type) {
	case *ir.Draft:
		return validateDraft(d)
	case ir.Draft:
		return validateDraft(&d)
	case []ir.Draft:
		return validateCatalog(d)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

func validateDraft(d *ir.Draft) []ValidationError {
	var errs []ValidationError
	prefix := fieldPrefix(d.Key)

	// E201: name must survive trimming
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   prefix + "name",
			Message: "name is required and must be non-empty",
			Code:    ErrNameEmpty,
		})
	}

	seen := make(map[string]bool, len(d.Tags))
	for i, tag := range d.Tags {
		field := fmt.Sprintf("%stags[%d]", prefix, i)
		switch {
		case tag == "":
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "tag must be non-empty",
				Code:    ErrTagEmpty,
			})
		case !utf8.ValidString(tag):
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("tag %q is not valid UTF-8", tag),
				Code:    ErrTagInvalid,
			})
		case seen[tag]:
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate tag %q", tag),
				Code:    ErrTagDuplicate,
			})
		}
		seen[tag] = true
	}

	// E205: a catalog may not seed rejected entries
	if d.Status != ir.StatusPending && d.Status != ir.StatusApproved {
		errs = append(errs, ValidationError{
			Field:   prefix + "status",
			Message: fmt.Sprintf("invalid status %q, must be \"pending\" or \"approved\"", d.Status),
			Code:    ErrInvalidStatus,
		})
	}

	return errs
}

func validateCatalog(drafts []ir.Draft) []ValidationError {
	var errs []ValidationError
	names := make(map[string]string, len(drafts))
	for i := range drafts {
		d := &drafts[i]
		errs = append(errs, validateDraft(d)...)

		// E210: duplicate names would create indistinguishable lineages
		if first, dup := names[d.Name]; dup && d.Name != "" {
			errs = append(errs, ValidationError{
				Field:   fieldPrefix(d.Key) + "name",
				Message: fmt.Sprintf("name %q already used by %q", d.Name, first),
				Code:    ErrDuplicateName,
			})
			continue
		}
		names[d.Name] = d.Key
	}
	return errs
}

func fieldPrefix(key string) string {
	if key == "" {
		return ""
	}
	return CatalogField + "." + key + "."
}

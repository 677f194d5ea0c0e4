package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/stgov/internal/ir"
)

// CatalogField is the top-level field holding service type declarations.
const CatalogField = "service_type"

// CompileBytes compiles a single catalog file. filename is used only for
// error positions.
func CompileBytes(filename string, src []byte) ([]ir.Draft, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileCatalog(v)
}

// CompileCatalog extracts every entry under service_type, in source order.
// A value without a service_type field compiles to an empty catalog.
func CompileCatalog(v cue.Value) ([]ir.Draft, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	drafts := []ir.Draft{}

	catalog := v.LookupPath(cue.ParsePath(CatalogField))
	if !catalog.Exists() {
		return drafts, nil
	}
	iter, err := catalog.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		d, err := CompileServiceType(iter.Value())
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, *d)
	}
	return drafts, nil
}

// CompileServiceType parses one catalog entry. The draft key is taken from
// the entry's label:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`service_type: web: { name: "Web Development" }`)
//	d, err := CompileServiceType(v.LookupPath(cue.ParsePath("service_type.web")))
func CompileServiceType(v cue.Value) (*ir.Draft, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	d := &ir.Draft{Tags: []string{}, Status: ir.StatusPending}
	if labels := v.Path().Selectors(); len(labels) > 0 {
		d.Key = labels[len(labels)-1].Unquoted()
	}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{
			Field:   "name",
			Message: "name is required",
			Pos:     v.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	d.Name = name

	if d.Description, err = optionalString(v, "description"); err != nil {
		return nil, err
	}
	if d.Category, err = optionalString(v, "category"); err != nil {
		return nil, err
	}

	if techVal := v.LookupPath(cue.ParsePath("technical")); techVal.Exists() {
		if d.Technical, err = techVal.Bool(); err != nil {
			return nil, formatCUEError(err)
		}
	}

	if d.Tags, err = parseTags(v); err != nil {
		return nil, err
	}

	status, err := optionalString(v, "status")
	if err != nil {
		return nil, err
	}
	if status != "" {
		d.Status = ir.Status(status)
	}

	return d, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// parseTags reads the optional tags list. Every element must be a string.
func parseTags(v cue.Value) ([]string, error) {
	tags := []string{}
	tagsVal := v.LookupPath(cue.ParsePath("tags"))
	if !tagsVal.Exists() {
		return tags, nil
	}
	iter, err := tagsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		tag, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   "tags",
				Message: fmt.Sprintf("tags[%d] must be a string", i),
				Pos:     iter.Value().Pos(),
			}
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

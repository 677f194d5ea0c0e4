package engine

import (
	"strings"

	"github.com/roach88/stgov/internal/ir"
	"github.com/roach88/stgov/internal/tagindex"
)

// Input is the caller-supplied content of a service type.
type Input struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string   `json:"category,omitempty" yaml:"category,omitempty"`
	Technical   bool     `json:"technical,omitempty" yaml:"technical,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// content validates the input and returns the content to store.
// The name must be non-empty after trimming but is stored as given; tags
// are deduplicated keeping the first occurrence and are never trimmed.
func (in Input) content() (ir.Content, error) {
	if strings.TrimSpace(in.Name) == "" {
		return ir.Content{}, NewInvalidInputError("name must be non-empty")
	}
	tags, err := tagindex.Normalize(in.Tags)
	if err != nil {
		return ir.Content{}, NewInvalidInputError("%v", err)
	}
	return ir.Content{
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Technical:   in.Technical,
		Tags:        tags,
	}, nil
}

func validatePosting(p ir.PostingRef) error {
	if p.ID == "" {
		return NewInvalidInputError("posting id must be non-empty")
	}
	if !p.Kind.Valid() {
		return NewInvalidInputError("unknown posting kind %q", p.Kind)
	}
	return nil
}

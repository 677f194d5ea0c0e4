package tagindex

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// ErrInvalidTag is returned for empty or malformed tags.
var ErrInvalidTag = errors.New("invalid tag")

// ValidateTag rejects the empty string and invalid UTF-8.
// Whitespace and any other Unicode is accepted as-is.
func ValidateTag(tag string) error {
	if tag == "" {
		return fmt.Errorf("%w: tag must be non-empty", ErrInvalidTag)
	}
	if !utf8.ValidString(tag) {
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidTag, tag)
	}
	return nil
}

// Normalize validates every tag and removes duplicates, keeping the first
// occurrence. The result is never nil.
func Normalize(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for i, t := range tags {
		if err := ValidateTag(t); err != nil {
			return nil, fmt.Errorf("tags[%d]: %w", i, err)
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}

// Diff computes the symmetric difference between an old and a new tag set.
// added keeps the order of next; removed keeps the order of prev.
// Both inputs are expected to be normalized.
func Diff(prev, next []string) (added, removed []string) {
	prevSet := toSet(prev)
	nextSet := toSet(next)

	added = []string{}
	for _, t := range next {
		if _, ok := prevSet[t]; !ok {
			added = append(added, t)
		}
	}
	removed = []string{}
	for _, t := range prev {
		if _, ok := nextSet[t]; !ok {
			removed = append(removed, t)
		}
	}
	return added, removed
}

// Fold returns the Unicode case-folded form of s, used for prefix lookup.
// A new Caser is created per call because cases.Caser is not safe for
// concurrent use.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// HasPrefixFold reports whether tag starts with prefix under case folding.
func HasPrefixFold(tag, prefix string) bool {
	return strings.HasPrefix(Fold(tag), Fold(prefix))
}

func toSet(ss []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ss))
	for _, s := range ss {
		m[s] = struct{}{}
	}
	return m
}

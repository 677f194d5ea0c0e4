package tagindex

import "github.com/roach88/stgov/internal/ir"

// Drift describes how a stored index differs from a rebuilt one.
type Drift struct {
	// Missing entries are in the rebuilt index but not stored.
	Missing []ir.TagEntry `json:"missing"`
	// Extra entries are stored but absent from the rebuilt index.
	Extra []ir.TagEntry `json:"extra"`
}

// Empty reports whether the two indexes agree.
func (d Drift) Empty() bool {
	return len(d.Missing) == 0 && len(d.Extra) == 0
}

// Compare diffs a rebuilt entry set against a stored one.
func Compare(rebuilt, stored []ir.TagEntry) Drift {
	have := make(map[ir.TagEntry]struct{}, len(stored))
	for _, e := range stored {
		have[e] = struct{}{}
	}
	want := make(map[ir.TagEntry]struct{}, len(rebuilt))
	for _, e := range rebuilt {
		want[e] = struct{}{}
	}

	d := Drift{Missing: []ir.TagEntry{}, Extra: []ir.TagEntry{}}
	for e := range want {
		if _, ok := have[e]; !ok {
			d.Missing = append(d.Missing, e)
		}
	}
	for e := range have {
		if _, ok := want[e]; !ok {
			d.Extra = append(d.Extra, e)
		}
	}
	SortEntries(d.Missing)
	SortEntries(d.Extra)
	return d
}

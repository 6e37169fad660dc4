package schema

import "strings"

// Filter is a single-field equality predicate.
type Filter struct {
	Field string
	Value string
}

// FindApplicableIndex returns the first index whose leading column is the
// filter's field, or nil. A nil filter never matches.
func (t *Table) FindApplicableIndex(f *Filter) *Index {
	if f == nil {
		return nil
	}
	for i := range t.Indexes {
		idx := &t.Indexes[i]
		if len(idx.Columns) > 0 && strings.EqualFold(idx.Columns[0], f.Field) {
			return idx
		}
	}
	return nil
}

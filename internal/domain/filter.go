package domain

import "time"

// RecordFilter is a conjunction of optional predicates applied uniformly by
// listings, reductions, and every aggregation operation. A nil member means
// "no constraint".
//
// From/To are inclusive day bounds: To is widened to the start of the next
// day, so the effective range is [From, To+1d).
type RecordFilter struct {
	UnitID   *int64
	ActorID  *int64
	From     *time.Time
	To       *time.Time
	Priority *string
	Status   *string
	Category *string
}

// WithUnit returns a copy of the filter narrowed to one unit.
func (f RecordFilter) WithUnit(unitID int64) RecordFilter {
	f.UnitID = &unitID
	return f
}

// Window returns the effective half-open timestamp range [start, end).
// Either bound may be nil when unconstrained.
func (f RecordFilter) Window() (start, end *time.Time) {
	if f.From != nil {
		s := f.From.UTC().Truncate(24 * time.Hour)
		start = &s
	}
	if f.To != nil {
		e := f.To.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
		end = &e
	}
	return start, end
}

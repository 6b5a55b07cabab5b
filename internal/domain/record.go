package domain

import "time"

// Priority levels accepted on submission. A record may carry no priority at
// all; reports bucket those under the synthetic "Other" label.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
	PriorityUrgent = "Urgent"

	// PriorityOther is a report-side bucket for blank priority, never stored.
	PriorityOther = "Other"
)

// Priorities lists the accepted submission values in severity order.
var Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// ValidPriority reports whether p is an accepted submission value.
func ValidPriority(p string) bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}

// Record statuses. Content is immutable after submission; only the status may
// transition, and only through the management surface.
const (
	StatusLogged   = "logged"
	StatusReviewed = "reviewed"
	StatusFlagged  = "flagged"
)

// Record is one submitted activity log entry: a small set of fixed columns
// shared by every unit plus an attribute bag for unit-specific fields.
type Record struct {
	ID          string
	UnitID      int64
	ActorID     int64
	Description string
	Category    string // ticket / request type, groupable free text
	System      string // system or application used
	Priority    string // one of Priorities, or empty when not supplied
	SLA         string
	Tool        string
	DurationMin int
	Frequency   int // times per day the activity repeats
	Status      string
	Attributes  AttributeBag
	LoggedAt    time.Time
	CreatedAt   time.Time
}

// Cursor models the keyset pagination token for record listings.
type Cursor struct {
	LoggedAt time.Time
	ID       string
}

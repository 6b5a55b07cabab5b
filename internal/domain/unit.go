package domain

// ManagementUnitName is the designated unit excluded from cross-unit
// analytics groupings by convention.
const ManagementUnitName = "Management"

// Unit is an organizational grouping whose members submit records under a
// shared, independently configurable schema.
type Unit struct {
	ID          int64
	Name        string
	Description string
}

// IsManagement reports whether the unit is the designated management unit.
func (u Unit) IsManagement() bool {
	return u.Name == ManagementUnitName
}

// Actor is a directory entry for a member of a unit. The directory is fed by
// the external identity provider; the core only reads it for name resolution
// and headcount analytics.
type Actor struct {
	ID         int64
	Name       string
	EmployeeID string
	UnitID     int64
	IsAdmin    bool
}

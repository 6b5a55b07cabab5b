package domain

import "time"

// FieldType tags the input kind of a tracking field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldSelect   FieldType = "select"
)

// Valid reports whether the tag is one of the supported field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldTextarea, FieldNumber, FieldDate, FieldSelect:
		return true
	}
	return false
}

// FieldDefinition is a declared, typed attribute that one unit's records may
// carry. Internal names are unique per unit (case-sensitive); order values
// need not be contiguous, ties resolve by creation sequence.
type FieldDefinition struct {
	ID        int64
	UnitID    int64
	Name      string
	Label     string
	Type      FieldType
	Required  bool
	Order     int
	Choices   []string // populated only for FieldSelect, in display order
	CreatedAt time.Time
}

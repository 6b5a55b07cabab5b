// Package form materializes a unit's current schema into a validator that
// accepts raw submissions, collects every violation in one pass, and routes
// accepted values into fixed record columns or the attribute bag.
package form

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SRG1996AP/productivity-tracker/internal/domain"
)

// Description bounds carried over from the submission form.
const (
	DescriptionField = "description"
	descriptionMin   = 5
	descriptionMax   = 1000
)

// EntryNoField is the reserved sequential entry number. It is computed when
// the form is built and can never be overridden by the submitter.
const EntryNoField = "entry_no"

// Well-known field names routed to fixed record columns instead of the
// attribute bag.
const (
	fieldCategory  = "ticket_request_type"
	fieldSystem    = "system_application"
	fieldPriority  = "priority"
	fieldSLA       = "sla_tat"
	fieldTool      = "tool_platform_used"
	fieldDuration  = "duration_mins"
	fieldFrequency = "frequency_per_day"
	fieldStatus    = "status"
)

// dateLayout accepted for date-typed fields.
const dateLayout = "2006-01-02"

// FieldLister yields the unit's current schema.
type FieldLister interface {
	ListFields(ctx context.Context, unitID int64) ([]domain.FieldDefinition, error)
}

// RecordCounter counts the unit's stored records, used to derive the next
// sequential entry number at form-build time.
type RecordCounter interface {
	Count(ctx context.Context, filter domain.RecordFilter) (int, error)
}

// Materializer builds validators bound to a unit's current schema.
type Materializer struct {
	fields  FieldLister
	records RecordCounter
}

// NewMaterializer constructs a Materializer.
func NewMaterializer(fields FieldLister, records RecordCounter) *Materializer {
	return &Materializer{fields: fields, records: records}
}

// BuildValidator snapshots the unit's schema. Validation always applies the
// schema as it exists at submission time; stored records are never
// revalidated retroactively.
func (m *Materializer) BuildValidator(ctx context.Context, unitID int64) (*Validator, error) {
	defs, err := m.fields.ListFields(ctx, unitID)
	if err != nil {
		return nil, err
	}

	count, err := m.records.Count(ctx, domain.RecordFilter{UnitID: &unitID})
	if err != nil {
		return nil, err
	}

	return &Validator{
		unitID:  unitID,
		defs:    defs,
		entryNo: count + 1,
	}, nil
}

// Validator checks one raw submission against a schema snapshot.
type Validator struct {
	unitID  int64
	defs    []domain.FieldDefinition
	entryNo int
}

// Fields exposes the bound definitions in display order, for form rendering.
func (v *Validator) Fields() []domain.FieldDefinition { return v.defs }

// EntryNo is the reserved sequence number assigned to the next submission.
func (v *Validator) EntryNo() int { return v.entryNo }

// ValidatedInput is a submission that passed validation, partitioned into
// well-known columns and the attribute bag.
type ValidatedInput struct {
	Description string
	Category    string
	System      string
	Priority    string
	SLA         string
	Tool        string
	DurationMin int
	Frequency   int
	Attributes  domain.AttributeBag
}

// Accept validates the raw key/value submission. All violations are
// collected; on any failure the complete set is returned as one
// *domain.ValidationError and nothing is persisted by the caller.
func (v *Validator) Accept(raw map[string]string) (*ValidatedInput, error) {
	var errs []domain.FieldError
	out := &ValidatedInput{Attributes: domain.AttributeBag{}}

	// The free-text description is always present and required, independent
	// of the unit's declared fields.
	desc := strings.TrimSpace(raw[DescriptionField])
	switch {
	case desc == "":
		errs = append(errs, domain.FieldError{Field: DescriptionField, Message: "description is required"})
	case utf8.RuneCountInString(desc) < descriptionMin:
		errs = append(errs, domain.FieldError{Field: DescriptionField, Message: fmt.Sprintf("must be at least %d characters", descriptionMin)})
	case utf8.RuneCountInString(desc) > descriptionMax:
		errs = append(errs, domain.FieldError{Field: DescriptionField, Message: fmt.Sprintf("must be at most %d characters", descriptionMax)})
	default:
		out.Description = desc
	}

	for _, def := range v.defs {
		if def.Name == EntryNoField {
			// Reserved: always the computed sequence, never submitter input.
			out.Attributes[EntryNoField] = domain.NumberValue(float64(v.entryNo))
			continue
		}

		value := strings.TrimSpace(raw[def.Name])
		if value == "" {
			if def.Required {
				errs = append(errs, domain.FieldError{Field: def.Name, Message: fmt.Sprintf("%s is required", def.Label)})
			}
			continue
		}

		accepted, fieldErr := coerce(def, value)
		if fieldErr != nil {
			errs = append(errs, *fieldErr)
			continue
		}

		if routeErr := route(out, def.Name, accepted); routeErr != nil {
			errs = append(errs, *routeErr)
		}
	}

	if len(errs) > 0 {
		return nil, domain.NewValidationErrors(errs)
	}
	return out, nil
}

// coerce applies the per-type constraint and returns the typed value.
func coerce(def domain.FieldDefinition, value string) (domain.Value, *domain.FieldError) {
	switch def.Type {
	case domain.FieldNumber:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return domain.Value{}, &domain.FieldError{Field: def.Name, Message: fmt.Sprintf("%s must be a number", def.Label)}
		}
		return domain.NumberValue(n), nil

	case domain.FieldDate:
		if _, err := time.Parse(dateLayout, value); err != nil {
			return domain.Value{}, &domain.FieldError{Field: def.Name, Message: fmt.Sprintf("%s must be a date in YYYY-MM-DD form", def.Label)}
		}
		return domain.TextValue(value), nil

	case domain.FieldSelect:
		for _, choice := range def.Choices {
			if value == choice {
				return domain.TextValue(value), nil
			}
		}
		return domain.Value{}, &domain.FieldError{Field: def.Name, Message: fmt.Sprintf("%s must be one of: %s", def.Label, strings.Join(def.Choices, ", "))}

	default:
		return domain.TextValue(value), nil
	}
}

// route writes an accepted value either into its well-known fixed column or
// into the attribute bag. A name that matches a fixed column is never
// duplicated in the bag.
func route(out *ValidatedInput, name string, value domain.Value) *domain.FieldError {
	switch name {
	case fieldCategory:
		out.Category = value.String()
	case fieldSystem:
		out.System = value.String()
	case fieldPriority:
		p := value.String()
		if !domain.ValidPriority(p) {
			return &domain.FieldError{Field: fieldPriority, Message: fmt.Sprintf("priority must be one of: %s", strings.Join(domain.Priorities, ", "))}
		}
		out.Priority = p
	case fieldSLA:
		out.SLA = value.String()
	case fieldTool:
		out.Tool = value.String()
	case fieldDuration:
		mins, err := asNonNegativeInt(value)
		if err != nil {
			return &domain.FieldError{Field: fieldDuration, Message: "duration must be a whole number of minutes >= 0"}
		}
		out.DurationMin = mins
	case fieldFrequency:
		freq, err := asNonNegativeInt(value)
		if err != nil {
			return &domain.FieldError{Field: fieldFrequency, Message: "frequency must be a whole number >= 0"}
		}
		out.Frequency = freq
	case fieldStatus:
		// Status is management-controlled; submissions cannot set it.
		return &domain.FieldError{Field: fieldStatus, Message: "status cannot be set on submission"}
	default:
		out.Attributes[name] = value
	}
	return nil
}

func asNonNegativeInt(value domain.Value) (int, error) {
	var n float64
	if value.Kind == domain.ValueNumber {
		n = value.Number
	} else {
		parsed, err := strconv.ParseFloat(value.Text, 64)
		if err != nil {
			return 0, err
		}
		n = parsed
	}
	i := int(n)
	if float64(i) != n || i < 0 {
		return 0, fmt.Errorf("not a non-negative integer: %v", n)
	}
	return i, nil
}

// Package schema owns the per-unit tracking field definitions: listing,
// mutation with duplicate-name protection, and default template seeding.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/SRG1996AP/productivity-tracker/internal/domain"
)

// FieldRepository captures persistence operations for field definitions.
type FieldRepository interface {
	ListByUnit(ctx context.Context, unitID int64) ([]domain.FieldDefinition, error)
	Get(ctx context.Context, fieldID int64) (*domain.FieldDefinition, error)
	Insert(ctx context.Context, def domain.FieldDefinition) (domain.FieldDefinition, error)
	Update(ctx context.Context, def domain.FieldDefinition) error
	Delete(ctx context.Context, fieldID int64) error
}

// Registry provides schema operations over a unit's field definitions.
type Registry struct {
	fields FieldRepository
}

// NewRegistry constructs a Registry.
func NewRegistry(fields FieldRepository) *Registry {
	return &Registry{fields: fields}
}

// ListFields returns the unit's fields ordered by display order ascending,
// ties broken by creation sequence. Never fails with "no schema": a unit
// without declared fields yields an empty slice.
func (r *Registry) ListFields(ctx context.Context, unitID int64) ([]domain.FieldDefinition, error) {
	return r.fields.ListByUnit(ctx, unitID)
}

// AddField persists a new definition for the unit. The internal name must be
// unique within the unit (case-sensitive exact match). When no display order
// is supplied the field is appended after the current maximum.
func (r *Registry) AddField(ctx context.Context, unitID int64, def domain.FieldDefinition) (domain.FieldDefinition, error) {
	def.UnitID = unitID
	if err := validateDefinition(def); err != nil {
		return domain.FieldDefinition{}, err
	}

	existing, err := r.fields.ListByUnit(ctx, unitID)
	if err != nil {
		return domain.FieldDefinition{}, err
	}
	for _, f := range existing {
		if f.Name == def.Name {
			return domain.FieldDefinition{}, fmt.Errorf("field %q: %w", def.Name, domain.ErrDuplicateName)
		}
	}

	if def.Order == 0 {
		maxOrder := 0
		for _, f := range existing {
			if f.Order > maxOrder {
				maxOrder = f.Order
			}
		}
		def.Order = maxOrder + 1
	}

	return r.fields.Insert(ctx, def)
}

// UpdateField edits an existing definition, applying the same uniqueness rule
// while excluding the field being edited.
func (r *Registry) UpdateField(ctx context.Context, fieldID int64, def domain.FieldDefinition) error {
	current, err := r.fields.Get(ctx, fieldID)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("field %d: %w", fieldID, domain.ErrNotFound)
	}

	def.ID = fieldID
	def.UnitID = current.UnitID
	if def.Order == 0 {
		def.Order = current.Order
	}
	if err := validateDefinition(def); err != nil {
		return err
	}

	siblings, err := r.fields.ListByUnit(ctx, current.UnitID)
	if err != nil {
		return err
	}
	for _, f := range siblings {
		if f.ID != fieldID && f.Name == def.Name {
			return fmt.Errorf("field %q: %w", def.Name, domain.ErrDuplicateName)
		}
	}

	return r.fields.Update(ctx, def)
}

// RemoveField deletes a definition immediately. Records already holding a
// value for the field keep it in their attribute bag untouched.
func (r *Registry) RemoveField(ctx context.Context, fieldID int64) error {
	current, err := r.fields.Get(ctx, fieldID)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("field %d: %w", fieldID, domain.ErrNotFound)
	}
	return r.fields.Delete(ctx, fieldID)
}

func validateDefinition(def domain.FieldDefinition) error {
	var errs []domain.FieldError
	name := strings.TrimSpace(def.Name)
	if name == "" {
		errs = append(errs, domain.FieldError{Field: "name", Message: "internal name is required"})
	} else if strings.ContainsAny(name, " \t\n") {
		errs = append(errs, domain.FieldError{Field: "name", Message: "internal name must not contain whitespace"})
	}
	if strings.TrimSpace(def.Label) == "" {
		errs = append(errs, domain.FieldError{Field: "label", Message: "display label is required"})
	}
	if !def.Type.Valid() {
		errs = append(errs, domain.FieldError{Field: "type", Message: fmt.Sprintf("unknown field type %q", def.Type)})
	}
	if def.Type == domain.FieldSelect && len(def.Choices) == 0 {
		errs = append(errs, domain.FieldError{Field: "choices", Message: "select fields need at least one choice"})
	}
	if def.Type != domain.FieldSelect && len(def.Choices) > 0 {
		errs = append(errs, domain.FieldError{Field: "choices", Message: "choices are only valid for select fields"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

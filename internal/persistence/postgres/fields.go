package postgres

import (
	"context"
	"encoding/json"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SRG1996AP/productivity-tracker/internal/domain"
)

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const fieldColumns = "field_id, unit_id, name, label, field_type, required, display_order, choices, created_at"

// FieldRepository persists per-unit tracking field definitions.
type FieldRepository struct {
	pool *pgxpool.Pool
}

// NewFieldRepository constructs a FieldRepository.
func NewFieldRepository(pool *pgxpool.Pool) *FieldRepository {
	return &FieldRepository{pool: pool}
}

// ListByUnit returns the unit's fields in display order, ties broken by
// creation sequence.
func (r *FieldRepository) ListByUnit(ctx context.Context, unitID int64) ([]domain.FieldDefinition, error) {
	query, args, err := builder.
		Select(fieldColumns).
		From("tracking_fields").
		Where(sq.Eq{"unit_id": unitID}).
		OrderBy("display_order ASC", "field_id ASC").
		ToSql()
	if err != nil {
		return nil, mapError("list fields", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list fields", err)
	}
	defer rows.Close()

	var defs []domain.FieldDefinition
	for rows.Next() {
		def, err := scanField(rows)
		if err != nil {
			return nil, mapError("list fields", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list fields", err)
	}
	return defs, nil
}

// Get fetches one definition by id, nil when absent.
func (r *FieldRepository) Get(ctx context.Context, fieldID int64) (*domain.FieldDefinition, error) {
	query, args, err := builder.
		Select(fieldColumns).
		From("tracking_fields").
		Where(sq.Eq{"field_id": fieldID}).
		ToSql()
	if err != nil {
		return nil, mapError("get field", err)
	}

	def, err := scanField(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("get field", err)
	}
	return &def, nil
}

// Insert stores a new definition and returns it with the assigned id.
func (r *FieldRepository) Insert(ctx context.Context, def domain.FieldDefinition) (domain.FieldDefinition, error) {
	choices, err := marshalChoices(def.Choices)
	if err != nil {
		return domain.FieldDefinition{}, mapError("insert field", err)
	}

	query, args, err := builder.
		Insert("tracking_fields").
		Columns("unit_id", "name", "label", "field_type", "required", "display_order", "choices").
		Values(def.UnitID, def.Name, def.Label, string(def.Type), def.Required, def.Order, choices).
		Suffix("RETURNING field_id, created_at").
		ToSql()
	if err != nil {
		return domain.FieldDefinition{}, mapError("insert field", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&def.ID, &def.CreatedAt); err != nil {
		return domain.FieldDefinition{}, mapError("insert field", err)
	}
	return def, nil
}

// Update rewrites a definition in place.
func (r *FieldRepository) Update(ctx context.Context, def domain.FieldDefinition) error {
	choices, err := marshalChoices(def.Choices)
	if err != nil {
		return mapError("update field", err)
	}

	query, args, err := builder.
		Update("tracking_fields").
		Set("name", def.Name).
		Set("label", def.Label).
		Set("field_type", string(def.Type)).
		Set("required", def.Required).
		Set("display_order", def.Order).
		Set("choices", choices).
		Where(sq.Eq{"field_id": def.ID}).
		ToSql()
	if err != nil {
		return mapError("update field", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapError("update field", err)
	}
	if tag.RowsAffected() == 0 {
		return mapError("update field", pgx.ErrNoRows)
	}
	return nil
}

// Delete removes a definition by id.
func (r *FieldRepository) Delete(ctx context.Context, fieldID int64) error {
	query, args, err := builder.
		Delete("tracking_fields").
		Where(sq.Eq{"field_id": fieldID}).
		ToSql()
	if err != nil {
		return mapError("delete field", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapError("delete field", err)
	}
	if tag.RowsAffected() == 0 {
		return mapError("delete field", pgx.ErrNoRows)
	}
	return nil
}

func scanField(row pgx.Row) (domain.FieldDefinition, error) {
	var (
		def       domain.FieldDefinition
		fieldType string
		choices   []byte
	)
	if err := row.Scan(&def.ID, &def.UnitID, &def.Name, &def.Label, &fieldType, &def.Required, &def.Order, &choices, &def.CreatedAt); err != nil {
		return domain.FieldDefinition{}, err
	}
	def.Type = domain.FieldType(fieldType)
	if len(choices) > 0 {
		if err := json.Unmarshal(choices, &def.Choices); err != nil {
			return domain.FieldDefinition{}, err
		}
	}
	return def, nil
}

func marshalChoices(choices []string) ([]byte, error) {
	if len(choices) == 0 {
		return nil, nil
	}
	return json.Marshal(choices)
}

package postgres

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SRG1996AP/productivity-tracker/internal/domain"
)

// DirectoryRepository persists the unit catalog and actor directory.
type DirectoryRepository struct {
	pool *pgxpool.Pool
}

// NewDirectoryRepository constructs a DirectoryRepository.
func NewDirectoryRepository(pool *pgxpool.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

// ListUnits returns units in declared order. The Management unit is excluded
// unless includeManagement is set.
func (r *DirectoryRepository) ListUnits(ctx context.Context, includeManagement bool) ([]domain.Unit, error) {
	q := builder.
		Select("unit_id, name, description").
		From("units").
		OrderBy("unit_id ASC")
	if !includeManagement {
		q = q.Where(sq.NotEq{"name": domain.ManagementUnitName})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, mapError("list units", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list units", err)
	}
	defer rows.Close()

	var units []domain.Unit
	for rows.Next() {
		var u domain.Unit
		if err := rows.Scan(&u.ID, &u.Name, &u.Description); err != nil {
			return nil, mapError("list units", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list units", err)
	}
	return units, nil
}

// GetUnit fetches one unit by id, nil when absent.
func (r *DirectoryRepository) GetUnit(ctx context.Context, unitID int64) (*domain.Unit, error) {
	query, args, err := builder.
		Select("unit_id, name, description").
		From("units").
		Where(sq.Eq{"unit_id": unitID}).
		ToSql()
	if err != nil {
		return nil, mapError("get unit", err)
	}

	var u domain.Unit
	err = r.pool.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Name, &u.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("get unit", err)
	}
	return &u, nil
}

// CreateUnit stores a new unit. Unit names are unique.
func (r *DirectoryRepository) CreateUnit(ctx context.Context, unit domain.Unit) (domain.Unit, error) {
	query, args, err := builder.
		Insert("units").
		Columns("name", "description").
		Values(unit.Name, unit.Description).
		Suffix("RETURNING unit_id").
		ToSql()
	if err != nil {
		return domain.Unit{}, mapError("create unit", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&unit.ID); err != nil {
		return domain.Unit{}, mapError("create unit", err)
	}
	return unit, nil
}

// DeleteUnit removes a unit. Fails on referencing rows unless the caller
// purged them first.
func (r *DirectoryRepository) DeleteUnit(ctx context.Context, unitID int64) error {
	query, args, err := builder.
		Delete("units").
		Where(sq.Eq{"unit_id": unitID}).
		ToSql()
	if err != nil {
		return mapError("delete unit", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapError("delete unit", err)
	}
	if tag.RowsAffected() == 0 {
		return mapError("delete unit", pgx.ErrNoRows)
	}
	return nil
}

// ListActors returns directory entries, optionally narrowed to one unit,
// ordered by id.
func (r *DirectoryRepository) ListActors(ctx context.Context, unitID *int64) ([]domain.Actor, error) {
	q := builder.
		Select("actor_id, name, employee_id, unit_id, is_admin").
		From("actors").
		OrderBy("actor_id ASC")
	if unitID != nil {
		q = q.Where(sq.Eq{"unit_id": *unitID})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, mapError("list actors", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list actors", err)
	}
	defer rows.Close()

	var actors []domain.Actor
	for rows.Next() {
		var a domain.Actor
		if err := rows.Scan(&a.ID, &a.Name, &a.EmployeeID, &a.UnitID, &a.IsAdmin); err != nil {
			return nil, mapError("list actors", err)
		}
		actors = append(actors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list actors", err)
	}
	return actors, nil
}

// GetActor fetches one directory entry, nil when absent.
func (r *DirectoryRepository) GetActor(ctx context.Context, actorID int64) (*domain.Actor, error) {
	query, args, err := builder.
		Select("actor_id, name, employee_id, unit_id, is_admin").
		From("actors").
		Where(sq.Eq{"actor_id": actorID}).
		ToSql()
	if err != nil {
		return nil, mapError("get actor", err)
	}

	var a domain.Actor
	err = r.pool.QueryRow(ctx, query, args...).Scan(&a.ID, &a.Name, &a.EmployeeID, &a.UnitID, &a.IsAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("get actor", err)
	}
	return &a, nil
}

// CreateActor stores a new directory entry. Employee ids are unique.
func (r *DirectoryRepository) CreateActor(ctx context.Context, actor domain.Actor) (domain.Actor, error) {
	query, args, err := builder.
		Insert("actors").
		Columns("name", "employee_id", "unit_id", "is_admin").
		Values(actor.Name, actor.EmployeeID, actor.UnitID, actor.IsAdmin).
		Suffix("RETURNING actor_id").
		ToSql()
	if err != nil {
		return domain.Actor{}, mapError("create actor", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&actor.ID); err != nil {
		return domain.Actor{}, mapError("create actor", err)
	}
	return actor, nil
}

// DeleteActor removes a directory entry. Records stay behind and keep
// resolving through the synthetic "User {id}" label.
func (r *DirectoryRepository) DeleteActor(ctx context.Context, actorID int64) error {
	query, args, err := builder.
		Delete("actors").
		Where(sq.Eq{"actor_id": actorID}).
		ToSql()
	if err != nil {
		return mapError("delete actor", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapError("delete actor", err)
	}
	if tag.RowsAffected() == 0 {
		return mapError("delete actor", pgx.ErrNoRows)
	}
	return nil
}

// ActorNames resolves display names for the given ids.
func (r *DirectoryRepository) ActorNames(ctx context.Context, actorIDs []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(actorIDs))
	if len(actorIDs) == 0 {
		return names, nil
	}

	query, args, err := builder.
		Select("actor_id, name").
		From("actors").
		Where(sq.Eq{"actor_id": actorIDs}).
		ToSql()
	if err != nil {
		return nil, mapError("actor names", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("actor names", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, mapError("actor names", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("actor names", err)
	}
	return names, nil
}

// StaticHeadcount counts declared members per unit.
func (r *DirectoryRepository) StaticHeadcount(ctx context.Context) (map[int64]int, error) {
	query, args, err := builder.
		Select("unit_id, COUNT(*)").
		From("actors").
		GroupBy("unit_id").
		ToSql()
	if err != nil {
		return nil, mapError("static headcount", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("static headcount", err)
	}
	defer rows.Close()

	counts := map[int64]int{}
	for rows.Next() {
		var (
			unitID int64
			count  int
		)
		if err := rows.Scan(&unitID, &count); err != nil {
			return nil, mapError("static headcount", err)
		}
		counts[unitID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("static headcount", err)
	}
	return counts, nil
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SRG1996AP/productivity-tracker/internal/domain"
	"github.com/SRG1996AP/productivity-tracker/internal/events"
	"github.com/SRG1996AP/productivity-tracker/internal/report"
)

const recordColumns = "record_id, unit_id, actor_id, description, category, system_app, priority, sla_tat, tool_used, duration_min, frequency, status, attributes, logged_at, created_at"

// RecordRepository persists records and answers the grouped reductions the
// aggregation engine needs. Reductions run in SQL over indexed columns.
type RecordRepository struct {
	pool *pgxpool.Pool
}

// NewRecordRepository constructs a RecordRepository.
func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

// filtered applies the shared filter predicates to a squirrel builder.
func filtered(q sq.SelectBuilder, filter domain.RecordFilter) sq.SelectBuilder {
	if filter.UnitID != nil {
		q = q.Where(sq.Eq{"unit_id": *filter.UnitID})
	}
	if filter.ActorID != nil {
		q = q.Where(sq.Eq{"actor_id": *filter.ActorID})
	}
	if filter.Priority != nil {
		q = q.Where(sq.Eq{"priority": *filter.Priority})
	}
	if filter.Status != nil {
		q = q.Where(sq.Eq{"status": *filter.Status})
	}
	if filter.Category != nil {
		q = q.Where(sq.Eq{"category": *filter.Category})
	}
	start, end := filter.Window()
	if start != nil {
		q = q.Where(sq.GtOrEq{"logged_at": *start})
	}
	if end != nil {
		q = q.Where(sq.Lt{"logged_at": *end})
	}
	return q
}

// Insert stores the record and its record.created outbox row in one
// transaction.
func (r *RecordRepository) Insert(ctx context.Context, record domain.Record) error {
	attrs, err := json.Marshal(record.Attributes)
	if err != nil {
		return mapError("insert record", err)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapError("insert record", err)
	}
	defer tx.Rollback(ctx)

	query, args, err := builder.
		Insert("records").
		Columns("record_id", "unit_id", "actor_id", "description", "category", "system_app", "priority", "sla_tat", "tool_used", "duration_min", "frequency", "status", "attributes", "logged_at", "created_at").
		Values(record.ID, record.UnitID, record.ActorID, record.Description, record.Category, record.System, record.Priority, record.SLA, record.Tool, record.DurationMin, record.Frequency, record.Status, attrs, record.LoggedAt, record.CreatedAt).
		ToSql()
	if err != nil {
		return mapError("insert record", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return mapError("insert record", err)
	}

	if err := insertOutbox(ctx, tx, record); err != nil {
		return mapError("insert record", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapError("insert record", err)
	}
	return nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, record domain.Record) error {
	payload, err := json.Marshal(events.RecordCreated{
		RecordID:    record.ID,
		UnitID:      record.UnitID,
		ActorID:     record.ActorID,
		Description: record.Description,
		Category:    record.Category,
		Priority:    record.Priority,
		DurationMin: record.DurationMin,
		LoggedAt:    record.LoggedAt,
	})
	if err != nil {
		return err
	}

	query, args, err := builder.
		Insert("outbox").
		Columns("aggregate_type", "aggregate_id", "event_type", "topic", "partition_key", "payload", "dedupe_key").
		Values(
			"record",
			record.ID,
			events.TypeRecordCreated,
			events.TopicRecordEvents,
			fmt.Sprintf("%d:%d", record.UnitID, record.ActorID),
			payload,
			fmt.Sprintf("%s:%s", record.ID, events.TypeRecordCreated),
		).
		ToSql()
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, query, args...)
	return err
}

// Get fetches one record by id, nil when absent.
func (r *RecordRepository) Get(ctx context.Context, recordID string) (*domain.Record, error) {
	query, args, err := builder.
		Select(recordColumns).
		From("records").
		Where(sq.Eq{"record_id": recordID}).
		ToSql()
	if err != nil {
		return nil, mapError("get record", err)
	}

	record, err := scanRecord(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("get record", err)
	}
	return &record, nil
}

// List returns records newest first with keyset pagination.
func (r *RecordRepository) List(ctx context.Context, filter domain.RecordFilter, cursor *domain.Cursor, limit int) ([]domain.Record, *domain.Cursor, error) {
	q := filtered(builder.Select(recordColumns).From("records"), filter)
	if cursor != nil {
		q = q.Where(sq.Expr("(logged_at, record_id) < (?, ?)", cursor.LoggedAt, cursor.ID))
	}
	query, args, err := q.
		OrderBy("logged_at DESC", "record_id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, nil, mapError("list records", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, mapError("list records", err)
	}
	defer rows.Close()

	results := make([]domain.Record, 0, limit)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, nil, mapError("list records", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, mapError("list records", err)
	}

	var next *domain.Cursor
	if len(results) == limit {
		last := results[len(results)-1]
		next = &domain.Cursor{LoggedAt: last.LoggedAt, ID: last.ID}
	}
	return results, next, nil
}

// Count counts matching records.
func (r *RecordRepository) Count(ctx context.Context, filter domain.RecordFilter) (int, error) {
	query, args, err := filtered(builder.Select("COUNT(*)").From("records"), filter).ToSql()
	if err != nil {
		return 0, mapError("count records", err)
	}
	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, mapError("count records", err)
	}
	return count, nil
}

// SumDuration sums duration minutes over matching records.
func (r *RecordRepository) SumDuration(ctx context.Context, filter domain.RecordFilter) (int, error) {
	query, args, err := filtered(builder.Select("COALESCE(SUM(duration_min), 0)").From("records"), filter).ToSql()
	if err != nil {
		return 0, mapError("sum duration", err)
	}
	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, mapError("sum duration", err)
	}
	return total, nil
}

// UpdateStatus sets the review status; all other columns stay immutable.
func (r *RecordRepository) UpdateStatus(ctx context.Context, recordID, status string) error {
	query, args, err := builder.
		Update("records").
		Set("status", status).
		Where(sq.Eq{"record_id": recordID}).
		ToSql()
	if err != nil {
		return mapError("update status", err)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapError("update status", err)
	}
	if tag.RowsAffected() == 0 {
		return mapError("update status", pgx.ErrNoRows)
	}
	return nil
}

// DeleteByActor removes all records of one actor, returning the count.
func (r *RecordRepository) DeleteByActor(ctx context.Context, actorID int64) (int64, error) {
	query, args, err := builder.Delete("records").Where(sq.Eq{"actor_id": actorID}).ToSql()
	if err != nil {
		return 0, mapError("delete by actor", err)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapError("delete by actor", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteByUnit removes all records of one unit, returning the count.
func (r *RecordRepository) DeleteByUnit(ctx context.Context, unitID int64) (int64, error) {
	query, args, err := builder.Delete("records").Where(sq.Eq{"unit_id": unitID}).ToSql()
	if err != nil {
		return 0, mapError("delete by unit", err)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapError("delete by unit", err)
	}
	return tag.RowsAffected(), nil
}

// CountByUnit groups matching record counts per unit.
func (r *RecordRepository) CountByUnit(ctx context.Context, filter domain.RecordFilter) (map[int64]int, error) {
	return r.groupedCounts(ctx, filter, "unit_id")
}

// ActiveHeadcount counts distinct submitting actors per unit in range.
func (r *RecordRepository) ActiveHeadcount(ctx context.Context, filter domain.RecordFilter) (map[int64]int, error) {
	query, args, err := filtered(
		builder.Select("unit_id, COUNT(DISTINCT actor_id)").From("records"), filter,
	).GroupBy("unit_id").ToSql()
	if err != nil {
		return nil, mapError("active headcount", err)
	}
	return r.scanInt64Counts(ctx, "active headcount", query, args)
}

// SumDurationByUnit groups summed duration per unit.
func (r *RecordRepository) SumDurationByUnit(ctx context.Context, filter domain.RecordFilter) (map[int64]int, error) {
	query, args, err := filtered(
		builder.Select("unit_id, COALESCE(SUM(duration_min), 0)").From("records"), filter,
	).GroupBy("unit_id").ToSql()
	if err != nil {
		return nil, mapError("duration by unit", err)
	}
	return r.scanInt64Counts(ctx, "duration by unit", query, args)
}

// DurationByUnitPriority groups summed duration per (unit, priority). Blank
// priorities come through with an empty key; bucketing is the engine's job.
func (r *RecordRepository) DurationByUnitPriority(ctx context.Context, filter domain.RecordFilter) (map[int64]map[string]int, error) {
	query, args, err := filtered(
		builder.Select("unit_id, priority, COALESCE(SUM(duration_min), 0)").From("records"), filter,
	).GroupBy("unit_id", "priority").ToSql()
	if err != nil {
		return nil, mapError("duration by priority", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("duration by priority", err)
	}
	defer rows.Close()

	grouped := map[int64]map[string]int{}
	for rows.Next() {
		var (
			unitID   int64
			priority string
			total    int
		)
		if err := rows.Scan(&unitID, &priority, &total); err != nil {
			return nil, mapError("duration by priority", err)
		}
		if grouped[unitID] == nil {
			grouped[unitID] = map[string]int{}
		}
		grouped[unitID][priority] = total
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("duration by priority", err)
	}
	return grouped, nil
}

// CountByDay groups matching record counts per UTC calendar day, keyed
// YYYY-MM-DD.
func (r *RecordRepository) CountByDay(ctx context.Context, filter domain.RecordFilter) (map[string]int, error) {
	query, args, err := filtered(
		builder.Select("to_char(logged_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*)").From("records"), filter,
	).GroupBy("day").ToSql()
	if err != nil {
		return nil, mapError("count by day", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("count by day", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			day   string
			count int
		)
		if err := rows.Scan(&day, &count); err != nil {
			return nil, mapError("count by day", err)
		}
		counts[day] = count
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("count by day", err)
	}
	return counts, nil
}

// CountByActor ranks actors by matching record count, count descending with
// actor id ascending as the tie-break, truncated to limit.
func (r *RecordRepository) CountByActor(ctx context.Context, filter domain.RecordFilter, limit int) ([]report.ActorCount, error) {
	query, args, err := filtered(
		builder.Select("actor_id, COUNT(*)").From("records"), filter,
	).GroupBy("actor_id").
		OrderBy("COUNT(*) DESC", "actor_id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, mapError("count by actor", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("count by actor", err)
	}
	defer rows.Close()

	var out []report.ActorCount
	for rows.Next() {
		var ac report.ActorCount
		if err := rows.Scan(&ac.ActorID, &ac.Count); err != nil {
			return nil, mapError("count by actor", err)
		}
		out = append(out, ac)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("count by actor", err)
	}
	return out, nil
}

// CountByWeekdayHour buckets matching records by UTC weekday and hour.
// Weekday 0 is Sunday.
func (r *RecordRepository) CountByWeekdayHour(ctx context.Context, filter domain.RecordFilter) ([7][24]int, error) {
	var matrix [7][24]int

	query, args, err := filtered(
		builder.Select(
			"EXTRACT(DOW FROM logged_at AT TIME ZONE 'UTC')::int AS dow",
			"EXTRACT(HOUR FROM logged_at AT TIME ZONE 'UTC')::int AS hour",
			"COUNT(*)",
		).From("records"), filter,
	).GroupBy("dow", "hour").ToSql()
	if err != nil {
		return matrix, mapError("weekday heatmap", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return matrix, mapError("weekday heatmap", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dow, hour, count int
		if err := rows.Scan(&dow, &hour, &count); err != nil {
			return matrix, mapError("weekday heatmap", err)
		}
		if dow >= 0 && dow < 7 && hour >= 0 && hour < 24 {
			matrix[dow][hour] = count
		}
	}
	if err := rows.Err(); err != nil {
		return matrix, mapError("weekday heatmap", err)
	}
	return matrix, nil
}

// CountByCategory groups matching record counts per category, count
// descending. Blank categories come through with an empty label.
func (r *RecordRepository) CountByCategory(ctx context.Context, filter domain.RecordFilter) ([]report.CategoryCount, error) {
	query, args, err := filtered(
		builder.Select("category, COUNT(*)").From("records"), filter,
	).GroupBy("category").
		OrderBy("COUNT(*) DESC", "category ASC").
		ToSql()
	if err != nil {
		return nil, mapError("count by category", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("count by category", err)
	}
	defer rows.Close()

	var out []report.CategoryCount
	for rows.Next() {
		var cc report.CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, mapError("count by category", err)
		}
		out = append(out, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("count by category", err)
	}
	return out, nil
}

// SaveClassification upserts the classifier verdict for a record.
func (r *RecordRepository) SaveClassification(ctx context.Context, recordID, label string, score float64) error {
	query, args, err := builder.
		Insert("classifications").
		Columns("record_id", "label", "score").
		Values(recordID, label, score).
		Suffix("ON CONFLICT (record_id) DO UPDATE SET label = EXCLUDED.label, score = EXCLUDED.score, classified_at = now()").
		ToSql()
	if err != nil {
		return mapError("save classification", err)
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return mapError("save classification", err)
	}
	return nil
}

func (r *RecordRepository) groupedCounts(ctx context.Context, filter domain.RecordFilter, column string) (map[int64]int, error) {
	query, args, err := filtered(
		builder.Select(column+", COUNT(*)").From("records"), filter,
	).GroupBy(column).ToSql()
	if err != nil {
		return nil, mapError("grouped counts", err)
	}
	return r.scanInt64Counts(ctx, "grouped counts", query, args)
}

func (r *RecordRepository) scanInt64Counts(ctx context.Context, op, query string, args []interface{}) (map[int64]int, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	counts := map[int64]int{}
	for rows.Next() {
		var (
			key   int64
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return nil, mapError(op, err)
		}
		counts[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return counts, nil
}

func scanRecord(row pgx.Row) (domain.Record, error) {
	var (
		record domain.Record
		attrs  []byte
	)
	if err := row.Scan(
		&record.ID, &record.UnitID, &record.ActorID, &record.Description,
		&record.Category, &record.System, &record.Priority, &record.SLA,
		&record.Tool, &record.DurationMin, &record.Frequency, &record.Status,
		&attrs, &record.LoggedAt, &record.CreatedAt,
	); err != nil {
		return domain.Record{}, err
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &record.Attributes); err != nil {
			return domain.Record{}, err
		}
	}
	return record, nil
}

// ReportStore combines record reductions with directory lookups to satisfy
// the aggregation engine's query surface.
type ReportStore struct {
	*RecordRepository
	*DirectoryRepository
}

// NewReportStore constructs a ReportStore over both repositories.
func NewReportStore(records *RecordRepository, directory *DirectoryRepository) *ReportStore {
	return &ReportStore{RecordRepository: records, DirectoryRepository: directory}
}

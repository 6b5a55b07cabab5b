//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/SRG1996AP/productivity-tracker/internal/domain"
	"github.com/SRG1996AP/productivity-tracker/internal/report"
)

func TestRepositoriesRoundTrip(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("tracker"),
		postgrescontainer.WithUsername("tracker"),
		postgrescontainer.WithPassword("tracker"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))
	require.NoError(t, Migrate(ctx, connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	directory := NewDirectoryRepository(pool)
	fields := NewFieldRepository(pool)
	records := NewRecordRepository(pool)

	unit, err := directory.CreateUnit(ctx, domain.Unit{Name: "IT", Description: "IT support"})
	require.NoError(t, err)

	actor, err := directory.CreateActor(ctx, domain.Actor{Name: "Dana Cruz", EmployeeID: "E-100", UnitID: unit.ID})
	require.NoError(t, err)

	def, err := fields.Insert(ctx, domain.FieldDefinition{
		UnitID: unit.ID,
		Name:   "priority",
		Label:  "Priority",
		Type:   domain.FieldSelect,
		Order:  1,
		Choices: []string{
			domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh, domain.PriorityUrgent,
		},
	})
	require.NoError(t, err)
	require.NotZero(t, def.ID)

	// Duplicate internal name within the unit must surface the sentinel.
	_, err = fields.Insert(ctx, domain.FieldDefinition{UnitID: unit.ID, Name: "priority", Label: "Again", Type: domain.FieldText})
	require.ErrorIs(t, err, domain.ErrDuplicateName)

	loggedAt := time.Date(2026, 8, 3, 9, 30, 0, 0, time.UTC)
	record := domain.Record{
		ID:          uuid.NewString(),
		UnitID:      unit.ID,
		ActorID:     actor.ID,
		Description: "Password reset for agent workstation",
		Category:    "Access Request",
		Priority:    domain.PriorityHigh,
		DurationMin: 15,
		Frequency:   1,
		Status:      domain.StatusLogged,
		Attributes:  domain.AttributeBag{"remarks": domain.TextValue("resolved on first contact")},
		LoggedAt:    loggedAt,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, records.Insert(ctx, record))

	stored, err := records.Get(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, record.Description, stored.Description)
	remark, ok := stored.Attributes.Get("remarks")
	require.True(t, ok)
	require.Equal(t, "resolved on first contact", remark.Text)

	// The insert transaction must leave exactly one unpublished outbox row.
	var outboxCount int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE aggregate_id = $1 AND published_at IS NULL`, record.ID).Scan(&outboxCount))
	require.Equal(t, 1, outboxCount)

	count, err := records.Count(ctx, domain.RecordFilter{UnitID: &unit.ID})
	require.NoError(t, err)
	require.Equal(t, 1, count)

	total, err := records.SumDuration(ctx, domain.RecordFilter{UnitID: &unit.ID})
	require.NoError(t, err)
	require.Equal(t, 15, total)

	byDay, err := records.CountByDay(ctx, domain.RecordFilter{UnitID: &unit.ID})
	require.NoError(t, err)
	require.Equal(t, 1, byDay["2026-08-03"])

	matrix, err := records.CountByWeekdayHour(ctx, domain.RecordFilter{UnitID: &unit.ID})
	require.NoError(t, err)
	// 2026-08-03 is a Monday; logged at 09:30 UTC.
	require.Equal(t, 1, matrix[1][9])

	require.NoError(t, records.UpdateStatus(ctx, record.ID, domain.StatusReviewed))
	stored, err = records.Get(ctx, record.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusReviewed, stored.Status)

	deleted, err := records.DeleteByUnit(ctx, unit.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	// The actor still references the unit; the delete surfaces the conflict
	// sentinel instead of a raw driver error.
	require.ErrorIs(t, directory.DeleteUnit(ctx, unit.ID), domain.ErrInUse)

	require.NoError(t, directory.DeleteActor(ctx, actor.ID))
	require.NoError(t, directory.DeleteUnit(ctx, unit.ID))
}

func TestCountByActorBreaksTiesByActorID(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("tracker"),
		postgrescontainer.WithUsername("tracker"),
		postgrescontainer.WithPassword("tracker"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))
	require.NoError(t, Migrate(ctx, connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	directory := NewDirectoryRepository(pool)
	records := NewRecordRepository(pool)

	unit, err := directory.CreateUnit(ctx, domain.Unit{Name: "Finance"})
	require.NoError(t, err)

	// Five actors; the second and fourth tie on seven entries each, with an
	// unrelated actor created between them.
	counts := []int{10, 7, 3, 7, 1}
	actorIDs := make([]int64, 0, len(counts))
	for i, n := range counts {
		actor, err := directory.CreateActor(ctx, domain.Actor{
			Name:       fmt.Sprintf("Actor %d", i+1),
			EmployeeID: fmt.Sprintf("E-%03d", i+1),
			UnitID:     unit.ID,
		})
		require.NoError(t, err)
		actorIDs = append(actorIDs, actor.ID)

		for j := 0; j < n; j++ {
			require.NoError(t, records.Insert(ctx, domain.Record{
				ID:          uuid.NewString(),
				UnitID:      unit.ID,
				ActorID:     actor.ID,
				Description: "Month-end reconciliation batch",
				Status:      domain.StatusLogged,
				LoggedAt:    time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC).Add(time.Duration(j) * time.Minute),
				CreatedAt:   time.Now().UTC(),
			}))
		}
	}

	top, err := records.CountByActor(ctx, domain.RecordFilter{UnitID: &unit.ID}, 3)
	require.NoError(t, err)

	// Count descending, ascending actor id on the tie.
	require.Equal(t, []report.ActorCount{
		{ActorID: actorIDs[0], Count: 10},
		{ActorID: actorIDs[1], Count: 7},
		{ActorID: actorIDs[3], Count: 7},
	}, top)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}

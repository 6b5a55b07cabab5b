package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubRecordRepo struct {
	inserted  []Record
	getResult *Record
	counts    map[string]int
	durations map[string]int
	statusID  string
	statusVal string
}

func filterKey(f RecordFilter) string {
	if f.From != nil {
		return "day"
	}
	return "all"
}

func (s *stubRecordRepo) Insert(ctx context.Context, record Record) error {
	s.inserted = append(s.inserted, record)
	return nil
}

func (s *stubRecordRepo) Get(ctx context.Context, recordID string) (*Record, error) {
	return s.getResult, nil
}

func (s *stubRecordRepo) List(ctx context.Context, filter RecordFilter, cursor *Cursor, limit int) ([]Record, *Cursor, error) {
	return nil, nil, nil
}

func (s *stubRecordRepo) Count(ctx context.Context, filter RecordFilter) (int, error) {
	return s.counts[filterKey(filter)], nil
}

func (s *stubRecordRepo) SumDuration(ctx context.Context, filter RecordFilter) (int, error) {
	return s.durations[filterKey(filter)], nil
}

func (s *stubRecordRepo) UpdateStatus(ctx context.Context, recordID, status string) error {
	s.statusID = recordID
	s.statusVal = status
	return nil
}

func (s *stubRecordRepo) DeleteByActor(ctx context.Context, actorID int64) (int64, error) {
	return 0, nil
}

func (s *stubRecordRepo) DeleteByUnit(ctx context.Context, unitID int64) (int64, error) {
	return 0, nil
}

func TestCreateRecordAssignsDefaults(t *testing.T) {
	repo := &stubRecordRepo{}
	svc := NewService(repo)

	record, err := svc.CreateRecord(context.Background(), CreateRecordInput{
		UnitID:      3,
		ActorID:     7,
		Description: "daily report consolidation",
		DurationMin: 45,
	})
	require.NoError(t, err)
	require.NotEmpty(t, record.ID)
	require.Equal(t, StatusLogged, record.Status)
	require.False(t, record.LoggedAt.IsZero())
	require.Equal(t, time.UTC, record.LoggedAt.Location())
	require.Len(t, repo.inserted, 1)
	require.Equal(t, record.ID, repo.inserted[0].ID)
}

func TestCreateRecordKeepsExplicitLoggedAt(t *testing.T) {
	repo := &stubRecordRepo{}
	svc := NewService(repo)

	loggedAt := time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)
	record, err := svc.CreateRecord(context.Background(), CreateRecordInput{
		UnitID:      1,
		ActorID:     1,
		Description: "backfilled entry",
		LoggedAt:    loggedAt,
	})
	require.NoError(t, err)
	require.True(t, record.LoggedAt.Equal(loggedAt))
}

func TestGetRecordNotFound(t *testing.T) {
	svc := NewService(&stubRecordRepo{})

	_, err := svc.GetRecord(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTransitionStatusRejectsUnknown(t *testing.T) {
	repo := &stubRecordRepo{}
	svc := NewService(repo)

	err := svc.TransitionStatus(context.Background(), "r1", "archived")
	require.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.TransitionStatus(context.Background(), "r1", StatusFlagged))
	require.Equal(t, "r1", repo.statusID)
	require.Equal(t, StatusFlagged, repo.statusVal)
}

func TestSummaryForActor(t *testing.T) {
	repo := &stubRecordRepo{
		counts:    map[string]int{"all": 12, "day": 3},
		durations: map[string]int{"all": 480, "day": 90},
	}
	svc := NewService(repo)

	summary, err := svc.SummaryForActor(context.Background(), 2, 9)
	require.NoError(t, err)
	require.Equal(t, 12, summary.TotalCount)
	require.Equal(t, 480, summary.TotalDuration)
	require.Equal(t, 3, summary.TodayCount)
	require.Equal(t, 90, summary.TodayDuration)
}

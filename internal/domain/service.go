// Package domain defines the record model and business logic for the
// productivity tracker.
package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RecordRepository captures the persistence surface the record service needs.
type RecordRepository interface {
	Insert(ctx context.Context, record Record) error
	Get(ctx context.Context, recordID string) (*Record, error)
	List(ctx context.Context, filter RecordFilter, cursor *Cursor, limit int) ([]Record, *Cursor, error)
	Count(ctx context.Context, filter RecordFilter) (int, error)
	SumDuration(ctx context.Context, filter RecordFilter) (int, error)
	UpdateStatus(ctx context.Context, recordID, status string) error
	DeleteByActor(ctx context.Context, actorID int64) (int64, error)
	DeleteByUnit(ctx context.Context, unitID int64) (int64, error)
}

// Service orchestrates record workflows.
type Service struct {
	repo RecordRepository
}

// NewService constructs a Service.
func NewService(repo RecordRepository) *Service {
	return &Service{repo: repo}
}

// CreateRecordInput is a validated submission ready for persistence. It is
// produced by the form materializer; the service trusts its contents.
type CreateRecordInput struct {
	UnitID      int64
	ActorID     int64
	Description string
	Category    string
	System      string
	Priority    string
	SLA         string
	Tool        string
	DurationMin int
	Frequency   int
	Attributes  AttributeBag
	LoggedAt    time.Time
}

// CreateRecord persists a validated submission, assigning the identifier and
// submission timestamp when unset. Record content is immutable afterwards.
func (s *Service) CreateRecord(ctx context.Context, input CreateRecordInput) (*Record, error) {
	now := time.Now().UTC()
	loggedAt := input.LoggedAt
	if loggedAt.IsZero() {
		loggedAt = now
	}

	record := Record{
		ID:          uuid.NewString(),
		UnitID:      input.UnitID,
		ActorID:     input.ActorID,
		Description: input.Description,
		Category:    input.Category,
		System:      input.System,
		Priority:    input.Priority,
		SLA:         input.SLA,
		Tool:        input.Tool,
		DurationMin: input.DurationMin,
		Frequency:   input.Frequency,
		Status:      StatusLogged,
		Attributes:  input.Attributes,
		LoggedAt:    loggedAt.UTC(),
		CreatedAt:   now,
	}

	if err := s.repo.Insert(ctx, record); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetRecord fetches one record by id.
func (s *Service) GetRecord(ctx context.Context, recordID string) (*Record, error) {
	record, err := s.repo.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNotFound
	}
	return record, nil
}

// ListRecords fetches records with keyset pagination, newest first.
func (s *Service) ListRecords(ctx context.Context, filter RecordFilter, cursor *Cursor, limit int) ([]Record, *Cursor, error) {
	return s.repo.List(ctx, filter, cursor, limit)
}

// TransitionStatus updates the status of a record. Content stays immutable;
// this is the only mutation allowed after submission.
func (s *Service) TransitionStatus(ctx context.Context, recordID, status string) error {
	switch status {
	case StatusLogged, StatusReviewed, StatusFlagged:
	default:
		return NewValidationErrors([]FieldError{{Field: "status", Message: "unknown status"}})
	}
	return s.repo.UpdateStatus(ctx, recordID, status)
}

// ActorSummary aggregates one actor's own activity for their dashboard.
type ActorSummary struct {
	TodayCount    int
	TodayDuration int
	TotalCount    int
	TotalDuration int
}

// SummaryForActor computes the calling actor's today/lifetime totals within
// their unit.
func (s *Service) SummaryForActor(ctx context.Context, unitID, actorID int64) (ActorSummary, error) {
	base := RecordFilter{UnitID: &unitID, ActorID: &actorID}

	var summary ActorSummary
	var err error
	if summary.TotalCount, err = s.repo.Count(ctx, base); err != nil {
		return ActorSummary{}, err
	}
	if summary.TotalDuration, err = s.repo.SumDuration(ctx, base); err != nil {
		return ActorSummary{}, err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	dayFilter := base
	dayFilter.From = &today
	dayFilter.To = &today
	if summary.TodayCount, err = s.repo.Count(ctx, dayFilter); err != nil {
		return ActorSummary{}, err
	}
	if summary.TodayDuration, err = s.repo.SumDuration(ctx, dayFilter); err != nil {
		return ActorSummary{}, err
	}
	return summary, nil
}

// PurgeActorRecords bulk-deletes an actor's records. Used only by the
// administrative cleanup flow; routine actor removal retains records.
func (s *Service) PurgeActorRecords(ctx context.Context, actorID int64) (int64, error) {
	return s.repo.DeleteByActor(ctx, actorID)
}

// PurgeUnitRecords bulk-deletes all records of a unit.
func (s *Service) PurgeUnitRecords(ctx context.Context, unitID int64) (int64, error) {
	return s.repo.DeleteByUnit(ctx, unitID)
}

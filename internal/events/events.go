// Package events defines the payloads published to the event stream. The
// structures are the wire contract for downstream consumers; fields are only
// ever added, never renamed.
package events

import "time"

// TopicRecordEvents carries record lifecycle events.
const TopicRecordEvents = "record_events"

// Event type discriminators.
const (
	TypeRecordCreated = "record.created"
)

// RecordCreated is emitted once per accepted submission, after the record
// and its outbox row commit in the same transaction.
type RecordCreated struct {
	RecordID    string    `json:"record_id"`
	UnitID      int64     `json:"unit_id"`
	ActorID     int64     `json:"actor_id"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Priority    string    `json:"priority"`
	DurationMin int       `json:"duration_min"`
	LoggedAt    time.Time `json:"logged_at"`
}

// RecordClassified is produced by the classifier after labeling a record.
type RecordClassified struct {
	RecordID     string    `json:"record_id"`
	Label        string    `json:"label"`
	Score        float64   `json:"score"`
	ClassifiedAt time.Time `json:"classified_at"`
}

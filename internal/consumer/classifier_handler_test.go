package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SRG1996AP/productivity-tracker/internal/events"
)

type stubClassificationStore struct {
	recordID string
	label    string
	score    float64
	calls    int
	err      error
}

func (s *stubClassificationStore) SaveClassification(ctx context.Context, recordID, label string, score float64) error {
	s.calls++
	s.recordID = recordID
	s.label = label
	s.score = score
	return s.err
}

func recordCreatedMessage(t *testing.T, event events.RecordCreated) Message {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return Message{EventType: events.TypeRecordCreated, Payload: payload}
}

func TestClassifyMatchesKeywordRatio(t *testing.T) {
	rules := []ClassifierRule{
		{Label: "incident", Keywords: []string{"outage", "escalation"}},
		{Label: "support", Keywords: []string{"ticket", "reset", "access", "installation"}},
	}

	label, score := Classify(rules, "Password RESET after access request ticket")
	require.Equal(t, "support", label)
	require.InDelta(t, 0.75, score, 1e-9)

	label, score = Classify(rules, "Handled network outage escalation")
	require.Equal(t, "incident", label)
	require.InDelta(t, 1.0, score, 1e-9)
}

func TestClassifyTiesKeepEarlierRule(t *testing.T) {
	rules := []ClassifierRule{
		{Label: "first", Keywords: []string{"alpha"}},
		{Label: "second", Keywords: []string{"beta"}},
	}

	label, score := Classify(rules, "alpha and beta both appear")
	require.Equal(t, "first", label)
	require.InDelta(t, 1.0, score, 1e-9)
}

func TestClassifyNoMatchIsGeneral(t *testing.T) {
	label, score := Classify(DefaultRules, "walked the floor")
	require.Equal(t, UnclassifiedLabel, label)
	require.Zero(t, score)
}

func TestHandleSavesClassification(t *testing.T) {
	store := &stubClassificationStore{}
	handler := NewClassifierHandler(store, nil)

	msg := recordCreatedMessage(t, events.RecordCreated{
		RecordID:    "rec-1",
		Description: "Monthly compliance audit review",
	})
	require.NoError(t, handler.Handle(context.Background(), msg))

	require.Equal(t, 1, store.calls)
	require.Equal(t, "rec-1", store.recordID)
	require.Equal(t, "audit", store.label)
	require.Greater(t, store.score, 0.0)
}

func TestHandleIgnoresOtherEventTypes(t *testing.T) {
	store := &stubClassificationStore{}
	handler := NewClassifierHandler(store, nil)

	err := handler.Handle(context.Background(), Message{EventType: "record.classified", Payload: []byte(`{}`)})
	require.NoError(t, err)
	require.Zero(t, store.calls)
}

func TestHandlePropagatesStoreError(t *testing.T) {
	store := &stubClassificationStore{err: errors.New("db down")}
	handler := NewClassifierHandler(store, nil)

	msg := recordCreatedMessage(t, events.RecordCreated{RecordID: "rec-2", Description: "audit"})
	err := handler.Handle(context.Background(), msg)
	require.ErrorContains(t, err, "rec-2")
}

func TestHandleRejectsMalformedPayload(t *testing.T) {
	store := &stubClassificationStore{}
	handler := NewClassifierHandler(store, nil)

	err := handler.Handle(context.Background(), Message{EventType: events.TypeRecordCreated, Payload: []byte(`[1,2]`)})
	require.Error(t, err)
	require.Zero(t, store.calls)
}

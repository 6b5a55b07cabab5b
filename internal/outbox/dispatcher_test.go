package outbox

import (
	"context"
	"errors"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type capturingWriter struct {
	batches map[string][]kafka.Message
	err     error
}

func (w *capturingWriter) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	if w.batches == nil {
		w.batches = make(map[string][]kafka.Message)
	}
	w.batches[topic] = append(w.batches[topic], msgs...)
	return nil
}

func TestDeliverGroupsPerTopic(t *testing.T) {
	writer := &capturingWriter{}
	d := NewDispatcher(nil, writer, nil, 0, 0)

	messages := []Message{
		{EventID: 1, Topic: "record_events", EventType: "record.created", PartitionKey: "3:7", Payload: []byte(`{"record_id":"a"}`)},
		{EventID: 2, Topic: "record_events", EventType: "record.created", PartitionKey: "3:8", Payload: []byte(`{"record_id":"b"}`)},
		{EventID: 3, Topic: "audit_events", EventType: "record.classified", PartitionKey: "3:7", Payload: []byte(`{"record_id":"a"}`)},
	}
	require.NoError(t, d.deliver(context.Background(), messages))

	require.Len(t, writer.batches, 2)
	require.Len(t, writer.batches["record_events"], 2)
	require.Len(t, writer.batches["audit_events"], 1)

	first := writer.batches["record_events"][0]
	require.Equal(t, []byte("3:7"), first.Key)
	require.JSONEq(t, `{"record_id":"a"}`, string(first.Value))
	require.Len(t, first.Headers, 1)
	require.Equal(t, "event_type", first.Headers[0].Key)
	require.Equal(t, []byte("record.created"), first.Headers[0].Value)
}

func TestDeliverPropagatesWriteError(t *testing.T) {
	writer := &capturingWriter{err: errors.New("broker unavailable")}
	d := NewDispatcher(nil, writer, nil, 0, 0)

	err := d.deliver(context.Background(), []Message{{EventID: 1, Topic: "record_events"}})
	require.ErrorContains(t, err, "broker unavailable")
}

func TestObserveBatchSizeReturnsToZero(t *testing.T) {
	gaugeValue := func() float64 {
		var m dto.Metric
		require.NoError(t, batchSizeGauge.Write(&m))
		return m.GetGauge().GetValue()
	}

	observeBatchSize(25)
	require.Equal(t, 25.0, gaugeValue())

	// An empty poll resets the gauge instead of pinning the last batch.
	observeBatchSize(0)
	require.Zero(t, gaugeValue())
}

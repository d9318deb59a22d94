package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/lmello0/status-page/internal/domain/kafka"
	"github.com/lmello0/status-page/internal/domain/status"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

type fakeWriter struct {
	msgs []kafkago.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestStatusEvents_PublishesJSONKeyedByComponent(t *testing.T) {
	w := &fakeWriter{}
	ev := NewStatusEventsKafka(newProducer(w, "status-events", zap.NewNop()))

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	err := ev.PublishStatusChanged(context.Background(), kafka.StatusChangedEvent{
		ComponentID: 12, ProductID: 3, ComponentName: "api",
		OldStatus: status.Operational, NewStatus: status.Outage, At: at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "12", string(w.msgs[0].Key))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &raw))
	assert.Equal(t, "OPERATIONAL", raw["oldStatus"])
	assert.Equal(t, "OUTAGE", raw["newStatus"])
	assert.Equal(t, float64(12), raw["componentId"])
}

func TestProducer_InjectsTraceHeaders(t *testing.T) {
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(sdktrace.NewTracerProvider())
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	w := &fakeWriter{}
	p := newProducer(w, "t", zap.NewNop())
	require.NoError(t, p.PublishJSON(context.Background(), []byte("k"), map[string]int{"a": 1}))

	require.Len(t, w.msgs, 1)
	assert.NotEmpty(t, mapCarrierFromKafka(w.msgs[0].Headers).Get("traceparent"))
}

func TestProducer_WriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := newProducer(&fakeWriter{err: boom}, "t", zap.NewNop())
	assert.ErrorIs(t, p.PublishJSON(context.Background(), nil, 1), boom)
}

func TestJSONHandler(t *testing.T) {
	var got kafka.StatusChangedEvent
	h := JSONHandler(func(_ context.Context, key []byte, ev kafka.StatusChangedEvent) error {
		got = ev
		assert.Equal(t, "5", string(key))
		return nil
	})

	require.NoError(t, h(context.Background(), []byte("5"), []byte(`{"componentId":5,"oldStatus":"DEGRADED","newStatus":"OPERATIONAL"}`)))
	assert.Equal(t, int64(5), got.ComponentID)
	assert.Equal(t, status.Degraded, got.OldStatus)

	assert.Error(t, h(context.Background(), nil, []byte(`{"newStatus":"BROKEN"}`)))
	assert.Error(t, h(context.Background(), nil, []byte(`not json`)))
}

func TestCarriers(t *testing.T) {
	m := mapCarrierHeaders{}
	m.Set("traceparent", "00-abc")
	hs := m.ToKafka()
	require.Len(t, hs, 1)

	c := mapCarrierFromKafka(hs)
	assert.Equal(t, "00-abc", c.Get("traceparent"))
	assert.Equal(t, "", c.Get("missing"))
	assert.Equal(t, []string{"traceparent"}, c.Keys())
}

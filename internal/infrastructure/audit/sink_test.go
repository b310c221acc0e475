package audit_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/metrologia-api/internal/domain/entity"
	"github.com/jhoicas/metrologia-api/internal/infrastructure/audit"
	"github.com/jhoicas/metrologia-api/internal/infrastructure/memory"
	"github.com/jhoicas/metrologia-api/internal/infrastructure/metrics"
)

type captureWriter struct {
	mu     sync.Mutex
	events []entity.ActivityEvent
	fail   bool
}

func (w *captureWriter) Write(_ context.Context, e entity.ActivityEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail {
		return errors.New("almacén caído")
	}
	w.events = append(w.events, e)
	return nil
}

func (w *captureWriter) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.events)
}

func event(action string) entity.ActivityEvent {
	return entity.ActivityEvent{
		ID:         action + "-id",
		ActorID:    "admin-1",
		Action:     action,
		EntityType: entity.ActivityEntityControl,
		EntityID:   "control-1",
		Details:    map[string]any{"status": "planned"},
	}
}

func TestAsyncSink_EscribeEnOrdenYVaciaAlApagar(t *testing.T) {
	w := &captureWriter{}
	m := metrics.New(prometheus.NewRegistry())
	sink := audit.NewAsyncSink(w, 16, nil, m)

	sink.Record(context.Background(), event(entity.ActivityCreate))
	sink.Record(context.Background(), event(entity.ActivityStart))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- sink.Run(ctx) }()

	require.Eventually(t, func() bool { return w.len() == 2 }, time.Second, 5*time.Millisecond)
	sink.Record(context.Background(), event(entity.ActivityComplete))
	cancel()
	require.NoError(t, <-errCh)
	<-sink.Done()

	assert.Equal(t, 3, w.len(), "lo encolado antes de apagar se escribe")
	assert.Equal(t, entity.ActivityCreate, w.events[0].Action)
	assert.Equal(t, entity.ActivityStart, w.events[1].Action)
	assert.False(t, w.events[0].CreatedAt.IsZero(), "Record fija la fecha si falta")
	assert.Equal(t, 3.0, testutil.ToFloat64(m.AuditEvents.WithLabelValues("recorded")))

	sink.Record(context.Background(), event(entity.ActivityDelete))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditEvents.WithLabelValues("dropped")), "tras apagar se descarta")
}

func TestAsyncSink_BufferLlenoDescartaSinBloquear(t *testing.T) {
	w := &captureWriter{}
	m := metrics.New(prometheus.NewRegistry())
	sink := audit.NewAsyncSink(w, 2, nil, m)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			sink.Record(context.Background(), event(entity.ActivityUpdate))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record bloqueó con el buffer lleno")
	}

	assert.Equal(t, 2, sink.Pending())
	assert.Equal(t, 3.0, testutil.ToFloat64(m.AuditEvents.WithLabelValues("dropped")))
}

func TestAsyncSink_FalloDeEscrituraNoDetieneElWorker(t *testing.T) {
	w := &captureWriter{fail: true}
	m := metrics.New(prometheus.NewRegistry())
	sink := audit.NewAsyncSink(w, 4, nil, m)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = sink.Run(ctx) }()

	sink.Record(ctx, event(entity.ActivityPay))
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.AuditEvents.WithLabelValues("failed")) == 1
	}, time.Second, 5*time.Millisecond)

	w.mu.Lock()
	w.fail = false
	w.mu.Unlock()
	sink.Record(ctx, event(entity.ActivityOverdue))
	require.Eventually(t, func() bool { return w.len() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-sink.Done()
}

func TestRepositoryWriter_PersisteEnElLog(t *testing.T) {
	store := memory.NewStore()
	w := audit.NewRepositoryWriter(store.Activity())

	e := event(entity.ActivityComplete)
	e.CreatedAt = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	require.NoError(t, w.Write(context.Background(), e))

	list, err := store.Activity().ListByEntity(context.Background(), entity.ActivityEntityControl, "control-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.ActivityComplete, list[0].Action)
	assert.Equal(t, "planned", list[0].Details["status"])
}

func TestStreamValues(t *testing.T) {
	e := event(entity.ActivityPay)
	e.CreatedAt = time.Date(2026, 3, 14, 10, 0, 0, 0, time.FixedZone("GMT+1", 3600))

	values, err := audit.StreamValues(e)
	require.NoError(t, err)
	assert.Equal(t, "PAY", values["action"])
	assert.Equal(t, "CONTROL", values["entity_type"])
	assert.Equal(t, "2026-03-14T09:00:00Z", values["created_at"])

	var details map[string]any
	require.NoError(t, json.Unmarshal([]byte(values["details"].(string)), &details))
	assert.Equal(t, "planned", details["status"])

	e.Details = nil
	values, err = audit.StreamValues(e)
	require.NoError(t, err)
	assert.Equal(t, "{}", values["details"])
}

func TestAsyncSink_ParadaConcurrente_NingunEventoQuedaPendiente(t *testing.T) {
	const (
		writers   = 8
		perWriter = 200
	)
	w := &captureWriter{}
	m := metrics.New(prometheus.NewRegistry())
	sink := audit.NewAsyncSink(w, 16, nil, m)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = sink.Run(ctx) }()

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				if i == 0 && j == perWriter/2 {
					cancel()
				}
				sink.Record(context.Background(), event(entity.ActivityUpdate))
			}
		}(i)
	}
	wg.Wait()
	<-sink.Done()

	recorded := testutil.ToFloat64(m.AuditEvents.WithLabelValues("recorded"))
	dropped := testutil.ToFloat64(m.AuditEvents.WithLabelValues("dropped"))
	assert.Equal(t, 0, sink.Pending(), "nada queda en el canal tras la parada")
	assert.Equal(t, float64(writers*perWriter), recorded+dropped, "cada evento se escribe o se descarta")
	assert.Equal(t, int(recorded), w.len())
}

package runner

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jalaliflow/internal/caldate"
	"jalaliflow/internal/model"
	"jalaliflow/internal/schedule"
	"jalaliflow/internal/store"
)

func seed(t *testing.T, s store.Store, evs ...*model.RecurringEvent) {
	for _, e := range evs {
		require.NoError(t, s.Create(context.Background(), e))
	}
}

func event(name string, freq schedule.Frequency, nextRun string, a model.Action) *model.RecurringEvent {
	return &model.RecurringEvent{Name: name, Frequency: freq, StartDate: "1404/01/01", NextRun: nextRun, Action: a}
}

func TestRunDueAdvancesNextRun(t *testing.T) {
	ctx := context.Background()
	s := store.NewFileStore(filepath.Join(t.TempDir(), "events.yaml"))

	var calls []string
	x := NewExecutor()
	x.Register("reports", "send", func(_ context.Context, ev model.RecurringEvent, args []string) error {
		calls = append(calls, ev.Name)
		return nil
	})
	x.HandleInline(func(_ context.Context, ev model.RecurringEvent, data []byte) error {
		calls = append(calls, ev.Name+":"+string(data))
		return nil
	})

	monthly := event("monthly", schedule.Monthly, "1404/01/01", model.Invoke("reports", "send"))
	yearly := event("yearly", schedule.Yearly, "1404/01/01", model.Inline([]byte("hi")))
	later := event("later", schedule.Daily, "1404/01/02", model.Invoke("reports", "send"))
	seed(t, s, monthly, yearly, later)

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	r := New(s, x, time.UTC, WithMetrics(m))

	rep, err := r.RunDue(ctx, caldate.New(1404, 1, 1))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"monthly", "yearly"}, rep.Executed)
	assert.ElementsMatch(t, []string{"monthly", "yearly:hi"}, calls)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsExecuted))

	got, err := s.Get(ctx, monthly.ID)
	require.NoError(t, err)
	assert.Equal(t, "1404/02/01", got.NextRun)
	got, err = s.Get(ctx, yearly.ID)
	require.NoError(t, err)
	assert.Equal(t, "1405/01/01", got.NextRun)
	got, err = s.Get(ctx, later.ID)
	require.NoError(t, err)
	assert.Equal(t, "1404/01/02", got.NextRun)
}

func TestRunDueIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	s := store.NewFileStore(filepath.Join(t.TempDir(), "events.yaml"))

	boom := errors.New("smtp down")
	x := NewExecutor()
	x.Register("mail", "send", func(context.Context, model.RecurringEvent, []string) error { return boom })
	x.Register("log", "info", func(context.Context, model.RecurringEvent, []string) error { return nil })

	failing := event("failing", schedule.Daily, "1404/02/24", model.Invoke("mail", "send"))
	unknown := event("unknown", schedule.Daily, "1404/02/24", model.Invoke("nobody", "home"))
	ok := event("ok", schedule.Weekly, "1404/02/20", model.Invoke("log", "info"))
	seed(t, s, failing, unknown, ok)

	m := NewMetrics(prometheus.NewRegistry())
	r := New(s, x, time.UTC, WithMetrics(m))
	rep, err := r.RunDue(ctx, caldate.New(1404, 2, 24))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrNoHandler)
	assert.Equal(t, []string{"ok"}, rep.Executed)
	assert.ElementsMatch(t, []string{"failing", "unknown"}, rep.Failed)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsFailed.WithLabelValues("action")))

	got, err := s.Get(ctx, failing.ID)
	require.NoError(t, err)
	assert.Equal(t, "1404/02/24", got.NextRun, "failed action keeps its next run")
	got, err = s.Get(ctx, ok.ID)
	require.NoError(t, err)
	assert.Equal(t, "1404/02/27", got.NextRun)
}

func TestRunTodayUsesLocation(t *testing.T) {
	s := store.NewFileStore(filepath.Join(t.TempDir(), "events.yaml"))
	tehran := time.FixedZone("IRST", 3*3600+1800)
	// 21:00 UTC on 2025-03-20 is already 1404/01/01 in Tehran.
	clock := func() time.Time { return time.Date(2025, 3, 20, 21, 0, 0, 0, time.UTC) }

	r := New(s, NewExecutor(), tehran, WithClock(clock))
	assert.Equal(t, caldate.New(1404, 1, 1), r.Today())

	rep, err := r.RunToday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1404/01/01", rep.Today)
	assert.Empty(t, rep.Executed)

	r = New(s, NewExecutor(), time.UTC, WithClock(clock))
	assert.Equal(t, caldate.New(1403, 12, 30), r.Today())
}

func TestServeRejectsBadSpec(t *testing.T) {
	r := New(store.NewFileStore(filepath.Join(t.TempDir(), "e.yaml")), NewExecutor(), time.UTC)
	err := r.Serve(context.Background(), "every day")
	assert.Error(t, err)
}

func TestServeStopsOnCancel(t *testing.T) {
	r := New(store.NewFileStore(filepath.Join(t.TempDir(), "e.yaml")), NewExecutor(), time.UTC)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx, "5 0 * * *") }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestExecutorRejectsInvalidAction(t *testing.T) {
	x := NewExecutor()
	err := x.Execute(context.Background(), model.RecurringEvent{Name: "x"})
	assert.ErrorIs(t, err, caldate.ErrInvalidArgument)

	err = x.Execute(context.Background(), model.RecurringEvent{Action: model.Inline([]byte("x"))})
	assert.ErrorIs(t, err, ErrNoHandler)
}

func TestBuiltinWebhook(t *testing.T) {
	var got webhookBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	x := NewExecutor()
	RegisterBuiltins(x, srv.Client())
	assert.ElementsMatch(t, []string{"log.info", "webhook.post"}, x.Handlers())

	ev := model.RecurringEvent{ID: "1", Name: "ping", Frequency: schedule.Daily, NextRun: "1404/02/24", Action: model.Invoke("webhook", "post", srv.URL)}
	require.NoError(t, x.Execute(context.Background(), ev))
	assert.Equal(t, webhookBody{ID: "1", Name: "ping", Frequency: "daily", RunDate: "1404/02/24"}, got)

	ev.Action = model.Invoke("webhook", "post")
	assert.Error(t, x.Execute(context.Background(), ev))

	ev.Action = model.Inline([]byte("payload"))
	assert.NoError(t, x.Execute(context.Background(), ev))
}

func TestBuiltinWebhookStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	x := NewExecutor()
	RegisterBuiltins(x, srv.Client())
	ev := model.RecurringEvent{Name: "ping", Action: model.Invoke("webhook", "post", srv.URL)}
	assert.Error(t, x.Execute(context.Background(), ev))
}

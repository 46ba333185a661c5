package updater

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/rodacerto/fuel-price-updater/internal/collector/static"
	"github.com/rodacerto/fuel-price-updater/internal/metrics"
	"github.com/rodacerto/fuel-price-updater/internal/models"
	"github.com/rodacerto/fuel-price-updater/internal/store"
	"github.com/rodacerto/fuel-price-updater/internal/supabase"
)

type stubEndpoint struct {
	mu     sync.Mutex
	bodies [][]byte
	paths  []string
}

func newStubEndpoint(t *testing.T, status int, respBody string) (*httptest.Server, *stubEndpoint) {
	t.Helper()
	stub := &stubEndpoint{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		stub.mu.Lock()
		stub.bodies = append(stub.bodies, body)
		stub.paths = append(stub.paths, r.Method+" "+r.URL.Path)
		stub.mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	t.Cleanup(srv.Close)
	return srv, stub
}

func newSupabase(t *testing.T, url string) *supabase.Client {
	t.Helper()
	c, err := supabase.New(supabase.Config{BaseURL: url, APIKey: "test-key"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("supabase.New: %v", err)
	}
	return c
}

func TestRunEndToEnd(t *testing.T) {
	srv, stub := newStubEndpoint(t, http.StatusCreated, "")

	var logs bytes.Buffer
	logger := zerolog.New(&logs)
	u := New(static.New(logger), newSupabase(t, srv.URL), logger)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	u.SetPrometheusMetrics(m)

	report, err := u.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(stub.bodies) != 1 {
		t.Fatalf("got %d requests, want exactly 1", len(stub.bodies))
	}
	if stub.paths[0] != "POST /rest/v1/fuel_prices" {
		t.Errorf("request = %s", stub.paths[0])
	}
	var payload []map[string]any
	if err := json.Unmarshal(stub.bodies[0], &payload); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(payload) != 6 {
		t.Fatalf("payload has %d entries, want 6", len(payload))
	}

	if report.RunID == "" {
		t.Error("RunID is empty")
	}
	if report.Result.Written != 6 || len(report.Observations) != 6 {
		t.Errorf("report = %+v", report)
	}

	if !strings.Contains(logs.String(), `"count":6`) || !strings.Contains(logs.String(), "6 price records updated") {
		t.Errorf("expected success log with count 6, logs: %s", logs.String())
	}

	snap := u.Stats().Snapshot()
	if !snap.LastSuccess || snap.TotalRuns != 1 || snap.LastWritten != 6 {
		t.Errorf("snapshot = %+v", snap)
	}

	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("runs_total{success} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RecordsWritten.WithLabelValues("supabase")); got != 6 {
		t.Errorf("records_written_total = %v, want 6", got)
	}
	if got := testutil.ToFloat64(m.CurrentPrice.WithLabelValues("RJ", "gasolina")); got != 6.12 {
		t.Errorf("current_price{RJ,gasolina} = %v, want 6.12", got)
	}
}

func TestRunLogsResponseBodyOnRejection(t *testing.T) {
	const body = `{"message":"permission denied for table fuel_prices"}`
	srv, _ := newStubEndpoint(t, http.StatusUnauthorized, body)

	var logs bytes.Buffer
	logger := zerolog.New(&logs)
	u := New(static.New(zerolog.Nop()), newSupabase(t, srv.URL), logger)

	_, err := u.Run(context.Background())

	var statusErr *store.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want *store.StatusError", err)
	}
	if !strings.Contains(logs.String(), "permission denied for table fuel_prices") {
		t.Errorf("failure log should contain the response body, logs: %s", logs.String())
	}
	if !strings.Contains(logs.String(), `"status":401`) {
		t.Errorf("failure log should contain the status, logs: %s", logs.String())
	}

	snap := u.Stats().Snapshot()
	if snap.LastSuccess || snap.TotalErrors != 1 || snap.LastError == nil {
		t.Errorf("snapshot = %+v", snap)
	}
}

type rejectingStore struct {
	store.NopStore
	err error
}

func (s *rejectingStore) Upsert(context.Context, []models.PriceObservation) (models.UpsertResult, error) {
	return models.UpsertResult{Store: "rest"}, s.err
}

func TestRunLogsTruncatedResponseBody(t *testing.T) {
	var logs bytes.Buffer
	s := &rejectingStore{err: &store.StatusError{
		StatusCode: http.StatusBadGateway,
		Body:       "upstream res",
		ReadErr:    io.ErrUnexpectedEOF,
	}}
	u := New(static.New(zerolog.Nop()), s, zerolog.New(&logs))

	if _, err := u.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(logs.String(), `"read_error":"unexpected EOF"`) {
		t.Errorf("failure log should flag the truncated body, logs: %s", logs.String())
	}
}

func TestRunLogsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var logs bytes.Buffer
	logger := zerolog.New(&logs)
	u := New(static.New(zerolog.Nop()), newSupabase(t, url), logger)

	_, err := u.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(logs.String(), "failed to upsert prices") {
		t.Errorf("expected transport failure log, logs: %s", logs.String())
	}
	if !strings.Contains(logs.String(), "connect") {
		t.Errorf("failure log should contain the transport message, logs: %s", logs.String())
	}
}

type failingCollector struct{}

func (failingCollector) Name() string { return "failing" }

func (failingCollector) Collect(context.Context) ([]models.PriceObservation, error) {
	return nil, errors.New("source down")
}

type countingStore struct {
	store.NopStore
	calls int
}

func (s *countingStore) Upsert(ctx context.Context, o []models.PriceObservation) (models.UpsertResult, error) {
	s.calls++
	return s.NopStore.Upsert(ctx, o)
}

func TestRunSkipsStoreWhenCollectionFails(t *testing.T) {
	s := &countingStore{}
	u := New(failingCollector{}, s, zerolog.Nop())

	_, err := u.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "source down") {
		t.Fatalf("err = %v", err)
	}
	if s.calls != 0 {
		t.Errorf("store called %d times, want 0", s.calls)
	}
}

func TestRunWithNopStore(t *testing.T) {
	u := New(static.New(zerolog.Nop()), &store.NopStore{}, zerolog.Nop())

	report, err := u.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Result.Written != 6 || report.Result.Store != "none" {
		t.Errorf("result = %+v", report.Result)
	}
	for i, rec := range report.Result.Records {
		if !rec.ObservedAt.Equal(report.Observations[i].ObservedAt) {
			t.Errorf("record %d lost its observation time", i)
		}
		if rec.UpdatedAt.Before(rec.ObservedAt) {
			t.Errorf("record %d updated_at before observed_at", i)
		}
	}
}

package main

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/WessleyAI/threadsnap/engine/thread"
	"github.com/WessleyAI/threadsnap/pkg/metrics"
)

type fakeStatus bool

func (f fakeStatus) IsConnected() bool { return bool(f) }

func testHandler(t *testing.T, connected bool) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics.NewRecorder(reg).ObserveExtraction(thread.OutcomeSuccess, 4, 0)
	return newHandler(reg, fakeStatus(connected), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHealthz(t *testing.T) {
	tests := []struct {
		connected bool
		code      int
		body      string
	}{
		{true, http.StatusOK, `"ok"`},
		{false, http.StatusServiceUnavailable, "nats disconnected"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		testHandler(t, tt.connected).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rec.Code != tt.code || !strings.Contains(rec.Body.String(), tt.body) {
			t.Errorf("connected=%v: got %d %q", tt.connected, rec.Code, rec.Body.String())
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	testHandler(t, true).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`threadsnap_extractions_total{outcome="success"} 1`,
		"threadsnap_comments_total 4",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in:\n%s", want, body)
		}
	}
}

func TestRejectsWrites(t *testing.T) {
	rec := httptest.NewRecorder()
	testHandler(t, true).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status %d", rec.Code)
	}
}

type fakeDrainer struct {
	err    error
	closed chan struct{}
}

func (d *fakeDrainer) Drain() error {
	if d.err == nil && d.closed != nil {
		go close(d.closed)
	}
	return d.err
}

func TestDrainWaitsForClose(t *testing.T) {
	closed := make(chan struct{})
	if err := drain(&fakeDrainer{closed: closed}, closed, time.Second); err != nil {
		t.Fatalf("drain: %v", err)
	}
}

func TestDrainTimesOut(t *testing.T) {
	if err := drain(&fakeDrainer{}, make(chan struct{}), 10*time.Millisecond); err == nil {
		t.Fatal("expected timeout")
	}
}

func TestDrainError(t *testing.T) {
	boom := errors.New("boom")
	if err := drain(&fakeDrainer{err: boom}, make(chan struct{}), time.Second); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

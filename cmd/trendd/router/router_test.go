package router

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HatiCode/hostpulse/pkg/policy"
	"github.com/HatiCode/hostpulse/pkg/report"
)

type fakeSource struct {
	rep report.Report
	ok  bool
}

func (f *fakeSource) Latest() (report.Report, bool) {
	return f.rep, f.ok
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSetupRoutes(t *testing.T) {
	mux := SetupRoutes(&fakeSource{}, nil, 2*time.Minute, testLogger())
	if mux == nil {
		t.Fatal("SetupRoutes() returned nil")
	}
}

func TestHealthEndpoint(t *testing.T) {
	mux := SetupRoutes(&fakeSource{}, nil, 2*time.Minute, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusOK)
	}

	body := w.Body.String()
	if body != "OK" {
		t.Errorf("body = %q, want %q", body, "OK")
	}
}

func TestReadyEndpoint(t *testing.T) {
	tests := []struct {
		name      string
		readiness func() error
		wantCode  int
	}{
		{name: "nil check is always ready", readiness: nil, wantCode: http.StatusOK},
		{name: "passing check", readiness: func() error { return nil }, wantCode: http.StatusOK},
		{
			name:      "failing check",
			readiness: func() error { return errors.New("redis unreachable") },
			wantCode:  http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := SetupRoutes(&fakeSource{}, tt.readiness, 2*time.Minute, testLogger())

			req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	mux := SetupRoutes(&fakeSource{}, nil, 2*time.Minute, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusOK)
	}

	if w.Header().Get("Content-Type") == "" {
		t.Error("Content-Type header should be set for metrics endpoint")
	}
}

func TestGetReport_NoneYet(t *testing.T) {
	mux := SetupRoutes(&fakeSource{ok: false}, nil, 2*time.Minute, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/report", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestGetReport_JSON(t *testing.T) {
	src := &fakeSource{
		rep: report.Report{
			GeneratedAt: time.Now(),
			Status:      report.StatusOK,
			DataPoints:  5,
			Warnings:    []policy.Warning{},
			Anomalies:   []policy.Anomaly{},
		},
		ok: true,
	}
	mux := SetupRoutes(src, nil, 2*time.Minute, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/report", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if w.Header().Get("X-Hostpulse-Stale") != "" {
		t.Error("fresh report should not carry the stale header")
	}

	var decoded map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if decoded["status"] != "ok" {
		t.Errorf("status = %v, want ok", decoded["status"])
	}
	if decoded["data_points"] != float64(5) {
		t.Errorf("data_points = %v, want 5", decoded["data_points"])
	}
}

func TestGetReport_TextFormat(t *testing.T) {
	src := &fakeSource{
		rep: report.Report{
			GeneratedAt: time.Now(),
			Status:      report.StatusOK,
			DataPoints:  3,
		},
		ok: true,
	}
	mux := SetupRoutes(src, nil, 2*time.Minute, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/report?format=text", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	if !strings.Contains(w.Body.String(), "# System Trend Analysis Report") {
		t.Error("text report should contain the report heading")
	}
}

type panickingSource struct{}

func (panickingSource) Latest() (report.Report, bool) {
	panic("report source exploded")
}

func TestHandlerPanic_Recovered(t *testing.T) {
	mux := SetupRoutes(panickingSource{}, nil, 2*time.Minute, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/report", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	var decoded map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("error response is not valid JSON: %v", err)
	}
	if decoded["error"] != "internal server error" {
		t.Errorf("error = %q, want %q", decoded["error"], "internal server error")
	}
}

func TestGetReport_StaleHeader(t *testing.T) {
	src := &fakeSource{
		rep: report.Report{
			GeneratedAt: time.Now().Add(-10 * time.Minute),
			Status:      report.StatusOK,
		},
		ok: true,
	}
	mux := SetupRoutes(src, nil, 2*time.Minute, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/report", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Header().Get("X-Hostpulse-Stale") != "true" {
		t.Error("old report should carry X-Hostpulse-Stale: true")
	}
}

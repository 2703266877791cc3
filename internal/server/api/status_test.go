package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStatusHandler_Get(t *testing.T) {
	handler := NewStatusHandler(newFakeController())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["symbol"] != "unknown" {
		t.Errorf("symbol = %v, want unknown", body["symbol"])
	}
	if body["enabled"] != true {
		t.Errorf("enabled = %v, want true", body["enabled"])
	}
}

func TestStatusHandler_MethodNotAllowed(t *testing.T) {
	handler := NewStatusHandler(newFakeController())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/status", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestRecognitionHandler_Update(t *testing.T) {
	ctl := newFakeController()
	handler := NewRecognitionHandler(ctl)

	req := httptest.NewRequest(http.MethodPut, "/api/recognition",
		strings.NewReader(`{"enabled": false, "threshold": 0.4}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp recognitionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Enabled {
		t.Error("expected recognition to be disabled")
	}
	if resp.Threshold != 0.4 {
		t.Errorf("threshold = %v, want 0.4", resp.Threshold)
	}
	if ctl.Table().Threshold() != 0.4 {
		t.Errorf("table threshold = %v, want 0.4", ctl.Table().Threshold())
	}
}

func TestRecognitionHandler_RejectsBadThreshold(t *testing.T) {
	ctl := newFakeController()
	handler := NewRecognitionHandler(ctl)

	for _, body := range []string{`{"threshold": 1}`, `{"threshold": -0.1}`, `not json`} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/recognition", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status %d, got %d", body, http.StatusBadRequest, rec.Code)
		}
	}

	if !ctl.Status().Enabled {
		t.Error("enabled should be untouched by rejected requests")
	}
}

func TestRecognitionHandler_Get(t *testing.T) {
	handler := NewRecognitionHandler(newFakeController())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/recognition", nil))

	var resp recognitionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Enabled || resp.Threshold != 0.01 {
		t.Errorf("got %+v, want enabled with threshold 0.01", resp)
	}
}

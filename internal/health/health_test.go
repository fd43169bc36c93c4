package health

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthz(t *testing.T) {
	w := httptest.NewRecorder()
	Healthz(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || w.Body.String() != "ok\n" {
		t.Errorf("got %d %q", w.Code, w.Body.String())
	}
}

func TestReadyz(t *testing.T) {
	ok := func() error { return nil }
	fail := func() error { return errors.New("no campaign table loaded") }

	tests := []struct {
		name   string
		checks []Checker
		want   int
		body   string
	}{
		{"no checks", nil, http.StatusOK, "ready\n"},
		{"all pass", []Checker{ok, ok}, http.StatusOK, "ready\n"},
		{"one fails", []Checker{ok, fail}, http.StatusServiceUnavailable, "not ready: no campaign table loaded\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			Readyz(tt.checks...)(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if w.Code != tt.want || w.Body.String() != tt.body {
				t.Errorf("got %d %q, want %d %q", w.Code, w.Body.String(), tt.want, tt.body)
			}
		})
	}
}

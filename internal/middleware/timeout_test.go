// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func serveWithTimeout(d time.Duration, h http.HandlerFunc) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	Timeout(d)(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
	return rr
}

func TestTimeout_FastHandlerPassesThrough(t *testing.T) {
	rr := serveWithTimeout(time.Second, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"e1"}}`))
	})

	if rr.Code != http.StatusCreated {
		t.Errorf("Status = %d, want %d", rr.Code, http.StatusCreated)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if body := rr.Body.String(); body != `{"data":{"id":"e1"}}` {
		t.Errorf("Body = %q", body)
	}
}

func TestTimeout_ImplicitOK(t *testing.T) {
	rr := serveWithTimeout(time.Second, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Errorf("got %d %q", rr.Code, rr.Body.String())
	}

	rr = serveWithTimeout(time.Second, func(http.ResponseWriter, *http.Request) {})
	if rr.Code != http.StatusOK {
		t.Errorf("empty handler status = %d, want 200", rr.Code)
	}
}

func TestTimeout_SlowHandlerGetsJSON503(t *testing.T) {
	rr := serveWithTimeout(50*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("partial"))
		<-r.Context().Done()
	})

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("Status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	var body APIError
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v (%q)", err, rr.Body.String())
	}
	if body.Error.Code != "timeout" {
		t.Errorf("code = %q, want timeout", body.Error.Code)
	}
}

func TestTimeout_ContextCarriesDeadline(t *testing.T) {
	var hasDeadline bool
	serveWithTimeout(time.Second, func(_ http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	})
	if !hasDeadline {
		t.Error("handler context should carry the deadline")
	}
}

func TestTimeout_PanicIsReraised(t *testing.T) {
	defer func() {
		if p := recover(); p != "boom" {
			t.Errorf("recovered %v, want boom", p)
		}
	}()
	serveWithTimeout(time.Second, func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	t.Error("panic should propagate")
}

func TestBufferedWriter_DropsWritesAfterAbandon(t *testing.T) {
	bw := newBufferedWriter()
	bw.WriteHeader(http.StatusAccepted)
	bw.WriteHeader(http.StatusTeapot)
	if bw.code != http.StatusAccepted {
		t.Errorf("code = %d, first WriteHeader wins", bw.code)
	}

	bw.abandon()
	if _, err := bw.Write([]byte("late")); !errors.Is(err, http.ErrHandlerTimeout) {
		t.Errorf("Write after abandon returned %v", err)
	}
	if bw.buf.Len() != 0 {
		t.Error("nothing should be buffered after abandon")
	}
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	ierr "github.com/olegiv/ibiza-nights/internal/errors"
	"github.com/olegiv/ibiza-nights/internal/middleware"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains list metadata.
type Meta struct {
	Total int `json:"total"`
}

// ErrorResponse is the standard API error response. It has the same shape
// as middleware.APIError.
type ErrorResponse = middleware.APIError

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteList writes a list response with its total.
func WriteList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	WriteSuccess(w, items, &Meta{Total: len(items)})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	middleware.WriteAPIError(w, statusCode, code, message, details)
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// writeServiceError maps a classified error to its status code and body.
// Unclassified errors become a 500 without leaking their text.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	sentinel := ierr.Sentinel(err)
	status := ierr.HTTPStatusFromErr(err)

	message := ierr.Hint(err)
	if message == "" {
		message = sentinel.Message
	}
	details := ierr.Details(err)

	if status >= http.StatusInternalServerError {
		h.logger.Error("api request failed",
			"op", op, "method", r.Method, "path", r.URL.Path, "error", err)
		if sentinel == ierr.ErrSystem {
			message, details = "Internal server error", nil
		}
	} else {
		h.logger.Debug("api request rejected",
			"op", op, "path", r.URL.Path, "code", sentinel.Code, "error", err)
	}

	WriteError(w, status, sentinel.Code, message, details)
}

// decodeBody reads the JSON request body into v. It writes a 400 and
// returns false when the body is not valid JSON for v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	raw, ok := readBody(w, r)
	if !ok {
		return false
	}
	return unmarshalBody(w, raw, v)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		WriteError(w, http.StatusRequestEntityTooLarge, "bad_request", "Request body too large", nil)
		return nil, false
	}
	return raw, true
}

func unmarshalBody(w http.ResponseWriter, raw []byte, v any) bool {
	if err := json.Unmarshal(raw, v); err != nil {
		slog.Debug("invalid request body", "error", err)
		WriteBadRequest(w, "Invalid JSON body", map[string]string{"body": err.Error()})
		return false
	}
	return true
}
